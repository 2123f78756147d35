package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

type Kind string

const (
	KindLogistic Kind = "logistic"
	KindLinear   Kind = "linear"
)

var ErrSchemaMismatch = errors.New("model artifact feature schema mismatch")

// Artifact is the on-disk description of a trained classifier.
type Artifact struct {
	Name      string    `yaml:"name" json:"name"`
	Version   int       `yaml:"version" json:"version"`
	Kind      Kind      `yaml:"kind" json:"kind"`
	Schema    string    `yaml:"schema" json:"schema"`
	Features  []string  `yaml:"features" json:"features"`
	Weights   []float64 `yaml:"weights" json:"weights"`
	Intercept float64   `yaml:"intercept" json:"intercept"`
	Threshold *float64  `yaml:"threshold" json:"threshold"`
	Scaler    *Scaler   `yaml:"scaler" json:"scaler"`
}

type Scaler struct {
	Mean  []float64 `yaml:"mean" json:"mean"`
	Scale []float64 `yaml:"scale" json:"scale"`
}

// Model is a loaded classifier together with the schema it accepts.
type Model struct {
	Classifier
	Name    string
	Version int
	Kind    Kind
	Schema  FeatureSchema
}

// Load reads the artifact at path and builds its classifier. The artifact
// must declare exactly the given schema.
func Load(path string, schema FeatureSchema) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var art Artifact
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(raw, &art)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &art)
	default:
		return nil, fmt.Errorf("unsupported model artifact extension %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parse model artifact %s: %w", path, err)
	}
	return Build(art, schema)
}

// Build validates art against schema and constructs its classifier.
func Build(art Artifact, schema FeatureSchema) (*Model, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if art.Schema != schema.ID() {
		return nil, fmt.Errorf("%w: artifact declares %q, service expects %q", ErrSchemaMismatch, art.Schema, schema.ID())
	}
	if !slices.Equal(art.Features, schema.Features) {
		return nil, fmt.Errorf("%w: artifact features %v, schema %s features %v", ErrSchemaMismatch, art.Features, schema.ID(), schema.Features)
	}

	n := len(schema.Features)
	if len(art.Weights) != n {
		return nil, fmt.Errorf("model artifact has %d weights for %d features", len(art.Weights), n)
	}
	ls := linearScore{weights: art.Weights, intercept: art.Intercept}
	if art.Scaler != nil {
		if len(art.Scaler.Mean) != n || len(art.Scaler.Scale) != n {
			return nil, fmt.Errorf("model artifact scaler must have %d mean and scale entries", n)
		}
		for i, s := range art.Scaler.Scale {
			if s == 0 {
				return nil, fmt.Errorf("model artifact scaler has zero scale for %q", schema.Features[i])
			}
		}
		ls.mean, ls.scale = art.Scaler.Mean, art.Scaler.Scale
	}

	m := &Model{Name: art.Name, Version: art.Version, Kind: art.Kind, Schema: schema}
	switch art.Kind {
	case KindLogistic:
		threshold := 0.5
		if art.Threshold != nil {
			threshold = *art.Threshold
		}
		if threshold <= 0 || threshold >= 1 {
			return nil, fmt.Errorf("logistic threshold must be in (0,1), got %v", threshold)
		}
		m.Classifier = &LogisticClassifier{linearScore: ls, threshold: threshold}
	case KindLinear:
		var threshold float64
		if art.Threshold != nil {
			threshold = *art.Threshold
		}
		m.Classifier = &LinearClassifier{linearScore: ls, threshold: threshold}
	default:
		return nil, fmt.Errorf("unknown model kind %q", art.Kind)
	}
	return m, nil
}
