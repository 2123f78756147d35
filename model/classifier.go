package model

import (
	"fmt"
	"math"

	"smartsacco/domain"
)

// Class labels produced by Predict.
const (
	LabelReject  = 0
	LabelApprove = 1
)

// Classifier is a pre-trained binary classifier. Implementations must be
// safe for concurrent use once constructed.
type Classifier interface {
	Predict(features []float64) (int, error)
	// PredictProba returns one probability per class, indexed by label.
	PredictProba(features []float64) ([]float64, error)
}

// linearScore is a standardized linear function of the features.
type linearScore struct {
	weights   []float64
	intercept float64
	mean      []float64
	scale     []float64
}

func (l linearScore) score(features []float64) (float64, error) {
	if len(features) != len(l.weights) {
		return 0, fmt.Errorf("expected %d features, got %d", len(l.weights), len(features))
	}
	z := l.intercept
	for i, x := range features {
		if l.mean != nil {
			x = (x - l.mean[i]) / l.scale[i]
		}
		z += l.weights[i] * x
	}
	return z, nil
}

// LogisticClassifier is a logistic regression over standardized features.
type LogisticClassifier struct {
	linearScore
	threshold float64
}

func (c *LogisticClassifier) PredictProba(features []float64) ([]float64, error) {
	z, err := c.score(features)
	if err != nil {
		return nil, err
	}
	p := 1 / (1 + math.Exp(-z))
	return []float64{1 - p, p}, nil
}

func (c *LogisticClassifier) Predict(features []float64) (int, error) {
	probs, err := c.PredictProba(features)
	if err != nil {
		return 0, err
	}
	if probs[LabelApprove] >= c.threshold {
		return LabelApprove, nil
	}
	return LabelReject, nil
}

// LinearClassifier is a margin classifier (e.g. a linear SVM) that only
// yields labels.
type LinearClassifier struct {
	linearScore
	threshold float64
}

func (c *LinearClassifier) Predict(features []float64) (int, error) {
	z, err := c.score(features)
	if err != nil {
		return 0, err
	}
	if z >= c.threshold {
		return LabelApprove, nil
	}
	return LabelReject, nil
}

func (c *LinearClassifier) PredictProba([]float64) ([]float64, error) {
	return nil, domain.ErrProbabilitiesUnavailable
}
