package model

import (
	"fmt"

	"smartsacco/domain"
)

// Feature names as the training pipeline wrote them.
const (
	FeatureTotalSavings            = "total_savings"
	FeatureLoanAmountRequested     = "loan_amount_requested"
	FeatureCreditScore             = "credit_score"
	FeatureGuarantorCount          = "guarantor_count"
	FeatureGuarantorAvgCreditScore = "guarantor_avg_credit_score"
	FeatureHasDefaultedBefore      = "has_defaulted_before"
)

// FeatureSchema is a named, versioned column order for classifier input.
// A model artifact declares the schema it was trained on and Load refuses
// artifacts whose declaration differs.
type FeatureSchema struct {
	Name     string
	Version  int
	Features []string
}

var SaccoFeaturesV1 = FeatureSchema{
	Name:    "sacco-features",
	Version: 1,
	Features: []string{
		FeatureTotalSavings,
		FeatureLoanAmountRequested,
		FeatureCreditScore,
		FeatureGuarantorCount,
		FeatureGuarantorAvgCreditScore,
		FeatureHasDefaultedBefore,
	},
}

func (s FeatureSchema) ID() string {
	return fmt.Sprintf("%s/v%d", s.Name, s.Version)
}

type extractor func(domain.MemberSnapshot, float64) float64

var extractors = map[string]extractor{
	FeatureTotalSavings: func(s domain.MemberSnapshot, _ float64) float64 {
		return s.TotalSavings
	},
	FeatureLoanAmountRequested: func(_ domain.MemberSnapshot, amount float64) float64 {
		return amount
	},
	FeatureCreditScore: func(s domain.MemberSnapshot, _ float64) float64 {
		return float64(s.CreditScore)
	},
	FeatureGuarantorCount: func(s domain.MemberSnapshot, _ float64) float64 {
		return float64(s.GuarantorCount)
	},
	FeatureGuarantorAvgCreditScore: func(s domain.MemberSnapshot, _ float64) float64 {
		return float64(s.GuarantorAvgCreditScore)
	},
	FeatureHasDefaultedBefore: func(s domain.MemberSnapshot, _ float64) float64 {
		if s.HasDefaultedBefore {
			return 1
		}
		return 0
	},
}

// Validate checks that every feature of the schema can be extracted.
func (s FeatureSchema) Validate() error {
	if len(s.Features) == 0 {
		return fmt.Errorf("feature schema %s has no features", s.ID())
	}
	seen := make(map[string]bool, len(s.Features))
	for _, name := range s.Features {
		if _, ok := extractors[name]; !ok {
			return fmt.Errorf("feature schema %s: unknown feature %q", s.ID(), name)
		}
		if seen[name] {
			return fmt.Errorf("feature schema %s: duplicate feature %q", s.ID(), name)
		}
		seen[name] = true
	}
	return nil
}

// Vector builds the classifier input in schema order.
func (s FeatureSchema) Vector(snapshot domain.MemberSnapshot, requestedAmount float64) []float64 {
	vec := make([]float64, len(s.Features))
	for i, name := range s.Features {
		if fn, ok := extractors[name]; ok {
			vec[i] = fn(snapshot, requestedAmount)
		}
	}
	return vec
}
