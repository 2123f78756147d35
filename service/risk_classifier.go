package service

import (
	"errors"
	"math"

	"smartsacco/domain"
	"smartsacco/model"
)

// RiskClassifier turns a member snapshot into an approve/reject decision
// using a pre-trained classifier.
type RiskClassifier struct {
	classifier model.Classifier
	schema     model.FeatureSchema
}

// NewRiskClassifier creates a RiskClassifier feeding classifier vectors
// built with schema. The classifier must have been trained on schema.
func NewRiskClassifier(classifier model.Classifier, schema model.FeatureSchema) *RiskClassifier {
	return &RiskClassifier{classifier: classifier, schema: schema}
}

// Decide predicts the class for the snapshot and requested amount and
// derives the confidence of that prediction.
func (c *RiskClassifier) Decide(
	snapshot domain.MemberSnapshot,
	requestedAmount float64,
) (domain.Decision, error) {

	if err := domain.ValidateSnapshot(snapshot); err != nil {
		return domain.Decision{}, err
	}
	if err := domain.ValidateRequestedAmount(requestedAmount); err != nil {
		return domain.Decision{}, err
	}

	features := c.schema.Vector(snapshot, requestedAmount)

	label, err := c.classifier.Predict(features)
	if err != nil {
		return domain.Decision{}, domain.NewAppError(domain.ErrInferenceCode, "", err)
	}
	approved := label == model.LabelApprove

	probs, err := c.classifier.PredictProba(features)
	if err != nil && !errors.Is(err, domain.ErrProbabilitiesUnavailable) {
		return domain.Decision{}, domain.NewAppError(domain.ErrInferenceCode, "", err)
	}

	return domain.Decision{
		Approved:      approved,
		ConfidencePct: confidencePct(approved, probs),
	}, nil
}

// confidencePct is the probability of the predicted class as a percentage.
// Without a two-column distribution it degrades to 100 (approve) or 0 (reject).
func confidencePct(approved bool, probs []float64) float64 {
	fallback := 0.0
	if approved {
		fallback = 100
	}
	if len(probs) != 2 {
		return fallback
	}

	p := probs[model.LabelReject]
	if approved {
		p = probs[model.LabelApprove]
	}
	if math.IsNaN(p) {
		return fallback
	}
	return math.Min(100, math.Max(0, p*100))
}
