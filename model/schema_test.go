package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"smartsacco/domain"
)

func TestVector_FixedOrderAndBooleanEncoding(t *testing.T) {
	s := domain.MemberSnapshot{
		TotalSavings:            10000,
		CreditScore:             650,
		GuarantorCount:          2,
		GuarantorAvgCreditScore: 640,
		HasDefaultedBefore:      true,
	}
	assert.Equal(t, []float64{10000, 50000, 650, 2, 640, 1}, SaccoFeaturesV1.Vector(s, 50000))

	s.HasDefaultedBefore = false
	assert.Equal(t, 0.0, SaccoFeaturesV1.Vector(s, 50000)[5])
}

func TestFeatureSchema_Validate(t *testing.T) {
	assert.NoError(t, SaccoFeaturesV1.Validate())
	assert.Equal(t, "sacco-features/v1", SaccoFeaturesV1.ID())

	unknown := FeatureSchema{Name: "x", Version: 1, Features: []string{"income"}}
	assert.Error(t, unknown.Validate())

	dup := FeatureSchema{Name: "x", Version: 1, Features: []string{FeatureCreditScore, FeatureCreditScore}}
	assert.Error(t, dup.Validate())

	assert.Error(t, FeatureSchema{Name: "x", Version: 1}.Validate())
}
