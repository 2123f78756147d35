package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsacco/domain"
)

const logisticYAML = `name: test-risk
version: 1
kind: logistic
schema: sacco-features/v1
features: [total_savings, loan_amount_requested, credit_score, guarantor_count, guarantor_avg_credit_score, has_defaulted_before]
weights: [1, -1, 0, 0, 0, 0]
intercept: 0
`

func writeArtifact(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_LogisticYAML(t *testing.T) {
	m, err := Load(writeArtifact(t, "model.yaml", logisticYAML), SaccoFeaturesV1)
	require.NoError(t, err)
	assert.Equal(t, "test-risk", m.Name)
	assert.Equal(t, KindLogistic, m.Kind)

	// savings == amount: z = 0, p = 0.5, threshold 0.5 -> approve
	probs, err := m.PredictProba([]float64{100, 100, 0, 0, 0, 0})
	require.NoError(t, err)
	require.Len(t, probs, 2)
	assert.InDelta(t, 0.5, probs[0], 1e-9)
	assert.InDelta(t, 0.5, probs[1], 1e-9)

	label, err := m.Predict([]float64{10, 1000, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, LabelReject, label)

	label, err = m.Predict([]float64{1000, 10, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, LabelApprove, label)
}

func TestLoad_LinearJSONHasNoProbabilities(t *testing.T) {
	content := `{"name":"svm","version":3,"kind":"linear","schema":"sacco-features/v1",
"features":["total_savings","loan_amount_requested","credit_score","guarantor_count","guarantor_avg_credit_score","has_defaulted_before"],
"weights":[0,0,1,0,0,0],"intercept":-600}`
	m, err := Load(writeArtifact(t, "model.json", content), SaccoFeaturesV1)
	require.NoError(t, err)

	label, err := m.Predict([]float64{0, 0, 650, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, LabelApprove, label)

	_, err = m.PredictProba([]float64{0, 0, 650, 0, 0, 0})
	assert.ErrorIs(t, err, domain.ErrProbabilitiesUnavailable)
}

func TestLoad_Errors(t *testing.T) {
	cases := []struct {
		name    string
		file    string
		content string
		schema  bool
	}{
		{name: "wrong schema", file: "m.yaml", content: "kind: logistic\nschema: sacco-features/v2\n", schema: true},
		{name: "reordered features", file: "m.yaml", schema: true, content: `kind: logistic
schema: sacco-features/v1
features: [loan_amount_requested, total_savings, credit_score, guarantor_count, guarantor_avg_credit_score, has_defaulted_before]
weights: [0, 0, 0, 0, 0, 0]
`},
		{name: "weight count", file: "m.yaml", content: `kind: logistic
schema: sacco-features/v1
features: [total_savings, loan_amount_requested, credit_score, guarantor_count, guarantor_avg_credit_score, has_defaulted_before]
weights: [1, 2]
`},
		{name: "zero scale", file: "m.yaml", content: `kind: logistic
schema: sacco-features/v1
features: [total_savings, loan_amount_requested, credit_score, guarantor_count, guarantor_avg_credit_score, has_defaulted_before]
weights: [0, 0, 0, 0, 0, 0]
scaler: {mean: [0, 0, 0, 0, 0, 0], scale: [1, 1, 0, 1, 1, 1]}
`},
		{name: "unknown kind", file: "m.yaml", content: `kind: forest
schema: sacco-features/v1
features: [total_savings, loan_amount_requested, credit_score, guarantor_count, guarantor_avg_credit_score, has_defaulted_before]
weights: [0, 0, 0, 0, 0, 0]
`},
		{name: "malformed yaml", file: "m.yaml", content: "kind: [logistic\n"},
		{name: "unsupported extension", file: "m.pkl", content: "binary"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeArtifact(t, tc.file, tc.content), SaccoFeaturesV1)
			require.Error(t, err)
			if tc.schema {
				assert.ErrorIs(t, err, ErrSchemaMismatch)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), SaccoFeaturesV1)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_BundledArtifact(t *testing.T) {
	m, err := Load(filepath.Join("..", "models", "smartsacco_risk_v2.yaml"), SaccoFeaturesV1)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Version)

	strong := SaccoFeaturesV1.Vector(domain.MemberSnapshot{
		TotalSavings: 100000, CreditScore: 700, GuarantorCount: 3, GuarantorAvgCreditScore: 700,
	}, 50000)
	label, err := m.Predict(strong)
	require.NoError(t, err)
	assert.Equal(t, LabelApprove, label)

	weak := SaccoFeaturesV1.Vector(domain.MemberSnapshot{
		TotalSavings: 1000, CreditScore: 450, GuarantorCount: 0, HasDefaultedBefore: true,
	}, 200000)
	label, err = m.Predict(weak)
	require.NoError(t, err)
	assert.Equal(t, LabelReject, label)
}

func TestPredict_FeatureCountMismatch(t *testing.T) {
	m, err := Load(writeArtifact(t, "model.yaml", logisticYAML), SaccoFeaturesV1)
	require.NoError(t, err)
	_, err = m.Predict([]float64{1, 2, 3})
	assert.Error(t, err)
}
