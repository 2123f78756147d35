package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSnapshot(t *testing.T) {
	require.NoError(t, ValidateSnapshot(MemberSnapshot{TotalSavings: 0, CreditScore: 0}))

	err := ValidateSnapshot(MemberSnapshot{
		TotalSavings:            math.Inf(1),
		CreditScore:             -5,
		GuarantorCount:          -1,
		GuarantorAvgCreditScore: -1,
	})
	require.Error(t, err)

	var appErr AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrInvalidInputCode, appErr.Code)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, []string{"total_savings", "credit_score", "guarantor_count", "guarantor_avg_credit_score"}, verrs.Fields())
	assert.Equal(t, "must be a finite number", verrs[0].Reason)
	assert.Equal(t, "must be greater than or equal to 0", verrs[1].Reason)
}

func TestValidateRequestedAmount(t *testing.T) {
	require.NoError(t, ValidateRequestedAmount(0.01))

	for _, amount := range []float64{0, -100, math.Inf(1), math.NaN()} {
		err := ValidateRequestedAmount(amount)
		var verrs ValidationErrors
		require.True(t, errors.As(err, &verrs), "amount %v", amount)
		assert.Equal(t, []string{"requested_amount"}, verrs.Fields())
	}
}

func TestAppError(t *testing.T) {
	err := NewAppError(ErrRecordNotFoundCode, "", ErrMemberNotFound)
	assert.Equal(t, "record not found: member not found", err.Error())
	assert.True(t, errors.Is(err, ErrMemberNotFound))

	assert.Equal(t, "rate limit exceeded", NewAppError(ErrRateLimitedCode, "", nil).Error())
}

func TestMemberFullName(t *testing.T) {
	assert.Equal(t, "John Kamau", Member{FirstName: "John", LastName: "Kamau"}.FullName())
	assert.Equal(t, "Kamau", Member{LastName: "Kamau"}.FullName())
	assert.Equal(t, "John", Member{FirstName: "John"}.FullName())
}
