package service

import (
	"fmt"

	"smartsacco/domain"
)

type rule struct {
	id    domain.RuleID
	title string
	// check reports whether the rule is violated and, if so, the message.
	check func(s domain.MemberSnapshot, requestedAmount float64) (bool, string)
}

// rules are evaluated in this order and reasons keep it.
var rules = []rule{
	{
		id:    domain.RuleOverLeveraged,
		title: "Over-Leveraged",
		check: func(s domain.MemberSnapshot, amount float64) (bool, string) {
			m := LeverageMultiplier(s.TotalSavings, amount)
			if m <= MaxLeverageMultiplier {
				return false, ""
			}
			return true, fmt.Sprintf("Request is %.1fx their savings. (Limit is %.1fx)", m, MaxLeverageMultiplier)
		},
	},
	{
		id:    domain.RuleCreditRisk,
		title: "Credit Risk",
		check: func(s domain.MemberSnapshot, _ float64) (bool, string) {
			if s.CreditScore >= MinCreditScore {
				return false, ""
			}
			return true, fmt.Sprintf("Member score (%d) is below the acceptable threshold of %d.", s.CreditScore, MinCreditScore)
		},
	},
	{
		id:    domain.RuleInsufficientSecurity,
		title: "Insufficient Security",
		check: func(s domain.MemberSnapshot, _ float64) (bool, string) {
			if s.GuarantorCount >= MinGuarantorCount {
				return false, ""
			}
			return true, fmt.Sprintf("%d guarantors provided. Minimum required is %d.", s.GuarantorCount, MinGuarantorCount)
		},
	},
	{
		// Evaluated even without guarantors, so it fires alongside
		// Insufficient Security when the average is recorded as 0.
		id:    domain.RuleWeakGuarantors,
		title: "Weak Guarantors",
		check: func(s domain.MemberSnapshot, _ float64) (bool, string) {
			if s.GuarantorAvgCreditScore >= MinGuarantorAvgCreditScore {
				return false, ""
			}
			return true, fmt.Sprintf("Average guarantor score (%d) is below the acceptable threshold of %d.",
				s.GuarantorAvgCreditScore, MinGuarantorAvgCreditScore)
		},
	},
	{
		id:    domain.RuleBlacklisted,
		title: "Blacklisted",
		check: func(s domain.MemberSnapshot, _ float64) (bool, string) {
			if !s.HasDefaultedBefore {
				return false, ""
			}
			return true, "Member has a record of previous default."
		},
	},
}

var generalRiskReason = domain.RejectionReason{
	Rule:    domain.RuleGeneralRisk,
	Title:   "General Risk Profile",
	Message: "The model detected a pattern of high risk not captured by standard rules.",
}

// LeverageMultiplier is requestedAmount / totalSavings, or
// ZeroSavingsMultiplier when there are no savings.
func LeverageMultiplier(totalSavings, requestedAmount float64) float64 {
	if totalSavings == 0 {
		return ZeroSavingsMultiplier
	}
	return requestedAmount / totalSavings
}

// ExplanationEngine explains rejections with the cooperative's risk rules.
// It holds no state and is safe for concurrent use.
type ExplanationEngine struct{}

func NewExplanationEngine() *ExplanationEngine {
	return &ExplanationEngine{}
}

// Violations returns one reason per violated rule in evaluation order.
// The result is empty when the snapshot passes every rule.
func (e *ExplanationEngine) Violations(
	snapshot domain.MemberSnapshot,
	requestedAmount float64,
) ([]domain.RejectionReason, error) {

	if err := domain.ValidateSnapshot(snapshot); err != nil {
		return nil, err
	}
	if err := domain.ValidateRequestedAmount(requestedAmount); err != nil {
		return nil, err
	}

	reasons := make([]domain.RejectionReason, 0, len(rules))
	for _, r := range rules {
		if fired, msg := r.check(snapshot, requestedAmount); fired {
			reasons = append(reasons, domain.RejectionReason{Rule: r.id, Title: r.title, Message: msg})
		}
	}
	return reasons, nil
}

// Explain returns the reasons a rejected request violates. It never returns
// an empty slice without an error: when no rule fires the single general
// risk reason is returned instead.
func (e *ExplanationEngine) Explain(
	snapshot domain.MemberSnapshot,
	requestedAmount float64,
) ([]domain.RejectionReason, error) {

	reasons, err := e.Violations(snapshot, requestedAmount)
	if err != nil {
		return nil, err
	}
	if len(reasons) == 0 {
		reasons = append(reasons, generalRiskReason)
	}
	return reasons, nil
}
