package domain

// MemberSnapshot holds the financial attributes of a member at decision time.
type MemberSnapshot struct {
	TotalSavings            float64 `json:"total_savings" validate:"gte=0,finite"`
	CreditScore             int     `json:"credit_score" validate:"gte=0"`
	GuarantorCount          int     `json:"guarantor_count" validate:"gte=0"`
	GuarantorAvgCreditScore int     `json:"guarantor_avg_credit_score" validate:"gte=0"`
	HasDefaultedBefore      bool    `json:"has_defaulted_before"`
}

type Member struct {
	ID        string         `json:"member_id"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Email     string         `json:"email"`
	Snapshot  MemberSnapshot `json:"snapshot"`
}

// FullName returns "first last" without dangling spaces.
func (m Member) FullName() string {
	switch {
	case m.FirstName == "":
		return m.LastName
	case m.LastName == "":
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}

type LoanRequest struct {
	RequestedAmount float64 `json:"requested_amount" validate:"gt=0,finite"`
}
