package domain

type CounterOfferInput struct {
	MemberID        string  `json:"member_id"`
	RequestedAmount float64 `json:"requested_amount"`
}

type CounterOfferCandidate struct {
	Amount        float64  `json:"amount"`
	Approved      bool     `json:"approved"`
	ConfidencePct float64  `json:"confidence_pct"`
	Violations    []RuleID `json:"violations,omitempty"`
}

type CounterOfferResult struct {
	MemberID          string                  `json:"member_id"`
	RequestedAmount   float64                 `json:"requested_amount"`
	RecommendedAmount float64                 `json:"recommended_amount"`
	ConfidencePct     float64                 `json:"confidence_pct"`
	Candidates        []CounterOfferCandidate `json:"candidates"`
}
