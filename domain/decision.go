package domain

import "time"

// Decision is the normalized classifier output.
type Decision struct {
	Approved      bool    `json:"approved"`
	ConfidencePct float64 `json:"confidence_pct"`
}

// Outcome returns "approved" or "rejected".
func (d Decision) Outcome() string {
	if d.Approved {
		return "approved"
	}
	return "rejected"
}

type RuleID string

const (
	RuleOverLeveraged        RuleID = "over_leveraged"
	RuleCreditRisk           RuleID = "credit_risk"
	RuleInsufficientSecurity RuleID = "insufficient_security"
	RuleWeakGuarantors       RuleID = "weak_guarantors"
	RuleBlacklisted          RuleID = "blacklisted"
	RuleGeneralRisk          RuleID = "general_risk"
)

// RejectionReason is one entry of a rejection explanation.
type RejectionReason struct {
	Rule    RuleID `json:"rule"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (r RejectionReason) String() string {
	return r.Title + ": " + r.Message
}

type AssessmentInput struct {
	MemberID        string  `json:"member_id"`
	RequestedAmount float64 `json:"requested_amount"`
}

type EmailDraft struct {
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	MailtoURL string `json:"mailto_url"`
}

type Assessment struct {
	ID              string            `json:"id"`
	MemberID        string            `json:"member_id,omitempty"`
	Snapshot        MemberSnapshot    `json:"snapshot"`
	RequestedAmount float64           `json:"requested_amount"`
	Decision        Decision          `json:"decision"`
	Reasons         []RejectionReason `json:"reasons,omitempty"`
	Draft           *EmailDraft       `json:"draft,omitempty"`
	AdvisorNote     string            `json:"advisor_note,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}
