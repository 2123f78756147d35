package service

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartsacco/domain"
)

var draftMember = domain.Member{
	ID:        "101",
	FirstName: "John",
	LastName:  "Kamau",
	Email:     "john.kamau@example.com",
}

func TestDraftComposer_Approved(t *testing.T) {
	c := NewDraftComposer("SmartSacco", "KES")

	draft := c.Compose(draftMember, 50000, domain.Decision{Approved: true, ConfidencePct: 91}, nil)
	assert.Equal(t, "john.kamau@example.com", draft.To)
	assert.Equal(t, "Loan Application Status - John Kamau", draft.Subject)
	assert.True(t, strings.HasPrefix(draft.Body, "Dear John,\n\n"))
	assert.Contains(t, draft.Body, "Your loan application for KES 50,000 has been APPROVED.")
	assert.True(t, strings.HasSuffix(draft.Body, "Regards,\nSmartSacco Team"))
}

func TestDraftComposer_RejectedListsReasonsInOrder(t *testing.T) {
	c := NewDraftComposer("SmartSacco", "KES")
	reasons := []domain.RejectionReason{
		{Rule: domain.RuleCreditRisk, Title: "Credit Risk", Message: "Member score (550) is below the acceptable threshold of 600."},
		{Rule: domain.RuleBlacklisted, Title: "Blacklisted", Message: "Member has a record of previous default."},
	}

	draft := c.Compose(draftMember, 1250000, domain.Decision{}, reasons)
	assert.Contains(t, draft.Body, "for KES 1,250,000 was declined")
	assert.Contains(t, draft.Body,
		"- Credit Risk: Member score (550) is below the acceptable threshold of 600.\n"+
			"- Blacklisted: Member has a record of previous default.\n")
	assert.Contains(t, draft.Body, "appeal this decision")
}

func TestDraftComposer_MailtoURLRoundTrips(t *testing.T) {
	c := NewDraftComposer("Umoja & Sons", "KES")
	draft := c.Compose(draftMember, 5000, domain.Decision{Approved: true}, nil)

	require.True(t, strings.HasPrefix(draft.MailtoURL, "mailto:john.kamau@example.com?subject="))
	assert.NotContains(t, draft.MailtoURL, " ")
	assert.NotContains(t, draft.MailtoURL, "\n")
	assert.NotContains(t, draft.MailtoURL, "+")

	u, err := url.Parse(draft.MailtoURL)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, draft.Subject, q.Get("subject"))
	assert.Equal(t, draft.Body, q.Get("body"))
}

func TestDraftComposer_FormatAmount(t *testing.T) {
	c := NewDraftComposer("SmartSacco", "UGX")
	assert.Equal(t, "UGX 1,000", c.FormatAmount(1000))
	assert.Equal(t, "UGX 999", c.FormatAmount(999.4))
}
