package service

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"smartsacco/domain"
)

// DraftComposer writes the notification email a credit officer opens in
// their own mail client. Nothing is sent from here.
type DraftComposer struct {
	cooperative string
	currency    string
	printer     *message.Printer
}

func NewDraftComposer(cooperative, currency string) *DraftComposer {
	return &DraftComposer{
		cooperative: cooperative,
		currency:    currency,
		printer:     message.NewPrinter(language.English),
	}
}

// FormatAmount renders amount like "KES 50,000".
func (c *DraftComposer) FormatAmount(amount float64) string {
	return c.currency + " " + c.printer.Sprintf("%.0f", amount)
}

func (c *DraftComposer) Compose(
	member domain.Member,
	requestedAmount float64,
	decision domain.Decision,
	reasons []domain.RejectionReason,
) domain.EmailDraft {

	var body strings.Builder
	fmt.Fprintf(&body, "Dear %s,\n\n", member.FirstName)
	if decision.Approved {
		fmt.Fprintf(&body, "Congratulations! Your loan application for %s has been APPROVED.\n\n", c.FormatAmount(requestedAmount))
		body.WriteString("Next Steps: Please visit our branch to sign the release forms.\n\n")
	} else {
		fmt.Fprintf(&body, "We regret to inform you that your loan application for %s was declined due to the following reasons:\n\n", c.FormatAmount(requestedAmount))
		for _, r := range reasons {
			body.WriteString("- " + r.String() + "\n")
		}
		body.WriteString("\nPlease contact the credit office if you wish to appeal this decision.\n\n")
	}
	fmt.Fprintf(&body, "Regards,\n%s Team", c.cooperative)

	subject := "Loan Application Status - " + member.FullName()
	return domain.EmailDraft{
		To:        member.Email,
		Subject:   subject,
		Body:      body.String(),
		MailtoURL: mailtoURL(member.Email, subject, body.String()),
	}
}

// mailtoURL percent-encodes subject and body so line breaks survive the
// hand-off to the mail client.
func mailtoURL(to, subject, body string) string {
	return "mailto:" + url.PathEscape(to) +
		"?subject=" + mailtoEscape(subject) +
		"&body=" + mailtoEscape(body)
}

// mailtoEscape is QueryEscape with spaces as %20; mail clients do not
// decode '+' in mailto headers.
func mailtoEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
