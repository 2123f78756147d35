package repository

import (
	"context"
	"strings"

	"smartsacco/domain"
)

type MemberRepository interface {
	FindByID(ctx context.Context, id string) (domain.Member, error)
	// Search matches query as a substring of the first name, last name
	// (both case-insensitive) or member id.
	Search(ctx context.Context, query string) ([]domain.Member, error)
}

func memberNotFound(id string) error {
	return domain.NewAppError(domain.ErrRecordNotFoundCode, "member "+id+" not found", domain.ErrMemberNotFound)
}

func normalizeQuery(query string) (string, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", domain.NewAppError(domain.ErrInvalidInputCode, "search query is required",
			domain.ValidationErrors{{Field: "q", Reason: "is required"}})
	}
	return q, nil
}

func matchesMember(m domain.Member, query string) bool {
	lq := strings.ToLower(query)
	return strings.Contains(strings.ToLower(m.FirstName), lq) ||
		strings.Contains(strings.ToLower(m.LastName), lq) ||
		strings.Contains(m.ID, query)
}
