package repository

import (
	"context"

	"smartsacco/domain"
)

type AssessmentRepository interface {
	Save(ctx context.Context, assessment domain.Assessment) error
	FindByID(ctx context.Context, id string) (domain.Assessment, error)
	ListByMember(ctx context.Context, memberID string) ([]domain.Assessment, error)
}
