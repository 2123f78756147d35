package repository

import (
	"context"
	"sync"

	"smartsacco/domain"
)

// AssessmentRepositoryMemory is an in-memory implementation of AssessmentRepository.
type AssessmentRepositoryMemory struct {
	mu       sync.RWMutex
	data     []domain.Assessment
	byID     map[string]int
	capacity int
}

// NewAssessmentRepositoryMemory keeps at most capacity assessments,
// dropping the oldest first. A capacity <= 0 keeps everything.
func NewAssessmentRepositoryMemory(capacity int) *AssessmentRepositoryMemory {
	return &AssessmentRepositoryMemory{
		data:     []domain.Assessment{},
		byID:     make(map[string]int),
		capacity: capacity,
	}
}

// Save stores the assessment in memory.
func (r *AssessmentRepositoryMemory) Save(_ context.Context, assessment domain.Assessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data = append(r.data, assessment)
	if r.capacity > 0 && len(r.data) > r.capacity {
		r.data = append([]domain.Assessment(nil), r.data[len(r.data)-r.capacity:]...)
		r.reindex()
		return nil
	}
	r.byID[assessment.ID] = len(r.data) - 1
	return nil
}

func (r *AssessmentRepositoryMemory) reindex() {
	r.byID = make(map[string]int, len(r.data))
	for i, a := range r.data {
		r.byID[a.ID] = i
	}
}

func (r *AssessmentRepositoryMemory) FindByID(_ context.Context, id string) (domain.Assessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.byID[id]
	if !ok {
		return domain.Assessment{}, domain.NewAppError(domain.ErrRecordNotFoundCode, "assessment not found", domain.ErrAssessmentNotFound)
	}
	return r.data[i], nil
}

// ListByMember returns the member's assessments, oldest first.
func (r *AssessmentRepositoryMemory) ListByMember(_ context.Context, memberID string) ([]domain.Assessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Assessment{}
	for _, a := range r.data {
		if a.MemberID == memberID {
			out = append(out, a)
		}
	}
	return out, nil
}
