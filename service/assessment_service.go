package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"smartsacco/domain"
	"smartsacco/observability"
	"smartsacco/repository"
)

type AssessmentService struct {
	members     repository.MemberRepository
	assessments repository.AssessmentRepository
	classifier  *RiskClassifier
	explainer   *ExplanationEngine
	composer    *DraftComposer
	advisor     *AdvisorService
	logger      *zap.Logger
	minAmount   float64
	now         func() time.Time
}

// AssessmentServiceConfig wires an AssessmentService. Advisor is optional.
type AssessmentServiceConfig struct {
	Members       repository.MemberRepository
	Assessments   repository.AssessmentRepository
	Classifier    *RiskClassifier
	Explainer     *ExplanationEngine
	Composer      *DraftComposer
	Advisor       *AdvisorService
	Logger        *zap.Logger
	MinLoanAmount float64
}

func NewAssessmentService(cfg AssessmentServiceConfig) *AssessmentService {
	minAmount := cfg.MinLoanAmount
	if minAmount <= 0 {
		minAmount = DefaultMinLoanAmount
	}
	return &AssessmentService{
		members:     cfg.Members,
		assessments: cfg.Assessments,
		classifier:  cfg.Classifier,
		explainer:   cfg.Explainer,
		composer:    cfg.Composer,
		advisor:     cfg.Advisor,
		logger:      cfg.Logger,
		minAmount:   minAmount,
		now:         time.Now,
	}
}

// MinLoanAmount is the smallest amount the service accepts.
func (s *AssessmentService) MinLoanAmount() float64 {
	return s.minAmount
}

func (s *AssessmentService) validateAmount(amount float64) error {
	if err := domain.ValidateRequestedAmount(amount); err != nil {
		return err
	}
	if amount < s.minAmount {
		return domain.NewAppError(domain.ErrInvalidInputCode, "invalid loan request", domain.ValidationErrors{{
			Field:  "requested_amount",
			Reason: fmt.Sprintf("must be at least %.0f", s.minAmount),
		}})
	}
	return nil
}

func requireMemberID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", domain.NewAppError(domain.ErrInvalidInputCode, "invalid loan request",
			domain.ValidationErrors{{Field: "member_id", Reason: "is required"}})
	}
	return id, nil
}

// Assess decides a member's loan request, explains a rejection and
// prepares the notification draft.
func (s *AssessmentService) Assess(
	ctx context.Context,
	input domain.AssessmentInput,
) (domain.Assessment, error) {

	memberID, err := requireMemberID(input.MemberID)
	if err != nil {
		return domain.Assessment{}, err
	}
	if err := s.validateAmount(input.RequestedAmount); err != nil {
		return domain.Assessment{}, err
	}

	member, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return domain.Assessment{}, err
	}

	assessment, err := s.evaluate(member.Snapshot, input.RequestedAmount)
	if err != nil {
		return domain.Assessment{}, err
	}
	assessment.MemberID = member.ID

	draft := s.composer.Compose(member, input.RequestedAmount, assessment.Decision, assessment.Reasons)
	assessment.Draft = &draft

	if !assessment.Decision.Approved && s.advisor != nil {
		assessment.AdvisorNote = s.advisor.RejectionNote(ctx, member, input.RequestedAmount, assessment.Decision, assessment.Reasons)
	}

	s.record(ctx, assessment)
	return assessment, nil
}

// AssessSnapshot decides an ad-hoc snapshot that is not tied to a member
// record. No draft is prepared.
func (s *AssessmentService) AssessSnapshot(
	ctx context.Context,
	snapshot domain.MemberSnapshot,
	requestedAmount float64,
) (domain.Assessment, error) {

	if err := s.validateAmount(requestedAmount); err != nil {
		return domain.Assessment{}, err
	}
	assessment, err := s.evaluate(snapshot, requestedAmount)
	if err != nil {
		return domain.Assessment{}, err
	}
	s.record(ctx, assessment)
	return assessment, nil
}

func (s *AssessmentService) evaluate(snapshot domain.MemberSnapshot, amount float64) (domain.Assessment, error) {
	decision, err := s.classifier.Decide(snapshot, amount)
	if err != nil {
		return domain.Assessment{}, err
	}

	var reasons []domain.RejectionReason
	if !decision.Approved {
		if reasons, err = s.explainer.Explain(snapshot, amount); err != nil {
			return domain.Assessment{}, err
		}
	}

	return domain.Assessment{
		ID:              uuid.NewString(),
		Snapshot:        snapshot,
		RequestedAmount: amount,
		Decision:        decision,
		Reasons:         reasons,
		CreatedAt:       s.now().UTC(),
	}, nil
}

func (s *AssessmentService) record(ctx context.Context, a domain.Assessment) {
	outcome := a.Decision.Outcome()
	observability.Decisions.WithLabelValues(outcome).Inc()
	observability.DecisionConfidence.WithLabelValues(outcome).Observe(a.Decision.ConfidencePct)
	for _, r := range a.Reasons {
		observability.RejectionReasons.WithLabelValues(string(r.Rule)).Inc()
	}

	// Saving is not critical to the caller
	if err := s.assessments.Save(ctx, a); err != nil {
		s.logger.Warn("failed to save assessment", zap.String("assessment_id", a.ID), zap.Error(err))
	}

	s.logger.Info("loan assessed",
		zap.String("assessment_id", a.ID),
		zap.String("member_id", a.MemberID),
		zap.Float64("requested_amount", a.RequestedAmount),
		zap.String("outcome", outcome),
		zap.Float64("confidence_pct", a.Decision.ConfidencePct),
		zap.Int("reasons", len(a.Reasons)),
	)
}

func (s *AssessmentService) Get(ctx context.Context, id string) (domain.Assessment, error) {
	return s.assessments.FindByID(ctx, id)
}

func (s *AssessmentService) History(ctx context.Context, memberID string) ([]domain.Assessment, error) {
	id, err := requireMemberID(memberID)
	if err != nil {
		return nil, err
	}
	if _, err := s.members.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.assessments.ListByMember(ctx, id)
}

func (s *AssessmentService) FindMember(ctx context.Context, id string) (domain.Member, error) {
	id, err := requireMemberID(id)
	if err != nil {
		return domain.Member{}, err
	}
	return s.members.FindByID(ctx, id)
}

func (s *AssessmentService) SearchMembers(ctx context.Context, query string) ([]domain.Member, error) {
	return s.members.Search(ctx, query)
}
