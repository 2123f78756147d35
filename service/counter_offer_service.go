package service

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"smartsacco/domain"
	"smartsacco/observability"
)

type CounterOfferService struct {
	assessmentService *AssessmentService
	step              float64
	logger            *zap.Logger
}

func NewCounterOfferService(assessmentService *AssessmentService, step float64, logger *zap.Logger) *CounterOfferService {
	if step <= 0 {
		step = DefaultCounterOfferStep
	}
	return &CounterOfferService{
		assessmentService: assessmentService,
		step:              step,
		logger:            logger,
	}
}

// candidateAmounts lists requested, requested-step, ... down to min, always
// ending on min.
func candidateAmounts(requested, min, step float64) []float64 {
	amounts := []float64{}
	for amount := requested; amount > min && len(amounts) < MaxCounterOfferCandidates-1; amount -= step {
		amounts = append(amounts, amount)
	}
	return append(amounts, min)
}

// Recommend finds the largest amount, at or below the requested one, that
// the classifier approves with no rule violation.
func (s *CounterOfferService) Recommend(
	ctx context.Context,
	input domain.CounterOfferInput,
) (domain.CounterOfferResult, error) {

	as := s.assessmentService
	if err := as.validateAmount(input.RequestedAmount); err != nil {
		return domain.CounterOfferResult{}, err
	}
	member, err := as.FindMember(ctx, input.MemberID)
	if err != nil {
		return domain.CounterOfferResult{}, err
	}

	result := domain.CounterOfferResult{
		MemberID:        member.ID,
		RequestedAmount: input.RequestedAmount,
		Candidates:      []domain.CounterOfferCandidate{},
	}

	for _, amount := range candidateAmounts(input.RequestedAmount, as.minAmount, s.step) {
		decision, err := as.classifier.Decide(member.Snapshot, amount)
		if err != nil {
			return domain.CounterOfferResult{}, err
		}
		violations, err := as.explainer.Violations(member.Snapshot, amount)
		if err != nil {
			return domain.CounterOfferResult{}, err
		}

		candidate := domain.CounterOfferCandidate{
			Amount:        amount,
			Approved:      decision.Approved,
			ConfidencePct: decision.ConfidencePct,
			Violations:    make([]domain.RuleID, 0, len(violations)),
		}
		for _, v := range violations {
			candidate.Violations = append(candidate.Violations, v.Rule)
		}
		result.Candidates = append(result.Candidates, candidate)

		if decision.Approved && len(violations) == 0 {
			result.RecommendedAmount = amount
			result.ConfidencePct = decision.ConfidencePct
			break
		}
	}

	if result.RecommendedAmount == 0 {
		observability.CounterOffers.WithLabelValues("none").Inc()
		s.logger.Info("no counter-offer qualifies",
			zap.String("member_id", member.ID),
			zap.Float64("requested_amount", input.RequestedAmount),
			zap.Int("candidates", len(result.Candidates)),
		)
		return result, domain.NewAppError(domain.ErrInvalidInputCode,
			fmt.Sprintf("no amount between %.0f and %.0f qualifies for approval", as.minAmount, input.RequestedAmount),
			domain.ErrNoCounterOfferQualifies)
	}

	label := "lower"
	if math.Abs(result.RecommendedAmount-input.RequestedAmount) < 1e-9 {
		label = "requested"
	}
	observability.CounterOffers.WithLabelValues(label).Inc()
	s.logger.Info("counter-offer found",
		zap.String("member_id", member.ID),
		zap.Float64("requested_amount", input.RequestedAmount),
		zap.Float64("recommended_amount", result.RecommendedAmount),
		zap.Int("candidates", len(result.Candidates)),
	)
	return result, nil
}
