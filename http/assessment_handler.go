package http

import (
	"net/http"

	"go.uber.org/zap"

	"smartsacco/domain"
	"smartsacco/service"
)

type AssessmentHandler struct {
	service *service.AssessmentService
	logger  *zap.Logger
}

func NewAssessmentHandler(service *service.AssessmentService, logger *zap.Logger) *AssessmentHandler {
	return &AssessmentHandler{service: service, logger: logger}
}

// snapshotRequest uses pointers so an omitted field is told apart from a
// zero value.
type snapshotRequest struct {
	TotalSavings            *float64 `json:"total_savings" validate:"required"`
	CreditScore             *int     `json:"credit_score" validate:"required"`
	GuarantorCount          *int     `json:"guarantor_count" validate:"required"`
	GuarantorAvgCreditScore *int     `json:"guarantor_avg_credit_score" validate:"required"`
	HasDefaultedBefore      *bool    `json:"has_defaulted_before" validate:"required"`
	RequestedAmount         *float64 `json:"requested_amount" validate:"required"`
}

func (req snapshotRequest) snapshot() domain.MemberSnapshot {
	return domain.MemberSnapshot{
		TotalSavings:            *req.TotalSavings,
		CreditScore:             *req.CreditScore,
		GuarantorCount:          *req.GuarantorCount,
		GuarantorAvgCreditScore: *req.GuarantorAvgCreditScore,
		HasDefaultedBefore:      *req.HasDefaultedBefore,
	}
}

// Assess handles POST /loan/assess.
func (h *AssessmentHandler) Assess(w http.ResponseWriter, r *http.Request) {
	var input domain.AssessmentInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.service.Assess(r.Context(), input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, result)
}

// AssessSnapshot handles POST /loan/assess/snapshot.
func (h *AssessmentHandler) AssessSnapshot(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := domain.Validator().Struct(req); err != nil {
		writeError(w, r, h.logger, domain.NewAppError(domain.ErrInvalidInputCode, "missing snapshot fields",
			domain.ToValidationErrors(err, "")))
		return
	}

	result, err := h.service.AssessSnapshot(r.Context(), req.snapshot(), *req.RequestedAmount)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, result)
}

// Get handles GET /assessments/{id}.
func (h *AssessmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, result)
}

// History handles GET /members/{id}/assessments.
func (h *AssessmentHandler) History(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.History(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, result)
}
