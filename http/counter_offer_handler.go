package http

import (
	"net/http"

	"go.uber.org/zap"

	"smartsacco/domain"
	"smartsacco/service"
)

type CounterOfferHandler struct {
	service *service.CounterOfferService
	logger  *zap.Logger
}

func NewCounterOfferHandler(service *service.CounterOfferService, logger *zap.Logger) *CounterOfferHandler {
	return &CounterOfferHandler{service: service, logger: logger}
}

// Recommend handles POST /loan/counter-offer.
func (h *CounterOfferHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var input domain.CounterOfferInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	result, err := h.service.Recommend(r.Context(), input)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, result)
}
