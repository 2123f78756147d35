package http

import (
	"net/http"

	"go.uber.org/zap"

	"smartsacco/service"
)

type MemberHandler struct {
	service *service.AssessmentService
	logger  *zap.Logger
}

func NewMemberHandler(service *service.AssessmentService, logger *zap.Logger) *MemberHandler {
	return &MemberHandler{service: service, logger: logger}
}

// Search handles GET /members?q=.
func (h *MemberHandler) Search(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.SearchMembers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, members)
}

// Get handles GET /members/{id}.
func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	member, err := h.service.FindMember(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, member)
}
