package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"smartsacco/domain"
	"smartsacco/model"
	"smartsacco/repository"
	"smartsacco/service"
)

type stubClassifier struct {
	label int
}

func (s stubClassifier) Predict([]float64) (int, error) {
	return s.label, nil
}

func (s stubClassifier) PredictProba([]float64) ([]float64, error) {
	if s.label == model.LabelApprove {
		return []float64{0.25, 0.75}, nil
	}
	return []float64{0.8, 0.2}, nil
}

type testServer struct {
	handler http.Handler
	limiter *RateLimiter
}

func newTestServer(t *testing.T, label int, capacity int, checks map[string]HealthCheck) *testServer {
	t.Helper()

	f, err := os.Open("../data/members.csv")
	if err != nil {
		t.Fatalf("open members: %v", err)
	}
	defer f.Close()
	members, err := repository.LoadMembersCSV(f)
	if err != nil {
		t.Fatalf("load members: %v", err)
	}

	logger := zap.NewNop()
	composer := service.NewDraftComposer("SmartSacco", "KES")
	assessmentService := service.NewAssessmentService(service.AssessmentServiceConfig{
		Members:       members,
		Assessments:   repository.NewAssessmentRepositoryMemory(100),
		Classifier:    service.NewRiskClassifier(stubClassifier{label: label}, model.SaccoFeaturesV1),
		Explainer:     service.NewExplanationEngine(),
		Composer:      composer,
		Logger:        logger,
		MinLoanAmount: 1000,
	})
	counterOffers := service.NewCounterOfferService(assessmentService, 5000, logger)

	limiter := NewRateLimiter(capacity, time.Minute)
	t.Cleanup(limiter.Stop)

	return &testServer{
		limiter: limiter,
		handler: NewRouter(RouterConfig{
			Assessments:   NewAssessmentHandler(assessmentService, logger),
			Members:       NewMemberHandler(assessmentService, logger),
			CounterOffers: NewCounterOfferHandler(counterOffers, logger),
			Health:        NewHealthHandler("smartsacco-risk@2.0.0", checks, logger),
			RateLimiter:   limiter,
			MetricsPath:   "/metrics",
			Logger:        logger,
		}),
	}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

func TestAssessHandler_OK(t *testing.T) {
	srv := newTestServer(t, model.LabelApprove, 100, nil)

	w := srv.do(http.MethodPost, "/loan/assess", `{"member_id": "104", "requested_amount": 50000}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get(HeaderTraceID) == "" {
		t.Errorf("expected %s header", HeaderTraceID)
	}

	var got domain.Assessment
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Decision.Approved || got.Decision.ConfidencePct != 75 {
		t.Errorf("unexpected decision %+v", got.Decision)
	}
	if got.Draft == nil || got.Draft.To != "grace.achieng@example.com" {
		t.Errorf("expected draft for member 104, got %+v", got.Draft)
	}

	w = srv.do(http.MethodGet, "/assessments/"+got.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected stored assessment, got %d", w.Code)
	}

	w = srv.do(http.MethodGet, "/members/104/assessments", "")
	var history []domain.Assessment
	if err := json.NewDecoder(w.Body).Decode(&history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 1 || history[0].ID != got.ID {
		t.Errorf("unexpected history %+v", history)
	}
}

func TestAssessHandler_RejectedHasReasons(t *testing.T) {
	srv := newTestServer(t, model.LabelReject, 100, nil)

	w := srv.do(http.MethodPost, "/loan/assess", `{"member_id": "101", "requested_amount": 50000}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var got domain.Assessment
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Decision.Approved || got.Decision.ConfidencePct != 80 {
		t.Errorf("unexpected decision %+v", got.Decision)
	}
	if len(got.Reasons) != 1 || got.Reasons[0].Rule != domain.RuleOverLeveraged {
		t.Errorf("expected only over-leveraged, got %+v", got.Reasons)
	}
}

func TestAssessHandler_Errors(t *testing.T) {
	srv := newTestServer(t, model.LabelApprove, 100, nil)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"invalid json", `{invalid-json}`, http.StatusBadRequest, "APP_INVALID_INPUT"},
		{"unknown member", `{"member_id": "999", "requested_amount": 5000}`, http.StatusNotFound, "APP_NOT_FOUND"},
		{"below minimum", `{"member_id": "101", "requested_amount": 10}`, http.StatusBadRequest, "APP_INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := srv.do(http.MethodPost, "/loan/assess", tt.body)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, w.Code)
			}
			if resp := decodeError(t, w); resp.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, resp.Code)
			}
		})
	}
}

func TestAssessHandler_UnsupportedMediaType(t *testing.T) {
	srv := newTestServer(t, model.LabelApprove, 100, nil)

	req := httptest.NewRequest(http.MethodPost, "/loan/assess", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	srv.handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("expected 415, got %d", w.Code)
	}
}

func TestAssessHandler_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, model.LabelApprove, 100, nil)

	w := srv.do(http.MethodGet, "/loan/assess", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}

func TestAssessSnapshotHandler(t *testing.T) {
	srv := newTestServer(t, model.LabelReject, 100, nil)

	w := srv.do(http.MethodPost, "/loan/assess/snapshot", `{
		"total_savings": 50000,
		"credit_score": 720,
		"guarantor_count": 0,
		"guarantor_avg_credit_score": 0,
		"has_defaulted_before": false,
		"requested_amount": 20000
	}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var got domain.Assessment
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Draft != nil {
		t.Errorf("snapshot assessments carry no draft")
	}
	if len(got.Reasons) != 2 ||
		got.Reasons[0].Rule != domain.RuleInsufficientSecurity ||
		got.Reasons[1].Rule != domain.RuleWeakGuarantors {
		t.Errorf("unexpected reasons %+v", got.Reasons)
	}
}

func TestAssessSnapshotHandler_MissingFields(t *testing.T) {
	srv := newTestServer(t, model.LabelApprove, 100, nil)

	w := srv.do(http.MethodPost, "/loan/assess/snapshot", `{
		"total_savings": 50000,
		"guarantor_count": 2,
		"guarantor_avg_credit_score": 650,
		"requested_amount": 20000
	}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	resp := decodeError(t, w)
	fields := map[string]bool{}
	for _, d := range resp.Details {
		fields[d.Field] = true
	}
	if len(fields) != 2 || !fields["credit_score"] || !fields["has_defaulted_before"] {
		t.Errorf("expected credit_score and has_defaulted_before, got %+v", resp.Details)
	}
}

func TestAssessSnapshotHandler_WrongTypeNamesField(t *testing.T) {
	srv := newTestServer(t, model.LabelApprove, 100, nil)

	w := srv.do(http.MethodPost, "/loan/assess/snapshot", `{
		"total_savings": 50000,
		"credit_score": "abc",
		"guarantor_count": 2,
		"guarantor_avg_credit_score": 650,
		"has_defaulted_before": false,
		"requested_amount": 20000
	}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	resp := decodeError(t, w)
	if resp.Code != "APP_INVALID_INPUT" {
		t.Errorf("expected APP_INVALID_INPUT, got %s", resp.Code)
	}
	if len(resp.Details) != 1 || resp.Details[0].Field != "credit_score" {
		t.Fatalf("expected credit_score detail, got %+v", resp.Details)
	}
	if resp.Details[0].Reason != "must be a whole number" {
		t.Errorf("unexpected reason %q", resp.Details[0].Reason)
	}
}

func TestAssessSnapshotHandler_OutOfRange(t *testing.T) {
	srv := newTestServer(t, model.LabelApprove, 100, nil)

	w := srv.do(http.MethodPost, "/loan/assess/snapshot", `{
		"total_savings": -1,
		"credit_score": 700,
		"guarantor_count": 2,
		"guarantor_avg_credit_score": 650,
		"has_defaulted_before": false,
		"requested_amount": 20000
	}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	resp := decodeError(t, w)
	if len(resp.Details) != 1 || resp.Details[0].Field != "total_savings" {
		t.Errorf("expected total_savings detail, got %+v", resp.Details)
	}
}

func TestGetAssessmentHandler_NotFound(t *testing.T) {
	srv := newTestServer(t, model.LabelApprove, 100, nil)

	w := srv.do(http.MethodGet, "/assessments/does-not-exist", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestMemberHandler(t *testing.T) {
	srv := newTestServer(t, model.LabelApprove, 100, nil)

	w := srv.do(http.MethodGet, "/members?q=jo", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var found []domain.Member
	if err := json.NewDecoder(w.Body).Decode(&found); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(found) != 2 || found[0].ID != "101" || found[1].ID != "109" {
		t.Errorf("expected members 101 and 109, got %+v", found)
	}

	w = srv.do(http.MethodGet, "/members?q=%20", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for blank query, got %d", w.Code)
	}

	w = srv.do(http.MethodGet, "/members/107", "")
	var m domain.Member
	if err := json.NewDecoder(w.Body).Decode(&m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Snapshot.CreditScore != 810 {
		t.Errorf("unexpected member %+v", m)
	}

	w = srv.do(http.MethodGet, "/members/999", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestCounterOfferHandler(t *testing.T) {
	srv := newTestServer(t, model.LabelApprove, 100, nil)

	w := srv.do(http.MethodPost, "/loan/counter-offer", `{"member_id": "101", "requested_amount": 50000}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var got domain.CounterOfferResult
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RecommendedAmount != 30000 {
		t.Errorf("expected 30000, got %v", got.RecommendedAmount)
	}

	// Member 103 has a prior default.
	w = srv.do(http.MethodPost, "/loan/counter-offer", `{"member_id": "103", "requested_amount": 50000}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	srv := newTestServer(t, model.LabelApprove, 1, nil)

	if w := srv.do(http.MethodGet, "/members/101", ""); w.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", w.Code)
	}
	w := srv.do(http.MethodGet, "/members/101", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != "RATE_LIMITED" {
		t.Errorf("expected RATE_LIMITED, got %s", resp.Code)
	}

	// Health is never limited.
	if w := srv.do(http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Errorf("expected healthz to pass, got %d", w.Code)
	}
}

func TestTraceIDIsPropagated(t *testing.T) {
	srv := newTestServer(t, model.LabelApprove, 100, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderTraceID, "abc-123")
	w := httptest.NewRecorder()
	srv.handler.ServeHTTP(w, req)

	if got := w.Header().Get(HeaderTraceID); got != "abc-123" {
		t.Errorf("expected trace id to be echoed, got %q", got)
	}
}

func TestHealthHandler(t *testing.T) {
	srv := newTestServer(t, model.LabelApprove, 100, map[string]HealthCheck{
		"redis":    func(context.Context) error { return nil },
		"postgres": func(context.Context) error { return errors.New("connection refused") },
	})

	w := srv.do(http.MethodGet, "/healthz", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	var got healthResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != "degraded" || got.Checks["redis"] != "up" || got.Checks["postgres"] != "down" {
		t.Errorf("unexpected health %+v", got)
	}
	if got.Model != "smartsacco-risk@2.0.0" {
		t.Errorf("unexpected model %q", got.Model)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, model.LabelApprove, 100, nil)
	srv.do(http.MethodGet, "/healthz", "")

	w := srv.do(http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("smartsacco_http_requests_total")) {
		t.Errorf("expected request counter in metrics output")
	}
}
