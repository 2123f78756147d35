package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrMemberNotFound           = errors.New("member not found")
	ErrAssessmentNotFound       = errors.New("assessment not found")
	ErrProbabilitiesUnavailable = errors.New("classifier does not expose class probabilities")
	ErrNoCounterOfferQualifies  = errors.New("no lower amount qualifies for approval")
)

// ErrorCode defines a standardized error code
type ErrorCode struct {
	Code    string
	Status  int
	Message string // default message
}

var (
	ErrInvalidInputCode   = ErrorCode{Code: "APP_INVALID_INPUT", Status: http.StatusBadRequest, Message: "invalid input"}
	ErrRecordNotFoundCode = ErrorCode{Code: "APP_NOT_FOUND", Status: http.StatusNotFound, Message: "record not found"}
	ErrServerCode         = ErrorCode{Code: "APP_INTERNAL", Status: http.StatusInternalServerError, Message: "internal server error"}
	ErrInferenceCode      = ErrorCode{Code: "MODEL_INFERENCE", Status: http.StatusInternalServerError, Message: "model inference failed"}
	ErrRateLimitedCode    = ErrorCode{Code: "RATE_LIMITED", Status: http.StatusTooManyRequests, Message: "rate limit exceeded"}
	ErrMediaTypeCode      = ErrorCode{Code: "APP_UNSUPPORTED_MEDIA_TYPE", Status: http.StatusUnsupportedMediaType, Message: "Content-Type must be application/json"}
)

type AppError struct {
	Code    ErrorCode
	Message string // public-facing message
	Cause   error  // internal cause (wrapped)
}

func (e AppError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e AppError) Unwrap() error { return e.Cause }

func NewAppError(code ErrorCode, msg string, cause error) error {
	if msg == "" {
		msg = code.Message
	}
	return AppError{Code: code, Message: msg, Cause: cause}
}

// ValidationError names a single invalid input field.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

// Fields returns the names of the invalid fields in order.
func (v ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(v))
	for _, e := range v {
		fields = append(fields, e.Field)
	}
	return fields
}
