package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"reflect"

	"go.uber.org/zap"

	"smartsacco/domain"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Status  int                      `json:"-"`
	Code    string                   `json:"code"`
	Message string                   `json:"message"`
	Details []domain.ValidationError `json:"details,omitempty"`
}

// ToErrorResponse maps err onto the public error format. Errors that are
// not an AppError become a generic 500 without internal detail.
func ToErrorResponse(err error) ErrorResponse {
	var appErr domain.AppError
	if !errors.As(err, &appErr) {
		return ErrorResponse{
			Status:  domain.ErrServerCode.Status,
			Code:    domain.ErrServerCode.Code,
			Message: domain.ErrServerCode.Message,
		}
	}
	resp := ErrorResponse{
		Status:  appErr.Code.Status,
		Code:    appErr.Code.Code,
		Message: appErr.Message,
	}
	var verrs domain.ValidationErrors
	if errors.As(err, &verrs) {
		resp.Details = verrs
	}
	return resp
}

func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	resp := ToErrorResponse(err)
	fields := []zap.Field{
		zap.String(traceIDField, TraceIDFromContext(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Int("status", resp.Status),
		zap.Error(err),
	}
	if resp.Status >= http.StatusInternalServerError {
		logger.Error("request failed", fields...)
	} else {
		logger.Info("request rejected", fields...)
	}
	writeJSON(w, logger, resp.Status, resp)
}

// writeJSON encodes into a buffer first so a failed encode can still send
// a clean 500.
func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		logger.Error("error encoding response", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		logger.Warn("error writing response", zap.Error(err))
	}
}

func decodeJSON(r *http.Request, dst any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return domain.NewAppError(domain.ErrMediaTypeCode, "", nil)
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return domain.NewAppError(domain.ErrInvalidInputCode, "invalid request body", domain.ValidationErrors{{
				Field:  typeErr.Field,
				Reason: "must be a " + jsonTypeName(typeErr.Type),
			}})
		}
		return domain.NewAppError(domain.ErrInvalidInputCode, "invalid request body", err)
	}
	return nil
}

func jsonTypeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "whole number"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.String:
		return "string"
	}
	return t.String()
}
