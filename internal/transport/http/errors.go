package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"trivia-quiz-service/internal/auth"
	"trivia-quiz-service/internal/domain"
)

// Error codes returned in the error envelope.
const (
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeValidation    = "VALIDATION_ERROR"
	CodeInvalidState  = "INVALID_STATE"
	CodeNotConfigured = "NOT_CONFIGURED"
	CodeUpstream      = "UPSTREAM_ERROR"
	CodeInternalError = "INTERNAL_ERROR"
)

type apiError struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

// writeError maps err onto a status and error envelope. Upstream and internal
// failures are logged here and reach the client only as a generic message.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status, body := toAPIError(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: body})
}

func toAPIError(err error) (int, apiError) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, apiError{Code: CodeValidation, Message: "Invalid request", Fields: verr.Fields}
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, apiError{Code: CodeUnauthorized, Message: "Authentication required"}
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusBadRequest, apiError{Code: CodeInvalidState, Message: "Sign-in state mismatch"}
	case errors.Is(err, auth.ErrNotConfigured):
		return http.StatusNotFound, apiError{Code: CodeNotConfigured, Message: "Sign-in is not configured"}
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway, apiError{Code: CodeUpstream, Message: "Upstream service unavailable"}
	default:
		return http.StatusInternalServerError, apiError{Code: CodeInternalError, Message: "Internal server error"}
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

type okResponse struct {
	OK bool `json:"ok"`
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
