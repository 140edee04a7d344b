package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	apperrors "depixsync/internal/shared_kernel/errors"

	"go.uber.org/zap"
)

type errorResponse struct {
	Error errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func statusForAppError(appErr *apperrors.AppError) int {
	switch appErr.Type {
	case apperrors.TypeValidation:
		return http.StatusBadRequest
	case apperrors.TypeNotFound:
		return http.StatusNotFound
	case apperrors.TypeConflict:
		return http.StatusConflict
	case apperrors.TypeQuotaExceeded:
		return http.StatusTooManyRequests
	case apperrors.TypeUpstreamAuthFailure, apperrors.TypeUpstreamRejected:
		return http.StatusBadGateway
	case apperrors.TypeUpstreamUnavailable, apperrors.TypeTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeAppError(w http.ResponseWriter, appErr *apperrors.AppError) {
	status := statusForAppError(appErr)
	details := appErr.Details
	if status == http.StatusInternalServerError || appErr.IsType(apperrors.TypeUpstreamAuthFailure) {
		// Internal and credential failures stay in logs.
		details = nil
	}

	writeJSON(w, status, errorResponse{
		Error: errorEnvelope{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func logRequestError(logger *zap.Logger, r *http.Request, route string, appErr *apperrors.AppError) {
	fields := []zap.Field{
		zap.String("route", route),
		zap.String("method", r.Method),
		zap.String("error_type", string(appErr.Type)),
		zap.String("error_code", appErr.Code),
		zap.String("message", appErr.Message),
	}
	if statusForAppError(appErr) >= http.StatusInternalServerError {
		logger.Error("request error", append(fields, zap.Any("details", appErr.Details))...)
		return
	}
	logger.Info("request error", fields...)
}

// decodeSingleObject rejects unknown fields and trailing content.
func decodeSingleObject(body io.Reader, target any) *apperrors.AppError {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(target); err != nil {
		return apperrors.NewValidation(
			"invalid_request",
			"request body must be valid JSON",
			map[string]any{"error": err.Error()},
		)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return apperrors.NewValidation(
			"invalid_request",
			"request body must contain a single JSON object",
			nil,
		)
	}
	return nil
}

func loggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
