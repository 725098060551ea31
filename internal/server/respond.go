package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"prama/internal/logging"
	"prama/internal/services"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func errorBody(message string) errorResponse {
	return errorResponse{Status: statusError, Message: message}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
}

// failureStatus maps an operation error to its HTTP status.
func failureStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return services.HTTPStatus(err)
}

// writeFailure reports err as JSON with the raw error text.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error, payload any) int {
	status := failureStatus(err)
	logFailure(logging.WithContext(r.Context(), s.logger), r, status, err)
	if payload == nil {
		payload = errorBody(err.Error())
	}
	writeJSON(w, status, payload)
	return status
}

func logFailure(logger *slog.Logger, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logger, "request failed", "request_failed",
			logging.String("path", r.URL.Path),
			logging.Int("status", status),
			logging.Error(err),
		)
		return
	}
	logger.Info("request rejected",
		logging.String("path", r.URL.Path),
		logging.Int("status", status),
		logging.Error(err),
	)
}
