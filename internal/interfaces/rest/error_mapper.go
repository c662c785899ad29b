package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/DanielPopoola/key-request-bridge/internal/api"
	"github.com/DanielPopoola/key-request-bridge/internal/application"
)

// WriteError maps application errors to HTTP responses
func WriteError(w http.ResponseWriter, err error, logger *slog.Logger) {
	statusCode := application.ToHTTPStatus(err)
	errorCode := application.ToErrorCode(err)

	if statusCode >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", "code", errorCode, "status", statusCode, "error", err)
	}

	message := err.Error()
	if svcErr, ok := application.IsServiceError(err); ok && statusCode >= http.StatusInternalServerError {
		// underlying transport errors stay in the logs
		message = svcErr.Message
	}

	response := api.ErrorResponse{
		Success: false,
		Error: api.ErrorDetail{
			Code:    errorCode,
			Message: message,
		},
	}

	WriteJSON(w, statusCode, response)
}

func WriteJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
