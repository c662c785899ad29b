package handlers

import (
	"log/slog"
	"net/http"

	"github.com/DanielPopoola/key-request-bridge/internal/application/services"
)

type Handlers struct {
	requestService *services.RequestService
	resultService  *services.ResultService
	healthService  *services.HealthService
	logger         *slog.Logger
}

func NewHandlers(
	requestService *services.RequestService,
	resultService *services.ResultService,
	healthService *services.HealthService,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		requestService: requestService,
		resultService:  resultService,
		healthService:  healthService,
		logger:         logger,
	}
}

func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /keys/request", h.RequestKey)
	mux.HandleFunc("GET /keys/generated", h.ListGeneratedKeys)
	mux.HandleFunc("DELETE /keys/clear", h.ClearGeneratedKeys)
	mux.HandleFunc("GET /healthz", h.Health)
}
