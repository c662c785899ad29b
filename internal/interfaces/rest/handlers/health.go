package handlers

import (
	"net/http"

	"github.com/DanielPopoola/key-request-bridge/internal/interfaces/rest"
)

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	report := h.healthService.Check(r.Context())

	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	rest.WriteJSON(w, status, rest.ToAPIHealth(report))
}
