package handlers

import (
	"errors"
	"net/http"

	"github.com/DanielPopoola/key-request-bridge/internal/api"
	"github.com/DanielPopoola/key-request-bridge/internal/application"
	"github.com/DanielPopoola/key-request-bridge/internal/application/services"
	"github.com/DanielPopoola/key-request-bridge/internal/interfaces/rest"
	"github.com/oapi-codegen/runtime"
)

var errNegativeLimit = errors.New("limit must be greater than or equal to 0")

// RequestKey publishes a key request and responds with its ID as plain text.
func (h *Handlers) RequestKey(w http.ResponseWriter, r *http.Request) {
	requestID, err := h.requestService.SubmitRequest(r.Context())
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(requestID))
}

func (h *Handlers) ListGeneratedKeys(w http.ResponseWriter, r *http.Request) {
	var params api.ListGeneratedKeysParams

	if err := runtime.BindQueryParameter("form", true, false, "requestId", r.URL.Query(), &params.RequestId); err != nil {
		rest.WriteError(w, application.NewInvalidInputError(err), h.logger)
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &params.Limit); err != nil {
		rest.WriteError(w, application.NewInvalidInputError(err), h.logger)
		return
	}
	if params.Limit != nil && *params.Limit < 0 {
		rest.WriteError(w, application.NewInvalidInputError(errNegativeLimit), h.logger)
		return
	}

	query := services.ResultQuery{Limit: params.Limit}
	if params.RequestId != nil {
		query.RequestID = *params.RequestId
	}

	rest.WriteJSON(w, http.StatusOK, rest.ToAPIGeneratedKeys(h.resultService.List(query)))
}

func (h *Handlers) ClearGeneratedKeys(w http.ResponseWriter, r *http.Request) {
	h.resultService.Clear()
	w.WriteHeader(http.StatusOK)
}
