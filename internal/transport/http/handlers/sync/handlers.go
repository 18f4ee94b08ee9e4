// Package synchandler serves the raw collection contract used by remote
// clients: GET returns the employee array, PUT replaces it.
package synchandler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"evaltool/internal/domain/evaluation"
	"evaltool/internal/transport/http/api"
	"evaltool/internal/transport/http/middleware"
)

type Handler struct {
	Store *evaluation.Store
}

func NewHandler(store *evaluation.Store) *Handler {
	return &Handler{Store: store}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/employees", h.handleGet)
	r.Put("/employees", h.handlePut)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.List(r.Context())
	if err != nil {
		slog.Error("collection read failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "storage_error", "storage operation failed", middleware.GetRequestID(r.Context()))
		return
	}
	data, err := evaluation.EncodeCollection(employees)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "storage_error", "failed to encode collection", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Warn("write collection failed", "err", err)
	}
}

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "failed to read request body", requestID)
		return
	}
	res, err := h.Store.ImportAll(r.Context(), data)
	if err != nil {
		if errors.Is(err, evaluation.ErrMalformedImport) {
			api.Fail(w, http.StatusBadRequest, "malformed_import", "payload must be a JSON array of employees", requestID)
			return
		}
		slog.Error("collection replace failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "storage_error", "storage operation failed", requestID)
		return
	}
	if res.Failed() {
		slog.Warn("collection replaced locally but upstream push failed", "err", res.Err)
	}
	w.WriteHeader(http.StatusNoContent)
}
