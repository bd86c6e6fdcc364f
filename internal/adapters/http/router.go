package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/atvirokodosprendimai/studio/internal/bridge"
	"github.com/atvirokodosprendimai/studio/internal/platform/apperr"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxPayloadBytes = 1 << 20

type Handler struct {
	table   *bridge.Table
	metrics http.Handler
}

// NewRouter exposes every bridge operation as POST /api/{op}. metrics may be
// nil, in which case /metrics is not mounted.
func NewRouter(table *bridge.Table, metrics http.Handler) http.Handler {
	h := &Handler{table: table, metrics: metrics}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.handleHealth)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/ops", h.handleListOps)
		api.Post("/{op}", h.handleInvoke)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handler) handleListOps(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"operations": h.table.Names()})
}

func (h *Handler) handleInvoke(w http.ResponseWriter, r *http.Request) {
	op := chi.URLParam(r, "op")
	if !h.table.Has(op) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "unknown operation", "code": "NOT_FOUND"})
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{"error": "payload too large"})
		return
	}

	ctx := bridge.ContextWithRequestID(r.Context(), middleware.GetReqID(r.Context()))
	result, err := h.table.Invoke(ctx, op, json.RawMessage(payload))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeError(w http.ResponseWriter, err error) {
	code := apperr.CodeOf(err)
	message := "internal error"
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Message() != "" && code != apperr.CodeInternal {
		message = appErr.Message()
	}
	writeJSON(w, statusFor(code), map[string]any{"error": message, "code": string(code)})
}

func statusFor(code apperr.Code) int {
	switch code {
	case apperr.CodeValidation:
		return http.StatusBadRequest
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
