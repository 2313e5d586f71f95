package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Sternrassler/pokeapi-ranker/pkg/pokemon"
)

// Handler serves the API routes.
type Handler struct {
	svc    Service
	config Config
}

// Health is the liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Ready is the readiness probe. It fails when the Redis tier is configured but unreachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := h.svc.Ready(r.Context()); err != nil {
		logCtx(r).Warn().Err(err).Msg("Readiness check failed")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("NOT READY"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// GetAll returns the whole cached collection.
func (h *Handler) GetAll(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.GetAll(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, items)
}

// Heaviest returns the top entities by weight.
func (h *Handler) Heaviest(w http.ResponseWriter, r *http.Request) {
	h.ranked(w, r, h.svc.TopByWeight)
}

// Highest returns the top entities by height.
func (h *Handler) Highest(w http.ResponseWriter, r *http.Request) {
	h.ranked(w, r, h.svc.TopByHeight)
}

// MostExperienced returns the top entities by base experience.
func (h *Handler) MostExperienced(w http.ResponseWriter, r *http.Request) {
	h.ranked(w, r, h.svc.TopByExperience)
}

// GetOne returns a single entity, fetched upstream on every call.
func (h *Handler) GetOne(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetOne(r.Context(), chi.URLParam(r, "nameOrId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

// InvalidateCache drops the cached collection.
func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	h.svc.Invalidate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

type topFunc func(ctx context.Context, limit int) ([]pokemon.Pokemon, error)

func (h *Handler) ranked(w http.ResponseWriter, r *http.Request, top topFunc) {
	limit, err := h.parseLimit(r)
	if err != nil {
		respondMessage(w, r, http.StatusBadRequest, err.Error())
		return
	}

	items, err := top(r.Context(), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, items)
}

// parseLimit reads ?limit=. Values below 1 are left to the service, which
// rejects them before fetching anything.
func (h *Handler) parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return h.config.DefaultLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("limit must be an integer (got %q)", raw)
	}
	if limit > h.config.MaxLimit {
		return 0, fmt.Errorf("limit must not exceed %d (got %d)", h.config.MaxLimit, limit)
	}
	return limit, nil
}
