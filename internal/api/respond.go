package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/pokeapi-ranker/pkg/client"
	"github.com/Sternrassler/pokeapi-ranker/pkg/logging"
	"github.com/Sternrassler/pokeapi-ranker/pkg/ranking"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Message string `json:"message"`
}

func logCtx(r *http.Request) *zerolog.Logger {
	return logging.Ctx(r.Context(), "api")
}

// writeJSON sends data as a JSON response.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		logCtx(r).Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logCtx(r).Debug().Err(err).Msg("Failed to write JSON response")
	}
}

func respondMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, ErrorResponse{Message: message})
}

// respondError maps a service error to its HTTP status:
// NotFoundError 404, invalid limit 400, TransportError 502, a cancelled or
// expired request context 504, anything else 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var notFound *client.NotFoundError
	switch {
	case errors.As(err, &notFound):
		respondMessage(w, r, http.StatusNotFound, notFound.Error())
	case errors.Is(err, ranking.ErrInvalidLimit):
		respondMessage(w, r, http.StatusBadRequest, err.Error())
	case client.IsTransport(err):
		logCtx(r).Error().Err(err).Msg("Upstream request failed")
		respondMessage(w, r, http.StatusBadGateway, "Upstream PokéAPI request failed")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logCtx(r).Debug().Err(err).Msg("Request ended before the collection was ready")
		respondMessage(w, r, http.StatusGatewayTimeout, "Request timed out")
	default:
		logCtx(r).Error().Err(err).Msg("Request failed")
		respondMessage(w, r, http.StatusInternalServerError, "Internal server error")
	}
}
