package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"github.com/rohmanhakim/fic-roulette/internal/fetcher"
	"github.com/rohmanhakim/fic-roulette/internal/search"
)

const (
	msgInvalidBody  = "Invalid request body"
	msgEmptyFilter  = "Please provide at least one tag, fandom, or category."
	msgRateLimited  = "Rate limit exceeded. Please try again in a minute."
	minAutocomplete = 2
	maxRequestBytes = 64 << 10
)

type generateRequest struct {
	Tags       []string `json:"tags"`
	Categories []string `json:"categories"`
	Fandom     string   `json:"fandom"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidBody})
		return
	}

	categories, err := search.ParseCategories(req.Categories)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	filter := search.NewFilter(req.Tags, categories, req.Fandom)
	if filter.IsEmpty() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgEmptyFilter})
		return
	}

	ctx := r.Context()
	if s.param.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.param.GenerateTimeout)
		defer cancel()
	}

	result := s.generator.GetRandomItem(ctx, filter)
	switch {
	case result.NoMatches():
		writeJSON(w, http.StatusNotFound, result)
	case result.Unavailable():
		writeJSON(w, http.StatusBadGateway, result)
	default:
		writeJSON(w, http.StatusOK, result)
	}
}

// handleAutocompleteFandom never fails toward the client: short terms and
// upstream errors both answer with an empty list.
func (s *Server) handleAutocompleteFandom(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("term")
	empty := []fetcher.AutocompleteEntry{}
	if utf8.RuneCountInString(term) < minAutocomplete || s.suggester == nil {
		writeJSON(w, http.StatusOK, empty)
		return
	}

	entries, err := s.suggester.AutocompleteFandom(r.Context(), term, s.param.AutocompleteTimeout)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("fandom autocomplete failed",
				slog.String("term", term),
				slog.String("error", err.Error()),
			)
		}
		writeJSON(w, http.StatusOK, empty)
		return
	}
	if entries == nil {
		entries = empty
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
