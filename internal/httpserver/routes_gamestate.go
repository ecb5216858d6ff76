// internal/httpserver/routes_gamestate.go
//
// HTTP routes for daily play.
//   - GET  /gamestate/{userId}?theme&mode → today's word and the player's board
//   - POST /gamestate                     → save a board (rejected once over)
//   - GET  /stats/{userId}                → per (mode, theme) counters
//   - GET  /validate/{word}               → whether a guess is a known word
//   - GET  /randomword                    → retired, points at /gamestate
//
// Error bodies are {"error": "..."} in Portuguese, as the web client shows them.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/cuca/internal/daily"
	"github.com/robalobadob/cuca/internal/game"
	"github.com/robalobadob/cuca/internal/progress"
	"github.com/robalobadob/cuca/internal/store"
	"github.com/robalobadob/cuca/internal/words"
)

// maxBodyBytes caps POST bodies; a full board is well under 4 KiB.
const maxBodyBytes = 64 << 10

const (
	msgInvalid       = "Dados inválidos."
	msgAlreadyPlayed = "Já jogou esse modo/tema hoje."
	msgSaved         = "Progresso salvo!"
	msgInternal      = "Erro interno no servidor."
	msgSaveFailed    = "Erro ao salvar o progresso."
	msgStatsFailed   = "Erro ao buscar estatísticas."
	msgRandomWord    = "Use /api/gamestate para obter a palavra do dia e controle de resolução."
)

type errorBody struct {
	Error string `json:"error"`
}

type messageBody struct {
	Message string `json:"message"`
}

type statsBody struct {
	Stats []progress.StatsRow `json:"stats"`
}

type validateBody struct {
	IsValid bool `json:"isValid"`
}

// routes registers the game endpoints on r.
func (s *Server) routes(r chi.Router) {
	r.Get("/gamestate/{userId}", s.handleGetState)
	r.With(s.limits.middleware).Post("/gamestate", s.handleSaveState)
	r.Get("/stats/{userId}", s.handleStats)
	r.Get("/validate/{word}", s.handleValidate)
	r.Get("/randomword", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgRandomWord})
	})
}

// handleGetState returns today's word plus the stored board for the player.
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	theme := r.URL.Query().Get("theme")
	if theme == "" {
		theme = words.ThemeGeneral
	}
	mode, err := game.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgInvalid})
		return
	}

	view, err := s.progress.GetState(r.Context(), userID, theme, mode)
	if err != nil {
		writeError(w, r, err, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleSaveState stores a board. Finished boards are final.
func (s *Server) handleSaveState(w http.ResponseWriter, r *http.Request) {
	var req progress.SaveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgInvalid})
		return
	}
	if err := s.progress.SaveState(r.Context(), req); err != nil {
		writeError(w, r, err, msgSaveFailed)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: msgSaved})
}

// handleStats lists the player's stats rows.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	rows, err := s.progress.Stats(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, r, err, msgStatsFailed)
		return
	}
	writeJSON(w, http.StatusOK, statsBody{Stats: rows})
}

// handleValidate reports whether word is in any list, accents ignored.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, validateBody{IsValid: s.pool.Allowed(chi.URLParam(r, "word"))})
}

// writeError maps service errors to status codes. Unclassified errors are
// logged and answered with fallback.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, progress.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgInvalid})
	case errors.Is(err, store.ErrAlreadyCompleted):
		writeJSON(w, http.StatusForbidden, errorBody{Error: msgAlreadyPlayed})
	case errors.Is(err, daily.ErrPoolExhausted):
		log.Error().Err(err).Str("request_id", chimw.GetReqID(r.Context())).Msg("word pool exhausted")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
	default:
		log.Error().Err(err).
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Bool("store_unavailable", errors.Is(err, store.ErrUnavailable)).
			Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: fallback})
	}
}
