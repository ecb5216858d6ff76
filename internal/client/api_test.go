package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/cuca/internal/game"
	"github.com/robalobadob/cuca/internal/progress"
)

func TestAPI(t *testing.T) {
	var saved progress.SaveRequest
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/gamestate/{user}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "u 1", r.PathValue("user"))
		assert.Equal(t, "verbs", r.URL.Query().Get("theme"))
		assert.Equal(t, "bomba", r.URL.Query().Get("mode"))
		w.Write([]byte(`{"word":"andar","theme":"verbs","date":"2026-10-16","alreadyPlayed":false,
			"gameState":{"guesses":[],"gameWon":false,"gameOver":false,"timer":0,"hasBombStarted":true,"lastBombTime":33}}`))
	})
	mux.HandleFunc("POST /api/gamestate", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&saved))
		w.Write([]byte(`{"message":"Progresso salvo!"}`))
	})
	mux.HandleFunc("GET /api/stats/{user}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"stats":[{"userId":"u1","mode":"normal","theme":"geral","totalGames":2,"wins":1,"losses":1,"winPercent":50,"themeName":"Geral"}]}`))
	})
	mux.HandleFunc("GET /api/validate/{word}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"isValid": r.PathValue("word") == "névoa"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	api, err := NewAPI(srv.URL+"/", srv.Client())
	require.NoError(t, err)
	ctx := context.Background()

	view, err := api.GetState(ctx, "u 1", "verbs", game.ModeBomb)
	require.NoError(t, err)
	assert.Equal(t, "andar", view.Word)
	assert.True(t, view.GameState.HasBombStarted)
	require.NotNil(t, view.GameState.LastBombTime)
	assert.Equal(t, 33, *view.GameState.LastBombTime)

	left := 12
	req := progress.SaveRequest{UserID: "u1", Theme: "verbs", Mode: "bomba",
		Guesses: [][]game.Feedback{}, HasBombStarted: true, LastBombTime: &left}
	require.NoError(t, api.SaveState(ctx, req))
	assert.Equal(t, req, saved)

	rows, err := api.Stats(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].TotalGames)
	assert.Equal(t, 50, rows[0].WinPercent)

	ok, err := api.Validate(ctx, "névoa")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = api.Validate(ctx, "zzzzz")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"Já jogou esse modo/tema hoje."}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Erro interno no servidor."}`))
	}))
	defer srv.Close()

	api, err := NewAPI(srv.URL, nil)
	require.NoError(t, err)

	err = api.SaveState(context.Background(), progress.SaveRequest{UserID: "u1"})
	assert.ErrorIs(t, err, ErrAlreadyPlayed)

	_, err = api.Stats(context.Background(), "u1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "Erro interno no servidor.", apiErr.Message)
}

func TestNewAPIRejectsBadURL(t *testing.T) {
	_, err := NewAPI("localhost:5000", nil)
	assert.Error(t, err)
	_, err = NewAPI("ftp://example.com", nil)
	assert.Error(t, err)
}

func TestLoadUserID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cuca", "user")

	id, err := LoadUserID(path)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	again, err := LoadUserID(path)
	require.NoError(t, err)
	assert.Equal(t, id, again, "the id is stable across runs")

	require.NoError(t, os.WriteFile(path, []byte("not-a-uuid"), 0o600))
	fresh, err := LoadUserID(path)
	require.NoError(t, err)
	assert.NotEqual(t, id, fresh)
}

func TestBombStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "bomb.json")
	b := NewBombStore(path)
	key := BombKey("u1", "geral")
	assert.Equal(t, "bombTime-u1-geral", key)

	v, err := b.Get(key)
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, b.Set(key, 41))
	require.NoError(t, b.Set(BombKey("u1", "verbs"), 9))

	v, err = NewBombStore(path).Get(key)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 41, *v)

	require.NoError(t, b.Remove(key))
	require.NoError(t, b.Remove(key))
	v, err = b.Get(key)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = b.Get(BombKey("u1", "verbs"))
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 9, *v)

	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err = b.Get(key)
	assert.Error(t, err)
}
