package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/robalobadob/cuca/internal/game"
	"github.com/robalobadob/cuca/internal/progress"
)

// ErrAlreadyPlayed is returned when the server refuses a save for a finished board.
var ErrAlreadyPlayed = errors.New("já jogou esse modo/tema hoje")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cuca api: %d: %s", e.Status, e.Message)
}

// API talks to a Cuca server under its /api prefix.
type API struct {
	base *url.URL
	hc   *http.Client
}

// NewAPI returns a client for the server at baseURL (e.g. "http://localhost:5000").
func NewAPI(baseURL string, hc *http.Client) (*API, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("cuca api: parse %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("cuca api: unsupported url %q", baseURL)
	}
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &API{base: u, hc: hc}, nil
}

// GetState fetches today's word and the stored board.
func (a *API) GetState(ctx context.Context, userID, theme string, mode game.Mode) (progress.View, error) {
	q := url.Values{"theme": {theme}, "mode": {string(mode)}}
	var view progress.View
	err := a.do(ctx, http.MethodGet, "/api/gamestate/"+url.PathEscape(userID)+"?"+q.Encode(), nil, &view)
	return view, err
}

// SaveState posts a board.
func (a *API) SaveState(ctx context.Context, req progress.SaveRequest) error {
	return a.do(ctx, http.MethodPost, "/api/gamestate", req, nil)
}

// Stats lists the player's stats rows.
func (a *API) Stats(ctx context.Context, userID string) ([]progress.StatsRow, error) {
	var body struct {
		Stats []progress.StatsRow `json:"stats"`
	}
	err := a.do(ctx, http.MethodGet, "/api/stats/"+url.PathEscape(userID), nil, &body)
	return body.Stats, err
}

// Validate asks whether word is a known word.
func (a *API) Validate(ctx context.Context, word string) (bool, error) {
	var body struct {
		IsValid bool `json:"isValid"`
	}
	err := a.do(ctx, http.MethodGet, "/api/validate/"+url.PathEscape(word), nil, &body)
	return body.IsValid, err
}

func (a *API) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("cuca api: encode: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.base.String()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.hc.Do(req)
	if err != nil {
		return fmt.Errorf("cuca api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4<<10)).Decode(&e)
		if resp.StatusCode == http.StatusForbidden {
			return fmt.Errorf("%w: %s", ErrAlreadyPlayed, e.Error)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("cuca api: decode %s: %w", path, err)
	}
	return nil
}
