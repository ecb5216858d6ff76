// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// Used by tests and for local development when durability is not required.
//
// Characteristics:
//   - One mutex guards all three maps, so each call is atomic like a single
//     SQL statement in the durable backends.
//   - Records are copied in and out; callers never share slices with the map.
//   - State is lost when the process restarts.

package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/robalobadob/cuca/internal/game"
)

type usedKey struct{ date, mode, theme string }

type statsKey struct{ user, mode, theme string }

// memory is a map-based Store implementation.
type memory struct {
	mu     sync.Mutex
	used   map[usedKey]string
	order  []UsedWord // insertion order for UsedWords
	states map[string]GameState
	stats  map[statsKey]Stats
	now    func() time.Time
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() Store {
	return &memory{
		used:   make(map[usedKey]string),
		states: make(map[string]GameState),
		stats:  make(map[statsKey]Stats),
		now:    time.Now,
	}
}

func (m *memory) UsedWord(ctx context.Context, date, mode, theme string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, unavailable("used word", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.used[usedKey{date, mode, theme}]
	return w, ok, nil
}

func (m *memory) UsedWords(ctx context.Context, mode, theme string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("used words", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return lo.FilterMap(m.order, func(u UsedWord, _ int) (string, bool) {
		return u.Word, u.Mode == mode && u.Theme == theme
	}), nil
}

func (m *memory) ClaimWord(ctx context.Context, w UsedWord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", unavailable("claim word", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := usedKey{w.Date, w.Mode, w.Theme}
	if existing, ok := m.used[k]; ok {
		return existing, nil
	}
	m.used[k] = w.Word
	m.order = append(m.order, w)
	return w.Word, nil
}

func (m *memory) GameState(ctx context.Context, key string) (*GameState, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("game state", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[key]
	if !ok {
		return nil, nil
	}
	s = cloneState(s)
	return &s, nil
}

func (m *memory) SaveGameState(ctx context.Context, s GameState) error {
	if err := ctx.Err(); err != nil {
		return unavailable("save game state", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.states[s.Key]; ok && prev.GameOver {
		return ErrAlreadyCompleted
	}
	s = cloneState(s)
	s.UpdatedAt = m.now().UTC()
	m.states[s.Key] = s
	return nil
}

func (m *memory) RecordCompletion(ctx context.Context, c Completion) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, unavailable("record completion", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := statsKey{c.UserID, c.Mode, c.Theme}
	st, ok := m.stats[k]
	if !ok {
		st = Stats{UserID: c.UserID, Mode: c.Mode, Theme: c.Theme}
	}
	if st.LastPlayed != nil && DateOf(*st.LastPlayed) == DateOf(c.At) {
		return false, nil
	}
	st.TotalGames++
	if c.Won {
		st.Wins++
	} else {
		st.Losses++
	}
	st.TotalAttempts += c.Attempts
	st.TotalTime += c.Time
	at := c.At.UTC()
	st.LastPlayed = &at
	m.stats[k] = st
	return true, nil
}

func (m *memory) Stats(ctx context.Context, userID string) ([]Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("stats", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := lo.Filter(lo.Values(m.stats), func(s Stats, _ int) bool {
		return s.UserID == userID
	})
	sortStats(out)
	return out, nil
}

func (m *memory) Close() error { return nil }

// cloneState deep-copies the guess rows and the nullable bomb time.
func cloneState(s GameState) GameState {
	s.Guesses = lo.Map(s.Guesses, func(row []game.Feedback, _ int) []game.Feedback {
		return slices.Clone(row)
	})
	if s.LastBombTime != nil {
		v := *s.LastBombTime
		s.LastBombTime = &v
	}
	return s
}

// sortStats orders rows by mode then theme, as every backend returns them.
func sortStats(rows []Stats) {
	slices.SortFunc(rows, func(a, b Stats) int {
		return cmp.Or(strings.Compare(a.Mode, b.Mode), strings.Compare(a.Theme, b.Theme))
	})
}
