package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/cuca/internal/client"
	"github.com/robalobadob/cuca/internal/game"
	"github.com/robalobadob/cuca/internal/progress"
)

type fakeBackend struct {
	mu    sync.Mutex
	view  progress.View
	err   error
	saves []progress.SaveRequest
	known map[string]bool
}

func (f *fakeBackend) GetState(_ context.Context, _, _ string, _ game.Mode) (progress.View, error) {
	return f.view, f.err
}

func (f *fakeBackend) SaveState(_ context.Context, req progress.SaveRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, req)
	return nil
}

func (f *fakeBackend) Validate(_ context.Context, word string) (bool, error) {
	return f.known[word], nil
}

type memBombs map[string]int

func (b memBombs) Get(key string) (*int, error) {
	if v, ok := b[key]; ok {
		return &v, nil
	}
	return nil, nil
}

func (b memBombs) Set(key string, seconds int) error { b[key] = seconds; return nil }
func (b memBombs) Remove(key string) error          { delete(b, key); return nil }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

// send feeds msg to m and follows the I/O commands it triggers, feeding their
// results back until none are left. Ticks are not followed.
func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	for msg != nil {
		next, cmd := m.Update(msg)
		m = next.(Model)
		msg = nil
		if cmd == nil {
			break
		}
		switch out := cmd().(type) {
		case loadedMsg, validatedMsg, savedMsg:
			msg = out
		}
	}
	return m
}

func loaded(t *testing.T, be *fakeBackend, bombs memBombs, mode game.Mode) Model {
	t.Helper()
	m := New(be, bombs, "u1", "geral", mode)
	return send(t, m, m.load()())
}

func TestPlayToWin(t *testing.T) {
	be := &fakeBackend{
		view:  progress.View{Word: "campo", Theme: "geral", GameState: progress.State{Guesses: [][]game.Feedback{}}},
		known: map[string]bool{"barco": true, "campo": true},
	}
	m := loaded(t, be, memBombs{}, game.ModeNormal)
	require.False(t, m.loading)

	for _, r := range "zzzzz" {
		m = send(t, m, runes(string(r)))
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "Palavra não encontrada.", m.flash)
	assert.Empty(t, m.State().Guesses)

	for range game.WordLength {
		m = send(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	}
	for _, r := range "barco" {
		m = send(t, m, runes(string(r)))
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, m.State().Guesses, 1)

	for _, r := range "campo" {
		m = send(t, m, runes(string(r)))
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.State().GameWon)
	assert.Contains(t, m.View(), "CAMPO")
	assert.Contains(t, m.View(), "Próxima palavra em")

	require.Len(t, be.saves, 2)
	assert.True(t, be.saves[1].GameOver)
	assert.True(t, be.saves[1].GameWon)
}

func TestBombStartTickAndQuit(t *testing.T) {
	be := &fakeBackend{view: progress.View{Word: "campo", Theme: "geral"}}
	bombs := memBombs{}
	m := loaded(t, be, bombs, game.ModeBomb)
	require.False(t, m.State().TimerActive)
	assert.Contains(t, m.View(), "Pressione Enter")

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.State().Running())

	next, _ := m.Update(tickMsg(time.Now()))
	m = next.(Model)
	assert.Equal(t, game.BombTimerStart-1, m.State().Timer)
	assert.Equal(t, game.BombTimerStart-1, bombs[client.BombKey("u1", "geral")])

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd(), "the save runs before quitting")
	require.NotEmpty(t, be.saves)
	last := be.saves[len(be.saves)-1]
	require.NotNil(t, last.LastBombTime)
	assert.Equal(t, game.BombTimerStart-1, *last.LastBombTime)
	assert.False(t, last.GameOver)
}

func TestBombExpiry(t *testing.T) {
	left := 1
	be := &fakeBackend{view: progress.View{Word: "campo", Theme: "geral",
		GameState: progress.State{HasBombStarted: true, Timer: 30, LastBombTime: &left}}}
	bombs := memBombs{client.BombKey("u1", "geral"): 1}
	m := loaded(t, be, bombs, game.ModeBomb)
	require.Equal(t, 1, m.State().Timer)

	next, cmd := m.Update(tickMsg(time.Now()))
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.State().GameOver)
	assert.NotContains(t, bombs, client.BombKey("u1", "geral"))

	// The expiry save is part of the batch.
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	for _, c := range batch {
		if c == nil {
			continue
		}
		if _, isSave := c().(savedMsg); isSave {
			break
		}
	}
	require.Len(t, be.saves, 1)
	assert.True(t, be.saves[0].GameOver)
	assert.Equal(t, 0, *be.saves[0].LastBombTime)
}

func TestLoadFailureStillPlayable(t *testing.T) {
	be := &fakeBackend{err: errors.New("connection refused")}
	m := loaded(t, be, memBombs{}, game.ModeNormal)
	assert.Contains(t, m.View(), "Falha ao buscar dados do jogo")
	m = send(t, m, runes("a"))
	assert.Equal(t, "a", m.State().Tiles[0])
}

func TestReverseLabels(t *testing.T) {
	be := &fakeBackend{view: progress.View{Word: "campo", Theme: "geral"}}
	m := loaded(t, be, memBombs{}, game.ModeReverse)
	assert.Contains(t, m.View(), ":savitatneT")
}

func TestCountdown(t *testing.T) {
	assert.Equal(t, "01:30:05", countdown(90*time.Minute+5*time.Second))
	assert.Equal(t, "00:00:00", countdown(0))
}
