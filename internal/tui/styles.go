package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/robalobadob/cuca/internal/game"
)

// Board colors, close to the web client's palette.
var (
	colorCorrect = lipgloss.Color("#538d4e")
	colorPresent = lipgloss.Color("#b59f3b")
	colorAbsent  = lipgloss.Color("#3a3a3c")
	colorEmpty   = lipgloss.Color("#565758")
	colorText    = lipgloss.Color("#f2f2f2")
	colorError   = lipgloss.Color("#e53935")
	colorMuted   = lipgloss.Color("#818384")
)

// Styles groups every style the game screen uses.
type Styles struct {
	Title   lipgloss.Style
	Info    lipgloss.Style
	Error   lipgloss.Style
	Win     lipgloss.Style
	Tile    lipgloss.Style
	Cursor  lipgloss.Style
	Key     lipgloss.Style
	Muted   lipgloss.Style
	Results map[game.Status]lipgloss.Style
}

// DefaultStyles returns the dark palette.
func DefaultStyles() Styles {
	tile := lipgloss.NewStyle().
		Width(3).
		Align(lipgloss.Center).
		Bold(true).
		Foreground(colorText).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorEmpty)

	filled := func(c lipgloss.Color) lipgloss.Style {
		return tile.Background(c).BorderForeground(c)
	}

	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(colorText).MarginBottom(1),
		Info:   lipgloss.NewStyle().Foreground(colorText),
		Error:  lipgloss.NewStyle().Foreground(colorError).Bold(true),
		Win:    lipgloss.NewStyle().Foreground(colorCorrect).Bold(true),
		Tile:   tile,
		Cursor: tile.BorderForeground(colorText),
		Key:    lipgloss.NewStyle().Padding(0, 1).Foreground(colorText).Background(colorEmpty),
		Muted:  lipgloss.NewStyle().Foreground(colorMuted),
		Results: map[game.Status]lipgloss.Style{
			game.StatusCorrect: filled(colorCorrect),
			game.StatusPresent: filled(colorPresent),
			game.StatusAbsent:  filled(colorAbsent),
		},
	}
}

// keyStyle colors a keyboard key by its best status so far.
func (s Styles) keyStyle(st game.Status) lipgloss.Style {
	switch st {
	case game.StatusCorrect:
		return s.Key.Background(colorCorrect)
	case game.StatusPresent:
		return s.Key.Background(colorPresent)
	case game.StatusAbsent:
		return s.Key.Background(colorAbsent).Foreground(colorMuted)
	}
	return s.Key
}
