// internal/daily/daily.go
//
// Calendar helpers and result types for the daily word.
//
// A day is a UTC calendar date formatted YYYY-MM-DD. Every player sees the
// same word for a given (date, mode, theme), whatever their local time.

package daily

import (
	"errors"
	"time"

	"github.com/robalobadob/cuca/internal/game"
)

// ErrPoolExhausted is returned when every word of a theme has already been used
// for a mode. The message is shown to players as is.
var ErrPoolExhausted = errors.New("lista de palavras não encontrada ou todas já usadas")

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// Word is the resolved word of the day.
type Word struct {
	Word  string    `json:"word"`
	Theme string    `json:"theme"` // resolved theme key, after reserve/general fallback
	Date  string    `json:"date"`
	Mode  game.Mode `json:"mode"`
}
