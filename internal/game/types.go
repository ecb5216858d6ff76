// internal/game/types.go
//
// Core type definitions for guess scoring.
// Defines:
//   - Status: per-letter result of a guess (correct/present/absent).
//   - Feedback: one scored letter, as rendered on the board and stored.
//   - Mode: the game variant (normal, bomb, reverse).

package game

import (
	"fmt"

	"github.com/robalobadob/cuca/internal/words"
)

// Status represents the evaluation result for a single letter in a guess.
//   - "correct": letter is in the word at this position.
//   - "present": letter is in the word at another position.
//   - "absent":  letter is not in the (remaining) word.
type Status string

const (
	StatusCorrect Status = "correct"
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	return s == StatusCorrect || s == StatusPresent || s == StatusAbsent
}

// rank orders statuses for keyboard aggregation; unknown ranks lowest.
func (s Status) rank() int {
	switch s {
	case StatusCorrect:
		return 3
	case StatusPresent:
		return 2
	case StatusAbsent:
		return 1
	}
	return 0
}

// Feedback is one scored letter. Letter keeps the guess as typed (accents included).
type Feedback struct {
	Letter string `json:"letter"`
	Status Status `json:"status"`
}

// Mode is a game variant.
type Mode string

const (
	ModeNormal  Mode = "normal"  // count-up timer
	ModeBomb    Mode = "bomba"   // count-down timer, loss at zero
	ModeReverse Mode = "reverse" // target reversed before scoring
)

// Modes lists every playable mode.
var Modes = []Mode{ModeNormal, ModeBomb, ModeReverse}

// ModeName is the label players see for m.
func ModeName(m Mode) string {
	switch m {
	case ModeNormal:
		return "Normal"
	case ModeBomb:
		return "Bomba Relógio"
	case ModeReverse:
		return "Ao Contrário"
	}
	return string(m)
}

// ParseMode validates a wire value. Empty input means normal.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case "":
		return ModeNormal, nil
	case ModeNormal, ModeBomb, ModeReverse:
		return m, nil
	}
	return "", fmt.Errorf("game: unknown mode %q", s)
}

// Game dimensions and the bomb countdown.
const (
	MaxAttempts    = 6
	WordLength     = words.WordLength
	BombTimerStart = 60
)
