// internal/game/engine.go
//
// Guess scoring and end-of-game rules.
// Responsibilities:
//   - Score a guess against the target with the two-pass Wordle algorithm.
//   - Aggregate per-key statuses for the virtual keyboard.
//   - Decide win and game-over conditions.
//
// Notes:
//   - Letters are compared after words.Normalize (lowercase, ç→c, no accents);
//     the displayed letter is the one typed.
//   - Reverse mode scores against the target reversed rune by rune.

package game

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"unicode/utf8"

	"github.com/robalobadob/cuca/internal/words"
)

// consumed marks a target letter already matched by an earlier position.
const consumed rune = -1

// Target returns the string a guess is scored against in mode.
func Target(word string, mode Mode) string {
	if mode == ModeReverse {
		return Reverse(word)
	}
	return word
}

// Reverse reverses s rune by rune.
func Reverse(s string) string {
	r := []rune(s)
	slices.Reverse(r)
	return string(r)
}

// Score compares guess against the day's word and returns one Feedback per guess letter.
//
// Pass 1:
//   - Mark exact matches as correct and consume that target letter.
//
// Pass 2:
//   - For every other position: if the letter remains anywhere in the target,
//     mark present and consume one occurrence; otherwise mark absent.
//
// This never marks more present/correct tiles for a letter than the target holds.
func Score(guess, word string, mode Mode) []Feedback {
	target := []rune(words.Normalize(Target(word, mode)))
	typed := []rune(guess)
	out := make([]Feedback, len(typed))

	folded := make([]rune, len(typed))
	for i, r := range typed {
		folded[i] = words.NormalizeRune(r)
		out[i].Letter = string(r)
	}

	// First pass: exact matches.
	for i := range typed {
		if i < len(target) && folded[i] == target[i] {
			out[i].Status = StatusCorrect
			target[i] = consumed
		}
	}

	// Second pass: present or absent against what is left.
	for i := range typed {
		if out[i].Status != "" {
			continue
		}
		if j := slices.Index(target, folded[i]); j >= 0 {
			out[i].Status = StatusPresent
			target[j] = consumed
		} else {
			out[i].Status = StatusAbsent
		}
	}
	return out
}

// IsWin reports whether guess solves the day's word in mode.
func IsWin(guess, word string, mode Mode) bool {
	return words.Normalize(guess) == words.Normalize(Target(word, mode))
}

// IsOver reports whether a game has ended: a win, the attempt limit,
// or (bomb mode only) an expired countdown.
func IsOver(won bool, attempts int, mode Mode, timer int) bool {
	return won || attempts >= MaxAttempts || (mode == ModeBomb && timer <= 0)
}

// MergeKeyStatuses folds one scored row into the keyboard statuses and returns a new map.
// A key's status never gets worse: correct is final, present is not replaced by absent.
func MergeKeyStatuses(keys map[string]Status, row []Feedback) map[string]Status {
	out := make(map[string]Status, len(keys)+len(row))
	maps.Copy(out, keys)
	for _, fb := range row {
		k := words.Normalize(fb.Letter)
		if fb.Status.rank() > out[k].rank() {
			out[k] = fb.Status
		}
	}
	return out
}

// KeyStatuses rebuilds keyboard statuses from every row played so far.
func KeyStatuses(rows [][]Feedback) map[string]Status {
	keys := map[string]Status{}
	for _, row := range rows {
		keys = MergeKeyStatuses(keys, row)
	}
	return keys
}

// Word returns the letters of a scored row joined back together.
func Word(row []Feedback) string {
	var b []byte
	for _, fb := range row {
		b = append(b, fb.Letter...)
	}
	return string(b)
}

// ValidateRows checks a submitted board: at most MaxAttempts rows of
// WordLength single letters with a known status each.
func ValidateRows(rows [][]Feedback) error {
	if len(rows) > MaxAttempts {
		return fmt.Errorf("game: %d guesses exceeds the limit of %d", len(rows), MaxAttempts)
	}
	for i, row := range rows {
		if len(row) != WordLength {
			return fmt.Errorf("game: guess %d has %d letters", i+1, len(row))
		}
		for _, fb := range row {
			if utf8.RuneCountInString(fb.Letter) != 1 {
				return fmt.Errorf("game: guess %d has an invalid letter %q", i+1, fb.Letter)
			}
			if !fb.Status.Valid() {
				return fmt.Errorf("game: guess %d has an invalid status %q", i+1, fb.Status)
			}
		}
	}
	return nil
}

// ErrNotAWord is returned when a guess is not WordLength letters.
var ErrNotAWord = errors.New("game: guess must be 5 letters")
