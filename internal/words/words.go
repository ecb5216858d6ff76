// internal/words/words.go
//
// Word pool for the daily game.
//
// Responsibilities:
//   - Load one word list per theme from a directory or fall back to the embedded defaults.
//   - Resolve a requested theme to the list actually used (reserve and general fallbacks).
//   - Answer "is this a known word" for guess validation.
//
// Themes:
//   - "geral":      general list, the final fallback.
//   - "verbs":      first non-general theme.
//   - "adjectives": second non-general theme.
//   - "reserve":    substitutes a non-general theme whose list is empty.
//
// A Pool is immutable once built and is passed explicitly to its users.
//
// Constraints:
//   • Words are exactly 5 letters (accented letters count as one).
//   • Lists are lowercased and de-duplicated, keeping file order.

package words

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/robalobadob/cuca/assets"
)

const (
	ThemeGeneral    = "geral"
	ThemeVerbs      = "verbs"
	ThemeAdjectives = "adjectives"
	ThemeReserve    = "reserve"
)

// WordLength is the number of letters in every playable word.
const WordLength = 5

// Themes lists every theme a Pool loads, general first.
var Themes = []string{ThemeGeneral, ThemeVerbs, ThemeAdjectives, ThemeReserve}

// Pool maps theme keys to their candidate words.
type Pool struct {
	lists   map[string][]string
	allowed map[string]struct{} // normalized words across all themes
}

// NewPool builds a pool from raw lists. Invalid words are dropped.
func NewPool(lists map[string][]string) *Pool {
	p := &Pool{
		lists:   make(map[string][]string, len(lists)),
		allowed: make(map[string]struct{}),
	}
	for theme, list := range lists {
		clean := cleanList(list)
		p.lists[theme] = clean
		for _, w := range clean {
			p.allowed[Normalize(w)] = struct{}{}
		}
	}
	return p
}

// Load reads every theme list. With an empty dir the embedded defaults are used;
// otherwise dir/<theme>.txt is read and a missing file means an empty list.
// Returns an error if the general list ends up empty.
func Load(dir string) (*Pool, error) {
	lists := make(map[string][]string, len(Themes))
	for _, theme := range Themes {
		var (
			list []string
			err  error
		)
		if dir == "" {
			list, err = assets.ThemeList(theme)
		} else {
			list, err = readWordFile(filepath.Join(dir, theme+".txt"))
		}
		if err != nil {
			return nil, fmt.Errorf("words: load %s: %w", theme, err)
		}
		lists[theme] = list
	}

	p := NewPool(lists)
	if len(p.lists[ThemeGeneral]) == 0 {
		return nil, errors.New("words: general list is empty")
	}
	return p, nil
}

// Resolve maps a requested theme to the key used for persistence and its list.
//
//  1. A non-general theme with an empty list becomes the reserve theme.
//  2. A theme with a non-empty list is used as is.
//  3. Anything else (unknown theme, empty reserve) falls back to general.
func (p *Pool) Resolve(theme string) (string, []string) {
	key := theme
	if (theme == ThemeVerbs || theme == ThemeAdjectives) && len(p.lists[theme]) == 0 {
		key = ThemeReserve
	}
	if list := p.lists[key]; len(list) > 0 {
		return key, slices.Clone(list)
	}
	return ThemeGeneral, slices.Clone(p.lists[ThemeGeneral])
}

// Allowed reports whether word matches any pooled word once accents are stripped.
func (p *Pool) Allowed(word string) bool {
	_, ok := p.allowed[Normalize(strings.TrimSpace(word))]
	return ok
}

// Counts returns the number of words loaded per theme.
func (p *Pool) Counts() map[string]int {
	return lo.MapValues(p.lists, func(list []string, _ string) int { return len(list) })
}

// ThemeName returns the display name for a theme key.
func ThemeName(theme string) string {
	switch theme {
	case ThemeGeneral:
		return "Geral"
	case ThemeVerbs, ThemeAdjectives, ThemeReserve:
		r, size := utf8.DecodeRuneInString(theme)
		return string(unicode.ToUpper(r)) + theme[size:]
	default:
		return theme
	}
}

// readWordFile loads one word per line from a file.
// A missing file yields an empty list.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

// cleanList lowercases, drops invalid words and removes duplicates.
func cleanList(list []string) []string {
	out := lo.FilterMap(list, func(w string, _ int) (string, bool) {
		w = strings.ToLower(strings.TrimSpace(w))
		return w, IsWord(w)
	})
	return lo.Uniq(out)
}

// IsWord reports whether s is exactly WordLength letters.
func IsWord(s string) bool {
	if utf8.RuneCountInString(s) != WordLength {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
