// internal/daily/allocator.go
//
// Daily word allocation.
// Responsibilities:
//   - Resolve the requested theme against the word pool.
//   - Return the word already assigned to today's (mode, theme) if there is one.
//   - Otherwise pick a never-used word at random and claim it atomically.
//
// Concurrent first requests may pick different candidates; the store keeps the
// first insert and every caller returns the stored word.

package daily

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/robalobadob/cuca/internal/game"
	"github.com/robalobadob/cuca/internal/store"
	"github.com/robalobadob/cuca/internal/words"
)

// Picker returns an index in [0, n).
type Picker func(n int) (int, error)

// CryptoPicker draws uniformly from crypto/rand.
func CryptoPicker(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

// Allocator hands out one word per (date, mode, theme).
type Allocator struct {
	pool  *words.Pool
	store UsedWordStore
	now   func() time.Time
	pick  Picker
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Allocator) { a.now = now }
}

// WithPicker overrides CryptoPicker.
func WithPicker(p Picker) Option {
	return func(a *Allocator) { a.pick = p }
}

// NewAllocator builds an Allocator over an immutable pool and a store.
func NewAllocator(pool *words.Pool, st UsedWordStore, opts ...Option) *Allocator {
	a := &Allocator{pool: pool, store: st, now: time.Now, pick: CryptoPicker}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Today returns the current UTC date key.
func (a *Allocator) Today() string {
	return DateKey(a.now())
}

// ResolveTheme returns the key theme is stored under after reserve/general fallback.
func (a *Allocator) ResolveTheme(theme string) string {
	key, _ := a.pool.Resolve(theme)
	return key
}

// WordOfDay returns today's word for theme and mode, assigning one on first use.
// It returns ErrPoolExhausted when the resolved list has no unused word left.
func (a *Allocator) WordOfDay(ctx context.Context, theme string, mode game.Mode) (Word, error) {
	key, list := a.pool.Resolve(theme)
	out := Word{Theme: key, Date: a.Today(), Mode: mode}

	word, ok, err := a.store.UsedWord(ctx, out.Date, string(mode), key)
	if err != nil {
		return Word{}, fmt.Errorf("daily: look up %s/%s: %w", mode, key, err)
	}
	if ok {
		out.Word = word
		return out, nil
	}

	used, err := a.store.UsedWords(ctx, string(mode), key)
	if err != nil {
		return Word{}, fmt.Errorf("daily: list used %s/%s: %w", mode, key, err)
	}
	available := lo.Without(list, used...)
	if len(available) == 0 {
		return Word{}, fmt.Errorf("%w para o tema '%s'", ErrPoolExhausted, theme)
	}

	i, err := a.pick(len(available))
	if err != nil {
		return Word{}, fmt.Errorf("daily: pick word: %w", err)
	}
	claimed, err := a.store.ClaimWord(ctx, store.UsedWord{
		Date:  out.Date,
		Mode:  string(mode),
		Theme: key,
		Word:  available[i],
	})
	if err != nil {
		return Word{}, fmt.Errorf("daily: claim %s/%s: %w", mode, key, err)
	}

	log.Info().
		Str("date", out.Date).
		Str("mode", string(mode)).
		Str("theme", key).
		Int("remaining", len(available)-1).
		Msg("daily word assigned")
	out.Word = claimed
	return out, nil
}
