package daily

import (
	"context"

	"github.com/robalobadob/cuca/internal/store"
)

// UsedWordStore is the part of store.Store the allocator needs.
type UsedWordStore interface {
	UsedWord(ctx context.Context, date, mode, theme string) (string, bool, error)
	UsedWords(ctx context.Context, mode, theme string) ([]string, error)
	ClaimWord(ctx context.Context, w store.UsedWord) (string, error)
}
