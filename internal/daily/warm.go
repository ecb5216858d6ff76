package daily

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/cuca/internal/game"
	"github.com/robalobadob/cuca/internal/words"
)

// warmLimit bounds concurrent store calls during Warm.
const warmLimit = 4

// Warm assigns today's word for every playable theme and mode, so the first
// players of the day do not race for the claim. An exhausted list is logged and
// skipped; any other error aborts.
func (a *Allocator) Warm(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(warmLimit)
	for _, theme := range words.Themes {
		if theme == words.ThemeReserve {
			continue
		}
		for _, mode := range game.Modes {
			eg.Go(func() error {
				_, err := a.WordOfDay(ctx, theme, mode)
				if errors.Is(err, ErrPoolExhausted) {
					log.Warn().Err(err).Str("mode", string(mode)).Msg("no word to assign")
					return nil
				}
				return err
			})
		}
	}
	return eg.Wait()
}
