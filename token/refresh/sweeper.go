package refresh

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Expirer is implemented by stores whose lapsed entries need an explicit
// sweep to be reclaimed. The redis store is absent here: Redis expires keys
// itself.
type Expirer interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Sweep removes lapsed entries from e every interval until ctx is canceled.
// Lapsed entries are already unusable through Consume; sweeping only keeps
// the store bounded.
func Sweep(ctx context.Context, e Expirer, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := e.DeleteExpired(ctx)
			if err != nil {
				log.Error().Err(err).Msg("refresh token sweep failed")
				continue
			}
			if removed > 0 {
				log.Debug().Int64("removed", removed).Msg("swept expired refresh tokens")
			}
		}
	}
}
