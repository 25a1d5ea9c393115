// AngelaMos | 2026
// storage.go

package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/carterperez-dev/templates/fooddelivery-web/internal/core"
)

var ErrNoCredential = errors.New("no stored credential")

// Storage is the durable home of each client's bearer credential.
// Load returns ErrNoCredential when nothing usable is stored.
type Storage interface {
	Load(ctx context.Context, key string) (string, error)
	Save(ctx context.Context, key, value string, ttl time.Duration) error
	Remove(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// StatsReporter is implemented by storages that can describe their
// contents for the admin system page.
type StatsReporter interface {
	Stats(ctx context.Context) (map[string]any, error)
}

type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// CredentialKey derives the storage key for a browser client. The raw
// client id never reaches the store.
func CredentialKey(clientID string) string {
	return "credential:" + core.HashToken(clientID)
}

// RunJanitor purges expired credentials every interval until ctx ends.
func RunJanitor(ctx context.Context, p Purger, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	logger = logger.With("component", "session_janitor")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("purge expired credentials failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("purged expired credentials", "count", n)
			}
		}
	}
}
