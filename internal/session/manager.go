// AngelaMos | 2026
// manager.go

package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/fooddelivery-web/internal/auth"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/core"
)

type TokenDecoder interface {
	Decode(raw string) (*auth.Identity, error)
}

// Authenticator exchanges credentials for a bearer token.
type Authenticator interface {
	Login(ctx context.Context, creds auth.Credentials) (string, error)
}

// Manager builds per-request sessions over shared collaborators. It
// holds no per-client state itself.
type Manager struct {
	storage  Storage
	decoder  TokenDecoder
	gateway  Authenticator
	sealer   *core.Sealer
	validate *validator.Validate
	now      func() time.Time
	ttl      time.Duration
	logger   *slog.Logger
}

type Option func(*Manager)

func WithSealer(s *core.Sealer) Option {
	return func(m *Manager) { m.sealer = s }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithTTL caps how long a credential is kept when the token itself
// carries no expiry or a later one.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func NewManager(
	storage Storage,
	decoder TokenDecoder,
	gateway Authenticator,
	opts ...Option,
) *Manager {
	m := &Manager{
		storage:  storage,
		decoder:  decoder,
		gateway:  gateway,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
		ttl:      24 * time.Hour,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "session")
	return m
}

// Open returns the session for a browser client, restored from storage.
func (m *Manager) Open(ctx context.Context, clientID string) *Session {
	s := &Session{
		manager:  m,
		clientID: clientID,
	}
	s.Restore(ctx)
	return s
}

func (m *Manager) Storage() Storage {
	return m.storage
}

func (m *Manager) seal(token string) (string, error) {
	if m.sealer == nil {
		return token, nil
	}
	return m.sealer.Seal(token)
}

func (m *Manager) unseal(stored string) (string, error) {
	if m.sealer == nil {
		return stored, nil
	}
	return m.sealer.Open(stored)
}

func (m *Manager) retention(id *auth.Identity) time.Duration {
	if id.ExpiresAt == nil {
		return m.ttl
	}
	remaining := id.ExpiresAt.Sub(m.now())
	if m.ttl > 0 && remaining > m.ttl {
		return m.ttl
	}
	return remaining
}
