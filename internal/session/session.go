// AngelaMos | 2026
// session.go

package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/carterperez-dev/templates/fooddelivery-web/internal/auth"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/core"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/guard"
)

// Session is the authentication state of one browser client for the
// span of one request. It is authenticated exactly when it holds an
// Identity decoded from an unexpired credential.
type Session struct {
	manager  *Manager
	clientID string
	identity *auth.Identity
	token    string
}

var _ guard.Principal = (*Session)(nil)

func (s *Session) ClientID() string {
	return s.clientID
}

func (s *Session) Authenticated() bool {
	return s.identity != nil
}

func (s *Session) Identity() *auth.Identity {
	return s.identity
}

func (s *Session) Token() string {
	return s.token
}

func (s *Session) CurrentRole() (auth.Role, bool) {
	if s.identity == nil || s.identity.Role == "" {
		return "", false
	}
	return s.identity.Role, true
}

func (s *Session) key() string {
	return CredentialKey(s.clientID)
}

// Restore loads the client's stored credential. A credential that
// cannot be opened, decoded or is past its expiry is removed. Storage
// outages leave the session signed out without touching the store.
func (s *Session) Restore(ctx context.Context) {
	s.clear()
	if s.clientID == "" {
		return
	}

	m := s.manager
	log := m.logger

	stored, err := m.storage.Load(ctx, s.key())
	if errors.Is(err, ErrNoCredential) {
		return
	}
	if err != nil {
		log.WarnContext(ctx, "credential storage unavailable", "error", err)
		return
	}

	token, err := m.unseal(stored)
	if err != nil {
		log.WarnContext(ctx, "discarding unreadable credential", "error", err)
		s.discard(ctx)
		return
	}

	id, err := m.decoder.Decode(token)
	if err != nil {
		log.InfoContext(ctx, "discarding malformed credential", "error", err)
		s.discard(ctx)
		return
	}

	if id.Expired(m.now()) {
		log.InfoContext(ctx, "discarding expired credential", "user", id.Username)
		s.discard(ctx)
		return
	}

	s.identity = id
	s.token = token
}

// Login exchanges credentials with the gateway and persists the token.
// The returned route is where the caller should be sent next.
func (s *Session) Login(ctx context.Context, creds auth.Credentials) (string, error) {
	m := s.manager
	s.clear()

	if err := m.validate.Struct(creds); err != nil {
		return "", core.ValidationError(core.FormatValidationError(err))
	}

	token, err := m.gateway.Login(ctx, creds)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}

	id, err := m.decoder.Decode(token)
	if err != nil {
		m.logger.WarnContext(ctx, "gateway issued an unreadable token", "error", err)
		return "", fmt.Errorf("login: %w", err)
	}

	if id.Expired(m.now()) {
		return "", core.TokenExpiredError()
	}

	sealed, err := m.seal(token)
	if err != nil {
		return "", core.InternalError(fmt.Errorf("seal credential: %w", err))
	}

	if s.clientID == "" {
		return "", core.InternalError(errors.New("session has no client id"))
	}

	if err := m.storage.Save(ctx, s.key(), sealed, m.retention(id)); err != nil {
		m.logger.ErrorContext(ctx, "failed to persist credential", "error", err)
		return "", core.UnavailableError("credential storage unavailable")
	}

	s.identity = id
	s.token = token

	m.logger.InfoContext(ctx, "user signed in",
		"user", id.Username,
		"role", id.Role,
	)

	return guard.LandingAfterLogin(id.Role), nil
}

// Logout forgets the credential and returns the public entry route.
// Storage failures are logged; the session is signed out regardless.
func (s *Session) Logout(ctx context.Context) string {
	if s.identity != nil {
		s.manager.logger.InfoContext(ctx, "user signed out", "user", s.identity.Username)
	}
	if s.clientID != "" {
		s.discard(ctx)
	}
	s.clear()
	return guard.RouteLogin
}

func (s *Session) discard(ctx context.Context) {
	if err := s.manager.storage.Remove(ctx, s.key()); err != nil {
		s.manager.logger.WarnContext(ctx, "failed to remove credential", "error", err)
	}
}

func (s *Session) clear() {
	s.identity = nil
	s.token = ""
}
