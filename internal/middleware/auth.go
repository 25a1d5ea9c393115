// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/carterperez-dev/templates/fooddelivery-web/internal/auth"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/core"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/guard"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/session"
)

const SessionKey contextKey = "session"

// Sessions identifies the browser client and restores its session
// before any handler or guard runs.
func Sessions(
	manager *session.Manager,
	cookie session.ClientCookie,
	logger *slog.Logger,
) func(http.Handler) http.Handler {
	logger = logger.With("component", "sessions")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID, err := cookie.Ensure(w, r)
			if err != nil {
				logger.ErrorContext(r.Context(), "issue client cookie", "error", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			s := manager.Open(r.Context(), clientID)
			ctx := context.WithValue(r.Context(), SessionKey, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetSession(ctx context.Context) *session.Session {
	if s, ok := ctx.Value(SessionKey).(*session.Session); ok {
		return s
	}
	return nil
}

func principal(r *http.Request) guard.Principal {
	if s := GetSession(r.Context()); s != nil {
		return s
	}
	return nil
}

func GetIdentity(ctx context.Context) *auth.Identity {
	if s := GetSession(ctx); s != nil {
		return s.Identity()
	}
	return nil
}

// RequireAuthenticated admits any signed-in client. Courier pages use
// it since couriers sit outside the role matrix.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if enforce(w, r, guard.RequireAuthenticated(principal(r))) {
			next.ServeHTTP(w, r)
		}
	})
}

func RequireRole(role auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if enforce(w, r, guard.RequireRole(principal(r), role)) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

func RequireApproval(g *guard.ApprovalGuard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if enforce(w, r, g.Check(r.Context(), principal(r))) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// enforce applies a guard decision. Denials are silent redirects.
func enforce(w http.ResponseWriter, r *http.Request, d guard.Decision) bool {
	core.RecordGuardDecision(r.Context(), r.URL.Path, d.Allowed, string(d.Reason))

	if d.Allowed {
		return true
	}

	slog.DebugContext(r.Context(), "navigation denied",
		"path", r.URL.Path,
		"redirect", d.Redirect,
		"reason", d.Reason,
		"request_id", GetRequestID(r.Context()),
	)
	http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
	return false
}
