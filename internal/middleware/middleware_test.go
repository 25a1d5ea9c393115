// AngelaMos | 2026
// middleware_test.go

package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/templates/fooddelivery-web/internal/auth"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/guard"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/session"
)

const cookieName = "fd_client"

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubGateway struct {
	tokens   map[string]string
	approval auth.ApprovalState
	found    bool
	err      error
}

func (g *stubGateway) Login(_ context.Context, c auth.Credentials) (string, error) {
	if tok, ok := g.tokens[c.Username]; ok {
		return tok, nil
	}
	return "", errors.New("bad credentials")
}

func (g *stubGateway) RestaurantApproval(context.Context, string) (auth.ApprovalState, bool, error) {
	return g.approval, g.found, g.err
}

func token(t *testing.T, sub string, role auth.Role) string {
	t.Helper()
	tok, err := jwt.NewBuilder().
		Subject(sub).
		Claim(auth.ClaimRoles, []string{auth.RolePrefix + string(role)}).
		Expiration(time.Now().Add(time.Hour)).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), []byte("k")))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return string(signed)
}

type harness struct {
	router  http.Handler
	manager *session.Manager
	gateway *stubGateway
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	gw := &stubGateway{tokens: map[string]string{
		"cliente":     token(t, "cliente", auth.RoleCustomer),
		"restaurante": token(t, "restaurante", auth.RoleRestaurant),
		"admin":       token(t, "admin", auth.RoleAdmin),
		"repartidor":  token(t, "repartidor", auth.RoleCourier),
	}}
	m := session.NewManager(session.NewMemoryStorage(), auth.NewDecoder(), gw, session.WithLogger(quiet()))
	approval := guard.NewApprovalGuard(gw, guard.WithLogger(quiet()))

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Sessions(m, session.ClientCookie{Name: cookieName, MaxAge: time.Hour}, quiet()))
	r.With(RequireRole(auth.RoleCustomer)).Get("/cliente", ok)
	r.With(RequireRole(auth.RoleAdmin)).Get("/admin", ok)
	r.With(RequireRole(auth.RoleRestaurant)).Get("/restaurante/mi-estado", ok)
	r.With(RequireRole(auth.RoleRestaurant), RequireApproval(approval)).Get("/restaurante/menu", ok)
	r.With(RequireAuthenticated).Get("/repartidor", ok)

	return &harness{router: r, manager: m, gateway: gw}
}

// signIn logs a client in directly through the manager and returns the
// cookie the browser would carry.
func (h *harness) signIn(t *testing.T, user string) *http.Cookie {
	t.Helper()
	id := "client-" + user + "-0123456789"
	s := h.manager.Open(context.Background(), id)
	if _, err := s.Login(context.Background(), auth.Credentials{Username: user, Password: "x"}); err != nil {
		t.Fatalf("Login(%s): %v", user, err)
	}
	return &http.Cookie{Name: cookieName, Value: id}
}

func (h *harness) get(path string, c *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if c != nil {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func TestGuards_Redirects(t *testing.T) {
	h := newHarness(t)
	cookies := map[string]*http.Cookie{
		"":            nil,
		"cliente":     h.signIn(t, "cliente"),
		"restaurante": h.signIn(t, "restaurante"),
		"admin":       h.signIn(t, "admin"),
		"repartidor":  h.signIn(t, "repartidor"),
	}

	tests := []struct {
		user     string
		path     string
		location string
	}{
		{"", "/cliente", "/login"},
		{"", "/repartidor", "/login"},
		{"", "/restaurante/menu", "/login"},
		{"cliente", "/cliente", ""},
		{"cliente", "/admin", "/cliente"},
		{"restaurante", "/cliente", "/restaurante"},
		{"admin", "/cliente", "/admin"},
		{"repartidor", "/cliente", "/login"},
		{"repartidor", "/repartidor", ""},
		{"cliente", "/repartidor", ""},
		{"cliente", "/restaurante/menu", "/cliente"},
	}

	for _, tt := range tests {
		t.Run(tt.user+tt.path, func(t *testing.T) {
			w := h.get(tt.path, cookies[tt.user])
			if tt.location == "" {
				if w.Code != http.StatusOK {
					t.Errorf("status = %d, want 200", w.Code)
				}
				return
			}
			if w.Code != http.StatusSeeOther {
				t.Fatalf("status = %d, want 303", w.Code)
			}
			if got := w.Header().Get("Location"); got != tt.location {
				t.Errorf("Location = %q, want %q", got, tt.location)
			}
		})
	}
}

func TestGuards_ApprovalGate(t *testing.T) {
	tests := []struct {
		name     string
		state    auth.ApprovalState
		found    bool
		err      error
		location string
	}{
		{"approved", auth.ApprovalState{Status: auth.ApprovalApproved}, true, nil, ""},
		{"pending", auth.ApprovalState{Status: auth.ApprovalPending}, true, nil, "/restaurante/mi-estado"},
		{"gateway down", auth.ApprovalState{}, false, errors.New("503"), ""},
		{"no data", auth.ApprovalState{}, false, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.gateway.approval, h.gateway.found, h.gateway.err = tt.state, tt.found, tt.err
			c := h.signIn(t, "restaurante")

			w := h.get("/restaurante/menu", c)
			if tt.location == "" && w.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", w.Code)
			}
			if tt.location != "" && w.Header().Get("Location") != tt.location {
				t.Errorf("Location = %q, want %q", w.Header().Get("Location"), tt.location)
			}

			if w := h.get("/restaurante/mi-estado", c); w.Code != http.StatusOK {
				t.Errorf("status page returned %d, want 200 regardless of approval", w.Code)
			}
		})
	}
}

func TestSessions_IssuesClientCookie(t *testing.T) {
	h := newHarness(t)
	w := h.get("/cliente", nil)

	var found bool
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("anonymous request did not receive a client cookie")
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
}

func TestGuards_WithoutSessionMiddleware(t *testing.T) {
	h := RequireRole(auth.RoleAdmin)(http.NotFoundHandler())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
		t.Errorf("got %d %q, want redirect to /login", w.Code, w.Header().Get("Location"))
	}
}

func TestRateLimiter_LocalFallback(t *testing.T) {
	var limited int
	rl := NewRateLimiter(nil, RateLimitConfig{
		Limit:   PerMinute(2, 2),
		Methods: []string{http.MethodPost},
		OnLimited: func(w http.ResponseWriter, _ *http.Request, _ time.Duration) {
			limited++
			w.WriteHeader(http.StatusTooManyRequests)
		},
	})
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(method string) int {
		req := httptest.NewRequest(method, "/login", nil)
		req.RemoteAddr = "203.0.113.9:5555"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	for i := range 2 {
		if code := send(http.MethodPost); code != http.StatusNoContent {
			t.Fatalf("request %d = %d, want 204", i, code)
		}
	}
	if code := send(http.MethodPost); code != http.StatusTooManyRequests {
		t.Errorf("third POST = %d, want 429", code)
	}
	if limited != 1 {
		t.Errorf("OnLimited called %d times, want 1", limited)
	}
	if code := send(http.MethodGet); code != http.StatusNoContent {
		t.Errorf("GET = %d, want untouched 204", code)
	}
}

func TestKeyByIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "198.51.100.1:1234"
	if got := KeyByIP(req); got != "ratelimit:ip:198.51.100.1" {
		t.Errorf("KeyByIP = %q", got)
	}

	req.Header.Set("X-Forwarded-For", "10.0.0.1, 192.0.2.7")
	if got := KeyByIPAndPath(req); got != "ratelimit:ip:192.0.2.7:path:/login" {
		t.Errorf("KeyByIPAndPath = %q", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(true)(http.NotFoundHandler())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	for _, name := range []string{"X-Frame-Options", "Content-Security-Policy", "Strict-Transport-Security"} {
		if w.Header().Get(name) == "" {
			t.Errorf("missing %s", name)
		}
	}
}
