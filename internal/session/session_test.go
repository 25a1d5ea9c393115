// AngelaMos | 2026
// session_test.go

package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/templates/fooddelivery-web/internal/auth"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/core"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/gateway"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func mint(t *testing.T, sub string, role auth.Role, exp time.Time) string {
	t.Helper()

	b := jwt.NewBuilder().
		Subject(sub).
		Claim(auth.ClaimRoles, []string{auth.RolePrefix + string(role)}).
		Claim(auth.ClaimUserID, 11)
	if !exp.IsZero() {
		b = b.Expiration(exp)
	}

	tok, err := b.Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), []byte("gateway-secret")))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return string(signed)
}

type fakeGateway struct {
	tokens map[string]string
	err    error
	calls  int
}

func (f *fakeGateway) Login(_ context.Context, creds auth.Credentials) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	tok, ok := f.tokens[creds.Username]
	if !ok || creds.Password != "secreto" {
		return "", &gateway.Error{Status: http.StatusUnauthorized, Message: "Credenciales inválidas"}
	}
	return tok, nil
}

type recordingStorage struct {
	*MemoryStorage
	loadErr  error
	saveErr  error
	removed  []string
	lastTTL  time.Duration
	lastSave string
}

func (r *recordingStorage) Load(ctx context.Context, key string) (string, error) {
	if r.loadErr != nil {
		return "", r.loadErr
	}
	return r.MemoryStorage.Load(ctx, key)
}

func (r *recordingStorage) Save(ctx context.Context, key, value string, ttl time.Duration) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.lastTTL = ttl
	r.lastSave = value
	return r.MemoryStorage.Save(ctx, key, value, ttl)
}

func (r *recordingStorage) Remove(ctx context.Context, key string) error {
	r.removed = append(r.removed, key)
	return r.MemoryStorage.Remove(ctx, key)
}

type fixture struct {
	manager *Manager
	storage *recordingStorage
	gateway *fakeGateway
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	key, err := core.GenerateSealKey()
	if err != nil {
		t.Fatalf("GenerateSealKey: %v", err)
	}
	sealer, err := core.NewSealer(key)
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}

	f := &fixture{
		storage: &recordingStorage{MemoryStorage: NewMemoryStorage()},
		now:     baseTime,
	}
	f.storage.now = func() time.Time { return f.now }

	exp := baseTime.Add(8 * time.Hour)
	f.gateway = &fakeGateway{tokens: map[string]string{
		"cliente":     mint(t, "cliente", auth.RoleCustomer, exp),
		"restaurante": mint(t, "restaurante", auth.RoleRestaurant, exp),
		"admin":       mint(t, "admin", auth.RoleAdmin, exp),
		"cocinero":    mint(t, "cocinero", "COCINERO", exp),
		"eterno":      mint(t, "eterno", auth.RoleCustomer, time.Time{}),
		"caducado":    mint(t, "caducado", auth.RoleCustomer, baseTime.Add(-time.Minute)),
		"roto":        "not-a-token",
	}}

	f.manager = NewManager(f.storage, auth.NewDecoder(), f.gateway,
		WithSealer(sealer),
		WithClock(func() time.Time { return f.now }),
		WithTTL(2*time.Hour),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return f
}

func login(username string) auth.Credentials {
	return auth.Credentials{Username: username, Password: "secreto"}
}

func TestLogin_RedirectsByRole(t *testing.T) {
	tests := []struct {
		user string
		want string
		role auth.Role
	}{
		{"cliente", "/cliente", auth.RoleCustomer},
		{"restaurante", "/restaurante", auth.RoleRestaurant},
		{"admin", "/admin", auth.RoleAdmin},
		{"cocinero", "/", "COCINERO"},
	}

	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			f := newFixture(t)
			s := f.manager.Open(context.Background(), "client-"+tt.user+"-0000000")

			route, err := s.Login(context.Background(), login(tt.user))
			if err != nil {
				t.Fatalf("Login: %v", err)
			}
			if route != tt.want {
				t.Errorf("route = %q, want %q", route, tt.want)
			}
			if !s.Authenticated() {
				t.Error("session not authenticated after login")
			}
			if role, ok := s.CurrentRole(); !ok || role != tt.role {
				t.Errorf("CurrentRole = %q/%v, want %q", role, ok, tt.role)
			}
			if s.Identity().Username != tt.user || s.Identity().ID != 11 {
				t.Errorf("identity = %+v", s.Identity())
			}
			if strings.Contains(f.storage.lastSave, ".") {
				t.Error("stored credential looks like a plaintext token")
			}
		})
	}
}

func TestLogin_PersistsAcrossRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	clientID := "browser-aaaaaaaaaaaa"

	first := f.manager.Open(ctx, clientID)
	if first.Authenticated() {
		t.Fatal("fresh client should not be authenticated")
	}
	if _, err := first.Login(ctx, login("admin")); err != nil {
		t.Fatalf("Login: %v", err)
	}

	second := f.manager.Open(ctx, clientID)
	if !second.Authenticated() {
		t.Fatal("credential was not restored for the same client")
	}
	if second.Token() != first.Token() {
		t.Error("restored token differs from the one issued at login")
	}

	other := f.manager.Open(ctx, "browser-bbbbbbbbbbbb")
	if other.Authenticated() {
		t.Error("another client picked up the credential")
	}
}

func TestLogout_ThenRestoreYieldsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	clientID := "browser-cccccccccccc"

	s := f.manager.Open(ctx, clientID)
	if _, err := s.Login(ctx, login("cliente")); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if route := s.Logout(ctx); route != "/login" {
		t.Errorf("Logout route = %q, want /login", route)
	}
	if s.Authenticated() || s.Token() != "" || s.Identity() != nil {
		t.Error("session still carries state after logout")
	}

	s.Restore(ctx)
	if s.Authenticated() {
		t.Error("Restore after logout produced an identity")
	}
	if _, ok := s.CurrentRole(); ok {
		t.Error("CurrentRole present after logout")
	}
	if _, err := f.storage.MemoryStorage.Load(ctx, CredentialKey(clientID)); !errors.Is(err, ErrNoCredential) {
		t.Errorf("storage still holds a credential: %v", err)
	}
}

func TestLogout_Anonymous(t *testing.T) {
	f := newFixture(t)
	s := f.manager.Open(context.Background(), "")
	if route := s.Logout(context.Background()); route != "/login" {
		t.Errorf("Logout route = %q, want /login", route)
	}
}

func TestRestore_DiscardsBadCredentials(t *testing.T) {
	tests := []struct {
		name  string
		store func(t *testing.T, f *fixture, key string)
	}{
		{
			name: "not sealed by us",
			store: func(t *testing.T, f *fixture, key string) {
				_ = f.storage.MemoryStorage.Save(context.Background(), key, "garbage", 0)
			},
		},
		{
			name: "sealed but malformed",
			store: func(t *testing.T, f *fixture, key string) {
				sealed, _ := f.manager.seal("only.two")
				_ = f.storage.MemoryStorage.Save(context.Background(), key, sealed, 0)
			},
		},
		{
			name: "sealed but expired",
			store: func(t *testing.T, f *fixture, key string) {
				sealed, _ := f.manager.seal(mint(t, "viejo", auth.RoleAdmin, baseTime.Add(-time.Second)))
				_ = f.storage.MemoryStorage.Save(context.Background(), key, sealed, 0)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			clientID := "browser-dddddddddddd"
			key := CredentialKey(clientID)
			tt.store(t, f, key)

			s := f.manager.Open(context.Background(), clientID)
			if s.Authenticated() {
				t.Fatal("bad credential produced an authenticated session")
			}
			if len(f.storage.removed) != 1 || f.storage.removed[0] != key {
				t.Errorf("removed = %v, want [%s]", f.storage.removed, key)
			}
		})
	}
}

func TestRestore_ExpiresWithClock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	clientID := "browser-eeeeeeeeeeee"

	if _, err := f.manager.Open(ctx, clientID).Login(ctx, login("restaurante")); err != nil {
		t.Fatalf("Login: %v", err)
	}

	f.now = baseTime.Add(90 * time.Minute)
	if !f.manager.Open(ctx, clientID).Authenticated() {
		t.Fatal("credential should still be valid")
	}

	f.storage.now = func() time.Time { return baseTime }
	f.now = baseTime.Add(9 * time.Hour)
	if f.manager.Open(ctx, clientID).Authenticated() {
		t.Error("credential past its exp claim was accepted")
	}
	if len(f.storage.removed) == 0 {
		t.Error("expired credential was not removed from storage")
	}
}

func TestRestore_StorageOutageKeepsCredential(t *testing.T) {
	f := newFixture(t)
	f.storage.loadErr = errors.New("connection reset")

	s := f.manager.Open(context.Background(), "browser-ffffffffffff")
	if s.Authenticated() {
		t.Error("session authenticated while storage is down")
	}
	if len(f.storage.removed) != 0 {
		t.Error("storage outage should not remove anything")
	}
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name        string
		creds       auth.Credentials
		gatewayErr  error
		wantStatus  int
		wantGateway int
	}{
		{"wrong password", auth.Credentials{Username: "cliente", Password: "nope"}, nil, http.StatusUnauthorized, 1},
		{"unreachable", login("cliente"), &gateway.Error{Status: gateway.StatusUnreachable, Err: errors.New("dial")}, gateway.StatusUnreachable, 1},
		{"missing username", auth.Credentials{Password: "secreto"}, nil, -1, 0},
		{"unreadable token", login("roto"), nil, -1, 1},
		{"already expired", login("caducado"), nil, -1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.gateway.err = tt.gatewayErr
			s := f.manager.Open(context.Background(), "browser-gggggggggggg")

			route, err := s.Login(context.Background(), tt.creds)
			if err == nil {
				t.Fatalf("Login succeeded with route %q", route)
			}
			if s.Authenticated() {
				t.Error("failed login left the session authenticated")
			}
			if f.storage.lastSave != "" {
				t.Error("failed login persisted a credential")
			}
			if got := gateway.StatusOf(err); got != tt.wantStatus {
				t.Errorf("StatusOf = %d, want %d (err %v)", got, tt.wantStatus, err)
			}
			if f.gateway.calls != tt.wantGateway {
				t.Errorf("gateway calls = %d, want %d", f.gateway.calls, tt.wantGateway)
			}
		})
	}
}

func TestLogin_ValidationIsAppError(t *testing.T) {
	f := newFixture(t)
	s := f.manager.Open(context.Background(), "browser-hhhhhhhhhhhh")

	_, err := s.Login(context.Background(), auth.Credentials{Username: "ab", Password: ""})
	appErr, ok := core.AsAppError(err)
	if !ok {
		t.Fatalf("error %v is not an AppError", err)
	}
	if appErr.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", appErr.StatusCode)
	}
}

func TestLogin_StorageFailure(t *testing.T) {
	f := newFixture(t)
	f.storage.saveErr = errors.New("disk full")
	s := f.manager.Open(context.Background(), "browser-iiiiiiiiiiii")

	_, err := s.Login(context.Background(), login("admin"))
	if !errors.Is(err, core.ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
	if s.Authenticated() {
		t.Error("session authenticated without a persisted credential")
	}
}

func TestLogin_RetentionFollowsToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.manager.Open(ctx, "browser-jjjjjjjjjjjj").Login(ctx, login("eterno")); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if f.storage.lastTTL != 2*time.Hour {
		t.Errorf("ttl without exp = %v, want configured 2h", f.storage.lastTTL)
	}

	f.now = baseTime.Add(7 * time.Hour)
	if _, err := f.manager.Open(ctx, "browser-kkkkkkkkkkkk").Login(ctx, login("admin")); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if f.storage.lastTTL != time.Hour {
		t.Errorf("ttl near exp = %v, want remaining 1h", f.storage.lastTTL)
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
