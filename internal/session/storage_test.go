// AngelaMos | 2026
// storage_test.go

package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"
)

func newSQLiteStorage(t *testing.T) *SQLStorage {
	t.Helper()

	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	s := NewSQLStorage(db)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

func TestStorageBackends(t *testing.T) {
	backends := map[string]func(t *testing.T, now *time.Time) Storage{
		"memory": func(_ *testing.T, now *time.Time) Storage {
			s := NewMemoryStorage()
			s.now = func() time.Time { return *now }
			return s
		},
		"sqlite": func(t *testing.T, now *time.Time) Storage {
			s := newSQLiteStorage(t)
			s.now = func() time.Time { return *now }
			return s
		},
	}

	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := baseTime
			s := build(t, &now)

			if _, err := s.Load(ctx, "k1"); !errors.Is(err, ErrNoCredential) {
				t.Fatalf("Load on empty store = %v, want ErrNoCredential", err)
			}

			if err := s.Save(ctx, "k1", "first", time.Hour); err != nil {
				t.Fatalf("Save: %v", err)
			}
			if err := s.Save(ctx, "k1", "second", time.Hour); err != nil {
				t.Fatalf("Save overwrite: %v", err)
			}
			if got, err := s.Load(ctx, "k1"); err != nil || got != "second" {
				t.Errorf("Load = %q, %v; want second", got, err)
			}

			if err := s.Save(ctx, "forever", "v", 0); err != nil {
				t.Fatalf("Save without ttl: %v", err)
			}

			now = baseTime.Add(time.Hour)
			if _, err := s.Load(ctx, "k1"); !errors.Is(err, ErrNoCredential) {
				t.Errorf("Load after ttl = %v, want ErrNoCredential", err)
			}
			if got, err := s.Load(ctx, "forever"); err != nil || got != "v" {
				t.Errorf("credential without ttl expired: %q, %v", got, err)
			}

			if p, ok := s.(Purger); ok {
				n, err := p.PurgeExpired(ctx)
				if err != nil {
					t.Fatalf("PurgeExpired: %v", err)
				}
				if n != 1 {
					t.Errorf("purged %d, want 1", n)
				}
			}

			if err := s.Remove(ctx, "forever"); err != nil {
				t.Fatalf("Remove: %v", err)
			}
			if _, err := s.Load(ctx, "forever"); !errors.Is(err, ErrNoCredential) {
				t.Errorf("Load after Remove = %v, want ErrNoCredential", err)
			}
			if err := s.Remove(ctx, "never-existed"); err != nil {
				t.Errorf("Remove of a missing key: %v", err)
			}

			if err := s.Ping(ctx); err != nil {
				t.Errorf("Ping: %v", err)
			}

			stats, err := s.(StatsReporter).Stats(ctx)
			if err != nil {
				t.Fatalf("Stats: %v", err)
			}
			if stats["backend"] == "" {
				t.Error("stats missing backend name")
			}
		})
	}
}

func TestRedisStorage_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedisStorage(client)
	ctx := context.Background()

	_, err := s.Load(ctx, "k1")
	if err == nil || errors.Is(err, ErrNoCredential) {
		t.Errorf("Load = %v, want a storage error", err)
	}
	if err := s.Save(ctx, "k1", "v", time.Minute); err == nil {
		t.Error("Save succeeded against an unreachable server")
	}
	if err := s.Ping(ctx); err == nil {
		t.Error("Ping succeeded against an unreachable server")
	}
}

func TestRedisStorage_Live(t *testing.T) {
	url := os.Getenv("FDWEB_TEST_REDIS_URL")
	if url == "" {
		t.Skip("FDWEB_TEST_REDIS_URL not set")
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("ParseURL: %v", err)
	}
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedisStorage(client)
	ctx := context.Background()
	key := "test:" + t.Name()
	t.Cleanup(func() { _ = s.Remove(ctx, key) })

	if err := s.Save(ctx, key, "sealed", time.Minute); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got, err := s.Load(ctx, key); err != nil || got != "sealed" {
		t.Errorf("Load = %q, %v", got, err)
	}

	ttl, err := client.TTL(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("ttl = %v, want within a minute", ttl)
	}

	if err := s.Remove(ctx, key); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.Load(ctx, key); !errors.Is(err, ErrNoCredential) {
		t.Errorf("Load after Remove = %v, want ErrNoCredential", err)
	}
}

func TestSQLStorage_MigrateIsIdempotent(t *testing.T) {
	s := newSQLiteStorage(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Errorf("second Migrate: %v", err)
	}
}

func TestRunJanitor(t *testing.T) {
	s := NewMemoryStorage()
	now := baseTime
	s.now = func() time.Time { return now }
	_ = s.Save(context.Background(), "old", "v", time.Minute)
	now = baseTime.Add(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunJanitor(ctx, s, 5*time.Millisecond, testLogger())
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		stats, _ := s.Stats(context.Background())
		if stats["credentials"] == 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("janitor did not purge the expired credential")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestCredentialKey(t *testing.T) {
	k := CredentialKey("client-123")
	if !strings.HasPrefix(k, "credential:") {
		t.Errorf("key %q lacks prefix", k)
	}
	if strings.Contains(k, "client-123") {
		t.Error("key exposes the raw client id")
	}
	if k != CredentialKey("client-123") {
		t.Error("key is not stable")
	}
}

func TestClientCookie_Ensure(t *testing.T) {
	c := ClientCookie{Name: "fd_client", Secure: true, MaxAge: time.Hour}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	id, err := c.Ensure(w, r)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != id {
		t.Fatalf("cookies = %v, want one carrying %q", cookies, id)
	}
	if !cookies[0].HttpOnly || !cookies[0].Secure || cookies[0].SameSite != http.SameSiteLaxMode {
		t.Errorf("cookie attributes = %+v", cookies[0])
	}

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "fd_client", Value: id})
	again, err := c.Ensure(w, r)
	if err != nil || again != id {
		t.Errorf("Ensure with cookie = %q, %v; want %q", again, err, id)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("valid cookie was reissued")
	}

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "fd_client", Value: "short"})
	fresh, _ := c.Ensure(w, r)
	if fresh == "short" || len(w.Result().Cookies()) != 1 {
		t.Error("invalid cookie value was accepted")
	}
}
