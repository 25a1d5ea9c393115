// AngelaMos | 2026
// jwt_test.go

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/templates/fooddelivery-web/internal/core"
)

func mintToken(t *testing.T, build func(b *jwt.Builder) *jwt.Builder) string {
	t.Helper()

	tok, err := build(jwt.NewBuilder()).Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), []byte("upstream-secret")))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return string(signed)
}

func TestDecode_RestaurantClaims(t *testing.T) {
	raw := mintToken(t, func(b *jwt.Builder) *jwt.Builder {
		return b.Subject("alice").
			Claim(ClaimRoles, []string{"ROLE_RESTAURANTE"}).
			Claim(ClaimUserID, 7)
	})

	id, err := NewDecoder().Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if id.Username != "alice" {
		t.Errorf("Username = %q, want alice", id.Username)
	}
	if id.Role != RoleRestaurant {
		t.Errorf("Role = %q, want %q", id.Role, RoleRestaurant)
	}
	if id.ID != 7 {
		t.Errorf("ID = %d, want 7", id.ID)
	}
	if id.ExpiresAt != nil {
		t.Errorf("ExpiresAt = %v, want nil", id.ExpiresAt)
	}
}

func TestDecode_OptionalClaims(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	raw := mintToken(t, func(b *jwt.Builder) *jwt.Builder {
		return b.Subject("bob").
			Claim(ClaimRoles, []string{"ROLE_CLIENTE", "ROLE_ADMIN"}).
			Claim(ClaimName, "Bob Marley").
			Claim(ClaimEmail, "bob@example.com").
			Claim(ClaimPhone, "+34 600 000 000").
			Expiration(exp)
	})

	id, err := NewDecoder().Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if id.Role != RoleCustomer {
		t.Errorf("Role = %q, want first entry %q", id.Role, RoleCustomer)
	}
	if id.ID != 0 {
		t.Errorf("ID = %d, want 0 when claim absent", id.ID)
	}
	if id.DisplayName != "Bob Marley" || id.Email != "bob@example.com" || id.Phone != "+34 600 000 000" {
		t.Errorf("optional claims not mapped: %+v", id)
	}
	if id.ExpiresAt == nil || !id.ExpiresAt.Equal(exp) {
		t.Errorf("ExpiresAt = %v, want %v", id.ExpiresAt, exp)
	}
	if !id.Expired(exp) || id.Expired(exp.Add(-time.Second)) {
		t.Error("Expired should flip exactly at the expiry instant")
	}
}

func TestDecode_RoleEdgeCases(t *testing.T) {
	tests := []struct {
		name      string
		roles     any
		wantRole  Role
		wantKnown bool
	}{
		{"unknown role kept", []string{"ROLE_COCINERO"}, "COCINERO", false},
		{"courier", []string{"ROLE_REPARTIDOR"}, RoleCourier, true},
		{"empty list", []string{}, "", false},
		{"bare string", "ROLE_ADMIN", RoleAdmin, true},
		{"absent", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := mintToken(t, func(b *jwt.Builder) *jwt.Builder {
				b = b.Subject("carol")
				if tt.roles != nil {
					b = b.Claim(ClaimRoles, tt.roles)
				}
				return b
			})

			id, err := NewDecoder().Decode(raw)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if id.Role != tt.wantRole {
				t.Errorf("Role = %q, want %q", id.Role, tt.wantRole)
			}
			if id.Role.Known() != tt.wantKnown {
				t.Errorf("Known() = %v, want %v", id.Role.Known(), tt.wantKnown)
			}
		})
	}
}

func TestDecode_Rejects(t *testing.T) {
	noSubject := mintToken(t, func(b *jwt.Builder) *jwt.Builder {
		return b.Claim(ClaimRoles, []string{"ROLE_ADMIN"})
	})

	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"two segments", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJhIn0"},
		{"four segments", noSubject + ".extra"},
		{"payload not base64", "eyJhbGciOiJIUzI1NiJ9.@@@.c2ln"},
		{"payload not json", "eyJhbGciOiJIUzI1NiJ9.bm90LWpzb24.c2ln"},
		{"missing subject", noSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewDecoder().Decode(tt.raw)
			if err == nil {
				t.Fatalf("Decode succeeded with %+v, want error", id)
			}
			if id != nil {
				t.Errorf("identity = %+v, want nil", id)
			}
			if !IsDecodeError(err) {
				t.Errorf("error %T is not a DecodeError", err)
			}
			if !errors.Is(err, core.ErrTokenInvalid) {
				t.Errorf("error %v does not match ErrTokenInvalid", err)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"ROLE_CLIENTE", RoleCustomer},
		{"RESTAURANTE", RoleRestaurant},
		{" ROLE_ADMIN ", RoleAdmin},
		{"ROLE_", ""},
	}

	for _, tt := range tests {
		if got := ParseRole(tt.in); got != tt.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
