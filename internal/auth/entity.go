// AngelaMos | 2026
// entity.go

package auth

import (
	"strings"
	"time"
)

type Role string

const (
	RoleCustomer   Role = "CLIENTE"
	RoleRestaurant Role = "RESTAURANTE"
	RoleAdmin      Role = "ADMIN"
	RoleCourier    Role = "REPARTIDOR"
)

// RolePrefix is carried by every entry of the token's roles claim.
const RolePrefix = "ROLE_"

// ParseRole strips the claim prefix. Strings outside the known set are
// kept as-is so callers can still log them; Known reports false.
func ParseRole(claim string) Role {
	return Role(strings.TrimPrefix(strings.TrimSpace(claim), RolePrefix))
}

func (r Role) Known() bool {
	switch r {
	case RoleCustomer, RoleRestaurant, RoleAdmin, RoleCourier:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// Identity is the principal read out of a bearer credential. It is
// advisory: the gateway re-checks the credential on every call.
type Identity struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	DisplayName string     `json:"nombre,omitempty"`
	Role        Role       `json:"role"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"telefono,omitempty"`
	ExpiresAt   *time.Time `json:"exp,omitempty"`
}

func (i *Identity) Expired(now time.Time) bool {
	if i.ExpiresAt == nil {
		return false
	}
	return !now.Before(*i.ExpiresAt)
}

// Name prefers the display name and falls back to the username.
func (i *Identity) Name() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.Username
}

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDIENTE"
	ApprovalApproved ApprovalStatus = "APROBADO"
	ApprovalRejected ApprovalStatus = "RECHAZADO"
)

// ApprovalState is fetched per guard evaluation and never stored.
type ApprovalState struct {
	Status ApprovalStatus `json:"estado"`
	Reason string         `json:"motivoRechazo,omitempty"`
}

func (s ApprovalState) Approved() bool {
	return s.Status == ApprovalApproved
}
