// AngelaMos | 2026
// role.go

package guard

import "github.com/carterperez-dev/templates/fooddelivery-web/internal/auth"

// Principal is the read-only view of a session the guards need.
type Principal interface {
	Authenticated() bool
	CurrentRole() (auth.Role, bool)
	Token() string
}

type Reason string

const (
	ReasonAllowed         Reason = "allowed"
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonWrongRole       Reason = "wrong_role"
	ReasonUnknownRole     Reason = "unknown_role"
	ReasonNotApproved     Reason = "not_approved"
	ReasonApprovalError   Reason = "approval_error"
	ReasonApprovalMissing Reason = "approval_missing"
)

type Decision struct {
	Allowed  bool
	Redirect string
	Reason   Reason
}

func Allow(reason Reason) Decision {
	return Decision{Allowed: true, Reason: reason}
}

func Deny(redirect string, reason Reason) Decision {
	return Decision{Redirect: redirect, Reason: reason}
}

// RequireAuthenticated admits any signed-in principal regardless of role.
func RequireAuthenticated(p Principal) Decision {
	if p == nil || !p.Authenticated() {
		return Deny(RouteLogin, ReasonUnauthenticated)
	}
	return Allow(ReasonAllowed)
}

// RequireRole admits principals holding the required role and sends
// everyone else to their own landing route, or to login when they have
// no role the matrix recognises.
func RequireRole(p Principal, required auth.Role) Decision {
	if d := RequireAuthenticated(p); !d.Allowed {
		return d
	}

	role, ok := p.CurrentRole()
	if !ok {
		return Deny(RouteLogin, ReasonUnknownRole)
	}

	if role == required {
		return Allow(ReasonAllowed)
	}

	if route, ok := LandingFor(role); ok {
		return Deny(route, ReasonWrongRole)
	}

	return Deny(RouteLogin, ReasonUnknownRole)
}
