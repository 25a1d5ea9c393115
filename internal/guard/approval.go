// AngelaMos | 2026
// approval.go

package guard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/carterperez-dev/templates/fooddelivery-web/internal/auth"
)

// ApprovalSource fetches the caller's restaurant approval state. A
// false second return means the gateway had no data for the account.
type ApprovalSource interface {
	RestaurantApproval(ctx context.Context, token string) (auth.ApprovalState, bool, error)
}

type FailurePolicy int

const (
	FailOpen FailurePolicy = iota
	FailClosed
)

func (p FailurePolicy) String() string {
	if p == FailClosed {
		return "deny"
	}
	return "allow"
}

func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "allow", "open":
		return FailOpen, nil
	case "deny", "closed":
		return FailClosed, nil
	}
	return FailOpen, fmt.Errorf("unknown failure policy %q", s)
}

type ApprovalGuard struct {
	source    ApprovalSource
	onError   FailurePolicy
	onMissing FailurePolicy
	logger    *slog.Logger
}

type ApprovalOption func(*ApprovalGuard)

func OnError(p FailurePolicy) ApprovalOption {
	return func(g *ApprovalGuard) { g.onError = p }
}

func OnMissing(p FailurePolicy) ApprovalOption {
	return func(g *ApprovalGuard) { g.onMissing = p }
}

func WithLogger(l *slog.Logger) ApprovalOption {
	return func(g *ApprovalGuard) { g.logger = l }
}

func NewApprovalGuard(source ApprovalSource, opts ...ApprovalOption) *ApprovalGuard {
	g := &ApprovalGuard{
		source:    source,
		onError:   FailOpen,
		onMissing: FailOpen,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("component", "approval_guard")
	return g
}

// Check runs the restaurant role gate and then asks the gateway for a
// fresh approval state. Nothing is cached between calls.
func (g *ApprovalGuard) Check(ctx context.Context, p Principal) Decision {
	if d := RequireRole(p, auth.RoleRestaurant); !d.Allowed {
		return d
	}

	state, found, err := g.source.RestaurantApproval(ctx, p.Token())
	if err != nil {
		g.logger.WarnContext(ctx, "approval state unavailable",
			"error", err,
			"policy", g.onError.String(),
		)
		return g.apply(g.onError, ReasonApprovalError)
	}

	if !found {
		g.logger.DebugContext(ctx, "no approval state for restaurant",
			"policy", g.onMissing.String(),
		)
		return g.apply(g.onMissing, ReasonApprovalMissing)
	}

	if !state.Approved() {
		return Deny(RouteApprovalStatus, ReasonNotApproved)
	}

	return Allow(ReasonAllowed)
}

func (g *ApprovalGuard) apply(p FailurePolicy, reason Reason) Decision {
	if p == FailClosed {
		return Deny(RouteApprovalStatus, reason)
	}
	return Allow(reason)
}
