// AngelaMos | 2026
// ui.go

package web

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/templates/fooddelivery-web/internal/admin"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/auth"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/gateway"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/guard"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/middleware"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/session"
)

// UnguardedPrefixes lists page trees mounted behind sign-in only, with
// no role check. Couriers are outside the role matrix.
var UnguardedPrefixes = []string{guard.RouteCourier}

// Gateway is the slice of the backend the pages call directly. Login
// goes through the session manager instead.
type Gateway interface {
	Register(ctx context.Context, reg auth.Registration) error
	Profile(ctx context.Context, token string) (*auth.Profile, error)
	RestaurantApproval(ctx context.Context, token string) (auth.ApprovalState, bool, error)
	Restaurants(ctx context.Context, token string) ([]auth.RestaurantSummary, error)
	DecideRestaurant(ctx context.Context, token, username string, d auth.ApprovalDecision) error
}

type Config struct {
	Gateway  Gateway
	Approval *guard.ApprovalGuard
	Admin    *admin.Handler

	// Throttle limits login and registration posts. Redis is optional.
	Throttle middleware.RateLimitConfig
	Redis    *redis.Client

	Logger *slog.Logger
}

// UI serves the server-rendered pages.
type UI struct {
	gateway  Gateway
	approval *guard.ApprovalGuard
	admin    *admin.Handler
	throttle *middleware.RateLimiter
	validate *validator.Validate
	pages    map[string]*template.Template
	logger   *slog.Logger
}

func New(cfg Config) (*UI, error) {
	if cfg.Gateway == nil {
		return nil, fmt.Errorf("web: gateway is required")
	}
	if cfg.Approval == nil {
		return nil, fmt.Errorf("web: approval guard is required")
	}

	pages, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ui := &UI{
		gateway:  cfg.Gateway,
		approval: cfg.Approval,
		admin:    cfg.Admin,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		pages:    pages,
		logger:   logger.With("component", "web"),
	}

	throttle := cfg.Throttle
	if throttle.KeyFunc == nil {
		throttle.KeyFunc = middleware.KeyByIPAndPath
	}
	throttle.Methods = []string{http.MethodPost}
	throttle.OnLimited = ui.handleLimited
	ui.throttle = middleware.NewRateLimiter(cfg.Redis, throttle)

	return ui, nil
}

func (ui *UI) render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	tmpl, ok := ui.pages[name]
	if !ok {
		ui.logger.ErrorContext(r.Context(), "template not found", "template", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if data == nil {
		data = map[string]any{}
	}
	id := middleware.GetIdentity(r.Context())
	data["Identity"] = id
	data["Nav"] = navFor(id)
	data["Year"] = time.Now().Year()

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		ui.logger.ErrorContext(r.Context(), "template render failed", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (ui *UI) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	ui.render(w, r, status, "error", map[string]any{
		"Title":   "Error",
		"Message": message,
	})
}

// signOutOnUnauthorized applies the mid-session policy: the gateway
// rejecting our bearer token ends the session.
func (ui *UI) signOutOnUnauthorized(w http.ResponseWriter, r *http.Request, err error) bool {
	if !gateway.IsUnauthorized(err) {
		return false
	}

	route := guard.RouteLogin
	if s := middleware.GetSession(r.Context()); s != nil {
		ui.logger.InfoContext(r.Context(), "gateway rejected credential, signing out",
			"path", r.URL.Path,
		)
		route = s.Logout(r.Context())
	}
	http.Redirect(w, r, route, http.StatusSeeOther)
	return true
}

func redirectWithQuery(w http.ResponseWriter, r *http.Request, path, key, value string) {
	http.Redirect(w, r, path+"?"+url.Values{key: {value}}.Encode(), http.StatusSeeOther)
}

func currentSession(r *http.Request) *session.Session {
	return middleware.GetSession(r.Context())
}

type navLink struct {
	Label string
	Href  string
}

var navByRole = map[auth.Role][]navLink{
	auth.RoleCustomer: {
		{"Inicio", "/cliente"},
		{"Pedidos", "/cliente/pedidos"},
		{"Direcciones", "/cliente/direcciones"},
		{"Tarjetas", "/cliente/tarjetas"},
		{"Perfil", "/cliente/perfil"},
	},
	auth.RoleRestaurant: {
		{"Panel", "/restaurante"},
		{"Menú", "/restaurante/menu"},
		{"Pedidos", "/restaurante/pedidos"},
		{"Estado", "/restaurante/mi-estado"},
		{"Perfil", "/restaurante/perfil"},
	},
	auth.RoleAdmin: {
		{"Panel", "/admin"},
		{"Restaurantes", "/admin/restaurantes"},
		{"Usuarios", "/admin/usuarios"},
		{"Sistema", "/admin/sistema"},
		{"Perfil", "/admin/perfil"},
	},
	auth.RoleCourier: {
		{"Inicio", "/repartidor"},
		{"Entregas", "/repartidor/entregas"},
		{"Perfil", "/repartidor/perfil"},
	},
}

func navFor(id *auth.Identity) []navLink {
	if id == nil {
		return nil
	}
	return navByRole[id.Role]
}
