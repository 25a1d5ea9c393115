// AngelaMos | 2026
// handlers.go

package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/templates/fooddelivery-web/internal/auth"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/core"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/guard"
)

// HandleHome sends signed-in users to their landing page. Users whose
// role has no landing page see the public home.
func (ui *UI) HandleHome(w http.ResponseWriter, r *http.Request) {
	if s := currentSession(r); s != nil && s.Authenticated() {
		role, _ := s.CurrentRole()
		if route := guard.LandingAfterLogin(role); route != guard.RouteRoot {
			http.Redirect(w, r, route, http.StatusSeeOther)
			return
		}
	}

	ui.render(w, r, http.StatusOK, "home", map[string]any{
		"Title": "Food Delivery",
	})
}

func (ui *UI) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if s := currentSession(r); s != nil && s.Authenticated() {
		role, _ := s.CurrentRole()
		http.Redirect(w, r, guard.LandingAfterLogin(role), http.StatusSeeOther)
		return
	}

	data := map[string]any{"Title": "Iniciar sesión"}
	if r.URL.Query().Get("registrado") != "" {
		data["Notice"] = "Cuenta creada. Ya puedes iniciar sesión."
	}
	ui.render(w, r, http.StatusOK, "login", data)
}

func (ui *UI) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	s := currentSession(r)
	if s == nil {
		ui.renderError(w, r, http.StatusInternalServerError, msgUnexpected)
		return
	}

	if err := r.ParseForm(); err != nil {
		ui.render(w, r, http.StatusBadRequest, "login", map[string]any{
			"Title": "Iniciar sesión",
			"Error": msgInvalidData,
		})
		return
	}

	creds := auth.Credentials{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
	}

	route, err := s.Login(r.Context(), creds)
	if err != nil {
		status, msg := describeFailure(err)
		ui.logger.WarnContext(r.Context(), "login failed",
			"username", creds.Username,
			"status", status,
			"error", err,
		)
		ui.render(w, r, status, "login", map[string]any{
			"Title":    "Iniciar sesión",
			"Error":    msg,
			"Username": creds.Username,
		})
		return
	}

	http.Redirect(w, r, route, http.StatusSeeOther)
}

var registrationRoles = []auth.Role{auth.RoleCustomer, auth.RoleRestaurant, auth.RoleCourier}

func (ui *UI) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if s := currentSession(r); s != nil && s.Authenticated() {
		role, _ := s.CurrentRole()
		http.Redirect(w, r, guard.LandingAfterLogin(role), http.StatusSeeOther)
		return
	}

	ui.render(w, r, http.StatusOK, "register", map[string]any{
		"Title": "Crear cuenta",
		"Roles": registrationRoles,
		"Form":  auth.Registration{Role: auth.RoleCustomer},
	})
}

func (ui *UI) HandleRegisterPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		ui.renderRegisterError(w, r, http.StatusBadRequest, msgInvalidData, auth.Registration{})
		return
	}

	reg := auth.Registration{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
		Name:     strings.TrimSpace(r.PostFormValue("nombre")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Phone:    strings.TrimSpace(r.PostFormValue("telefono")),
		Role:     auth.Role(strings.ToUpper(strings.TrimSpace(r.PostFormValue("rol")))),
	}

	if err := ui.validate.Struct(reg); err != nil {
		ui.renderRegisterError(w, r, http.StatusBadRequest,
			msgInvalidData+" "+core.FormatValidationError(err), reg)
		return
	}

	if err := ui.gateway.Register(r.Context(), reg); err != nil {
		status, msg := describeFailure(err)
		ui.logger.WarnContext(r.Context(), "registration failed",
			"username", reg.Username,
			"status", status,
			"error", err,
		)
		ui.renderRegisterError(w, r, status, msg, reg)
		return
	}

	ui.logger.InfoContext(r.Context(), "account registered", "username", reg.Username, "role", reg.Role)
	http.Redirect(w, r, guard.RouteLogin+"?registrado=1", http.StatusSeeOther)
}

func (ui *UI) renderRegisterError(w http.ResponseWriter, r *http.Request, status int, msg string, reg auth.Registration) {
	reg.Password = ""
	ui.render(w, r, status, "register", map[string]any{
		"Title": "Crear cuenta",
		"Roles": registrationRoles,
		"Form":  reg,
		"Error": msg,
	})
}

func (ui *UI) HandleLogout(w http.ResponseWriter, r *http.Request) {
	route := guard.RouteLogin
	if s := currentSession(r); s != nil {
		route = s.Logout(r.Context())
	}
	http.Redirect(w, r, route, http.StatusSeeOther)
}

func (ui *UI) handleLimited(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	page, title := "login", "Iniciar sesión"
	data := map[string]any{}
	if r.URL.Path == guard.RouteRegister {
		page, title = "register", "Crear cuenta"
		data["Roles"] = registrationRoles
		data["Form"] = auth.Registration{Role: auth.RoleCustomer}
	}

	data["Title"] = title
	data["Error"] = msgThrottled
	data["RetryAfter"] = int(retryAfter.Round(time.Second).Seconds())
	ui.render(w, r, http.StatusTooManyRequests, page, data)
}

func (ui *UI) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ui.render(w, r, http.StatusOK, "dashboard", map[string]any{
		"Title": "Panel",
	})
}

// section renders a placeholder for pages whose data lives entirely in
// the backend resource APIs.
func (ui *UI) section(title, description string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ui.render(w, r, http.StatusOK, "section", map[string]any{
			"Title":       title,
			"Description": description,
		})
	}
}

// HandleProfile shows the gateway's view of the user. A 401 signs the
// user out; other failures fall back to what the token carries.
func (ui *UI) HandleProfile(w http.ResponseWriter, r *http.Request) {
	s := currentSession(r)
	if s == nil || !s.Authenticated() {
		http.Redirect(w, r, guard.RouteLogin, http.StatusSeeOther)
		return
	}

	data := map[string]any{"Title": "Mi perfil"}

	profile, err := ui.gateway.Profile(r.Context(), s.Token())
	if err != nil {
		if ui.signOutOnUnauthorized(w, r, err) {
			return
		}
		ui.logger.WarnContext(r.Context(), "profile unavailable, using session identity", "error", err)
		profile = profileFromIdentity(s.Identity())
		data["Fallback"] = true
	}

	data["Profile"] = profile
	ui.render(w, r, http.StatusOK, "profile", data)
}

func profileFromIdentity(id *auth.Identity) *auth.Profile {
	return &auth.Profile{
		ID:       id.ID,
		Username: id.Username,
		Name:     id.Name(),
		Email:    id.Email,
		Phone:    id.Phone,
		Role:     string(id.Role),
	}
}

func (ui *UI) HandleApprovalStatus(w http.ResponseWriter, r *http.Request) {
	s := currentSession(r)
	data := map[string]any{"Title": "Estado de tu restaurante"}

	state, found, err := ui.gateway.RestaurantApproval(r.Context(), s.Token())
	switch {
	case err != nil:
		if ui.signOutOnUnauthorized(w, r, err) {
			return
		}
		ui.logger.WarnContext(r.Context(), "approval state unavailable", "error", err)
		data["Unavailable"] = true
	case found:
		data["State"] = state
	}

	ui.render(w, r, http.StatusOK, "approval", data)
}

func (ui *UI) HandleRestaurants(w http.ResponseWriter, r *http.Request) {
	s := currentSession(r)
	data := map[string]any{
		"Title":    "Restaurantes",
		"Statuses": []auth.ApprovalStatus{auth.ApprovalPending, auth.ApprovalApproved, auth.ApprovalRejected},
	}

	q := r.URL.Query()
	if msg := q.Get("error"); msg != "" {
		data["Error"] = msg
	}
	if name := q.Get("actualizado"); name != "" {
		data["Notice"] = "Estado de " + name + " actualizado."
	}

	list, err := ui.gateway.Restaurants(r.Context(), s.Token())
	if err != nil {
		if ui.signOutOnUnauthorized(w, r, err) {
			return
		}
		ui.logger.WarnContext(r.Context(), "restaurant list unavailable", "error", err)
		data["Error"] = msgUnreachable
	}
	data["Restaurants"] = list

	ui.render(w, r, http.StatusOK, "restaurants", data)
}

func (ui *UI) HandleRestaurantDecision(w http.ResponseWriter, r *http.Request) {
	s := currentSession(r)
	username := chi.URLParam(r, "username")
	back := guard.RouteAdmin + "/restaurantes"

	if err := r.ParseForm(); err != nil {
		redirectWithQuery(w, r, back, "error", msgInvalidData)
		return
	}

	decision := auth.ApprovalDecision{
		Status: auth.ApprovalStatus(strings.ToUpper(strings.TrimSpace(r.PostFormValue("estado")))),
		Reason: strings.TrimSpace(r.PostFormValue("motivoRechazo")),
	}
	if decision.Status != auth.ApprovalRejected {
		decision.Reason = ""
	}

	if err := ui.validate.Struct(decision); err != nil {
		redirectWithQuery(w, r, back, "error", msgInvalidData+" "+core.FormatValidationError(err))
		return
	}

	if err := ui.gateway.DecideRestaurant(r.Context(), s.Token(), username, decision); err != nil {
		if ui.signOutOnUnauthorized(w, r, err) {
			return
		}
		_, msg := describeFailure(err)
		ui.logger.WarnContext(r.Context(), "restaurant decision failed",
			"restaurant", username,
			"error", err,
		)
		redirectWithQuery(w, r, back, "error", msg)
		return
	}

	ui.logger.InfoContext(r.Context(), "restaurant decision recorded",
		"restaurant", username,
		"estado", decision.Status,
		"admin", s.Identity().Username,
	)
	redirectWithQuery(w, r, back, "actualizado", username)
}
