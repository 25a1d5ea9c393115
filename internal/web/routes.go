// AngelaMos | 2026
// routes.go

package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/templates/fooddelivery-web/internal/auth"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/guard"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/middleware"
)

// RegisterRoutes mounts every page. The router must already run the
// Sessions middleware.
func (ui *UI) RegisterRoutes(r chi.Router) {
	r.Get(guard.RouteRoot, ui.HandleHome)

	r.Get(guard.RouteLogin, ui.HandleLogin)
	r.With(ui.throttle.Handler).Post(guard.RouteLogin, ui.HandleLoginPost)
	r.Get(guard.RouteRegister, ui.HandleRegister)
	r.With(ui.throttle.Handler).Post(guard.RouteRegister, ui.HandleRegisterPost)
	r.Post(guard.RouteLogout, ui.HandleLogout)

	r.Route(guard.RouteCustomer, func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleCustomer))
		r.Get("/", ui.HandleDashboard)
		r.Get("/pedidos", ui.section("Mis pedidos", "Historial y seguimiento de tus pedidos."))
		r.Get("/direcciones", ui.section("Mis direcciones", "Direcciones de entrega guardadas."))
		r.Get("/tarjetas", ui.section("Mis tarjetas", "Métodos de pago asociados a tu cuenta."))
		r.Get("/perfil", ui.HandleProfile)
	})

	r.Route(guard.RouteRestaurant, func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleRestaurant))

		// reachable while pending or rejected
		r.Get("/mi-estado", ui.HandleApprovalStatus)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireApproval(ui.approval))
			r.Get("/", ui.HandleDashboard)
			r.Get("/menu", ui.section("Menú", "Platos, precios y disponibilidad."))
			r.Get("/pedidos", ui.section("Pedidos entrantes", "Pedidos pendientes de preparar."))
			r.Get("/perfil", ui.HandleProfile)
		})
	})

	r.Route(guard.RouteAdmin, func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleAdmin))
		r.Get("/", ui.HandleDashboard)
		r.Get("/restaurantes", ui.HandleRestaurants)
		r.Post("/restaurantes/{username}/estado", ui.HandleRestaurantDecision)
		r.Get("/usuarios", ui.section("Usuarios", "Cuentas registradas en la plataforma."))
		r.Get("/perfil", ui.HandleProfile)
		if ui.admin != nil {
			ui.admin.RegisterRoutes(r)
		}
	})

	r.Route(guard.RouteCourier, func(r chi.Router) {
		r.Use(middleware.RequireAuthenticated)
		r.Get("/", ui.HandleDashboard)
		r.Get("/entregas", ui.section("Entregas", "Repartos asignados y su estado."))
		r.Get("/perfil", ui.HandleProfile)
	})
}
