// AngelaMos | 2026
// routes.go

package guard

import "github.com/carterperez-dev/templates/fooddelivery-web/internal/auth"

const (
	RouteRoot           = "/"
	RouteLogin          = "/login"
	RouteRegister       = "/registro"
	RouteLogout         = "/logout"
	RouteCustomer       = "/cliente"
	RouteRestaurant     = "/restaurante"
	RouteAdmin          = "/admin"
	RouteCourier        = "/repartidor"
	RouteApprovalStatus = "/restaurante/mi-estado"
)

var landing = map[auth.Role]string{
	auth.RoleCustomer:   RouteCustomer,
	auth.RoleRestaurant: RouteRestaurant,
	auth.RoleAdmin:      RouteAdmin,
}

// LandingFor returns the home route of a guarded role. Couriers have
// pages but no entry in the guard matrix, so they report false here.
func LandingFor(role auth.Role) (string, bool) {
	route, ok := landing[role]
	return route, ok
}

// LandingAfterLogin is where a fresh login is sent. Unrecognised roles
// go to the site root rather than the login page.
func LandingAfterLogin(role auth.Role) string {
	if route, ok := LandingFor(role); ok {
		return route
	}
	if role == auth.RoleCourier {
		return RouteCourier
	}
	return RouteRoot
}
