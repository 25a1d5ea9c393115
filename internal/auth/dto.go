// AngelaMos | 2026
// dto.go

package auth

type Credentials struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=1,max=128"`
}

type Registration struct {
	Username string `json:"username"           validate:"required,min=3,max=50,alphanum"`
	Password string `json:"password"           validate:"required,min=6,max=128"`
	Name     string `json:"nombre"             validate:"required,min=1,max=100"`
	Email    string `json:"email"              validate:"required,email,max=255"`
	Phone    string `json:"telefono,omitempty" validate:"omitempty,max=20"`
	Role     Role   `json:"rol"                validate:"required,oneof=CLIENTE RESTAURANTE REPARTIDOR"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type Profile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"nombre"`
	Email    string `json:"email"`
	Phone    string `json:"telefono"`
	Role     string `json:"rol,omitempty"`
}

// RestaurantSummary is one row of the admin restaurant listing.
type RestaurantSummary struct {
	ID       int64          `json:"id"`
	Username string         `json:"username"`
	Name     string         `json:"nombre"`
	Email    string         `json:"email"`
	Status   ApprovalStatus `json:"estado"`
	Reason   string         `json:"motivoRechazo,omitempty"`
}

type ApprovalDecision struct {
	Status ApprovalStatus `json:"estado"                  validate:"required,oneof=PENDIENTE APROBADO RECHAZADO"`
	Reason string         `json:"motivoRechazo,omitempty" validate:"max=255"`
}
