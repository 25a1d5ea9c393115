// AngelaMos | 2026
// tokens.go

package devgateway

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/carterperez-dev/templates/fooddelivery-web/internal/auth"
)

type Claims struct {
	Roles  []string `json:"roles"`
	UserID int64    `json:"userId"`
	Name   string   `json:"nombre,omitempty"`
	Email  string   `json:"email,omitempty"`
	Phone  string   `json:"telefono,omitempty"`
	jwt.RegisteredClaims
}

type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func (t *tokenIssuer) issue(a Account) (string, error) {
	now := t.now()
	claims := Claims{
		Roles:  []string{auth.RolePrefix + string(a.Role)},
		UserID: a.ID,
		Name:   a.Name,
		Email:  a.Email,
		Phone:  a.Phone,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (t *tokenIssuer) verify(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
