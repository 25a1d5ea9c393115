// AngelaMos | 2026
// jwt.go

package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/templates/fooddelivery-web/internal/core"
)

const (
	ClaimRoles   = "roles"
	ClaimUserID  = "userId"
	ClaimName    = "nombre"
	ClaimEmail   = "email"
	ClaimPhone   = "telefono"
	tokenSegment = 3
)

// DecodeError reports why a credential could not be turned into an
// Identity. It matches core.ErrTokenInvalid under errors.Is.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode credential: %s: %v", e.Reason, e.Err)
	}
	return "decode credential: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == core.ErrTokenInvalid
}

func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// Decoder reads claims from a compact JWT without checking its
// signature or time claims. Expiry is judged by the session against
// its own clock.
type Decoder struct{}

func NewDecoder() *Decoder {
	return &Decoder{}
}

func (d *Decoder) Decode(raw string) (*Identity, error) {
	raw = strings.TrimSpace(raw)
	if strings.Count(raw, ".") != tokenSegment-1 {
		return nil, &DecodeError{Reason: "token must have three segments"}
	}

	token, err := jwt.ParseInsecure([]byte(raw))
	if err != nil {
		return nil, &DecodeError{Reason: "malformed payload", Err: err}
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, &DecodeError{Reason: "missing subject"}
	}

	identity := &Identity{
		Username: subject,
		Role:     firstRole(token),
	}

	if id, ok := numericClaim(token, ClaimUserID); ok {
		identity.ID = id
	}

	identity.DisplayName = stringClaim(token, ClaimName)
	identity.Email = stringClaim(token, ClaimEmail)
	identity.Phone = stringClaim(token, ClaimPhone)

	if exp, ok := token.Expiration(); ok && !exp.IsZero() {
		exp = exp.UTC()
		identity.ExpiresAt = &exp
	}

	return identity, nil
}

func firstRole(token jwt.Token) Role {
	var raw any
	if err := token.Get(ClaimRoles, &raw); err != nil {
		return ""
	}

	switch roles := raw.(type) {
	case []any:
		if len(roles) == 0 {
			return ""
		}
		if s, ok := roles[0].(string); ok {
			return ParseRole(s)
		}
	case []string:
		if len(roles) > 0 {
			return ParseRole(roles[0])
		}
	case string:
		return ParseRole(roles)
	}

	return ""
}

func numericClaim(token jwt.Token, name string) (int64, bool) {
	var raw any
	if err := token.Get(name, &raw); err != nil {
		return 0, false
	}

	switch v := raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}

	return 0, false
}

func stringClaim(token jwt.Token, name string) string {
	var raw any
	if err := token.Get(name, &raw); err != nil {
		return ""
	}
	s, _ := raw.(string)
	return s
}
