// AngelaMos | 2026
// cookie.go

package session

import (
	"net/http"
	"time"

	"github.com/carterperez-dev/templates/fooddelivery-web/internal/core"
)

const maxClientIDLen = 128

// ClientCookie issues and reads the random cookie that names a browser
// client. The cookie is an index into storage, not a credential.
type ClientCookie struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// Ensure returns the client id carried by r, issuing a new cookie on w
// when r has none or carries a value that could not have come from us.
func (c ClientCookie) Ensure(w http.ResponseWriter, r *http.Request) (string, error) {
	if ck, err := r.Cookie(c.Name); err == nil && validClientID(ck.Value) {
		return ck.Value, nil
	}

	id, err := core.GenerateClientID()
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    id,
		Path:     "/",
		MaxAge:   int(c.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	return id, nil
}

func validClientID(v string) bool {
	if len(v) < 16 || len(v) > maxClientIDLen {
		return false
	}
	for _, ch := range v {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case ch == '-', ch == '_':
		default:
			return false
		}
	}
	return true
}
