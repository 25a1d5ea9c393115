// AngelaMos | 2026
// failures.go

package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/carterperez-dev/templates/fooddelivery-web/internal/core"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/gateway"
)

const (
	msgUnreachable   = "No se pudo conectar con el servidor. Inténtalo de nuevo más tarde."
	msgInvalidData   = "Los datos enviados no son válidos."
	msgBadCredential = "Usuario o contraseña incorrectos."
	msgConflict      = "Ese nombre de usuario ya está registrado."
	msgThrottled     = "Demasiados intentos. Espera un momento antes de volver a probar."
	msgStorage       = "No se pudo guardar la sesión. Inténtalo de nuevo más tarde."
	msgBadToken      = "El servidor devolvió una credencial no válida."
	msgUnexpected    = "Se produjo un error inesperado."
)

// describeFailure turns a login or registration failure into the status
// code and message rendered next to the form.
func describeFailure(err error) (int, string) {
	if ge, ok := gateway.AsError(err); ok {
		switch {
		case ge.Status == gateway.StatusUnreachable:
			return http.StatusServiceUnavailable, msgUnreachable
		case ge.Status == http.StatusBadRequest:
			if ge.Message != "" {
				return http.StatusBadRequest, msgInvalidData + " " + ge.Message
			}
			return http.StatusBadRequest, msgInvalidData
		case ge.Status == http.StatusUnauthorized:
			return http.StatusUnauthorized, msgBadCredential
		case ge.Status == http.StatusConflict:
			return http.StatusConflict, msgConflict
		case ge.Status == http.StatusTooManyRequests:
			return http.StatusTooManyRequests, msgThrottled
		case ge.Status >= http.StatusInternalServerError:
			return http.StatusBadGateway, fmt.Sprintf("El servidor no está disponible (código %d).", ge.Status)
		default:
			return http.StatusBadGateway, fmt.Sprintf("%s (código %d)", msgUnexpected, ge.Status)
		}
	}

	if appErr, ok := core.AsAppError(err); ok && errors.Is(err, core.ErrBadRequest) {
		return http.StatusBadRequest, msgInvalidData + " " + appErr.Message
	}

	switch {
	case errors.Is(err, core.ErrUnavailable):
		return http.StatusServiceUnavailable, msgStorage
	case errors.Is(err, core.ErrTokenInvalid), errors.Is(err, core.ErrTokenExpired):
		return http.StatusBadGateway, msgBadToken
	}
	return http.StatusInternalServerError, msgUnexpected
}
