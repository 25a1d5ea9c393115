// AngelaMos | 2026
// errors.go

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/carterperez-dev/templates/fooddelivery-web/internal/core"
)

// StatusUnreachable marks a call that never got an HTTP response.
const StatusUnreachable = 0

type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Status == StatusUnreachable && e.Err != nil:
		return fmt.Sprintf("gateway unreachable: %v", e.Err)
	case e.Message != "":
		return fmt.Sprintf("gateway status %d: %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("gateway status %d", e.Status)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch target {
	case core.ErrUnavailable:
		return e.Status == StatusUnreachable || e.Status >= http.StatusInternalServerError
	case core.ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case core.ErrForbidden:
		return e.Status == http.StatusForbidden
	case core.ErrBadRequest:
		return e.Status == http.StatusBadRequest
	case core.ErrConflict:
		return e.Status == http.StatusConflict
	case core.ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

func AsError(err error) (*Error, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// StatusOf returns the gateway HTTP status carried by err, or -1 when
// err did not come from the gateway.
func StatusOf(err error) int {
	if ge, ok := AsError(err); ok {
		return ge.Status
	}
	return -1
}

func IsUnreachable(err error) bool {
	return StatusOf(err) == StatusUnreachable
}

func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

func unreachable(op string, err error) *Error {
	return &Error{
		Status: StatusUnreachable,
		Code:   "UNREACHABLE",
		Err:    fmt.Errorf("%s: %w", op, err),
	}
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func statusError(status int, body []byte) *Error {
	e := &Error{Status: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		e.Code = eb.Code
		e.Message = eb.Message
		if e.Message == "" {
			e.Message = eb.Error
		}
		return e
	}

	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	e.Message = text
	return e
}
