// AngelaMos | 2026
// approval.go

package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/carterperez-dev/templates/fooddelivery-web/internal/auth"
)

// DecodeApproval normalises the approval endpoint's body into one
// state. The endpoint answers with either a bare object or a
// collection holding it; empty bodies, null and empty collections mean
// the gateway has nothing on file.
func DecodeApproval(body []byte) (auth.ApprovalState, bool, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return auth.ApprovalState{}, false, nil
	}

	switch body[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil {
			return auth.ApprovalState{}, false, fmt.Errorf("decode approval collection: %w", err)
		}
		if len(items) == 0 {
			return auth.ApprovalState{}, false, nil
		}
		return DecodeApproval(items[0])
	case '{':
		var state auth.ApprovalState
		if err := json.Unmarshal(body, &state); err != nil {
			return auth.ApprovalState{}, false, fmt.Errorf("decode approval object: %w", err)
		}
		state.Status = auth.ApprovalStatus(strings.ToUpper(strings.TrimSpace(string(state.Status))))
		if state.Status == "" {
			return auth.ApprovalState{}, false, nil
		}
		return state, true, nil
	}

	return auth.ApprovalState{}, false, fmt.Errorf("decode approval: unexpected body starting with %q", body[0])
}
