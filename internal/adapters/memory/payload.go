package memory

import (
	"encoding/json"

	"github.com/google/uuid"
)

// withAccountID stamps the generated id into a JSON object payload.
func withAccountID(payload []byte, accountID uuid.UUID) []byte {
	if len(payload) == 0 {
		payload = []byte(`{}`)
	}
	var obj map[string]any
	if err := json.Unmarshal(payload, &obj); err != nil {
		return payload
	}
	obj["user_id"] = accountID.String()
	adjusted, err := json.Marshal(obj)
	if err != nil {
		return payload
	}
	return adjusted
}
