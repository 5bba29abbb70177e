package realtime

import (
	"encoding/json"
)

const (
	eventAuth          = "auth"
	eventAuthenticated = "authenticated"
	eventError         = "error"
	eventAck           = "ack"
	eventUpgradeUser   = "upgrade-user"
	eventGetUsers      = "get-users"
	eventRoleUpdated   = "role-updated"
)

// Client-facing error texts.
const (
	msgTokenExpired = "Token expired"
	msgUnauthorized = "Unauthorized"
	msgUserNotFound = "User not found"
	msgAckNotFound  = "user not found"
	msgAckInternal  = "internal error"
	msgAckUnknown   = "unknown event"
	msgUserUpgraded = "User upgraded to admin"
)

// inboundFrame is what clients send. ID, when present, is echoed on the ack.
type inboundFrame struct {
	Event string          `json:"event"`
	ID    string          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outboundFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type ackFrame struct {
	Event string  `json:"event"`
	ID    string  `json:"id,omitempty"`
	Error *string `json:"error"`
	Data  any     `json:"data"`
}

type authData struct {
	Token string `json:"token"`
}

type upgradeUserData struct {
	Email string `json:"email"`
}

func encodeEvent(event string, data any) []byte {
	raw, err := json.Marshal(outboundFrame{Event: event, Data: data})
	if err != nil {
		return []byte(`{"event":"error","data":"internal error"}`)
	}
	return raw
}

func encodeAck(id string, errMsg string, data any) []byte {
	frame := ackFrame{Event: eventAck, ID: id, Data: data}
	if errMsg != "" {
		frame.Error = &errMsg
		frame.Data = nil
	}
	raw, err := json.Marshal(frame)
	if err != nil {
		internal := msgAckInternal
		raw, _ = json.Marshal(ackFrame{Event: eventAck, ID: id, Error: &internal})
	}
	return raw
}
