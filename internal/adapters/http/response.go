package http

import (
	"encoding/json"
	"net/http"
)

// envelope is the single response shape for every endpoint.
type envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Payload any    `json:"payload"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, statusCode int, payload any) {
	writeJSON(w, statusCode, envelope{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Payload: payload,
	})
}

func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, envelope{
		Status:  statusCode,
		Message: message,
	})
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, envelope{
		Status:  statusCode,
		Message: message,
	})
}
