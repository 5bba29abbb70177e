package http

import (
	"net/http"
)

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if !h.service.Ready(r.Context()) {
		writeError(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	writeMessage(w, http.StatusOK, "ready")
}
