package http

import (
	"net/http"

	"github.com/dkrest1/content-management-system-api/internal/application"
	"github.com/dkrest1/content-management-system-api/internal/domain"
)

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	decision, ok := decisionFromContext(r.Context())
	if !ok {
		writeMappedError(r.Context(), w, "get_me", domain.ErrUnauthorized)
		return
	}
	writeSuccess(w, http.StatusOK, application.NewAccountView(decision.Account))
}

func (h *Handler) updateMe(w http.ResponseWriter, r *http.Request) {
	decision, ok := decisionFromContext(r.Context())
	if !ok {
		writeMappedError(r.Context(), w, "update_me", domain.ErrUnauthorized)
		return
	}
	var req application.UpdateProfileRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "update_me", err)
		return
	}
	user, err := h.service.UpdateProfile(r.Context(), decision.Account.AccountID, req)
	if err != nil {
		writeMappedError(r.Context(), w, "update_me", err)
		return
	}
	writeSuccess(w, http.StatusOK, user)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	decision, ok := decisionFromContext(r.Context())
	if !ok {
		writeMappedError(r.Context(), w, "change_password", domain.ErrUnauthorized)
		return
	}
	var req application.ChangePasswordRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "change_password", err)
		return
	}
	if err := h.service.ChangePassword(r.Context(), decision.Account.AccountID, req); err != nil {
		writeMappedError(r.Context(), w, "change_password", err)
		return
	}
	writeMessage(w, http.StatusOK, "Password updated")
}

func (h *Handler) deleteMe(w http.ResponseWriter, r *http.Request) {
	decision, ok := decisionFromContext(r.Context())
	if !ok {
		writeMappedError(r.Context(), w, "delete_me", domain.ErrUnauthorized)
		return
	}
	if err := h.service.DeleteAccount(r.Context(), decision.Account.AccountID); err != nil {
		writeMappedError(r.Context(), w, "delete_me", err)
		return
	}
	writeMessage(w, http.StatusOK, "User deleted")
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	page, err := parsePageRequest(r)
	if err != nil {
		writeMappedError(r.Context(), w, "list_users", err)
		return
	}
	users, err := h.service.ListAccounts(r.Context(), page)
	if err != nil {
		writeMappedError(r.Context(), w, "list_users", err)
		return
	}
	writeSuccess(w, http.StatusOK, users)
}
