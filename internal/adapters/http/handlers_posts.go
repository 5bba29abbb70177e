package http

import (
	"net/http"

	"github.com/dkrest1/content-management-system-api/internal/application"
	"github.com/dkrest1/content-management-system-api/internal/domain"
)

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	page, err := parsePageRequest(r)
	if err != nil {
		writeMappedError(r.Context(), w, "list_posts", err)
		return
	}
	posts, err := h.service.ListPosts(r.Context(), page)
	if err != nil {
		writeMappedError(r.Context(), w, "list_posts", err)
		return
	}
	writeSuccess(w, http.StatusOK, posts)
}

func (h *Handler) getPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "postId")
	if err != nil {
		writeMappedError(r.Context(), w, "get_post", err)
		return
	}
	post, err := h.service.GetPost(r.Context(), id)
	if err != nil {
		writeMappedError(r.Context(), w, "get_post", err)
		return
	}
	writeSuccess(w, http.StatusOK, post)
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	decision, ok := decisionFromContext(r.Context())
	if !ok {
		writeMappedError(r.Context(), w, "create_post", domain.ErrUnauthorized)
		return
	}
	var req application.CreatePostRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_post", err)
		return
	}
	post, err := h.service.CreatePost(r.Context(), decision.Account.AccountID, req)
	if err != nil {
		writeMappedError(r.Context(), w, "create_post", err)
		return
	}
	writeSuccess(w, http.StatusCreated, post)
}

func (h *Handler) updatePost(w http.ResponseWriter, r *http.Request) {
	decision, ok := decisionFromContext(r.Context())
	if !ok {
		writeMappedError(r.Context(), w, "update_post", domain.ErrUnauthorized)
		return
	}
	id, err := pathUUID(r, "postId")
	if err != nil {
		writeMappedError(r.Context(), w, "update_post", err)
		return
	}
	var req application.UpdatePostRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "update_post", err)
		return
	}
	post, err := h.service.UpdatePost(r.Context(), decision.Account.AccountID, id, req)
	if err != nil {
		writeMappedError(r.Context(), w, "update_post", err)
		return
	}
	writeSuccess(w, http.StatusOK, post)
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	decision, ok := decisionFromContext(r.Context())
	if !ok {
		writeMappedError(r.Context(), w, "delete_post", domain.ErrUnauthorized)
		return
	}
	id, err := pathUUID(r, "postId")
	if err != nil {
		writeMappedError(r.Context(), w, "delete_post", err)
		return
	}
	if err := h.service.DeletePost(r.Context(), decision.Account.AccountID, id); err != nil {
		writeMappedError(r.Context(), w, "delete_post", err)
		return
	}
	writeMessage(w, http.StatusOK, "Post deleted")
}
