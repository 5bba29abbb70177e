package http

import (
	"net/http"

	"github.com/dkrest1/content-management-system-api/internal/application"
)

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req application.CreateCategoryRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_category", err)
		return
	}
	category, err := h.service.CreateCategory(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "create_category", err)
		return
	}
	writeSuccess(w, http.StatusCreated, category)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	page, err := parsePageRequest(r)
	if err != nil {
		writeMappedError(r.Context(), w, "list_categories", err)
		return
	}
	categories, err := h.service.ListCategories(r.Context(), page)
	if err != nil {
		writeMappedError(r.Context(), w, "list_categories", err)
		return
	}
	writeSuccess(w, http.StatusOK, categories)
}

func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "categoryId")
	if err != nil {
		writeMappedError(r.Context(), w, "get_category", err)
		return
	}
	category, err := h.service.GetCategory(r.Context(), id)
	if err != nil {
		writeMappedError(r.Context(), w, "get_category", err)
		return
	}
	writeSuccess(w, http.StatusOK, category)
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "categoryId")
	if err != nil {
		writeMappedError(r.Context(), w, "update_category", err)
		return
	}
	var req application.UpdateCategoryRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeValidationError(r.Context(), w, "update_category", err)
		return
	}
	category, err := h.service.UpdateCategory(r.Context(), id, req)
	if err != nil {
		writeMappedError(r.Context(), w, "update_category", err)
		return
	}
	writeSuccess(w, http.StatusOK, category)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "categoryId")
	if err != nil {
		writeMappedError(r.Context(), w, "delete_category", err)
		return
	}
	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		writeMappedError(r.Context(), w, "delete_category", err)
		return
	}
	writeMessage(w, http.StatusOK, "Category deactivated")
}
