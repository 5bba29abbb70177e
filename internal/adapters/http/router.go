package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dkrest1/content-management-system-api/internal/application"
	"github.com/dkrest1/content-management-system-api/internal/domain"
)

// Handler is the HTTP adapter entrypoint for the blog use cases.
type Handler struct {
	service *application.Service
}

func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service}
}

// NewRouter registers routes and the middleware stack. realtime, when non-nil,
// is mounted at /ws and does its own handshake authentication.
func NewRouter(handler *Handler, realtime http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)
	if realtime != nil {
		r.Handle("/ws", realtime)
	}

	anyRole := handler.requireRoles(domain.RoleAdmin, domain.RoleUser)
	adminOnly := handler.requireRoles(domain.RoleAdmin)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", handler.signUp)
			r.Post("/login", handler.login)
			r.Post("/password/forget", handler.forgotPassword)
			r.Post("/password/reset", handler.resetPassword)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(adminOnly).Get("/", handler.listUsers)
			r.Group(func(r chi.Router) {
				r.Use(anyRole)
				r.Get("/me", handler.me)
				r.Patch("/me", handler.updateMe)
				r.Patch("/me/password", handler.changePassword)
				r.Delete("/me", handler.deleteMe)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(anyRole)
				r.Post("/", handler.createCategory)
				r.Get("/", handler.listCategories)
				r.Get("/{categoryId}", handler.getCategory)
			})
			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Patch("/{categoryId}", handler.updateCategory)
				r.Delete("/{categoryId}", handler.deleteCategory)
			})
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", handler.listPosts)
			r.Get("/{postId}", handler.getPost)
			r.Group(func(r chi.Router) {
				r.Use(anyRole)
				r.Post("/", handler.createPost)
				r.Patch("/{postId}", handler.updatePost)
				r.Delete("/{postId}", handler.deletePost)
			})
		})
	})

	return r
}
