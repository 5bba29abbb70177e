package http

import (
	"context"
	"net/http"

	"github.com/dkrest1/content-management-system-api/internal/application"
	"github.com/dkrest1/content-management-system-api/internal/domain"
)

// requireRoles guards a route group with a role allow-list. A missing or
// non-Bearer header is rejected before the token is looked at.
func (h *Handler) requireRoles(roles ...domain.Role) func(http.Handler) http.Handler {
	allowed := append([]domain.Role(nil), roles...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				writeMissingBearerError(r.Context(), w, "authorize")
				return
			}

			decision, err := h.service.Authorize(r.Context(), raw, allowed)
			if err != nil {
				writeMappedError(r.Context(), w, "authorize", err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyDecision, decision)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func decisionFromContext(ctx context.Context) (application.AuthorizationDecision, bool) {
	decision, ok := ctx.Value(ctxKeyDecision).(application.AuthorizationDecision)
	return decision, ok && decision.Outcome == application.OutcomeAllow
}
