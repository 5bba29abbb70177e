package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/dkrest1/content-management-system-api/internal/domain"
	"github.com/dkrest1/content-management-system-api/internal/ports"
)

const serviceName = "content-management-api"

func appLogger() *slog.Logger {
	return slog.Default().With(
		"service", serviceName,
		"module", "application",
		"layer", "application",
	)
}

func (s *Service) newEvent(eventType, partitionKey string, payload map[string]any) ports.OutboxEvent {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = []byte(`{}`)
	}
	return ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      raw,
		OccurredAt:   s.nowFn(),
	}
}

// enqueue writes a best-effort event; the primary write has already committed.
func (s *Service) enqueue(ctx context.Context, event ports.OutboxEvent) {
	if err := s.outbox.Enqueue(ctx, event); err != nil {
		appLogger().WarnContext(ctx, "failed to enqueue outbox event",
			"operation", "enqueue_event",
			"outcome", "failure",
			"event_type", event.EventType,
			"error", err,
		)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

func buildResetLink(appURL, token string) string {
	base := strings.TrimRight(appURL, "/")
	return fmt.Sprintf("%s/reset-password?token=%s", base, url.QueryEscape(token))
}

func hasRole(allowed []domain.Role, role domain.Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
