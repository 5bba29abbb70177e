package ports

import "context"

//go:generate mockgen -source=events.go -destination=../mocks/mock_events.go -package=mocks

// EventPublisher is the outbound domain-event publish port.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error
}
