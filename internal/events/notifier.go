package events

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/quickkart/backend-grocer/internal/store"
)

// LogNotifier writes emitted events to the structured log.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(_ context.Context, event store.Event) error {
	n.Logger.Info().
		Str("event_id", store.UUIDString(event.ID)).
		Str("topic", event.Topic).
		RawJSON("payload", event.Payload).
		Msg("domain_event")
	return nil
}
