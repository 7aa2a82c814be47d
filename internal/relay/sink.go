package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"parking-status-backend/internal/model"
)

// EventSink broadcasts store events to every relay listener as JSON.
type EventSink struct {
	relay *Relay
}

func NewEventSink(relay *Relay) *EventSink {
	return &EventSink{relay: relay}
}

// Handle encodes event and broadcasts it.
func (s *EventSink) Handle(_ context.Context, event model.SlotEvent) error {
	msg, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal slot event: %w", err)
	}
	s.relay.BroadcastMessage(msg)
	return nil
}
