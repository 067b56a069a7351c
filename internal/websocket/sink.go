// internal/websocket/sink.go
package websocket

import (
	"context"
	"errors"
	"strconv"

	"jobboard-service/internal/domain/auth"
	"jobboard-service/internal/pkg/audit"
)

var ErrBacklogFull = errors.New("event stream backlog full")

// EventSink is an audit.Sink that streams every security event to the hub.
// Streams held by an account that is deleted or loses ADMIN are closed first.
type EventSink struct {
	hub *Hub
}

func NewEventSink(hub *Hub) *EventSink {
	return &EventSink{hub: hub}
}

func (s *EventSink) Name() string { return "websocket" }

func (s *EventSink) Write(_ context.Context, ev audit.Event) error {
	switch ev.Type {
	case audit.EventUserDeleted:
		s.disconnectTarget(ev, "account deleted")
	case audit.EventRoleChanged:
		if ev.Metadata["role"] != string(auth.RoleAdmin) {
			s.disconnectTarget(ev, "role changed")
		}
	}

	if !s.hub.Publish(NewMessage(MessageSecurityEvent, ev)) {
		return ErrBacklogFull
	}
	return nil
}

func (s *EventSink) disconnectTarget(ev audit.Event, reason string) {
	id, err := strconv.ParseInt(ev.Metadata["target_id"], 10, 64)
	if err != nil {
		return
	}
	s.hub.DisconnectUser(id, reason)
}
