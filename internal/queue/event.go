// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/transit-admin-console/internal/model"
)

// ExchangeEntityChanged is the fanout exchange every console replica binds
// to.  Each replica gets its own exclusive queue, so every replica sees every
// event.
const ExchangeEntityChanged = "console.entity.changed"

// Actions carried by EntityChangedEvent.
const (
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionDeleted   = "deleted"
	ActionCompleted = "completed"
)

// EntityChangedEvent is published after a console mutation succeeds on the
// backend.  Consumers use it to drop derived state such as the company list.
type EntityChangedEvent struct {
	EventID    string     `json:"event_id"`
	Kind       model.Kind `json:"kind"`
	Action     string     `json:"action"`
	EntityID   string     `json:"entity_id,omitempty"`
	ActorID    string     `json:"actor_id"`
	OccurredAt string     `json:"occurred_at"`
}

// NewEntityChangedEvent stamps a fresh id and the current UTC time.
func NewEntityChangedEvent(kind model.Kind, action, entityID, actorID string) EntityChangedEvent {
	return EntityChangedEvent{
		EventID:    uuid.NewString(),
		Kind:       kind,
		Action:     action,
		EntityID:   entityID,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// AffectsCompanies reports whether the event makes the cached company list
// stale.
func (e EntityChangedEvent) AffectsCompanies() bool {
	return e.Kind == model.KindCompany
}
