// Package events carries task change notifications to interested
// listeners. Delivery is best-effort and at-most-once, out-of-band from
// the HTTP response of the mutation that produced the event.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the task mutation path.
const (
	TypeTaskCreated = "task_created"
	TypeTaskUpdated = "task_updated"
	TypeTaskDeleted = "task_deleted"
)

// TaskEvent represents one task change, scoped to the owning user.
type TaskEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Type* constants
	Type string `json:"type"`

	// UserID identifies the owner whose topic receives the event
	UserID uuid.UUID `json:"user_id"`

	// Payload is the task (or, for deletes, the task id) serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// Topic returns the per-user topic the event is published on.
func (e *TaskEvent) Topic() string {
	return fmt.Sprintf("user_%s", e.UserID)
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *TaskEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewTaskEvent creates a TaskEvent of the given type for userID.
func NewTaskEvent(eventType string, userID uuid.UUID, payload interface{}) (*TaskEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &TaskEvent{
		ID:        uuid.New(),
		Type:      eventType,
		UserID:    userID,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Handler defines an interface for components that consume events.
type Handler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *TaskEvent) error
}

// Publisher defines an interface for components that emit events.
// Mutation handlers receive a Publisher explicitly as a capability;
// there is no ambient global emitter.
type Publisher interface {
	// Publish delivers the event to the user's topic. Implementations
	// are best-effort: callers treat failures as log-and-continue.
	Publish(ctx context.Context, event *TaskEvent) error
}
