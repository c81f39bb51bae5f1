package mocks

import (
	"context"
	"sync"

	"github.com/taskflow/taskflow-api/internal/events"
)

// MockPublisher implements events.Publisher, recording published events.
type MockPublisher struct {
	mu     sync.Mutex
	Events []*events.TaskEvent
	Err    error

	// published is closed-over by WaitForEvents to observe async publishes.
	published chan struct{}
}

var _ events.Publisher = (*MockPublisher)(nil)

// NewMockPublisher creates a publisher that records events.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{published: make(chan struct{}, 64)}
}

func (m *MockPublisher) Publish(_ context.Context, event *events.TaskEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, event)
	select {
	case m.published <- struct{}{}:
	default:
	}
	return nil
}

// Published exposes a signal channel that receives after each publish.
// Tests use it to wait for fire-and-forget event emission.
func (m *MockPublisher) Published() <-chan struct{} {
	return m.published
}

// Recorded returns a snapshot of the published events.
func (m *MockPublisher) Recorded() []*events.TaskEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*events.TaskEvent(nil), m.Events...)
}
