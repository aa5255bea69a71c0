package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
)

// PublishedEvent is one event captured by MockPublisher.
type PublishedEvent struct {
	RoutingKey string
	EventData  interface{}
	RawJSON    []byte
}

// MockPublisher records events in memory instead of talking to RabbitMQ.
// PublishErr, when set, is returned from every Publish call.
type MockPublisher struct {
	mu         sync.RWMutex
	events     []PublishedEvent
	PublishErr error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, eventData interface{}) error {
	if m.PublishErr != nil {
		return m.PublishErr
	}
	raw, err := json.Marshal(eventData)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, PublishedEvent{RoutingKey: routingKey, EventData: eventData, RawJSON: raw})
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

func (m *MockPublisher) GetEventCountByKey(routingKey string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, event := range m.events {
		if event.RoutingKey == routingKey {
			count++
		}
	}
	return count
}

// GetLastEventByKey returns the most recent event for routingKey, or nil.
func (m *MockPublisher) GetLastEventByKey(routingKey string) *PublishedEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.events) - 1; i >= 0; i-- {
		if m.events[i].RoutingKey == routingKey {
			event := m.events[i]
			return &event
		}
	}
	return nil
}

// DecodeLast unmarshals the last event for routingKey into out.
func (m *MockPublisher) DecodeLast(t *testing.T, routingKey string, out interface{}) {
	t.Helper()

	ev := m.GetLastEventByKey(routingKey)
	if ev == nil {
		t.Fatalf("Expected event with routing key '%s' to be published, but found none", routingKey)
	}
	if err := json.Unmarshal(ev.RawJSON, out); err != nil {
		t.Fatalf("Failed to decode event %s: %v", routingKey, err)
	}
}

func (m *MockPublisher) AssertEventCount(t *testing.T, routingKey string, expected int) {
	t.Helper()

	if count := m.GetEventCountByKey(routingKey); count != expected {
		t.Errorf("Expected %d events with routing key '%s', got %d", expected, routingKey, count)
	}
}
