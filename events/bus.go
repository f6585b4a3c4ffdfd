package events

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Sunshine050/emergency-project-sub001/models"
)

const defaultBufferSize = 32

type subscriber struct {
	ch             chan models.Event
	userID         string
	organizationID string
	role           models.Role
}

// Bus fans out realtime events to subscribed sessions using
// per-subscriber buffered channels. Delivery is at-most-once: a
// subscriber that cannot keep up has events dropped rather than
// blocking the publisher, and reconnecting clients recover through the
// catch-up snapshot.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[uint64]*subscriber
	nextID      uint64
	bufferSize  int
}

// NewBus creates an empty event bus
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[uint64]*subscriber),
		bufferSize:  defaultBufferSize,
	}
}

// Subscribe registers a session and returns its event channel plus an
// unsubscribe function. Unsubscribe is idempotent and closes the
// channel, so callers tie it to the session lifetime.
func (b *Bus) Subscribe(userID, organizationID string, role models.Role) (<-chan models.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	sub := &subscriber{
		ch:             make(chan models.Event, b.bufferSize),
		userID:         userID,
		organizationID: organizationID,
		role:           role,
	}
	b.subscribers[id] = sub

	unsubscribe := func() {
		b.mu.Lock()
		if s, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(s.ch)
		}
		b.mu.Unlock()
	}

	return sub.ch, unsubscribe
}

// Publish delivers the event to every subscriber its scope matches.
// Events published from a single goroutine arrive at each subscriber
// in publish order.
func (b *Bus) Publish(evt models.Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subscribers {
		if !visibleTo(sub, evt) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			zap.S().Debugw("dropping event for slow subscriber",
				"kind", evt.Kind,
				"userID", sub.userID,
			)
		}
	}
}

// SubscriberCount returns the number of live subscriptions
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// visibleTo applies the event's scope. Emergency-center sessions see
// every case.status event regardless of organization scoping; stats
// are non-sensitive aggregates and go to everyone.
func visibleTo(sub *subscriber, evt models.Event) bool {
	if evt.Scope.All {
		return true
	}
	if evt.Scope.UserID != "" {
		return evt.Scope.UserID == sub.userID
	}
	if evt.Kind == models.EventCaseStatus && sub.role == models.RoleEmergencyCenter {
		return true
	}
	for _, orgID := range evt.Scope.OrganizationIDs {
		if orgID == sub.organizationID {
			return true
		}
	}
	return false
}
