// Package notification fans player notifications out to subscribers.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	playerv1 "github.com/osa030/mymusic/internal/api/playerv1"
)

// DefaultSendTimeout bounds a single send to a subscriber.
const DefaultSendTimeout = 500 * time.Millisecond

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(*playerv1.Notification) error
}

type subscription struct {
	id     string
	stream Stream
}

// Manager manages notification subscriptions and broadcasting.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription

	seqMu      sync.Mutex
	sequenceNo uint64

	sendTimeout time.Duration
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*subscription),
		sendTimeout:   DefaultSendTimeout,
	}
}

// SetSendTimeout overrides the per-subscriber send timeout.
func (m *Manager) SetSendTimeout(d time.Duration) {
	if d > 0 {
		m.sendTimeout = d
	}
}

// Subscribe adds a new subscription and returns its ID.
func (m *Manager) Subscribe(stream Stream) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{id: id, stream: stream}
	zlog.Debug().Msgf("notification: subscribed: id=%s total=%d", id, len(m.subscriptions))
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, subscriptionID)
}

// NextSequenceNo returns the next sequence number.
func (m *Manager) NextSequenceNo() uint64 {
	m.seqMu.Lock()
	defer m.seqMu.Unlock()
	m.sequenceNo++
	return m.sequenceNo
}

// Broadcast stamps n with the next sequence number and sends it to every
// subscriber in parallel. Subscribers whose send fails are dropped; slow
// ones are skipped for this notification.
func (m *Manager) Broadcast(n *playerv1.Notification) {
	n.SequenceNo = m.NextSequenceNo()

	m.mu.RLock()
	subs := make([]*subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, sub)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), m.sendTimeout)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- s.stream.Send(n)
			}()

			select {
			case err := <-done:
				if err != nil {
					zlog.Debug().Msgf("notification: send failed, dropping subscriber: id=%s err=%v", s.id, err)
					m.Unsubscribe(s.id)
				}
			case <-ctx.Done():
				zlog.Debug().Msgf("notification: send timed out: id=%s seq=%d", s.id, n.SequenceNo)
			}
		}(sub)
	}
	wg.Wait()
}

// Send sends a notification to a single subscriber.
// The notification is stamped with the next sequence number.
func (m *Manager) Send(subscriptionID string, n *playerv1.Notification) error {
	m.mu.RLock()
	sub, ok := m.subscriptions[subscriptionID]
	m.mu.RUnlock()
	if !ok {
		return nil
	}

	n.SequenceNo = m.NextSequenceNo()
	return sub.stream.Send(n)
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make(map[string]*subscription)
}
