// Package events carries cache-invalidation and change notifications from
// the store to in-process consumers.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/answerhubapp/answerhub-server/internal/id"
	"github.com/answerhubapp/answerhub-server/internal/logger"
)

// Subscriber is one registered consumer of bus events.
type Subscriber struct {
	ConnectedAt time.Time
	Events      chan any
	Done        chan struct{}
	ID          string
}

// Bus fans change events out to subscribers. Emit never blocks the
// publisher: the central queue and every subscriber channel are buffered,
// and full channels drop the event with a log line rather than stall a
// request. It implements the store's EventEmitter interface.
type Bus struct {
	subscribers map[string]*Subscriber
	events      chan any
	logger      *logger.Logger
	wg          sync.WaitGroup
	mu          sync.RWMutex

	// Shutdown state - protected by shutdownMu
	shutdownMu sync.RWMutex
	shutdown   bool
}

// NewBus creates a new event bus.
func NewBus(log *logger.Logger) *Bus {
	return &Bus{
		subscribers: make(map[string]*Subscriber),
		events:      make(chan any, 1000),
		logger:      log,
	}
}

// Start begins the fan-out loop. Call once at startup in a goroutine.
func (b *Bus) Start(ctx context.Context) {
	b.wg.Add(1)
	defer b.wg.Done()

	b.logger.Debug("event bus starting")

	for {
		select {
		case event, ok := <-b.events:
			if !ok {
				// Shutdown closed the queue; it finishes delivery.
				return
			}
			b.broadcast(event)
		case <-ctx.Done():
			b.logger.Debug("event bus stopping")
			b.closeAllSubscribers()
			return
		}
	}
}

// Emit queues an event for fan-out. Implements store.EventEmitter.
func (b *Bus) Emit(event any) {
	// Hold the read lock through the send so Shutdown cannot close the
	// channel mid-send.
	b.shutdownMu.RLock()
	defer b.shutdownMu.RUnlock()

	if b.shutdown {
		// Expected during shutdown, drop silently.
		return
	}

	select {
	case b.events <- event:
	default:
		b.logger.Error("event queue full, dropping event")
	}
}

// Subscribe registers a new consumer and returns its handle.
func (b *Bus) Subscribe() (*Subscriber, error) {
	subID, err := id.Generate("sub")
	if err != nil {
		return nil, err
	}

	sub := &Subscriber{
		ID:          subID,
		Events:      make(chan any, 100),
		Done:        make(chan struct{}),
		ConnectedAt: time.Now(),
	}

	b.mu.Lock()
	b.subscribers[sub.ID] = sub
	total := len(b.subscribers)
	b.mu.Unlock()

	b.logger.Debug("event subscriber registered", "subscriber_id", subID, "total", total)
	return sub, nil
}

// Unsubscribe removes a subscriber and closes its channels.
func (b *Bus) Unsubscribe(subscriberID string) {
	b.mu.Lock()
	sub, ok := b.subscribers[subscriberID]
	if !ok {
		b.mu.Unlock()
		return
	}
	delete(b.subscribers, subscriberID)
	b.mu.Unlock()

	close(sub.Done)
	close(sub.Events)

	b.logger.Debug("event subscriber removed", "subscriber_id", subscriberID)
}

// SubscriberCount returns the number of registered subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Shutdown stops accepting events, drains what is queued, and closes all
// subscribers.
func (b *Bus) Shutdown(ctx context.Context) error {
	// Mark shutdown and close the queue under the write lock so no Emit
	// is mid-send on a closed channel.
	b.shutdownMu.Lock()
	b.shutdown = true
	close(b.events)
	b.shutdownMu.Unlock()

	done := make(chan struct{})
	go func() {
		for event := range b.events {
			b.broadcast(event)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		b.logger.Warn("event drain timed out, events may be lost")
	}

	b.wg.Wait()
	return nil
}

// broadcast delivers one event to every subscriber, non-blocking.
func (b *Bus) broadcast(event any) {
	var delivered, dropped int

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		select {
		case sub.Events <- event:
			delivered++
		default:
			dropped++
			b.logger.Warn("dropped event for slow subscriber", "subscriber_id", sub.ID)
		}
	}

	b.logger.Debug("event broadcast", "delivered", delivered, "dropped", dropped)
}

// closeAllSubscribers closes every subscriber, used when the run loop exits.
func (b *Bus) closeAllSubscribers() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subscribers {
		close(sub.Done)
		close(sub.Events)
	}
	b.subscribers = make(map[string]*Subscriber)
}
