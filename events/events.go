// Package events carries catalog and rating changes to live consumers
// (MQTT subscribers, owner dashboards) after the change has committed.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type Type string

const (
	RatingSubmitted    Type = "rating.submitted"
	RatingUpdated      Type = "rating.updated"
	StoreDeleted       Type = "store.deleted"
	StoreOwnerAssigned Type = "store.owner_assigned"
	UserDeleted        Type = "user.deleted"
)

// Event describes one committed change. OwnerID is the store owner at the
// time of the change and routes the event to that owner's live feed.
type Event struct {
	Type     Type      `json:"type"`
	StoreID  uint      `json:"storeId,omitempty"`
	UserID   uint      `json:"userId,omitempty"`
	OwnerID  *uint     `json:"ownerId,omitempty"`
	RatingID uint      `json:"ratingId,omitempty"`
	Value    int       `json:"value,omitempty"`
	Average  *float64  `json:"averageRating,omitempty"`
	At       time.Time `json:"at"`
}

// Publisher accepts events without blocking the caller.
type Publisher interface {
	Publish(e Event)
}

// Sink receives events from the dispatcher goroutine.
type Sink interface {
	Deliver(ctx context.Context, e Event) error
}

// Discard drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Event) {}

// Dispatcher queues events in a bounded channel and hands them to every sink
// from a single background goroutine, in publish order.
type Dispatcher struct {
	queue chan Event
	sinks []Sink
	wg    sync.WaitGroup
	once  sync.Once
}

func NewDispatcher(size int, sinks ...Sink) *Dispatcher {
	if size <= 0 {
		size = 100
	}
	return &Dispatcher{queue: make(chan Event, size), sinks: sinks}
}

// Start launches the delivery loop. It stops after Close drains the queue.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for e := range d.queue {
			for _, s := range d.sinks {
				if err := s.Deliver(ctx, e); err != nil {
					log.Warn().Err(err).Str("event", string(e.Type)).Msg("event delivery failed")
				}
			}
		}
	}()
}

// Publish enqueues e. A full queue drops the event instead of blocking.
func (d *Dispatcher) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	select {
	case d.queue <- e:
	default:
		log.Warn().Str("event", string(e.Type)).Msg("event queue full, dropping")
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
// Publish must not be called after Close.
func (d *Dispatcher) Close() {
	d.once.Do(func() { close(d.queue) })
	d.wg.Wait()
}
