package events

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSink) Deliver(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingSink) types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(10, sink)
	d.Start(context.Background())

	d.Publish(Event{Type: RatingSubmitted, StoreID: 1})
	d.Publish(Event{Type: RatingUpdated, StoreID: 1})
	d.Publish(Event{Type: StoreDeleted, StoreID: 1})
	d.Close()

	assert.Equal(t, []Type{RatingSubmitted, RatingUpdated, StoreDeleted}, sink.types())
	for _, e := range sink.events {
		assert.False(t, e.At.IsZero())
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(1, sink)

	// not started: the second publish finds the queue full
	d.Publish(Event{Type: RatingSubmitted})
	d.Publish(Event{Type: RatingUpdated})

	d.Start(context.Background())
	d.Close()
	assert.Equal(t, []Type{RatingSubmitted}, sink.types())
}

func TestHubRoutesByOwner(t *testing.T) {
	hub := NewHub()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn, 42)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Subscribers(42) == 1 }, time.Second, 10*time.Millisecond)

	other := uint(7)
	owner := uint(42)
	require.NoError(t, hub.Deliver(context.Background(), Event{Type: RatingSubmitted, StoreID: 1, OwnerID: &other}))
	require.NoError(t, hub.Deliver(context.Background(), Event{Type: RatingSubmitted, StoreID: 2}))
	require.NoError(t, hub.Deliver(context.Background(), Event{Type: RatingUpdated, StoreID: 3, OwnerID: &owner, Value: 4}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Event
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, RatingUpdated, got.Type)
	assert.Equal(t, uint(3), got.StoreID)
	assert.Equal(t, 4, got.Value)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Subscribers(42) == 0 }, 2*time.Second, 10*time.Millisecond)
}
