package events

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

// Hub fans rating events out to websocket connections of store owners.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	ownerID uint
	send    chan Event
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Deliver implements Sink. Events without an owner are not forwarded; slow
// clients miss events rather than stall the dispatcher.
func (h *Hub) Deliver(_ context.Context, e Event) error {
	if e.OwnerID == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.ownerID != *e.OwnerID {
			continue
		}
		select {
		case c.send <- e:
		default:
		}
	}
	return nil
}

// Subscribers returns the number of live connections for ownerID.
func (h *Hub) Subscribers(ownerID uint) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for c := range h.clients {
		if c.ownerID == ownerID {
			n++
		}
	}
	return n
}

func (h *Hub) register(ownerID uint) *client {
	c := &client{ownerID: ownerID, send: make(chan Event, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// Serve streams ownerID's events to conn as JSON until the peer goes away.
// It blocks and closes conn on return.
func (h *Hub) Serve(conn *websocket.Conn, ownerID uint) {
	c := h.register(ownerID)
	defer func() {
		h.unregister(c)
		_ = conn.Close()
	}()

	// The read side only handles control frames and detects disconnects.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-gone:
			return
		case e := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(e); err != nil {
				log.Debug().Err(err).Uint("owner_id", ownerID).Msg("live feed write failed")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
