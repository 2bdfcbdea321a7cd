// Package ws pushes order changes to connected desk screens over WebSocket.
package ws

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/cafe-orders/internal/domain/order"
)

var _ order.Publisher = (*Hub)(nil)

// Hub keeps the set of connected clients and fans order events out to them.
type Hub struct {
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	// done is closed when Run returns.
	done chan struct{}

	mu sync.RWMutex
}

// NewHub creates a Hub. Call Run to start delivering events.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run delivers events until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow consumer.
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// add subscribes c. It reports false once the hub has stopped.
func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// remove unsubscribes c. It is a no-op once the hub has stopped.
func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish queues an order event for every client. Events are dropped when
// the queue is full.
func (h *Hub) Publish(ctx context.Context, e order.Event) {
	select {
	case h.broadcast <- EncodeEvent(e):
	default:
		zctx.From(ctx).Warn("Dropping order event, broadcast queue full",
			zap.String("type", string(e.Type)),
			zap.String("order_id", e.OrderID),
		)
	}
}

// EncodeEvent renders the wire form of an order event:
//
//	{"type":"order.paid","order_id":"...","payment_status":"Paid","at":"..."}
func EncodeEvent(e order.Event) []byte {
	var enc jx.Encoder
	enc.ObjStart()
	enc.FieldStart("type")
	enc.Str(string(e.Type))
	enc.FieldStart("order_id")
	enc.Str(e.OrderID)
	enc.FieldStart("payment_status")
	enc.Str(string(e.PaymentStatus))
	enc.FieldStart("at")
	enc.Str(e.At.UTC().Format(time.RFC3339))
	enc.ObjEnd()
	return enc.Bytes()
}
