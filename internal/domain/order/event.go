package order

import (
	"context"
	"time"
)

// EventType names a change to an order.
type EventType string

const (
	EventCreated EventType = "order.created"
	EventUpdated EventType = "order.updated"
	EventPaid    EventType = "order.paid"
)

// Event is emitted after a mutation has been persisted.
type Event struct {
	Type          EventType
	OrderID       string
	PaymentStatus PaymentStatus
	At            time.Time
}

// Publisher receives order events. Publish must not block.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) {}
