package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/cafe-orders/internal/domain/auth"
)

const instrumentationName = "github.com/xenking/cafe-orders/internal/domain/order"

// Request holds the customer fields and cart lines of a new or edited order.
type Request struct {
	CustomerName  string
	CustomerPhone string
	Notes         string
	Items         []LineItem
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the time zone used for invoice issue dates.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithPublisher sets the receiver of order events.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithTelemetry instruments the service with the given providers.
func WithTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) Option {
	return func(s *Service) {
		s.tracer = tp.Tracer(instrumentationName)
		meter := mp.Meter(instrumentationName)
		if c, err := meter.Int64Counter("cafe.orders.created",
			metric.WithDescription("Orders saved together with their invoice"),
		); err == nil {
			s.created = c
		}
		if c, err := meter.Int64Counter("cafe.orders.paid",
			metric.WithDescription("Orders marked as paid"),
		); err == nil {
			s.paid = c
		}
	}
}

// Service encapsulates the order mutations and reads.
type Service struct {
	orders  Repository
	events  Publisher
	now     func() time.Time
	loc     *time.Location
	tracer  trace.Tracer
	created metric.Int64Counter
	paid    metric.Int64Counter
}

// NewService creates an order Service on top of the given Repository.
func NewService(orders Repository, opts ...Option) *Service {
	s := &Service{
		orders:  orders,
		events:  nopPublisher{},
		now:     time.Now,
		loc:     time.Local,
		tracer:  tracenoop.NewTracerProvider().Tracer(instrumentationName),
		created: metricnoop.Int64Counter{},
		paid:    metricnoop.Int64Counter{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Now returns the current time in the service's time zone.
func (s *Service) Now() time.Time {
	return s.now().In(s.loc)
}

// List returns every stored order.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, s.persistenceFailure(ctx, nil, "list orders", err)
	}
	return orders, nil
}

// Get returns a single order with its invoice.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, s.persistenceFailure(ctx, nil, "get order", err)
	}
	return o, nil
}

// Create validates the request and stores a new unpaid order together with
// its pending invoice. Either both are stored or neither is.
func (s *Service) Create(ctx context.Context, sess auth.Session, req Request) (*Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.Create")
	defer span.End()

	if err := validate(req); err != nil {
		return nil, err
	}

	now := s.Now()
	o := &Order{
		ID:            uuid.New().String(),
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Notes:         req.Notes,
		PaymentStatus: StatusNotPaid,
		CreatedBy:     sess.StaffID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	o.SetItems(req.Items)

	inv := &Invoice{
		ID:        uuid.New().String(),
		OrderID:   o.ID,
		Number:    InvoiceNumber(now),
		Total:     o.Total,
		IssueDate: CalendarDate(now),
		Status:    InvoicePending,
	}
	if err := s.orders.Create(ctx, o, inv); err != nil {
		return nil, s.persistenceFailure(ctx, span, "create order", err)
	}
	o.Invoice = inv

	span.SetAttributes(attribute.String("order.id", o.ID))
	s.created.Add(ctx, 1)
	zctx.From(ctx).Info("Order created",
		zap.String("order_id", o.ID),
		zap.String("invoice", inv.Number),
		zap.String("total", o.Total.StringFixed(2)),
		zap.String("staff_id", sess.StaffID),
	)
	s.publish(ctx, EventCreated, o)
	return o, nil
}

// Update replaces the customer fields and the whole line-item set of an
// existing order, keeping its invoice total in sync.
func (s *Service) Update(ctx context.Context, sess auth.Session, id string, req Request) (*Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.Update", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	if err := validate(req); err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	o := current.Clone()
	o.CustomerName = req.CustomerName
	o.CustomerPhone = req.CustomerPhone
	o.Notes = req.Notes
	o.UpdatedAt = s.Now()
	o.SetItems(req.Items)

	if err := s.orders.Update(ctx, o); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, s.persistenceFailure(ctx, span, "update order", err)
	}

	zctx.From(ctx).Info("Order updated",
		zap.String("order_id", o.ID),
		zap.String("total", o.Total.StringFixed(2)),
		zap.String("staff_id", sess.StaffID),
	)
	s.publish(ctx, EventUpdated, o)
	return o, nil
}

// MarkPaid settles the order in full and flips its invoice to paid.
// Marking an already paid order again yields the same state.
func (s *Service) MarkPaid(ctx context.Context, sess auth.Session, id string) (*Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.MarkPaid", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	o := current.Clone()
	o.MarkPaid(s.Now())

	err = s.orders.SetPaymentStatus(ctx, o.ID, Payment{
		Status:           o.PaymentStatus,
		AmountPaid:       o.AmountPaid,
		RemainingBalance: o.RemainingBalance,
		UpdatedAt:        o.UpdatedAt,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, s.persistenceFailure(ctx, span, "set payment status", err)
	}

	if !current.IsPaid() {
		s.paid.Add(ctx, 1)
	}
	zctx.From(ctx).Info("Order marked paid",
		zap.String("order_id", o.ID),
		zap.String("staff_id", sess.StaffID),
	)
	s.publish(ctx, EventPaid, o)
	return o, nil
}

func (s *Service) publish(ctx context.Context, t EventType, o *Order) {
	s.events.Publish(ctx, Event{
		Type:          t,
		OrderID:       o.ID,
		PaymentStatus: o.PaymentStatus,
		At:            o.UpdatedAt,
	})
}

func (s *Service) persistenceFailure(ctx context.Context, span trace.Span, op string, err error) error {
	zctx.From(ctx).Error("Persistence failure", zap.String("op", op), zap.Error(err))
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, op)
	}
	return &PersistenceError{Op: op, Err: err}
}

func validate(req Request) error {
	if strings.TrimSpace(req.CustomerName) == "" {
		return &ValidationError{Field: "customer_name", Reason: "must not be empty"}
	}
	if len(req.Items) == 0 {
		return &ValidationError{Field: "items", Reason: "at least one item is required"}
	}
	for _, it := range req.Items {
		if strings.TrimSpace(it.Name) == "" {
			return &ValidationError{Field: "items", Reason: "item name must not be empty"}
		}
		if it.Quantity < 1 {
			return &ValidationError{Field: "items", Reason: "quantity must be at least 1 for " + it.Name}
		}
		if it.Price.IsNegative() {
			return &ValidationError{Field: "items", Reason: "price must not be negative for " + it.Name}
		}
	}
	return nil
}

// CalendarDate returns the calendar day of t (in t's location) as midnight UTC.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
