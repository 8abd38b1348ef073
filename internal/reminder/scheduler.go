package reminder

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/a3tai/sensitive-scan/internal/logger"
)

// DefaultInterval is the time between two periodic evaluations
const DefaultInterval = time.Minute

// Option configures a Scheduler
type Option func(*Scheduler)

// WithInterval sets the evaluation interval. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithNotifier sets the notifier used when a reminder becomes due
func WithNotifier(n Notifier) Option {
	return func(s *Scheduler) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// Scheduler evaluates an order snapshot against the clock and surfaces at most
// one due reminder at a time. It is either idle or holds a single due order;
// once an order is due it stays due until dismissed, whatever later
// evaluations find.
//
// The held order is a copy taken when it became due. Order IDs are positional
// (see Order), so after SetOrders shifts the list Dismiss still acknowledges
// the key of the old position. An order that moved into that position with
// the same reminder date is then treated as acknowledged as well.
type Scheduler struct {
	acks     *AckStore
	notifier Notifier
	interval time.Duration
	now      func() time.Time

	mu     sync.Mutex
	orders []Order
	due    *Order
}

// New creates an idle scheduler with an empty order snapshot
func New(acks *AckStore, opts ...Option) *Scheduler {
	if acks == nil {
		acks = NewAckStore(nil)
	}
	s := &Scheduler{
		acks:     acks,
		notifier: NopNotifier{},
		interval: DefaultInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Interval returns the periodic evaluation interval
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// SetOrders replaces the order snapshot and evaluates it immediately
func (s *Scheduler) SetOrders(ctx context.Context, orders []Order) {
	s.mu.Lock()
	s.orders = slices.Clone(orders)
	s.mu.Unlock()

	s.Evaluate(ctx, s.now())
}

// Orders returns a copy of the current snapshot
func (s *Scheduler) Orders() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.orders)
}

// Due returns the currently due order, if any
func (s *Scheduler) Due() (Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.due == nil {
		return Order{}, false
	}
	return *s.due, true
}

// Evaluate runs one tick against now and returns the due order, if any
func (s *Scheduler) Evaluate(ctx context.Context, now time.Time) (Order, bool) {
	s.mu.Lock()
	if s.due != nil {
		due := *s.due
		s.mu.Unlock()
		return due, true
	}
	orders := slices.Clone(s.orders)
	s.mu.Unlock()

	found, ok := s.findDue(ctx, orders, now)
	if !ok {
		return Order{}, false
	}

	s.mu.Lock()
	if s.due != nil {
		// a concurrent evaluation surfaced a reminder first
		due := *s.due
		s.mu.Unlock()
		return due, true
	}
	s.due = &found
	s.mu.Unlock()

	logger.Info(ctx, "reminder due", "order_id", found.ID, "order_number", found.OrderNumber,
		"reminder_date", found.ReminderDate)
	if err := s.notifier.Notify(ctx, NewNotification(found)); err != nil {
		logger.Warn(ctx, "failed to deliver reminder notification", "order_id", found.ID, "error", err)
	}
	return found, true
}

func (s *Scheduler) findDue(ctx context.Context, orders []Order, now time.Time) (Order, bool) {
	acknowledged := s.acks.Load(ctx)

	for _, order := range orders {
		if order.ReminderDate == "" {
			continue
		}
		if _, ok := acknowledged[order.AckKey()]; ok {
			continue
		}

		at, err := ParseReminderDate(order.ReminderDate)
		if err != nil {
			if !errors.Is(err, ErrEmptyDate) {
				logger.Warn(ctx, "skipping order with invalid reminder date",
					"order_id", order.ID, "reminder_date", order.ReminderDate, "error", err)
			}
			continue
		}

		if !at.After(now) {
			return order, true
		}
	}
	return Order{}, false
}

// Dismiss acknowledges the due reminder and returns the scheduler to idle.
// A failed write is logged; the due state is cleared regardless, so the same
// reminder may surface again after a restart.
func (s *Scheduler) Dismiss(ctx context.Context) (Order, bool) {
	s.mu.Lock()
	if s.due == nil {
		s.mu.Unlock()
		return Order{}, false
	}
	dismissed := *s.due
	s.due = nil
	s.mu.Unlock()

	if err := s.acks.Acknowledge(ctx, dismissed.AckKey()); err != nil {
		logger.Error(ctx, "failed to acknowledge reminder", "key", dismissed.AckKey(), "error", err)
	}
	return dismissed, true
}

// Run evaluates immediately and then every interval until ctx is done
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger.Info(ctx, "reminder scheduler started", "interval", s.interval.String())
	s.Evaluate(ctx, s.now())

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "reminder scheduler stopped")
			return nil
		case <-ticker.C:
			s.Evaluate(ctx, s.now())
		}
	}
}
