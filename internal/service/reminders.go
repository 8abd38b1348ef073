package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/a3tai/sensitive-scan/internal/backend"
	"github.com/a3tai/sensitive-scan/internal/logger"
	"github.com/a3tai/sensitive-scan/internal/reminder"
)

// Orders fetches the order list and hands it to the reminder scheduler as
// the new snapshot
func (s *Service) Orders(ctx context.Context) ([]reminder.Order, error) {
	if s.backend == nil {
		return s.scheduler.Orders(), nil
	}

	orders, err := s.backend.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	s.scheduler.SetOrders(ctx, orders)
	return orders, nil
}

// GetOrder fetches one order by its positional id
func (s *Service) GetOrder(ctx context.Context, id int64) (reminder.Order, error) {
	if s.backend == nil {
		return reminder.Order{}, backend.ErrNotConfigured
	}
	return s.backend.GetOrder(ctx, id)
}

// CreateOrder stores a new order and refreshes the scheduler snapshot.
// Order number and book title are required.
func (s *Service) CreateOrder(ctx context.Context, order reminder.Order) (reminder.Order, error) {
	if s.backend == nil {
		return reminder.Order{}, backend.ErrNotConfigured
	}
	order, err := validateOrder(order)
	if err != nil {
		return reminder.Order{}, err
	}

	id, err := s.backend.CreateOrder(ctx, order)
	if err != nil {
		return reminder.Order{}, fmt.Errorf("failed to create order: %w", err)
	}
	order.ID = int(id)
	logger.Info(ctx, "order created", "id", id, "order_number", order.OrderNumber)
	s.refreshOrders(ctx)
	return order, nil
}

// UpdateOrder replaces the order at id and refreshes the scheduler snapshot
func (s *Service) UpdateOrder(ctx context.Context, id int64, order reminder.Order) (reminder.Order, error) {
	if s.backend == nil {
		return reminder.Order{}, backend.ErrNotConfigured
	}
	order, err := validateOrder(order)
	if err != nil {
		return reminder.Order{}, err
	}

	if err := s.backend.UpdateOrder(ctx, id, order); err != nil {
		return reminder.Order{}, fmt.Errorf("failed to update order %d: %w", id, err)
	}
	order.ID = int(id)
	logger.Info(ctx, "order updated", "id", id)
	s.refreshOrders(ctx)
	return order, nil
}

// DeleteOrder removes the order at id. The orders after it shift down by one
// position, so the scheduler snapshot is refreshed.
func (s *Service) DeleteOrder(ctx context.Context, id int64) error {
	if s.backend == nil {
		return backend.ErrNotConfigured
	}
	if err := s.backend.DeleteOrder(ctx, id); err != nil {
		return fmt.Errorf("failed to delete order %d: %w", id, err)
	}
	logger.Info(ctx, "order deleted", "id", id)
	s.refreshOrders(ctx)
	return nil
}

// refreshOrders re-reads the order list after a write. A failed refresh keeps
// the previous snapshot until the next sync.
func (s *Service) refreshOrders(ctx context.Context) {
	if _, err := s.Orders(ctx); err != nil {
		logger.Warn(ctx, "order refresh after write failed", "error", err)
	}
}

func validateOrder(order reminder.Order) (reminder.Order, error) {
	order.OrderNumber = strings.TrimSpace(order.OrderNumber)
	order.BookTitle = strings.TrimSpace(order.BookTitle)
	order.ReminderDate = strings.TrimSpace(order.ReminderDate)

	if order.OrderNumber == "" || order.BookTitle == "" {
		return order, fmt.Errorf("%w: order number and book title are required", ErrInvalidInput)
	}
	if order.ReminderDate != "" {
		if _, err := reminder.ParseReminderDate(order.ReminderDate); err != nil {
			return order, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	return order, nil
}

// SyncOrders refreshes the order snapshot from the backend every interval
// until ctx is done. Failed refreshes keep the previous snapshot.
func (s *Service) SyncOrders(ctx context.Context, interval time.Duration) error {
	if s.backend == nil {
		return nil
	}
	if interval <= 0 {
		interval = reminder.DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Orders(ctx); err != nil && ctx.Err() == nil {
			logger.Warn(ctx, "order refresh failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// DueReminder returns the currently due reminder, if any
func (s *Service) DueReminder() (reminder.Order, bool) {
	return s.scheduler.Due()
}

// DismissReminder acknowledges the due reminder
func (s *Service) DismissReminder(ctx context.Context) (reminder.Order, bool) {
	return s.scheduler.Dismiss(ctx)
}
