package backend

import (
	"context"

	"github.com/a3tai/sensitive-scan/internal/reminder"
)

// ListOrders returns every order with IDs assigned from list positions.
// The IDs are only valid until the next fetch.
func (c *Client) ListOrders(ctx context.Context) ([]reminder.Order, error) {
	var orders []reminder.Order
	if err := c.get(ctx, "/orders", &orders); err != nil {
		return nil, err
	}
	return reminder.OrdersWithIDs(orders), nil
}

// GetOrder fetches one order by positional id
func (c *Client) GetOrder(ctx context.Context, id int64) (reminder.Order, error) {
	var order reminder.Order
	if err := c.get(ctx, idPath("/orders", id), &order); err != nil {
		return reminder.Order{}, err
	}
	order.ID = int(id)
	return order, nil
}

// CreateOrder stores a new order and returns the id the backend assigned
func (c *Client) CreateOrder(ctx context.Context, order reminder.Order) (int64, error) {
	var resp idResponse
	if err := c.do(ctx, "POST", "/orders", orderPayload(order), &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// UpdateOrder replaces the order at id
func (c *Client) UpdateOrder(ctx context.Context, id int64, order reminder.Order) error {
	return c.do(ctx, "PUT", idPath("/orders", id), orderPayload(order), nil)
}

// DeleteOrder removes the order at id
func (c *Client) DeleteOrder(ctx context.Context, id int64) error {
	return c.do(ctx, "DELETE", idPath("/orders", id), nil, nil)
}

// orderBody is the order as the backend stores it, without the positional id
type orderBody struct {
	OrderNumber    string `json:"orderNumber"`
	BookTitle      string `json:"bookTitle"`
	TransferEntity string `json:"transferEntity"`
	TransferDate   string `json:"transferDate"`
	ReminderDate   string `json:"reminderDate"`
	Notes          string `json:"notes"`
}

func orderPayload(o reminder.Order) orderBody {
	return orderBody{
		OrderNumber:    o.OrderNumber,
		BookTitle:      o.BookTitle,
		TransferEntity: o.TransferEntity,
		TransferDate:   o.TransferDate,
		ReminderDate:   o.ReminderDate,
		Notes:          o.Notes,
	}
}
