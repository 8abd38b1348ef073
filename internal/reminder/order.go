// Package reminder surfaces order reminders whose date has passed and keeps
// track of the ones the user already dismissed.
package reminder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Order is one purchase/transfer order as returned by the order store.
//
// ID is positional: it is the index of the order in the list the store
// returned and must be re-derived on every fetch (see OrdersWithIDs).
type Order struct {
	ID             int    `json:"id" yaml:"id"`
	OrderNumber    string `json:"orderNumber" yaml:"orderNumber"`
	BookTitle      string `json:"bookTitle" yaml:"bookTitle"`
	TransferEntity string `json:"transferEntity" yaml:"transferEntity"`
	TransferDate   string `json:"transferDate" yaml:"transferDate"`
	ReminderDate   string `json:"reminderDate" yaml:"reminderDate"`
	Notes          string `json:"notes" yaml:"notes"`
}

// AckKey identifies one reminder instance. Changing the reminder date yields
// a new key, so a rescheduled order becomes eligible again.
func (o Order) AckKey() string {
	return strconv.Itoa(o.ID) + "-" + o.ReminderDate
}

// OrdersWithIDs returns a copy of orders with ID set to each order's index
func OrdersWithIDs(orders []Order) []Order {
	out := make([]Order, len(orders))
	for i, o := range orders {
		o.ID = i
		out[i] = o
	}
	return out
}

// ErrEmptyDate is returned for orders without a reminder date
var ErrEmptyDate = errors.New("empty reminder date")

// Layouts without a zone are read in local time, like an HTML datetime-local
// field. A bare date is UTC midnight.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseReminderDate parses a reminder date in one of the accepted layouts:
// RFC 3339, YYYY-MM-DDTHH:MM[:SS] (local time) or YYYY-MM-DD (UTC).
func ParseReminderDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrEmptyDate
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("unrecognized reminder date %q", value)
}
