package reminder

import (
	"context"
	"log/slog"

	"github.com/a3tai/sensitive-scan/internal/logger"
)

// NotificationTitle is the title of every reminder notification
const NotificationTitle = "Order reminder"

// Notification is a desktop-style notification for a due reminder
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	// Tag is the reminder's ack key so repeated notifications replace each other
	Tag string `json:"tag"`
}

// NewNotification builds the notification for a due order
func NewNotification(o Order) Notification {
	return Notification{
		Title: NotificationTitle,
		Body:  "Order number: " + o.OrderNumber + "\nBook: " + o.BookTitle,
		Tag:   o.AckKey(),
	}
}

// Notifier delivers reminder notifications. Delivery is best-effort; errors
// are logged by the scheduler and never fail an evaluation.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NopNotifier discards notifications
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Notification) error { return nil }

// LogNotifier writes notifications to a structured logger
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(ctx context.Context, n Notification) error {
	log := l.Logger
	if log == nil {
		log = logger.WithContext(ctx)
	}
	log.InfoContext(ctx, "reminder due", "title", n.Title, "body", n.Body, "tag", n.Tag)
	return nil
}
