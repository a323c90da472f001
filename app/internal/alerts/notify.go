package alerts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"statuswatch/app/internal/models"
)

// Notifier delivers a single alert
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Notification is one status alert ready for delivery
type Notification struct {
	ID            string
	Site          string
	Status        models.Status
	Time          time.Time
	StatusPageURL string
}

// NewNotification stamps a new alert with a unique ID.
func NewNotification(site string, status models.Status, t time.Time, statusPageURL string) Notification {
	return Notification{
		ID:            uuid.NewString(),
		Site:          site,
		Status:        status,
		Time:          t.UTC(),
		StatusPageURL: normalizeStatusPageURL(statusPageURL),
	}
}

// Subject is the mail subject line, e.g. "[Example] Status Alert: down".
func (n Notification) Subject() string {
	return fmt.Sprintf("[%s] Status Alert: %s", n.Site, n.Status)
}

// Body is the plain-text mail body.
func (n Notification) Body() string {
	var b strings.Builder
	b.WriteString("Hello,\n\n")
	fmt.Fprintf(&b, "Your website %q is currently %q as of %s UTC.\n\n",
		n.Site, string(n.Status), n.Time.Format("2006-01-02 15:04:05"))
	if n.StatusPageURL != "" {
		fmt.Fprintf(&b, "Status page: %s\n\n", n.StatusPageURL)
	}
	b.WriteString("This alert was sent automatically. Please do not reply to this message.\n")
	fmt.Fprintf(&b, "\nAlert ID: %s\n", n.ID)
	return b.String()
}

// LogNotifier only logs alerts; it never fails.
type LogNotifier struct {
	Logger *log.Logger
}

func (l LogNotifier) Notify(_ context.Context, n Notification) error {
	if l.Logger != nil {
		l.Logger.Info("alert (dry run)", "id", n.ID, "subject", n.Subject())
	}
	return nil
}

func normalizeStatusPageURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "http://" + raw
	}
	return raw
}
