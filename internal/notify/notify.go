// Package notify delivers booking events to passengers and downstream
// systems. Every channel implements Notifier; Multi fans an event out to
// several channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/seenimoa/flightdesk/pkg/models"
)

// EventBookingConfirmed is published once a booking has a PNR.
const EventBookingConfirmed = "booking.confirmed"

// Event is a booking notification.
type Event struct {
	Type         string                      `json:"type"`
	Reference    string                      `json:"reference"`
	Emails       []string                    `json:"emails,omitempty"`
	Message      string                      `json:"message"`
	Confirmation *models.BookingConfirmation `json:"confirmation,omitempty"`
	At           time.Time                   `json:"at"`
}

// NewBookingEvent builds a booking.confirmed event.
func NewBookingEvent(c *models.BookingConfirmation, message string) Event {
	return Event{
		Type:         EventBookingConfirmed,
		Reference:    c.Reference,
		Emails:       c.Emails(),
		Message:      message,
		Confirmation: c,
		At:           time.Now(),
	}
}

// Notifier is a delivery channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, ev Event) error
}

// ════════════════════════════════════════════════════════════════════
// Log (simulated email)
// ════════════════════════════════════════════════════════════════════

// LogNotifier stands in for an email gateway: it logs who would have
// received the ticket.
type LogNotifier struct {
	logf func(format string, args ...any)
}

// NewLogNotifier creates a notifier that writes to the standard logger.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logf: log.Printf}
}

func (n *LogNotifier) Name() string { return "email-log" }

// Notify logs the recipients.
func (n *LogNotifier) Notify(_ context.Context, ev Event) error {
	if len(ev.Emails) == 0 {
		n.logf("notify/email: [SIMULATED] no recipients for booking %s", ev.Reference)
		return nil
	}
	n.logf("notify/email: [SIMULATED] ticket %s sent to %s", ev.Reference, strings.Join(ev.Emails, ", "))
	return nil
}

// ════════════════════════════════════════════════════════════════════
// Fan-out
// ════════════════════════════════════════════════════════════════════

// Multi delivers to every notifier in order. A failing channel does not
// stop the others; the failures are joined.
type Multi []Notifier

func (m Multi) Name() string {
	names := make([]string, len(m))
	for i, n := range m {
		names[i] = n.Name()
	}
	return "multi(" + strings.Join(names, ",") + ")"
}

// Notify sends ev to each notifier.
func (m Multi) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}
