package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/seenimoa/flightdesk/internal/infra"
	"github.com/seenimoa/flightdesk/internal/metrics"
	"github.com/seenimoa/flightdesk/pkg/models"
)

// ReferenceFunc produces booking references (PNRs).
type ReferenceFunc func() string

// UUIDReference derives a 6-character PNR from a random UUID.
func UUIDReference() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}

// DemoConfirmer simulates a reservation system. Bookings always succeed
// once the request is valid; nothing leaves the process.
type DemoConfirmer struct {
	validate *validator.Validate
	ledger   *Ledger
	newRef   ReferenceFunc
	now      infra.Clock
}

// DemoOption configures a DemoConfirmer.
type DemoOption func(*DemoConfirmer)

// WithReferenceFunc makes PNRs predictable in tests.
func WithReferenceFunc(fn ReferenceFunc) DemoOption {
	return func(d *DemoConfirmer) { d.newRef = fn }
}

// WithLedger shares a ledger between confirmers or with the API.
func WithLedger(l *Ledger) DemoOption {
	return func(d *DemoConfirmer) { d.ledger = l }
}

// WithClock sets the booking timestamp source.
func WithClock(clock infra.Clock) DemoOption {
	return func(d *DemoConfirmer) { d.now = clock }
}

// NewDemoConfirmer creates the simulated confirmer.
func NewDemoConfirmer(opts ...DemoOption) *DemoConfirmer {
	d := &DemoConfirmer{
		validate: validator.New(),
		ledger:   NewLedger(),
		newRef:   UUIDReference,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns "demo".
func (d *DemoConfirmer) Name() string { return "demo" }

// Ledger returns the confirmer's audit log.
func (d *DemoConfirmer) Ledger() *Ledger { return d.ledger }

// Book validates the passengers and seat availability, then issues a PNR.
func (d *DemoConfirmer) Book(ctx context.Context, offer models.FareOffer, passengers []models.Passenger, breakdown models.TicketPriceBreakdown) (*models.BookingConfirmation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := d.check(offer, passengers); err != nil {
		d.fail(offer, passengers, breakdown, err)
		return nil, err
	}

	c := &models.BookingConfirmation{
		Reference:  d.newRef(),
		Status:     models.BookingConfirmed,
		Offer:      offer,
		Passengers: append([]models.Passenger(nil), passengers...),
		Breakdown:  breakdown,
		BookedAt:   d.clock(),
	}
	d.ledger.Record(models.BookingLog{
		Reference:  c.Reference,
		OfferID:    offer.ID,
		Route:      offer.Origin() + "-" + offer.Destination(),
		Passengers: len(passengers),
		Total:      models.Money{Amount: breakdown.Total, Currency: breakdown.Currency},
		Status:     c.Status,
		Timestamp:  c.BookedAt,
	}, c)
	metrics.Bookings.WithLabelValues(string(c.Status)).Inc()

	log.Printf("booking/demo: simulated booking %s for offer %s (%d passenger(s))", c.Reference, offer.ID, len(passengers))
	return c, nil
}

func (d *DemoConfirmer) check(offer models.FareOffer, passengers []models.Passenger) error {
	if len(passengers) == 0 {
		return fmt.Errorf("%w: at least one passenger is required", models.ErrValidation)
	}
	if offer.SeatsAvailable != nil && *offer.SeatsAvailable < len(passengers) {
		return fmt.Errorf("%w: only %d seat(s) left, %d requested",
			models.ErrValidation, *offer.SeatsAvailable, len(passengers))
	}
	var problems []string
	for i, p := range passengers {
		if err := d.validate.Struct(p); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				return fmt.Errorf("%w: passenger %d: %v", models.ErrValidation, i+1, err)
			}
			for _, fe := range verrs {
				problems = append(problems, fmt.Sprintf("passenger %d: %s failed %q", i+1, fe.Field(), fe.Tag()))
			}
		}
		if p.ID.Normalized == "" {
			problems = append(problems, fmt.Sprintf("passenger %d: missing identity document", i+1))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", models.ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}

func (d *DemoConfirmer) fail(offer models.FareOffer, passengers []models.Passenger, breakdown models.TicketPriceBreakdown, err error) {
	d.ledger.Record(models.BookingLog{
		OfferID:    offer.ID,
		Route:      offer.Origin() + "-" + offer.Destination(),
		Passengers: len(passengers),
		Total:      models.Money{Amount: breakdown.Total, Currency: breakdown.Currency},
		Status:     models.BookingFailed,
		Message:    err.Error(),
		Timestamp:  d.clock(),
	}, nil)
	metrics.Bookings.WithLabelValues(string(models.BookingFailed)).Inc()
}

func (d *DemoConfirmer) clock() time.Time {
	if d.now != nil {
		return d.now()
	}
	return time.Now()
}
