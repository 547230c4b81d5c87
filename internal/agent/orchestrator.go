package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/seenimoa/flightdesk/internal/booking"
	"github.com/seenimoa/flightdesk/internal/currency"
	"github.com/seenimoa/flightdesk/internal/fare"
	"github.com/seenimoa/flightdesk/internal/flights"
	"github.com/seenimoa/flightdesk/internal/identity"
	"github.com/seenimoa/flightdesk/internal/infra"
	"github.com/seenimoa/flightdesk/internal/notify"
	"github.com/seenimoa/flightdesk/internal/present"
	"github.com/seenimoa/flightdesk/internal/ranking"
	"github.com/seenimoa/flightdesk/pkg/models"
	"github.com/seenimoa/flightdesk/pkg/utils"
)

// Demo values offered when the user just presses Enter.
const (
	demoFirstName = "John"
	demoLastName  = "Doe"
	demoGender    = "M"
	demoEmail     = "john.doe@example.com"
	demoPhone     = "+91-1234567890"
	demoIDNumber  = "DEFAULT123456"
)

// Session is the record of one booking conversation.
type Session struct {
	ID             string                       `json:"id"`
	Input          string                       `json:"input"`
	Request        *models.SearchRequest        `json:"request,omitempty"`
	Preference     models.RankingPreference     `json:"preference"`
	Window         ranking.SearchWindow         `json:"-"`
	Ordered        []models.FareOffer           `json:"ordered,omitempty"`
	Alternatives   []models.AlternativeOffer    `json:"alternatives,omitempty"`
	Selection      *models.FareOffer            `json:"selection,omitempty"`
	SelectionIndex int                          `json:"selection_index,omitempty"`
	Passengers     []models.Passenger           `json:"passengers,omitempty"`
	Breakdown      *models.TicketPriceBreakdown `json:"breakdown,omitempty"`
	Confirmation   *models.BookingConfirmation  `json:"confirmation,omitempty"`
	Ticket         string                       `json:"ticket,omitempty"`
	Message        string                       `json:"message,omitempty"`
	Log            []string                     `json:"log"`
}

func (s *Session) logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s.Log = append(s.Log, msg)
	log.Printf("agent/session %s: %s", s.ID[:8], msg)
}

// OrchestratorConfig holds the collaborators of a booking session.
type OrchestratorConfig struct {
	Console      *Console
	Search       *SearchAgent
	Ticket       *TicketAgent       // optional; plain ticket when nil
	Notification *NotificationAgent // optional; templated message when nil
	Source       flights.Source
	Converter    *currency.Converter
	Confirmer    booking.Confirmer
	Notifier     notify.Notifier // optional
	Fare         fare.Calculator
	Currency     string      // display currency, e.g. "INR"
	Today        infra.Clock // optional; bounds adjacent-date searches
	MaxAttempts  int         // request re-asks before giving up, default 3
}

// Orchestrator runs booking sessions step by step:
// search → present → select → passengers → book → ticket → notify.
// Steps run sequentially; a cancel word at any prompt ends the session
// before anything is booked.
type Orchestrator struct {
	console      *Console
	search       *SearchAgent
	ticket       *TicketAgent
	notification *NotificationAgent
	source       flights.Source
	converter    *currency.Converter
	confirmer    booking.Confirmer
	notifier     notify.Notifier
	fare         fare.Calculator
	currency     string
	today        infra.Clock
	maxAttempts  int
}

// NewOrchestrator creates an orchestrator. Console, Search, Source,
// Converter and Confirmer are required.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	o := &Orchestrator{
		console:      cfg.Console,
		search:       cfg.Search,
		ticket:       cfg.Ticket,
		notification: cfg.Notification,
		source:       cfg.Source,
		converter:    cfg.Converter,
		confirmer:    cfg.Confirmer,
		notifier:     cfg.Notifier,
		fare:         cfg.Fare,
		currency:     strings.ToUpper(cfg.Currency),
		today:        cfg.Today,
		maxAttempts:  cfg.MaxAttempts,
	}
	if o.ticket == nil {
		o.ticket = NewTicketAgent(nil)
	}
	if o.notification == nil {
		o.notification = NewNotificationAgent(nil)
	}
	if o.currency == "" {
		o.currency = "INR"
	}
	if o.fare.Currency == "" {
		o.fare.Currency = o.currency
	}
	if o.maxAttempts <= 0 {
		o.maxAttempts = 3
	}
	return o
}

type step struct {
	name string
	fn   func(context.Context, *Session) error
}

// Run executes one session. request may be empty, in which case the user
// is asked for it. The returned session is never nil and records how far
// the booking got.
func (o *Orchestrator) Run(ctx context.Context, request string) (*Session, error) {
	s := &Session{ID: uuid.NewString(), Input: strings.TrimSpace(request)}
	steps := []step{
		{"search", o.searchStep},
		{"present", o.presentStep},
		{"select", o.selectStep},
		{"passengers", o.passengersStep},
		{"book", o.bookStep},
		{"ticket", o.ticketStep},
		{"notify", o.notifyStep},
	}
	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		if err := st.fn(ctx, s); err != nil {
			if errors.Is(err, models.ErrUserCancelled) {
				s.logf("cancelled by user during %s", st.name)
				o.console.Println("\nBooking cancelled. Nothing was booked.")
				return s, err
			}
			s.logf("%s failed: %v", st.name, err)
			o.console.Printf("\nError: %v\n", err)
			return s, fmt.Errorf("%s: %w", st.name, err)
		}
	}
	return s, nil
}

// ── Steps ──

func (o *Orchestrator) searchStep(ctx context.Context, s *Session) error {
	text := s.Input
	if text == "" {
		var err error
		if text, err = o.console.AskOrCancel("Where would you like to fly? (e.g. 'Mumbai to Delhi on 2025-12-01'): "); err != nil {
			return err
		}
	} else if IsCancel(text) {
		return models.ErrUserCancelled
	}

	var req *models.SearchRequest
	for attempt := 1; ; attempt++ {
		o.console.Println("Understanding your request...")
		parsed, err := o.search.Parse(ctx, text)
		if err == nil {
			req = parsed
			break
		}
		if !errors.Is(err, models.ErrValidation) || attempt >= o.maxAttempts {
			return err
		}
		s.logf("request not understood (attempt %d): %v", attempt, err)
		o.console.Printf("I could not understand that request: %v\n", err)
		if text, err = o.console.AskOrCancel("Please rephrase with origin, destination and date: "); err != nil {
			return err
		}
	}
	s.Input = text
	s.Request = req
	s.Preference = ranking.Classify(req.Hint)
	s.logf("parsed %s on %s (%s)", req.Route(), utils.FormatDate(req.DepartureDate), s.Preference)

	q := flights.QueryFromRequest(*req)
	q.Currency = o.currency
	var opts []flights.WindowOption
	if o.today != nil {
		opts = append(opts, flights.WithToday(o.today))
	}
	o.console.Printf("Searching %s flights...\n", o.source.Name())
	win, err := flights.SearchWindow(ctx, o.source, q, opts...)
	if err != nil {
		return err
	}
	if len(win.Requested) == 0 {
		return fmt.Errorf("%w: no flights %s on %s", models.ErrNotFound, req.Route(), utils.FormatDate(req.DepartureDate))
	}
	s.Window = win
	s.logf("found %d offers, %d adjacent date(s) searched", len(win.Requested), len(win.Adjacent))
	return nil
}

func (o *Orchestrator) presentStep(ctx context.Context, s *Session) error {
	converted, degraded, err := o.converter.ConvertWindow(ctx, s.Window, o.currency)
	if err != nil {
		return err
	}
	s.Ordered = ranking.Sort(converted.Requested, s.Preference)
	s.Alternatives = ranking.Alternatives(converted.Requested, converted.Adjacent)
	s.logf("ranked %d offers, %d cheaper alternative(s)", len(s.Ordered), len(s.Alternatives))

	o.console.Printf("%s", present.Header(*s.Request))
	o.console.Printf("Sorting: %s\n\n", s.Preference.Description())
	o.console.Printf("%s", present.Format(s.Ordered, s.Alternatives, o.currency, o.fare.TaxRate))
	if degraded {
		o.console.Println("Note: live exchange rates are unavailable; prices use fallback rates.")
	}
	o.console.Println(present.Prompt(len(s.Ordered)))
	return nil
}

func (o *Orchestrator) selectStep(_ context.Context, s *Session) error {
	n := len(s.Ordered)
	for {
		in, err := o.console.AskOrCancel(fmt.Sprintf("Your choice (1-%d): ", n))
		if err != nil {
			return err
		}
		if rest, ok := strings.CutPrefix(strings.ToLower(in), "info"); ok {
			idx, err := parseChoice(rest, n)
			if err != nil {
				o.console.Printf("%v\n", err)
				continue
			}
			o.console.Printf("%s", present.Details(s.Ordered[idx-1], idx))
			continue
		}
		idx, err := parseChoice(in, n)
		if err != nil {
			o.console.Printf("%v\n", err)
			continue
		}

		offer := s.Ordered[idx-1]
		o.console.Printf("%s", present.Confirmation(offer, idx))
		ans, err := o.console.AskDefault("Confirm this selection? (y/n/cancel) [y]: ", "y")
		if err != nil {
			return err
		}
		if a := strings.ToLower(ans); a == "y" || a == "yes" {
			s.Selection = &offer
			s.SelectionIndex = idx
			s.logf("selected option %d (%s, %s)", idx, offer.CarrierNames(), present.Money(offer.Price, offer.Currency))
			return nil
		}
		o.console.Println(present.Prompt(n))
	}
}

func (o *Orchestrator) passengersStep(_ context.Context, s *Session) error {
	adults := s.Request.Adults
	if adults < 1 {
		adults = 1
	}
	o.console.Println("\nPASSENGER DETAILS (press Enter to use demo values)")
	for i := 1; i <= adults; i++ {
		p, err := o.askPassenger(i, adults)
		if err != nil {
			return err
		}
		s.Passengers = append(s.Passengers, p)
	}
	s.logf("collected %d passenger(s)", len(s.Passengers))
	return nil
}

func (o *Orchestrator) bookStep(ctx context.Context, s *Session) error {
	bd, err := o.fare.ForOffer(*s.Selection, len(s.Passengers))
	if err != nil {
		return err
	}
	s.Breakdown = &bd
	o.console.Printf("\nBase fare: %s  GST (%s): %s  Total: %s\n",
		present.Money(bd.Base, bd.Currency), utils.FormatPct(bd.TaxRate),
		present.Money(bd.Tax, bd.Currency), present.Money(bd.Total, bd.Currency))
	o.console.Println("Processing booking...")

	c, err := o.confirmer.Book(ctx, *s.Selection, s.Passengers, bd)
	if err != nil {
		return err
	}
	c.SessionID = s.ID
	s.Confirmation = c
	s.logf("booking confirmed, reference %s", c.Reference)
	o.console.Printf("Booking confirmed! Reference: %s\n", c.Reference)
	return nil
}

func (o *Orchestrator) ticketStep(ctx context.Context, s *Session) error {
	o.console.Println("Generating your ticket...")
	banner := strings.Repeat("═", 60)
	o.console.Printf("\n%s\n  BOOKING CONFIRMED - YOUR TICKET IS READY!\n%s\n\n", banner, banner)
	text, err := o.ticket.Stream(ctx, s.Confirmation, o.console.Writer())
	if err != nil {
		return err
	}
	s.Ticket = text
	o.console.Println()
	return nil
}

// notifyStep never fails the session: the booking already exists.
func (o *Orchestrator) notifyStep(ctx context.Context, s *Session) error {
	msg, err := o.notification.Compose(ctx, s.Confirmation)
	if err != nil {
		msg = ConfirmationMessage(s.Confirmation)
	}
	s.Message = msg
	o.console.Printf("%s\n%s\n%s\n", strings.Repeat("─", 60), msg, strings.Repeat("─", 60))

	if o.notifier != nil {
		if err := o.notifier.Notify(ctx, notify.NewBookingEvent(s.Confirmation, msg)); err != nil {
			log.Printf("agent/orchestrator: notification for %s failed: %v", s.Confirmation.Reference, err)
			s.logf("notification failed: %v", err)
			return nil
		}
	}
	if emails := s.Confirmation.Emails(); len(emails) > 0 {
		o.console.Printf("Ticket sent to: %s\n", strings.Join(emails, ", "))
	}
	s.logf("notification sent")
	return nil
}

// ── Helpers ──

func (o *Orchestrator) askPassenger(i, total int) (models.Passenger, error) {
	c := o.console
	c.Printf("\nPassenger %d of %d\n", i, total)

	first, err := c.AskDefault("  First Name (or 'cancel' to exit): ", demoFirstName)
	if err != nil {
		return models.Passenger{}, err
	}
	last, err := c.AskDefault("  Last Name: ", demoLastName)
	if err != nil {
		return models.Passenger{}, err
	}
	var gender string
	for {
		if gender, err = c.AskDefault("  Gender (M/F): ", demoGender); err != nil {
			return models.Passenger{}, err
		}
		gender = strings.ToUpper(gender[:1])
		if gender == "M" || gender == "F" {
			break
		}
		c.Println("  Please enter M or F.")
	}
	email, err := c.AskDefault("  Email: ", demoEmail)
	if err != nil {
		return models.Passenger{}, err
	}
	phone, err := c.AskDefault("  Phone: ", demoPhone)
	if err != nil {
		return models.Passenger{}, err
	}

	c.Println("  " + identity.Menu)
	choice, err := c.AskDefault("  Select ID Type (1/2/3) [1]: ", "1")
	if err != nil {
		return models.Passenger{}, err
	}
	id, err := o.askIdentity(identity.ParseIDType(choice))
	if err != nil {
		return models.Passenger{}, err
	}
	return models.Passenger{FirstName: first, LastName: last, Gender: gender, Email: email, Phone: phone, ID: id}, nil
}

// askIdentity re-prompts until the identity validator accepts the number.
func (o *Orchestrator) askIdentity(idType models.IDType) (models.PassengerIdentity, error) {
	prompt, def := fmt.Sprintf("  %s Number: ", idType), demoIDNumber
	if idType == models.Aadhaar {
		prompt, def = "  AADHAAR Number (12 digits) [Press Enter for demo]: ", identity.DemoAadhaar
	}
	for {
		raw, err := o.console.AskDefault(prompt, def)
		if err != nil {
			return models.PassengerIdentity{}, err
		}
		id, err := identity.New(idType, raw)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, models.ErrValidation) {
			return models.PassengerIdentity{}, err
		}
		o.console.Printf("  Invalid %s: %v\n", idType, err)
	}
}

// parseChoice parses a 1-based option number.
func parseChoice(s string, n int) (int, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || idx < 1 || idx > n {
		return 0, fmt.Errorf("please enter a number between 1 and %d", n)
	}
	return idx, nil
}
