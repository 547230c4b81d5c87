// Package booking turns a selected fare offer and its passengers into a
// confirmed reservation. Only a simulated confirmer exists: real ticketing
// needs payment integration, which flightdesk does not do.
package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/seenimoa/flightdesk/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Confirmer Interface
// ════════════════════════════════════════════════════════════════════

// Confirmer books an offer for a list of passengers.
type Confirmer interface {
	// Name returns the confirmer name ("demo").
	Name() string

	// Book reserves the offer. breakdown is the tax-inclusive price the
	// passengers were shown; it is copied into the confirmation as-is.
	Book(ctx context.Context, offer models.FareOffer, passengers []models.Passenger, breakdown models.TicketPriceBreakdown) (*models.BookingConfirmation, error)
}

// ════════════════════════════════════════════════════════════════════
// Ledger
// ════════════════════════════════════════════════════════════════════

// Ledger is the in-memory audit log of booking attempts.
type Ledger struct {
	mu      sync.RWMutex
	entries []models.BookingLog
	byRef   map[string]*models.BookingConfirmation
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		entries: make([]models.BookingLog, 0, 64),
		byRef:   make(map[string]*models.BookingConfirmation),
	}
}

// Record appends an audit entry, and indexes the confirmation when the
// booking succeeded.
func (l *Ledger) Record(entry models.BookingLog, c *models.BookingConfirmation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.ID == "" {
		entry.ID = fmt.Sprintf("BK-%d", len(l.entries)+1)
	}
	l.entries = append(l.entries, entry)
	if c != nil && c.Reference != "" {
		l.byRef[c.Reference] = c
	}
}

// Entries returns every audit entry, oldest first.
func (l *Ledger) Entries() []models.BookingLog {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.BookingLog, len(l.entries))
	copy(out, l.entries)
	return out
}

// Recent returns the last n entries, oldest first.
func (l *Ledger) Recent(n int) []models.BookingLog {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 {
		return []models.BookingLog{}
	}
	if n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]models.BookingLog, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// Count returns the number of audit entries.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// ByReference returns a confirmed booking by PNR.
func (l *Ledger) ByReference(ref string) (*models.BookingConfirmation, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.byRef[ref]
	if !ok {
		return nil, fmt.Errorf("%w: booking %s", models.ErrNotFound, ref)
	}
	return c, nil
}
