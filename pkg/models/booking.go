package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// IDType is the kind of government ID a passenger presents.
type IDType string

const (
	Aadhaar        IDType = "AADHAAR"
	Passport       IDType = "PASSPORT"
	DrivingLicense IDType = "DRIVING_LICENSE"
)

// PassengerIdentity is a validated government ID.
type PassengerIdentity struct {
	Type       IDType `json:"type"`
	Raw        string `json:"raw"`
	Normalized string `json:"normalized"`
}

// Passenger holds traveller details collected before booking.
type Passenger struct {
	FirstName string            `json:"first_name" validate:"required,max=64"`
	LastName  string            `json:"last_name"  validate:"required,max=64"`
	Gender    string            `json:"gender"     validate:"required,oneof=M F"`
	Email     string            `json:"email"      validate:"required,email"`
	Phone     string            `json:"phone"      validate:"required,min=6,max=20"`
	ID        PassengerIdentity `json:"id"`
}

// FullName renders "First Last".
func (p Passenger) FullName() string {
	return p.FirstName + " " + p.LastName
}

// TicketPriceBreakdown is the tax-inclusive price of a ticket. Tax is
// rounded once; Total is the exact sum of Base and Tax.
type TicketPriceBreakdown struct {
	Base     decimal.Decimal `json:"base"`
	TaxRate  float64         `json:"tax_rate"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`
}

// BookingStatus is the state reported by a booking confirmer.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingPending   BookingStatus = "PENDING"
	BookingFailed    BookingStatus = "FAILED"
)

// BookingConfirmation is what a confirmer returns for a successful booking.
type BookingConfirmation struct {
	Reference  string               `json:"reference"` // PNR
	Status     BookingStatus        `json:"status"`
	Offer      FareOffer            `json:"offer"`
	Passengers []Passenger          `json:"passengers"`
	Breakdown  TicketPriceBreakdown `json:"breakdown"`
	BookedAt   time.Time            `json:"booked_at"`
	SessionID  string               `json:"session_id,omitempty"`
}

// Emails lists passenger email addresses, skipping blanks.
func (b BookingConfirmation) Emails() []string {
	out := make([]string, 0, len(b.Passengers))
	for _, p := range b.Passengers {
		if p.Email != "" {
			out = append(out, p.Email)
		}
	}
	return out
}

// BookingLog is one audit entry recorded by a confirmer.
type BookingLog struct {
	ID         string        `json:"id"`
	Reference  string        `json:"reference"`
	OfferID    string        `json:"offer_id"`
	Route      string        `json:"route"`
	Passengers int           `json:"passengers"`
	Total      Money         `json:"total"`
	Status     BookingStatus `json:"status"`
	Message    string        `json:"message,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}
