package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FareClass is the cabin a fare is sold in.
type FareClass string

const (
	Economy        FareClass = "ECONOMY"
	PremiumEconomy FareClass = "PREMIUM_ECONOMY"
	Business       FareClass = "BUSINESS"
	First          FareClass = "FIRST"
)

// ParseFareClass maps free text ("business", "Premium Economy") to a FareClass.
// Unknown values fall back to Economy.
func ParseFareClass(s string) FareClass {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	switch FareClass(norm) {
	case PremiumEconomy, Business, First:
		return FareClass(norm)
	}
	return Economy
}

// Money is an amount in a given currency.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// String renders "INR 5450.00".
func (m Money) String() string {
	return m.Currency + " " + m.Amount.StringFixed(2)
}

// FlightSegment is a single leg of an itinerary.
type FlightSegment struct {
	CarrierCode  string    `json:"carrier_code"`
	CarrierName  string    `json:"carrier_name"`
	FlightNumber string    `json:"flight_number"`
	Origin       string    `json:"origin"`
	Destination  string    `json:"destination"`
	Departure    time.Time `json:"departure"`
	Arrival      time.Time `json:"arrival"`
	Aircraft     string    `json:"aircraft,omitempty"`
}

// Duration returns the elapsed time of the segment.
func (s FlightSegment) Duration() time.Duration {
	return s.Arrival.Sub(s.Departure)
}

// ValidateSegments checks that every segment arrives no earlier than it
// departs, and that consecutive segments are chained in time and place.
func ValidateSegments(segs []FlightSegment) error {
	if len(segs) == 0 {
		return fmt.Errorf("%w: itinerary has no segments", ErrValidation)
	}
	for i, s := range segs {
		if s.Arrival.Before(s.Departure) {
			return fmt.Errorf("%w: segment %d arrives before it departs", ErrValidation, i+1)
		}
		if i == 0 {
			continue
		}
		prev := segs[i-1]
		if s.Origin != prev.Destination {
			return fmt.Errorf("%w: segment %d departs %s but previous segment lands at %s",
				ErrValidation, i+1, s.Origin, prev.Destination)
		}
		if s.Departure.Before(prev.Arrival) {
			return fmt.Errorf("%w: segment %d departs before segment %d arrives", ErrValidation, i+1, i)
		}
	}
	return nil
}

// FareOffer is a priced, bookable itinerary. Treat it as a value: currency
// conversion goes through ConvertedTo, which returns a new offer.
type FareOffer struct {
	ID             string          `json:"id"`
	Price          decimal.Decimal `json:"price"`
	Currency       string          `json:"currency"`
	Segments       []FlightSegment `json:"segments"`
	Duration       time.Duration   `json:"duration"`
	Stops          int             `json:"stops"`
	FareClass      FareClass       `json:"fare_class"`
	SeatsAvailable *int            `json:"seats_available,omitempty"`

	// Original is set on converted offers and holds the price as quoted
	// by the inventory source.
	Original *Money `json:"original,omitempty"`
}

// ConvertedTo returns a copy of the offer priced in another currency. The
// first conversion records the quoted price in Original; later conversions
// keep it.
func (o FareOffer) ConvertedTo(price decimal.Decimal, currency string) FareOffer {
	out := o
	out.Segments = append([]FlightSegment(nil), o.Segments...)
	if o.SeatsAvailable != nil {
		seats := *o.SeatsAvailable
		out.SeatsAvailable = &seats
	}
	if o.Original == nil {
		out.Original = &Money{Amount: o.Price, Currency: o.Currency}
	} else {
		orig := *o.Original
		out.Original = &orig
	}
	out.Price = price
	out.Currency = currency
	return out
}

// Quoted returns the price as originally quoted by the inventory source.
func (o FareOffer) Quoted() Money {
	if o.Original != nil {
		return *o.Original
	}
	return Money{Amount: o.Price, Currency: o.Currency}
}

// DepartureTime is the departure of the first segment.
func (o FareOffer) DepartureTime() time.Time {
	if len(o.Segments) == 0 {
		return time.Time{}
	}
	return o.Segments[0].Departure
}

// ArrivalTime is the arrival of the last segment.
func (o FareOffer) ArrivalTime() time.Time {
	if len(o.Segments) == 0 {
		return time.Time{}
	}
	return o.Segments[len(o.Segments)-1].Arrival
}

// Origin is the first segment's origin code.
func (o FareOffer) Origin() string {
	if len(o.Segments) == 0 {
		return ""
	}
	return o.Segments[0].Origin
}

// Destination is the last segment's destination code.
func (o FareOffer) Destination() string {
	if len(o.Segments) == 0 {
		return ""
	}
	return o.Segments[len(o.Segments)-1].Destination
}

// CarrierNames lists distinct carriers in the order they are flown.
func (o FareOffer) CarrierNames() string {
	seen := make(map[string]bool, len(o.Segments))
	names := make([]string, 0, len(o.Segments))
	for _, s := range o.Segments {
		name := s.CarrierName
		if name == "" {
			name = s.CarrierCode
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}

// AlternativeOffer is an offer found on an adjacent date, with its price
// delta against the cheapest offer on the requested date.
type AlternativeOffer struct {
	Offer FareOffer       `json:"offer"`
	Date  time.Time       `json:"date"`
	Delta decimal.Decimal `json:"delta"`
}

// Savings is the positive amount saved versus the requested date.
func (a AlternativeOffer) Savings() decimal.Decimal {
	return a.Delta.Neg()
}

// RankingPreference is the sort strategy derived from a free-text hint.
type RankingPreference string

const (
	PreferDefault        RankingPreference = "default"
	PreferPrice          RankingPreference = "price"
	PreferDuration       RankingPreference = "duration"
	PreferStopsThenPrice RankingPreference = "stops_then_price"
	PreferDeparture      RankingPreference = "departure"
)

// Description is the user-facing label for a preference.
func (p RankingPreference) Description() string {
	switch p {
	case PreferPrice:
		return "Cheapest flights first"
	case PreferDuration:
		return "Shortest flights first"
	case PreferStopsThenPrice:
		return "Direct flights first"
	case PreferDeparture:
		return "Earliest departures first"
	default:
		return "Cheapest flights first (default)"
	}
}

// SearchRequest is the structured form of a natural-language request.
type SearchRequest struct {
	OriginCity      string    `json:"origin_city"`
	OriginCode      string    `json:"origin_code"`
	DestinationCity string    `json:"destination_city"`
	DestinationCode string    `json:"destination_code"`
	DepartureDate   time.Time `json:"departure_date"`
	DepartureTime   string    `json:"departure_time,omitempty"` // HH:MM
	Adults          int       `json:"adults"`
	TravelClass     FareClass `json:"travel_class"`
	MaxResults      int       `json:"max_results"`
	Hint            string    `json:"hint,omitempty"`
}

// Route renders "Mumbai (BOM) → Delhi (DEL)".
func (r SearchRequest) Route() string {
	origin := r.OriginCode
	if r.OriginCity != "" {
		origin = fmt.Sprintf("%s (%s)", r.OriginCity, r.OriginCode)
	}
	dest := r.DestinationCode
	if r.DestinationCity != "" {
		dest = fmt.Sprintf("%s (%s)", r.DestinationCity, r.DestinationCode)
	}
	return origin + " → " + dest
}

// Airport is a row of the airport directory.
type Airport struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	City    string `json:"city"`
	Country string `json:"country"`
}
