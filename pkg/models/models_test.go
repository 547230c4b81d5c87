package models

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var dep = time.Date(2025, 12, 1, 6, 0, 0, 0, time.UTC)

func seg(from, to string, depart time.Time, hours int) FlightSegment {
	return FlightSegment{
		CarrierCode: "AI",
		CarrierName: "Air India",
		Origin:      from,
		Destination: to,
		Departure:   depart,
		Arrival:     depart.Add(time.Duration(hours) * time.Hour),
	}
}

// ── FareClass ──

func TestParseFareClass(t *testing.T) {
	tests := []struct {
		in   string
		want FareClass
	}{
		{"business", Business},
		{"Premium Economy", PremiumEconomy},
		{"premium-economy", PremiumEconomy},
		{" FIRST ", First},
		{"", Economy},
		{"luxury", Economy},
	}
	for _, tc := range tests {
		if got := ParseFareClass(tc.in); got != tc.want {
			t.Errorf("ParseFareClass(%q): got %q, want %q", tc.in, got, tc.want)
		}
	}
}

// ── Segments ──

func TestValidateSegments(t *testing.T) {
	tests := []struct {
		name    string
		segs    []FlightSegment
		wantErr bool
	}{
		{"direct", []FlightSegment{seg("BOM", "DEL", dep, 2)}, false},
		{"connection", []FlightSegment{seg("BOM", "HYD", dep, 1), seg("HYD", "DEL", dep.Add(2*time.Hour), 2)}, false},
		{"empty", nil, true},
		{"arrives before departure", []FlightSegment{{Origin: "BOM", Destination: "DEL", Departure: dep, Arrival: dep.Add(-time.Hour)}}, true},
		{"broken chain", []FlightSegment{seg("BOM", "HYD", dep, 1), seg("BLR", "DEL", dep.Add(2*time.Hour), 2)}, true},
		{"overlapping legs", []FlightSegment{seg("BOM", "HYD", dep, 2), seg("HYD", "DEL", dep.Add(time.Hour), 2)}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSegments(tc.segs)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestSegmentDuration(t *testing.T) {
	if d := seg("BOM", "DEL", dep, 2).Duration(); d != 2*time.Hour {
		t.Errorf("Duration: got %v, want 2h", d)
	}
}

// ── FareOffer ──

func TestConvertedToKeepsQuotedPrice(t *testing.T) {
	seats := 4
	o := FareOffer{
		ID:             "1",
		Price:          decimal.NewFromInt(100),
		Currency:       "USD",
		Segments:       []FlightSegment{seg("BOM", "DEL", dep, 2)},
		SeatsAvailable: &seats,
	}

	inr := o.ConvertedTo(decimal.RequireFromString("8312"), "INR")
	if inr.Currency != "INR" || !inr.Price.Equal(decimal.NewFromInt(8312)) {
		t.Errorf("converted: got %s %s", inr.Price, inr.Currency)
	}
	if q := inr.Quoted(); q.Currency != "USD" || !q.Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Quoted: got %v", q)
	}
	if o.Original != nil || o.Currency != "USD" {
		t.Error("ConvertedTo modified the receiver")
	}
	*inr.SeatsAvailable = 1
	if seats != 4 {
		t.Error("ConvertedTo should copy SeatsAvailable")
	}

	eur := inr.ConvertedTo(decimal.NewFromInt(92), "EUR")
	if q := eur.Quoted(); q.Currency != "USD" {
		t.Errorf("second conversion lost the quote: %v", q)
	}
}

func TestOfferEndpoints(t *testing.T) {
	o := FareOffer{Segments: []FlightSegment{
		seg("BOM", "HYD", dep, 1),
		{CarrierCode: "6E", Origin: "HYD", Destination: "DEL", Departure: dep.Add(2 * time.Hour), Arrival: dep.Add(4 * time.Hour)},
	}}
	if o.Origin() != "BOM" || o.Destination() != "DEL" {
		t.Errorf("endpoints: %s-%s", o.Origin(), o.Destination())
	}
	if !o.DepartureTime().Equal(dep) || !o.ArrivalTime().Equal(dep.Add(4*time.Hour)) {
		t.Errorf("times: %v → %v", o.DepartureTime(), o.ArrivalTime())
	}
	if got := o.CarrierNames(); got != "Air India, 6E" {
		t.Errorf("CarrierNames: got %q", got)
	}

	var empty FareOffer
	if empty.Origin() != "" || !empty.DepartureTime().IsZero() {
		t.Error("empty offer should have no endpoints")
	}
}

func TestOfferJSONFields(t *testing.T) {
	o := FareOffer{ID: "7", Price: decimal.RequireFromString("5450.5"), Currency: "INR", Stops: 1, FareClass: Economy}
	data, err := json.Marshal(o)
	if err != nil {
		t.Fatalf("json.Marshal(FareOffer) error: %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"id", "price", "currency", "segments", "duration", "stops", "fare_class"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing JSON key %q", key)
		}
	}
	if _, ok := raw["original"]; ok {
		t.Error("unconverted offer should omit original")
	}
}

func TestAlternativeSavings(t *testing.T) {
	a := AlternativeOffer{Delta: decimal.NewFromInt(-20)}
	if !a.Savings().Equal(decimal.NewFromInt(20)) {
		t.Errorf("Savings: got %s, want 20", a.Savings())
	}
}

// ── Ranking / requests ──

func TestRankingPreferenceDescription(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range []RankingPreference{PreferDefault, PreferPrice, PreferDuration, PreferStopsThenPrice, PreferDeparture} {
		d := p.Description()
		if d == "" || seen[d] {
			t.Errorf("%q: description %q is empty or duplicated", p, d)
		}
		seen[d] = true
	}
}

func TestSearchRequestRoute(t *testing.T) {
	r := SearchRequest{OriginCity: "Mumbai", OriginCode: "BOM", DestinationCode: "DEL"}
	if got := r.Route(); got != "Mumbai (BOM) → DEL" {
		t.Errorf("Route: got %q", got)
	}
}

// ── Booking ──

func TestBookingEmails(t *testing.T) {
	b := BookingConfirmation{Passengers: []Passenger{
		{FirstName: "A", Email: "a@example.com"},
		{FirstName: "B"},
		{FirstName: "C", Email: "c@example.com"},
	}}
	got := b.Emails()
	if len(got) != 2 || got[0] != "a@example.com" || got[1] != "c@example.com" {
		t.Errorf("Emails: got %v", got)
	}
	if p := b.Passengers[0]; p.FullName() != "A " {
		t.Errorf("FullName: got %q", p.FullName())
	}
}

func TestMoneyString(t *testing.T) {
	m := Money{Amount: decimal.RequireFromString("5450"), Currency: "INR"}
	if m.String() != "INR 5450.00" {
		t.Errorf("String: got %q", m.String())
	}
}

// ── Exchange rates ──

func TestExchangeRateTable(t *testing.T) {
	now := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	tbl := &ExchangeRateTable{
		Base:      "USD",
		Rates:     map[string]float64{"INR": 80, "EUR": 0.8, "BAD": 0},
		FetchedAt: now,
		TTL:       time.Hour,
	}

	if r, ok := tbl.Rate("usd"); !ok || r != 1 {
		t.Errorf("base rate: got %v %v", r, ok)
	}
	if _, ok := tbl.Rate("BAD"); ok {
		t.Error("non-positive rates should be unavailable")
	}
	if tbl.Expired(now.Add(59 * time.Minute)) {
		t.Error("table should be valid inside its TTL")
	}
	if !tbl.Expired(now.Add(time.Hour)) {
		t.Error("table should expire at its TTL")
	}
	var nilTable *ExchangeRateTable
	if !nilTable.Expired(now) {
		t.Error("nil table should count as expired")
	}

	eur, ok := tbl.Rebase("EUR")
	if !ok {
		t.Fatal("Rebase(EUR) failed")
	}
	if r, _ := eur.Rate("INR"); math.Abs(r-100) > 1e-9 {
		t.Errorf("EUR→INR: got %v, want 100", r)
	}
	if r, _ := eur.Rate("USD"); math.Abs(r-1.25) > 1e-9 {
		t.Errorf("EUR→USD: got %v, want 1.25", r)
	}
	if _, ok := tbl.Rebase("XYZ"); ok {
		t.Error("Rebase to an unknown code should fail")
	}
}

// ── Errors ──

func TestErrorTaxonomyDistinct(t *testing.T) {
	all := []error{ErrValidation, ErrNotFound, ErrExternalService, ErrUserCancelled}
	for i, a := range all {
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Errorf("%v should not match %v", a, b)
			}
		}
	}
}
