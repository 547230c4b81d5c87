package ranking

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/flightdesk/pkg/models"
)

var day = time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC)

func offer(id, price string, dur time.Duration, stops int, depHour int) models.FareOffer {
	dep := day.Add(time.Duration(depHour) * time.Hour)
	return models.FareOffer{
		ID:       id,
		Price:    decimal.RequireFromString(price),
		Currency: "INR",
		Duration: dur,
		Stops:    stops,
		Segments: []models.FlightSegment{{
			Origin: "BOM", Destination: "DEL", Departure: dep, Arrival: dep.Add(dur),
		}},
	}
}

func ids(offers []models.FareOffer) string {
	s := ""
	for _, o := range offers {
		s += o.ID
	}
	return s
}

// ── Classify ──

func TestClassify(t *testing.T) {
	tests := []struct {
		hint string
		want models.RankingPreference
	}{
		{"", models.PreferDefault},
		{"window seat please", models.PreferDefault},
		{"CHEAPEST option", models.PreferPrice},
		{"on a budget", models.PreferPrice},
		{"the quickest one", models.PreferDuration},
		{"direct flights only", models.PreferStopsThenPrice},
		{"non-stop", models.PreferStopsThenPrice},
		{"Early Morning departure", models.PreferDeparture},
		{"first flight out", models.PreferDeparture},
		// Earlier rules win.
		{"find the cheapest direct flight", models.PreferPrice},
		{"fastest direct", models.PreferDuration},
	}
	for _, tt := range tests {
		if got := Classify(tt.hint); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.hint, got, tt.want)
		}
	}
}

// ── Sort ──

func TestRankOrders(t *testing.T) {
	offers := []models.FareOffer{
		offer("A", "6000", 3*time.Hour, 1, 6),
		offer("B", "5450", 2*time.Hour+15*time.Minute, 0, 9),
		offer("C", "7000", 2*time.Hour, 0, 5),
		offer("D", "5450", 4*time.Hour, 2, 20),
	}

	tests := []struct {
		hint string
		want string
	}{
		{"", "BDAC"},
		{"cheapest", "BDAC"},
		{"fastest", "CBAD"},
		{"direct", "BCAD"},
		{"early morning", "CABD"},
	}
	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			got, alts := Rank(offers, tt.hint)
			if ids(got) != tt.want {
				t.Errorf("order: got %s, want %s", ids(got), tt.want)
			}
			if len(alts) != 0 {
				t.Errorf("Rank should return no alternatives, got %d", len(alts))
			}
		})
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	offers := []models.FareOffer{
		offer("A", "9000", time.Hour, 0, 1),
		offer("B", "1000", time.Hour, 0, 2),
	}
	Rank(offers, "cheapest")
	if ids(offers) != "AB" {
		t.Errorf("input reordered: %s", ids(offers))
	}
}

func TestRankDeterministic(t *testing.T) {
	offers := []models.FareOffer{
		offer("Z", "5000", time.Hour, 0, 8),
		offer("M", "5000", time.Hour, 0, 8),
		offer("A", "5000", time.Hour, 0, 8),
	}
	first, _ := Rank(offers, "fastest")
	for i := 0; i < 10; i++ {
		again, _ := Rank(offers, "fastest")
		if ids(again) != ids(first) {
			t.Fatalf("nondeterministic order: %s vs %s", ids(again), ids(first))
		}
	}
	if ids(first) != "AMZ" {
		t.Errorf("full ties should fall back to ID, got %s", ids(first))
	}
}

func TestRankEmpty(t *testing.T) {
	got, alts := Rank(nil, "cheapest")
	if len(got) != 0 || len(alts) != 0 {
		t.Errorf("empty input: got %v, %v", got, alts)
	}
}

// ── Alternatives ──

func TestRankWindowAlternatives(t *testing.T) {
	prev := day.AddDate(0, 0, -1)
	next := day.AddDate(0, 0, 1)
	w := SearchWindow{
		Requested:     []models.FareOffer{offer("R1", "5500", time.Hour, 0, 8), offer("R2", "6200", time.Hour, 0, 9)},
		RequestedDate: day,
		Adjacent: []DatedOffers{
			{Date: prev, Offers: []models.FareOffer{
				offer("P1", "5450", time.Hour, 0, 8),
				offer("P2", "6000", time.Hour, 0, 9),
			}},
			{Date: next, Offers: []models.FareOffer{
				offer("N1", "5000", time.Hour, 0, 8),
				offer("N2", "5500", time.Hour, 0, 9),
				offer("N3", "5450", time.Hour, 0, 10),
			}},
		},
	}

	res := RankWindow(w, "")
	if res.Preference != models.PreferDefault {
		t.Errorf("preference: got %s", res.Preference)
	}
	if ids(res.Ordered) != "R1R2" {
		t.Errorf("ordered: got %s", ids(res.Ordered))
	}

	want := []struct {
		id    string
		delta string
		date  time.Time
	}{
		{"N1", "-500", next},
		{"P1", "-50", prev},
		{"N3", "-50", next},
	}
	if len(res.Alternatives) != len(want) {
		t.Fatalf("alternatives: got %d, want %d", len(res.Alternatives), len(want))
	}
	for i, w := range want {
		a := res.Alternatives[i]
		if a.Offer.ID != w.id || !a.Delta.Equal(decimal.RequireFromString(w.delta)) || !a.Date.Equal(w.date) {
			t.Errorf("alt %d: got %s %s %s", i, a.Offer.ID, a.Delta, a.Date.Format("2006-01-02"))
		}
	}
	if !res.Alternatives[1].Savings().Equal(decimal.NewFromInt(50)) {
		t.Errorf("savings: got %s", res.Alternatives[1].Savings())
	}
}

func TestAlternativesWithoutRequestedOffers(t *testing.T) {
	adj := []DatedOffers{{Date: day, Offers: []models.FareOffer{offer("X", "1", time.Hour, 0, 1)}}}
	if alts := Alternatives(nil, adj); len(alts) != 0 {
		t.Errorf("no reference price means no alternatives, got %d", len(alts))
	}
}

func TestCheapest(t *testing.T) {
	got, ok := Cheapest([]models.FareOffer{offer("A", "9", time.Hour, 0, 1), offer("B", "3", time.Hour, 0, 1)})
	if !ok || got.ID != "B" {
		t.Errorf("Cheapest: got %s, %v", got.ID, ok)
	}
	if _, ok := Cheapest(nil); ok {
		t.Error("Cheapest of nothing should report false")
	}
}
