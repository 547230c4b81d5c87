// Package ranking orders fare offers by a preference derived from the
// user's free-text hint, and finds cheaper offers on adjacent dates.
// Everything here is pure: no I/O and no clock.
package ranking

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/flightdesk/pkg/models"
)

// rule maps hint keywords to a preference. Rules are checked in order and
// the first match wins.
type rule struct {
	keywords []string
	pref     models.RankingPreference
}

var rules = []rule{
	{[]string{"cheapest", "cheap", "budget"}, models.PreferPrice},
	{[]string{"fastest", "quickest", "shortest"}, models.PreferDuration},
	{[]string{"direct", "non-stop"}, models.PreferStopsThenPrice},
	{[]string{"early morning", "first flight"}, models.PreferDeparture},
}

// Classify derives the ranking preference from a hint.
func Classify(hint string) models.RankingPreference {
	h := strings.ToLower(hint)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(h, kw) {
				return r.pref
			}
		}
	}
	return models.PreferDefault
}

// DatedOffers is the result of one search on a specific date.
type DatedOffers struct {
	Date   time.Time
	Offers []models.FareOffer
}

// SearchWindow holds the requested-date search and the adjacent-date
// searches used for alternatives.
type SearchWindow struct {
	Requested     []models.FareOffer
	RequestedDate time.Time
	Adjacent      []DatedOffers
}

// Result is a ranked search window.
type Result struct {
	Preference   models.RankingPreference  `json:"preference"`
	Ordered      []models.FareOffer        `json:"ordered"`
	Alternatives []models.AlternativeOffer `json:"alternatives"`
}

// Rank orders a single offer list. With no adjacent dates there is nothing
// to compare against, so the alternatives slice is always empty.
func Rank(offers []models.FareOffer, hint string) ([]models.FareOffer, []models.AlternativeOffer) {
	return Sort(offers, Classify(hint)), []models.AlternativeOffer{}
}

// RankWindow orders the requested-date offers and computes cheaper
// alternatives from the adjacent dates.
func RankWindow(w SearchWindow, hint string) Result {
	pref := Classify(hint)
	return Result{
		Preference:   pref,
		Ordered:      Sort(w.Requested, pref),
		Alternatives: Alternatives(w.Requested, w.Adjacent),
	}
}

// Sort returns a sorted copy of offers. Ties fall back to price, then ID.
func Sort(offers []models.FareOffer, pref models.RankingPreference) []models.FareOffer {
	out := make([]models.FareOffer, len(offers))
	copy(out, offers)

	var primary func(a, b models.FareOffer) int
	switch pref {
	case models.PreferDuration:
		primary = func(a, b models.FareOffer) int { return compareDuration(a.Duration, b.Duration) }
	case models.PreferStopsThenPrice:
		primary = func(a, b models.FareOffer) int { return a.Stops - b.Stops }
	case models.PreferDeparture:
		primary = func(a, b models.FareOffer) int { return a.DepartureTime().Compare(b.DepartureTime()) }
	default:
		primary = func(models.FareOffer, models.FareOffer) int { return 0 }
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if c := primary(a, b); c != 0 {
			return c < 0
		}
		if c := a.Price.Cmp(b.Price); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
	return out
}

// Alternatives lists adjacent-date offers cheaper than the cheapest
// requested-date offer, cheapest saving first.
func Alternatives(requested []models.FareOffer, adjacent []DatedOffers) []models.AlternativeOffer {
	alts := []models.AlternativeOffer{}
	ref, ok := minPrice(requested)
	if !ok {
		return alts
	}
	for _, day := range adjacent {
		for _, o := range day.Offers {
			delta := o.Price.Sub(ref)
			if !delta.IsNegative() {
				continue
			}
			alts = append(alts, models.AlternativeOffer{Offer: o, Date: day.Date, Delta: delta})
		}
	}
	sort.SliceStable(alts, func(i, j int) bool {
		a, b := alts[i], alts[j]
		if c := a.Delta.Cmp(b.Delta); c != 0 {
			return c < 0
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Offer.ID < b.Offer.ID
	})
	return alts
}

// Cheapest returns the lowest-priced offer.
func Cheapest(offers []models.FareOffer) (models.FareOffer, bool) {
	if len(offers) == 0 {
		return models.FareOffer{}, false
	}
	return Sort(offers, models.PreferPrice)[0], true
}

func minPrice(offers []models.FareOffer) (decimal.Decimal, bool) {
	if len(offers) == 0 {
		return decimal.Zero, false
	}
	m := offers[0].Price
	for _, o := range offers[1:] {
		if o.Price.LessThan(m) {
			m = o.Price
		}
	}
	return m, true
}

func compareDuration(a, b time.Duration) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
