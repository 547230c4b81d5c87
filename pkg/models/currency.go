package models

import (
	"strings"
	"time"
)

// ExchangeRateTable maps currency codes to the number of units of that
// currency per one unit of Base.
type ExchangeRateTable struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	FetchedAt time.Time          `json:"fetched_at"`
	TTL       time.Duration      `json:"ttl"`
	Source    string             `json:"source"`
}

// Expired reports whether the table is past its TTL at now.
func (t *ExchangeRateTable) Expired(now time.Time) bool {
	if t == nil {
		return true
	}
	return now.Sub(t.FetchedAt) >= t.TTL
}

// Rate returns the rate for code. The base currency is always 1.
func (t *ExchangeRateTable) Rate(code string) (float64, bool) {
	code = strings.ToUpper(code)
	if code == strings.ToUpper(t.Base) {
		return 1, true
	}
	r, ok := t.Rates[code]
	if !ok || r <= 0 {
		return 0, false
	}
	return r, true
}

// Rebase re-expresses the table relative to another currency it contains.
func (t *ExchangeRateTable) Rebase(base string) (*ExchangeRateTable, bool) {
	base = strings.ToUpper(base)
	pivot, ok := t.Rate(base)
	if !ok {
		return nil, false
	}
	out := &ExchangeRateTable{
		Base:      base,
		Rates:     make(map[string]float64, len(t.Rates)+1),
		FetchedAt: t.FetchedAt,
		TTL:       t.TTL,
		Source:    t.Source,
	}
	out.Rates[strings.ToUpper(t.Base)] = 1 / pivot
	for code, r := range t.Rates {
		if code == base || r <= 0 {
			continue
		}
		out.Rates[code] = r / pivot
	}
	return out, true
}
