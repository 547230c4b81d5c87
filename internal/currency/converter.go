// Package currency converts fare amounts between currencies using a cached
// exchange-rate table fetched from an external source, degrading to a
// static table when the source is unreachable.
package currency

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/flightdesk/internal/infra"
	"github.com/seenimoa/flightdesk/internal/metrics"
	"github.com/seenimoa/flightdesk/internal/ranking"
	"github.com/seenimoa/flightdesk/pkg/models"
)

// DefaultTTL is how long a fetched table may be reused.
const DefaultTTL = time.Hour

// SourceFallback tags conversions served from the static table.
const SourceFallback = "fallback"

// DefaultFallbackBase is the currency DefaultFallbackRates are quoted against.
const DefaultFallbackBase = "USD"

// DefaultFallbackRates is the approximate USD-based table used when no live
// table is available.
var DefaultFallbackRates = map[string]float64{
	"USD": 1.0,
	"EUR": 0.92,
	"GBP": 0.79,
	"INR": 83.12,
}

// Conversion is the result of a conversion. Degraded is set when the rate
// came from the fallback table instead of a live source.
type Conversion struct {
	Amount   decimal.Decimal `json:"amount"`
	Rate     decimal.Decimal `json:"rate"`
	From     string          `json:"from"`
	To       string          `json:"to"`
	Source   string          `json:"source"`
	Degraded bool            `json:"degraded"`
}

// Converter converts amounts between currency codes.
type Converter struct {
	source   RateSource
	cache    RateCache
	base     string
	ttl      time.Duration
	now      infra.Clock
	fallback *models.ExchangeRateTable
}

// Option configures a Converter.
type Option func(*Converter)

// WithBase sets the base currency tables are fetched in (default USD).
func WithBase(code string) Option {
	return func(c *Converter) { c.base = strings.ToUpper(code) }
}

// WithTTL sets the table lifetime (default one hour).
func WithTTL(ttl time.Duration) Option {
	return func(c *Converter) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock injects the time source used for TTL checks.
func WithClock(clock infra.Clock) Option {
	return func(c *Converter) {
		if clock != nil {
			c.now = clock
		}
	}
}

// WithFallbackRates replaces the static fallback table. Rates are units of
// each currency per one unit of base.
func WithFallbackRates(base string, rates map[string]float64) Option {
	return func(c *Converter) {
		if len(rates) > 0 {
			c.fallback = fallbackTable(base, rates)
		}
	}
}

func fallbackTable(base string, rates map[string]float64) *models.ExchangeRateTable {
	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		base = DefaultFallbackBase
	}
	return &models.ExchangeRateTable{Base: base, Rates: normalizeRates(rates), Source: SourceFallback}
}

// NewConverter creates a converter. source may be nil, in which case every
// cross-currency conversion uses the fallback table. cache may be nil, in
// which case an in-memory cache is created.
func NewConverter(source RateSource, cache RateCache, opts ...Option) *Converter {
	c := &Converter{
		source:   source,
		base:     "USD",
		ttl:      DefaultTTL,
		now:      time.Now,
		fallback: fallbackTable(DefaultFallbackBase, DefaultFallbackRates),
	}
	for _, opt := range opts {
		opt(c)
	}
	// Keeps its own base when it has no rate for c.base.
	if !strings.EqualFold(c.fallback.Base, c.base) {
		if rebased, ok := c.fallback.Rebase(c.base); ok {
			c.fallback = rebased
		}
	}
	if cache == nil {
		cache = NewMemoryRateCache(c.ttl, infra.WithClock(c.now))
	}
	c.cache = cache
	return c
}

// Base returns the base currency code.
func (c *Converter) Base() string { return c.base }

// Convert converts amount from one currency to another, rounding the result
// to two decimals.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (Conversion, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == to {
		return Conversion{Amount: amount, Rate: decimal.NewFromInt(1), From: from, To: to, Source: "identity"}, nil
	}

	table, fetchErr := c.Table(ctx)
	if fetchErr == nil {
		if rate, ok := crossRate(table, from, to); ok {
			return c.result(amount, rate, from, to, table.Source, false), nil
		}
		log.Printf("currency: %s table has no rate for %s->%s, trying fallback", table.Source, from, to)
	}

	fb := c.fallbackFor(from, to)
	if rate, ok := crossRate(fb, from, to); ok {
		if fetchErr != nil {
			log.Printf("currency: WARNING using fallback rate for %s->%s (%v)", from, to, fetchErr)
		} else {
			log.Printf("currency: WARNING using fallback rate for %s->%s", from, to)
		}
		metrics.RateFallbacks.Inc()
		return c.result(amount, rate, from, to, SourceFallback, true), nil
	}

	if fetchErr != nil {
		return Conversion{}, fmt.Errorf("%w: no rate for %s->%s: %v", models.ErrExternalService, from, to, fetchErr)
	}
	return Conversion{}, fmt.Errorf("%w: no rate for %s->%s", models.ErrNotFound, from, to)
}

// ConvertOffer returns a new offer priced in the target currency. The
// input offer is not modified.
func (c *Converter) ConvertOffer(ctx context.Context, offer models.FareOffer, to string) (models.FareOffer, Conversion, error) {
	conv, err := c.Convert(ctx, offer.Price, offer.Currency, to)
	if err != nil {
		return offer, conv, err
	}
	if conv.Source == "identity" {
		return offer, conv, nil
	}
	return offer.ConvertedTo(conv.Amount, conv.To), conv, nil
}

// ConvertWindow prices every offer of a search window in to. degraded
// reports whether any conversion used the fallback table. Any failed
// conversion fails the whole window.
func (c *Converter) ConvertWindow(ctx context.Context, w ranking.SearchWindow, to string) (out ranking.SearchWindow, degraded bool, err error) {
	convert := func(offers []models.FareOffer) ([]models.FareOffer, error) {
		res := make([]models.FareOffer, 0, len(offers))
		for _, o := range offers {
			co, conv, err := c.ConvertOffer(ctx, o, to)
			if err != nil {
				return nil, err
			}
			degraded = degraded || conv.Degraded
			res = append(res, co)
		}
		return res, nil
	}

	out.RequestedDate = w.RequestedDate
	if out.Requested, err = convert(w.Requested); err != nil {
		return w, false, err
	}
	for _, d := range w.Adjacent {
		offers, err := convert(d.Offers)
		if err != nil {
			return w, false, err
		}
		out.Adjacent = append(out.Adjacent, ranking.DatedOffers{Date: d.Date, Offers: offers})
	}
	return out, degraded, nil
}

// Table returns a valid exchange-rate table for the base currency, either
// from the cache or freshly fetched. Expired tables are never returned.
func (c *Converter) Table(ctx context.Context) (*models.ExchangeRateTable, error) {
	now := c.now()
	if t, ok := c.cache.Get(ctx, c.base); ok && !t.Expired(now) {
		return t, nil
	}
	if c.source == nil {
		return nil, fmt.Errorf("%w: no exchange-rate source configured", models.ErrExternalService)
	}

	t, err := c.source.Rates(ctx, c.base)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrExternalService, c.source.Name(), err)
	}
	if !strings.EqualFold(t.Base, c.base) {
		rebased, ok := t.Rebase(c.base)
		if !ok {
			return nil, fmt.Errorf("%w: %s table (base %s) has no %s rate",
				models.ErrExternalService, c.source.Name(), t.Base, c.base)
		}
		t = rebased
	}
	t.FetchedAt = now
	t.TTL = c.ttl
	if t.Source == "" {
		t.Source = c.source.Name()
	}
	c.cache.Put(ctx, t)
	return t, nil
}

// Refresh drops the cached table so the next conversion refetches it.
func (c *Converter) Refresh(ctx context.Context) {
	c.cache.Delete(ctx, c.base)
}

func (c *Converter) result(amount, rate decimal.Decimal, from, to, source string, degraded bool) Conversion {
	return Conversion{
		Amount:   amount.Mul(rate).Round(2),
		Rate:     rate,
		From:     from,
		To:       to,
		Source:   source,
		Degraded: degraded,
	}
}

// fallbackFor builds a fallback table scoped to the requested codes.
func (c *Converter) fallbackFor(codes ...string) *models.ExchangeRateTable {
	t := &models.ExchangeRateTable{
		Base:      c.fallback.Base,
		Rates:     make(map[string]float64, len(codes)),
		FetchedAt: c.now(),
		TTL:       c.ttl,
		Source:    SourceFallback,
	}
	for _, code := range codes {
		if r, ok := c.fallback.Rates[code]; ok {
			t.Rates[code] = r
		}
	}
	return t
}

// crossRate derives from→to via the table's base: to_rate / from_rate.
func crossRate(t *models.ExchangeRateTable, from, to string) (decimal.Decimal, bool) {
	fr, ok := t.Rate(from)
	if !ok {
		return decimal.Zero, false
	}
	tr, ok := t.Rate(to)
	if !ok {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(tr).Div(decimal.NewFromFloat(fr)), true
}

func normalizeRates(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[strings.ToUpper(k)] = v
	}
	return out
}
