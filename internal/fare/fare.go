// Package fare computes the tax breakdown of a ticket price.
package fare

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/flightdesk/pkg/models"
)

// DefaultTaxRate is the GST percentage applied to air fares.
const DefaultTaxRate = 18.0

// Breakdown splits a base fare into tax and total. Tax is rounded to two
// decimals, half away from zero; Total is exactly base + tax.
func Breakdown(base decimal.Decimal, ratePct float64, currency string) (models.TicketPriceBreakdown, error) {
	if ratePct < 0 {
		return models.TicketPriceBreakdown{}, fmt.Errorf("%w: tax rate %g%% is negative", models.ErrValidation, ratePct)
	}
	if base.IsNegative() {
		return models.TicketPriceBreakdown{}, fmt.Errorf("%w: base fare %s is negative", models.ErrValidation, base)
	}
	tax := base.Mul(decimal.NewFromFloat(ratePct)).Div(decimal.NewFromInt(100)).Round(2)
	return models.TicketPriceBreakdown{
		Base:     base,
		TaxRate:  ratePct,
		Tax:      tax,
		Total:    base.Add(tax),
		Currency: strings.ToUpper(currency),
	}, nil
}

// Calculator carries the configured tax rate and display currency.
type Calculator struct {
	TaxRate  float64
	Currency string
}

// NewCalculator returns a calculator. A negative rate is rejected at
// Breakdown time, not here, so misconfiguration surfaces on first use.
func NewCalculator(taxRate float64, currency string) Calculator {
	return Calculator{TaxRate: taxRate, Currency: strings.ToUpper(currency)}
}

// Breakdown applies the calculator's rate to base.
func (c Calculator) Breakdown(base decimal.Decimal) (models.TicketPriceBreakdown, error) {
	return Breakdown(base, c.TaxRate, c.Currency)
}

// ForOffer computes the breakdown for an offer's price times the number of
// passengers, in the offer's currency.
func (c Calculator) ForOffer(offer models.FareOffer, passengers int) (models.TicketPriceBreakdown, error) {
	if passengers < 1 {
		return models.TicketPriceBreakdown{}, fmt.Errorf("%w: at least one passenger is required", models.ErrValidation)
	}
	base := offer.Price.Mul(decimal.NewFromInt(int64(passengers)))
	return Breakdown(base, c.TaxRate, offer.Currency)
}
