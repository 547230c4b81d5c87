// Package present renders search results, selections and tickets as
// terminal-friendly text.
package present

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/flightdesk/internal/currency"
	"github.com/seenimoa/flightdesk/pkg/models"
	"github.com/seenimoa/flightdesk/pkg/utils"
)

// column widths of the offers table
var offerCols = []int{3, 22, 11, 11, 8, 8, 15, 16, 5}

// column widths of the alternatives table
var altCols = []int{10, 9, 16, 20, 8, 8, 16}

// ════════════════════════════════════════════════════════════════════
// Search results
// ════════════════════════════════════════════════════════════════════

// Header renders the route and date banner shown above the results.
func Header(req models.SearchRequest) string {
	var sb strings.Builder
	sb.WriteString("\nFLIGHT SEARCH RESULTS\n")
	sb.WriteString(fmt.Sprintf("Route: %s\n", req.Route()))
	sb.WriteString(fmt.Sprintf("Date:  %s (%s)\n", utils.FormatDate(req.DepartureDate), req.DepartureDate.Weekday()))
	if req.Adults > 1 {
		sb.WriteString(fmt.Sprintf("Passengers: %d adults\n", req.Adults))
	}
	return sb.String()
}

// Format renders the ranked offers table, the tax disclaimer, and the
// cheaper-alternatives block when alts is non-empty. Prices are shown in
// each offer's own currency; targetCurrency is used for offers that carry
// none.
func Format(ordered []models.FareOffer, alts []models.AlternativeOffer, targetCurrency string, taxRatePct float64) string {
	var sb strings.Builder

	if len(ordered) == 0 {
		sb.WriteString("No flights found for the requested date.\n")
	} else {
		rows := make([][]string, 0, len(ordered))
		for i, o := range ordered {
			seats := "N/A"
			if o.SeatsAvailable != nil {
				seats = fmt.Sprintf("%d", *o.SeatsAvailable)
			}
			rows = append(rows, []string{
				fmt.Sprintf("%d", i+1),
				o.CarrierNames(),
				endpoint(o.DepartureTime(), o.Origin()),
				endpoint(o.ArrivalTime(), o.Destination()),
				utils.FormatDuration(o.Duration),
				Stops(o.Stops),
				string(o.FareClass),
				price(o.Price, currencyOf(o, targetCurrency)) + "*",
				seats,
			})
		}
		cols := widen(offerCols, rows, 7)
		sb.WriteString(border("┌", "┬", "┐", cols))
		sb.WriteString(row(cols, "#", "Carrier", "Departure", "Arrival", "Duration", "Stops", "Class", "Price", "Seats"))
		sb.WriteString(border("├", "┼", "┤", cols))
		for _, r := range rows {
			sb.WriteString(row(cols, r...))
		}
		sb.WriteString(border("└", "┴", "┘", cols))
		sb.WriteString(fmt.Sprintf("* Prices exclude %g%% GST, added at checkout.\n", taxRatePct))
	}

	if len(alts) > 0 {
		rows := make([][]string, 0, len(alts))
		for _, a := range alts {
			cur := currencyOf(a.Offer, targetCurrency)
			rows = append(rows, []string{
				utils.FormatDate(a.Date),
				a.Date.Weekday().String(),
				"save " + price(a.Savings(), cur),
				a.Offer.CarrierNames(),
				utils.FormatDuration(a.Offer.Duration),
				Stops(a.Offer.Stops),
				price(a.Offer.Price, cur),
			})
		}
		cols := widen(altCols, rows, 2, 6)
		sb.WriteString("\nCheaper alternatives on nearby dates\n")
		sb.WriteString(border("┌", "┬", "┐", cols))
		sb.WriteString(row(cols, "Date", "Day", "Savings", "Carrier", "Duration", "Stops", "Price"))
		sb.WriteString(border("├", "┼", "┤", cols))
		for _, r := range rows {
			sb.WriteString(row(cols, r...))
		}
		sb.WriteString(border("└", "┴", "┘", cols))
		sb.WriteString("Search again with one of these dates to book it.\n")
	}
	return sb.String()
}

// Prompt is the selection help shown under the table.
func Prompt(n int) string {
	return fmt.Sprintf("Enter 1-%d to select a flight, 'info N' for details, or 'cancel' to exit.", n)
}

// Details renders the per-segment view for "info N".
func Details(o models.FareOffer, index int) string {
	var sb strings.Builder
	line := strings.Repeat("═", 60)
	sb.WriteString("\n" + line + "\n")
	sb.WriteString(fmt.Sprintf("  DETAILED INFO - OPTION %d\n", index))
	sb.WriteString(line + "\n")
	sb.WriteString(fmt.Sprintf("  Carrier:        %s\n", o.CarrierNames()))
	sb.WriteString(fmt.Sprintf("  Price:          %s\n", price(o.Price, o.Currency)))
	if o.Original != nil && o.Original.Currency != o.Currency {
		sb.WriteString(fmt.Sprintf("  Quoted:         %s\n", price(o.Original.Amount, o.Original.Currency)))
	}
	sb.WriteString(fmt.Sprintf("  Class:          %s\n", o.FareClass))
	sb.WriteString(fmt.Sprintf("  Total duration: %s\n", utils.FormatDuration(o.Duration)))
	sb.WriteString(fmt.Sprintf("  Stops:          %d\n", o.Stops))
	if o.SeatsAvailable != nil {
		sb.WriteString(fmt.Sprintf("  Seats left:     %d\n", *o.SeatsAvailable))
	}
	sb.WriteString("\n  Segments:\n")
	for i, s := range o.Segments {
		sb.WriteString(fmt.Sprintf("   %d. %s %s%s\n", i+1, carrier(s), s.CarrierCode, s.FlightNumber))
		sb.WriteString(fmt.Sprintf("      %s (%s) → %s (%s), %s\n",
			s.Origin, utils.FormatClock(s.Departure), s.Destination, utils.FormatClock(s.Arrival),
			utils.FormatDuration(s.Duration())))
		if s.Aircraft != "" {
			sb.WriteString(fmt.Sprintf("      Aircraft: %s\n", s.Aircraft))
		}
	}
	return sb.String()
}

// Confirmation renders the summary shown before the user confirms a
// selection.
func Confirmation(o models.FareOffer, index int) string {
	var sb strings.Builder
	line := strings.Repeat("═", 60)
	stops := "Direct flight"
	if o.Stops > 0 {
		stops = Stops(o.Stops)
	}
	sb.WriteString("\n" + line + "\n")
	sb.WriteString(fmt.Sprintf("  SELECTED OPTION %d\n", index))
	sb.WriteString(line + "\n")
	sb.WriteString(fmt.Sprintf("  Airline:   %s\n", o.CarrierNames()))
	sb.WriteString(fmt.Sprintf("  Route:     %s → %s\n", o.Origin(), o.Destination()))
	sb.WriteString(fmt.Sprintf("  Departure: %s %s\n", utils.FormatDate(o.DepartureTime()), utils.FormatClock(o.DepartureTime())))
	sb.WriteString(fmt.Sprintf("  Arrival:   %s %s\n", utils.FormatDate(o.ArrivalTime()), utils.FormatClock(o.ArrivalTime())))
	sb.WriteString(fmt.Sprintf("  Duration:  %s\n", utils.FormatDuration(o.Duration)))
	sb.WriteString(fmt.Sprintf("  Stops:     %s\n", stops))
	sb.WriteString(fmt.Sprintf("  Class:     %s\n", o.FareClass))
	sb.WriteString(fmt.Sprintf("  Fare:      %s (per passenger, before tax)\n", price(o.Price, o.Currency)))
	sb.WriteString(line + "\n")
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// Ticket
// ════════════════════════════════════════════════════════════════════

// Ticket renders a plain-text e-ticket for a confirmed booking.
func Ticket(c *models.BookingConfirmation) string {
	if c == nil {
		return ""
	}
	var sb strings.Builder
	line := strings.Repeat("═", 60)
	thin := strings.Repeat("─", 60)
	o := c.Offer

	sb.WriteString(line + "\n")
	sb.WriteString("  E-TICKET\n")
	sb.WriteString(line + "\n")
	sb.WriteString(fmt.Sprintf("  Booking reference: %s\n", c.Reference))
	sb.WriteString(fmt.Sprintf("  Status:            %s\n", c.Status))
	sb.WriteString(fmt.Sprintf("  Booked at:         %s\n", utils.FormatDateTimeIST(c.BookedAt)))
	sb.WriteString(thin + "\n")

	sb.WriteString("  PASSENGERS\n")
	for i, p := range c.Passengers {
		sb.WriteString(fmt.Sprintf("   %d. %s (%s)\n", i+1, p.FullName(), p.Gender))
		sb.WriteString(fmt.Sprintf("      %s: %s\n", p.ID.Type, identityText(p.ID)))
		sb.WriteString(fmt.Sprintf("      %s | %s\n", p.Email, p.Phone))
	}
	sb.WriteString(thin + "\n")

	sb.WriteString("  FLIGHT\n")
	sb.WriteString(fmt.Sprintf("   %s → %s | %s | %s | %s\n",
		o.Origin(), o.Destination(), utils.FormatDuration(o.Duration), Stops(o.Stops), o.FareClass))
	for i, s := range o.Segments {
		sb.WriteString(fmt.Sprintf("   %d. %s %s%s  %s %s %s → %s %s %s\n", i+1,
			carrier(s), s.CarrierCode, s.FlightNumber,
			s.Origin, utils.FormatDate(s.Departure), utils.FormatClock(s.Departure),
			s.Destination, utils.FormatDate(s.Arrival), utils.FormatClock(s.Arrival)))
	}
	sb.WriteString(thin + "\n")

	b := c.Breakdown
	sb.WriteString("  FARE\n")
	sb.WriteString(fmt.Sprintf("   Base fare:   %s\n", price(b.Base, b.Currency)))
	sb.WriteString(fmt.Sprintf("   GST (%s):   %s\n", utils.FormatPct(b.TaxRate), price(b.Tax, b.Currency)))
	sb.WriteString(fmt.Sprintf("   Total:       %s\n", price(b.Total, b.Currency)))
	sb.WriteString(thin + "\n")

	sb.WriteString("  Check-in opens 24 hours before departure.\n")
	sb.WriteString("  Carry the ID listed above to the airport.\n")
	sb.WriteString(line + "\n")
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// Helpers
// ════════════════════════════════════════════════════════════════════

// Stops renders "Direct", "1 stop" or "N stops".
func Stops(n int) string {
	switch {
	case n <= 0:
		return "Direct"
	case n == 1:
		return "1 stop"
	default:
		return fmt.Sprintf("%d stops", n)
	}
}

// Money renders an amount with the symbol of its currency.
func Money(amount decimal.Decimal, code string) string {
	return price(amount, code)
}

func price(amount decimal.Decimal, code string) string {
	return utils.FormatMoney(currency.Symbol(code), amount)
}

func currencyOf(o models.FareOffer, fallback string) string {
	if o.Currency != "" {
		return o.Currency
	}
	return strings.ToUpper(fallback)
}

func endpoint(t time.Time, code string) string {
	return utils.FormatClock(t) + " " + code
}

func carrier(s models.FlightSegment) string {
	if s.CarrierName != "" {
		return s.CarrierName
	}
	return s.CarrierCode
}

func identityText(id models.PassengerIdentity) string {
	if id.Normalized != "" {
		return id.Normalized
	}
	return id.Raw
}

func border(left, mid, right string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("─", w+2)
	}
	return left + strings.Join(parts, mid) + right + "\n"
}

func row(widths []int, cells ...string) string {
	var sb strings.Builder
	sb.WriteString("│")
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		sb.WriteString(" " + pad(cell, w) + " │")
	}
	sb.WriteString("\n")
	return sb.String()
}

// widen returns a copy of widths where the listed columns grow to fit
// their longest cell. Money columns are never truncated.
func widen(widths []int, rows [][]string, cols ...int) []int {
	out := append([]int(nil), widths...)
	for _, c := range cols {
		for _, r := range rows {
			if c < len(r) {
				if n := utf8.RuneCountInString(r[c]); n > out[c] {
					out[c] = n
				}
			}
		}
	}
	return out
}

// pad truncates or right-pads s to exactly w runes.
func pad(s string, w int) string {
	n := utf8.RuneCountInString(s)
	if n > w {
		r := []rune(s)
		return string(r[:w-1]) + "…"
	}
	return s + strings.Repeat(" ", w-n)
}
