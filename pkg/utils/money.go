// Package utils provides common formatting and time helpers for flightdesk.
package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount renders an amount with two decimals and comma thousands
// separators, e.g. 5450 → "5,450.00". The grouping is the same for every
// currency.
func FormatAmount(amount decimal.Decimal) string {
	s := amount.StringFixed(2)
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	out := groupThousands(intPart) + "." + frac
	if negative && !amount.Round(2).IsZero() {
		return "-" + out
	}
	return out
}

// FormatAmountFloat is FormatAmount for float inputs.
func FormatAmountFloat(amount float64) string {
	return FormatAmount(decimal.NewFromFloat(amount))
}

// FormatMoney prefixes a formatted amount with a currency symbol. Symbols
// made of letters (CHF, RM) get a separating space.
func FormatMoney(symbol string, amount decimal.Decimal) string {
	formatted := FormatAmount(amount)
	neg := strings.HasPrefix(formatted, "-")
	formatted = strings.TrimPrefix(formatted, "-")

	sep := ""
	if needsSpace(symbol) {
		sep = " "
	}
	if neg {
		return "-" + symbol + sep + formatted
	}
	return symbol + sep + formatted
}

// FormatPct formats a percentage without trailing zeros, e.g. 18 → "18%",
// 12.5 → "12.5%".
func FormatPct(pct float64) string {
	return decimal.NewFromFloat(pct).String() + "%"
}

// groupThousands inserts commas every three digits from the right.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func needsSpace(symbol string) bool {
	if symbol == "" {
		return false
	}
	last := symbol[len(symbol)-1]
	return (last >= 'A' && last <= 'Z') || (last >= 'a' && last <= 'z')
}
