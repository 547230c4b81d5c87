package currency

import (
	"sort"
	"strings"
)

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"INR": "₹",
	"JPY": "¥",
	"CNY": "¥",
	"AED": "د.إ",
	"CAD": "C$",
	"AUD": "A$",
	"SGD": "S$",
	"CHF": "CHF",
	"NZD": "NZ$",
	"HKD": "HK$",
	"KRW": "₩",
	"MXN": "$",
	"BRL": "R$",
	"ZAR": "R",
	"THB": "฿",
	"MYR": "RM",
}

// Symbol returns the display symbol for an ISO code, or the code itself
// when unknown.
func Symbol(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if s, ok := symbols[code]; ok {
		return s
	}
	return code
}

// SupportedCurrencies returns the codes with a known symbol, sorted.
func SupportedCurrencies() []string {
	codes := make([]string, 0, len(symbols))
	for c := range symbols {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
