package utils

import (
	"strings"
)

// Common city aliases and historical names, keyed by lowercase input.
var cityAliases = map[string]string{
	"nyc":           "New York",
	"new york city": "New York",
	"la":            "Los Angeles",
	"sf":            "San Francisco",
	"vegas":         "Las Vegas",
	"dc":            "Washington",
	"washington dc": "Washington",
	"bombay":        "Mumbai",
	"bengaluru":     "Bangalore",
	"madras":        "Chennai",
	"calcutta":      "Kolkata",
	"new delhi":     "Delhi",
	"gurgaon":       "Delhi",
	"noida":         "Delhi",
	"peking":        "Beijing",
	"saigon":        "Ho Chi Minh City",
	"hk":            "Hong Kong",
}

// NormalizeCity trims, collapses whitespace and resolves common aliases.
// Unknown names come back title-cased word by word.
func NormalizeCity(city string) string {
	fields := strings.Fields(city)
	if len(fields) == 0 {
		return ""
	}
	key := strings.ToLower(strings.Join(fields, " "))
	key = strings.TrimSuffix(key, ".")
	if canonical, ok := cityAliases[key]; ok {
		return canonical
	}
	for i, f := range fields {
		fields[i] = strings.ToUpper(f[:1]) + strings.ToLower(f[1:])
	}
	return strings.Join(fields, " ")
}

// IsIATACode reports whether s looks like a three-letter location code.
func IsIATACode(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		c := s[i] | 0x20
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}

// NormalizeCode upper-cases a location or currency code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// TitleCarrier turns an upper-case carrier name from a fare dictionary
// ("AIR INDIA") into "Air India". Two-character designators are kept.
func TitleCarrier(name string) string {
	fields := strings.Fields(name)
	for i, f := range fields {
		if len(f) <= 2 {
			fields[i] = strings.ToUpper(f)
			continue
		}
		fields[i] = strings.ToUpper(f[:1]) + strings.ToLower(f[1:])
	}
	return strings.Join(fields, " ")
}
