// Package airports resolves city names and IATA codes against a static
// airport directory, and exposes the lookups as LLM tools.
package airports

import (
	"fmt"
	"sort"
	"strings"

	"github.com/seenimoa/flightdesk/pkg/models"
	"github.com/seenimoa/flightdesk/pkg/utils"
)

// Directory is an immutable, ordered airport table. It is safe for
// concurrent use.
type Directory struct {
	airports []models.Airport
	byCode   map[string]int
}

// New builds a directory from the given airports. Later duplicates of a
// code are ignored.
func New(list []models.Airport) *Directory {
	d := &Directory{byCode: make(map[string]int, len(list))}
	for _, a := range list {
		a.Code = utils.NormalizeCode(a.Code)
		if _, dup := d.byCode[a.Code]; dup {
			continue
		}
		d.byCode[a.Code] = len(d.airports)
		d.airports = append(d.airports, a)
	}
	return d
}

// Default returns the built-in directory.
func Default() *Directory { return New(builtin) }

// Len returns the number of airports.
func (d *Directory) Len() int { return len(d.airports) }

// All returns a copy of every airport, in table order.
func (d *Directory) All() []models.Airport {
	return append([]models.Airport(nil), d.airports...)
}

// ByCode looks up an airport by IATA code.
func (d *Directory) ByCode(code string) (models.Airport, error) {
	i, ok := d.byCode[utils.NormalizeCode(code)]
	if !ok {
		return models.Airport{}, fmt.Errorf("%w: airport code %q", models.ErrNotFound, code)
	}
	return d.airports[i], nil
}

// SearchCity returns airports whose city contains the query, case
// insensitively. Common aliases ("Bombay", "NYC") are resolved first.
// Exact city matches are listed before partial ones.
func (d *Directory) SearchCity(city string) []models.Airport {
	q := strings.ToLower(utils.NormalizeCity(city))
	if q == "" {
		return nil
	}
	var exact, partial []models.Airport
	for _, a := range d.airports {
		c := strings.ToLower(a.City)
		switch {
		case c == q:
			exact = append(exact, a)
		case strings.Contains(c, q):
			partial = append(partial, a)
		}
	}
	return append(exact, partial...)
}

// SearchCountry returns every airport in a country.
func (d *Directory) SearchCountry(country string) []models.Airport {
	q := strings.ToLower(strings.TrimSpace(country))
	var out []models.Airport
	for _, a := range d.airports {
		if q != "" && strings.Contains(strings.ToLower(a.Country), q) {
			out = append(out, a)
		}
	}
	return out
}

// Primary returns the primary airport for a city.
func (d *Directory) Primary(city string) (models.Airport, error) {
	matches := d.SearchCity(city)
	if len(matches) == 0 {
		return models.Airport{}, fmt.Errorf("%w: no airport for city %q", models.ErrNotFound, city)
	}
	return matches[0], nil
}

// Resolve maps a city name or IATA code to the primary airport code.
func (d *Directory) Resolve(cityOrCode string) (string, error) {
	if utils.IsIATACode(cityOrCode) {
		if a, err := d.ByCode(cityOrCode); err == nil {
			return a.Code, nil
		}
	}
	a, err := d.Primary(cityOrCode)
	if err != nil {
		return "", err
	}
	return a.Code, nil
}

// ResolveAll returns every airport code serving a city, primary first.
func (d *Directory) ResolveAll(city string) ([]string, error) {
	matches := d.SearchCity(city)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no airport for city %q", models.ErrNotFound, city)
	}
	codes := make([]string, len(matches))
	for i, a := range matches {
		codes[i] = a.Code
	}
	return codes, nil
}

// Cities lists the distinct cities in the directory, sorted.
func (d *Directory) Cities() []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range d.airports {
		if !seen[a.City] {
			seen[a.City] = true
			out = append(out, a.City)
		}
	}
	sort.Strings(out)
	return out
}

// FormatList renders "- CODE: City, Country (Name)" lines.
func FormatList(list []models.Airport) string {
	if len(list) == 0 {
		return "No airports found."
	}
	lines := make([]string, len(list))
	for i, a := range list {
		lines[i] = fmt.Sprintf("- %s: %s, %s (%s)", a.Code, a.City, a.Country, a.Name)
	}
	return strings.Join(lines, "\n")
}
