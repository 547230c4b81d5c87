package airports

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/seenimoa/flightdesk/internal/llm"
)

// Tool names exposed to the search agent.
const (
	ToolLookupByCode   = "lookup_airport_by_code"
	ToolLookupByCity   = "lookup_airports_by_city"
	ToolPrimaryAirport = "get_primary_airport"
)

// RegisterTools adds the airport lookups to a tool registry. Lookups that
// find nothing return a message for the model, not an error.
func RegisterTools(reg *llm.ToolRegistry, d *Directory) {
	reg.RegisterFunc(ToolLookupByCode,
		"Look up detailed airport information using its IATA code",
		llm.ObjectSchema("", map[string]*llm.JSONSchema{
			"iata_code": llm.StringProp("3-letter IATA airport code (e.g. 'JFK', 'BOM')"),
		}, "iata_code"),
		func(_ context.Context, args json.RawMessage) (string, error) {
			var p struct {
				Code string `json:"iata_code"`
			}
			if err := json.Unmarshal(args, &p); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			a, err := d.ByCode(p.Code)
			if err != nil {
				return fmt.Sprintf("Airport with code '%s' not found in database.", p.Code), nil
			}
			return fmt.Sprintf("Airport: %s\nIATA Code: %s\nCity: %s\nCountry: %s", a.Name, a.Code, a.City, a.Country), nil
		})

	reg.RegisterFunc(ToolLookupByCity,
		"Find all airports serving a specific city",
		llm.ObjectSchema("", map[string]*llm.JSONSchema{
			"city_name": llm.StringProp("Name of the city (e.g. 'New York', 'Mumbai')"),
		}, "city_name"),
		func(_ context.Context, args json.RawMessage) (string, error) {
			var p struct {
				City string `json:"city_name"`
			}
			if err := json.Unmarshal(args, &p); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			list := d.SearchCity(p.City)
			if len(list) == 0 {
				return fmt.Sprintf("No airports found for city '%s'.", p.City), nil
			}
			return FormatList(list), nil
		})

	reg.RegisterFunc(ToolPrimaryAirport,
		"Get the primary IATA code for a city. Use this when a flight search needs a single airport code.",
		llm.ObjectSchema("", map[string]*llm.JSONSchema{
			"city_name": llm.StringProp("Name of the city"),
		}, "city_name"),
		func(_ context.Context, args json.RawMessage) (string, error) {
			var p struct {
				City string `json:"city_name"`
			}
			if err := json.Unmarshal(args, &p); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			a, err := d.Primary(p.City)
			if err != nil {
				return fmt.Sprintf("No airport found for '%s'.", p.City), nil
			}
			return a.Code, nil
		})
}
