// Package flights queries flight inventory: the Amadeus Self-Service API
// when credentials are configured, or a deterministic demo inventory
// otherwise.
package flights

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/seenimoa/flightdesk/pkg/models"
	"github.com/seenimoa/flightdesk/pkg/utils"
)

// Source searches one route on one date.
type Source interface {
	Name() string
	Search(ctx context.Context, q Query) ([]models.FareOffer, error)
}

// Query is a single-date, one-way search.
type Query struct {
	Origin      string
	Destination string
	Date        time.Time
	Adults      int
	TravelClass models.FareClass
	MaxResults  int
	Currency    string // requested quote currency; sources may ignore it
}

// QueryFromRequest builds a query from a parsed request.
func QueryFromRequest(req models.SearchRequest) Query {
	return Query{
		Origin:      req.OriginCode,
		Destination: req.DestinationCode,
		Date:        req.DepartureDate,
		Adults:      req.Adults,
		TravelClass: req.TravelClass,
		MaxResults:  req.MaxResults,
	}
}

// OnDate returns a copy of q for another date.
func (q Query) OnDate(d time.Time) Query {
	q.Date = utils.Day(d)
	return q
}

// Normalize fills defaults and upper-cases codes.
func (q Query) Normalize() Query {
	q.Origin = utils.NormalizeCode(q.Origin)
	q.Destination = utils.NormalizeCode(q.Destination)
	q.Currency = utils.NormalizeCode(q.Currency)
	if q.Adults < 1 {
		q.Adults = 1
	}
	if q.MaxResults <= 0 {
		q.MaxResults = 10
	}
	if q.TravelClass == "" {
		q.TravelClass = models.Economy
	}
	if !q.Date.IsZero() {
		q.Date = utils.Day(q.Date)
	}
	return q
}

// Validate reports missing or malformed fields.
func (q Query) Validate() error {
	var problems []string
	if !utils.IsIATACode(q.Origin) {
		problems = append(problems, fmt.Sprintf("origin %q is not an IATA code", q.Origin))
	}
	if !utils.IsIATACode(q.Destination) {
		problems = append(problems, fmt.Sprintf("destination %q is not an IATA code", q.Destination))
	}
	if q.Origin != "" && strings.EqualFold(q.Origin, q.Destination) {
		problems = append(problems, "origin and destination are the same")
	}
	if q.Date.IsZero() {
		problems = append(problems, "departure date is missing")
	}
	if q.Adults > 9 {
		problems = append(problems, "at most 9 adults per booking")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", models.ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}
