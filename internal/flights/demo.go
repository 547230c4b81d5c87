package flights

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/flightdesk/pkg/models"
	"github.com/seenimoa/flightdesk/pkg/utils"
)

// DemoCurrency is the quote currency when the query names none.
const DemoCurrency = "EUR"

type demoCarrier struct {
	code string
	name string
}

var demoCarriers = []demoCarrier{
	{"6E", "IndiGo"},
	{"AI", "Air India"},
	{"UK", "Vistara"},
	{"SG", "SpiceJet"},
	{"QP", "Akasa Air"},
}

var demoHubs = []string{"DEL", "BOM", "BLR", "HYD", "DXB"}

var classMultiplier = map[models.FareClass]float64{
	models.Economy:        1,
	models.PremiumEconomy: 1.6,
	models.Business:       3,
	models.First:          5,
}

// DemoSource is an offline inventory. Offers are generated from a seed
// derived from route and date, so the same query always returns the same
// offers.
type DemoSource struct{}

// NewDemoSource creates a demo inventory.
func NewDemoSource() *DemoSource { return &DemoSource{} }

func (d *DemoSource) Name() string { return "demo" }

func (d *DemoSource) Search(ctx context.Context, q Query) ([]models.FareOffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q = q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, err
	}
	cur := q.Currency
	if cur == "" {
		cur = DemoCurrency
	}

	rng := rand.New(rand.NewSource(demoSeed(q)))
	// Route distance drives the base fare, and is stable across dates.
	routeRng := rand.New(rand.NewSource(demoSeed(Query{Origin: q.Origin, Destination: q.Destination})))
	baseFare := 45 + routeRng.Float64()*180
	baseHours := 1.25 + routeRng.Float64()*2.5

	n := 3 + rng.Intn(5)
	if n > q.MaxResults {
		n = q.MaxResults
	}
	offers := make([]models.FareOffer, 0, n)
	for i := 0; i < n; i++ {
		stops := []int{0, 0, 1, 1, 2}[rng.Intn(5)]
		c := demoCarriers[rng.Intn(len(demoCarriers))]
		dep := q.Date.Add(time.Duration(5*60+rng.Intn(17*60)) * time.Minute).Truncate(5 * time.Minute)

		segs := demoSegments(rng, q, c, dep, stops, baseHours)
		// Connections sell a little cheaper than direct flights.
		factor := 1 - 0.15*float64(stops) + rng.Float64()*0.6
		price := baseFare * factor * classMultiplier[q.TravelClass]
		if price < 20 {
			price = 20
		}
		seats := 1 + rng.Intn(9)

		offers = append(offers, models.FareOffer{
			ID:             fmt.Sprintf("%s%s-%s-%d", q.Origin, q.Destination, q.Date.Format("0102"), i+1),
			Price:          decimal.NewFromFloat(price).Round(2),
			Currency:       cur,
			Segments:       segs,
			Duration:       segs[len(segs)-1].Arrival.Sub(segs[0].Departure),
			Stops:          len(segs) - 1,
			FareClass:      q.TravelClass,
			SeatsAvailable: &seats,
		})
	}
	return offers, nil
}

// demoSegments builds a chained itinerary through distinct hubs.
func demoSegments(rng *rand.Rand, q Query, c demoCarrier, dep time.Time, stops int, baseHours float64) []models.FlightSegment {
	points := []string{q.Origin}
	for _, h := range rng.Perm(len(demoHubs)) {
		if len(points) == stops+1 {
			break
		}
		hub := demoHubs[h]
		if hub == q.Origin || hub == q.Destination {
			continue
		}
		points = append(points, hub)
	}
	points = append(points, q.Destination)

	legs := len(points) - 1
	segs := make([]models.FlightSegment, 0, legs)
	at := dep
	for i := 0; i < legs; i++ {
		flying := time.Duration(baseHours/float64(legs)*60+float64(30+rng.Intn(60))) * time.Minute
		arr := at.Add(flying).Truncate(5 * time.Minute)
		segs = append(segs, models.FlightSegment{
			CarrierCode:  c.code,
			CarrierName:  c.name,
			FlightNumber: fmt.Sprintf("%d", 100+rng.Intn(900)),
			Origin:       points[i],
			Destination:  points[i+1],
			Departure:    at,
			Arrival:      arr,
			Aircraft:     []string{"320", "321", "738", "788"}[rng.Intn(4)],
		})
		at = arr.Add(time.Duration(60+rng.Intn(120)) * time.Minute).Truncate(5 * time.Minute)
	}
	return segs
}

func demoSeed(q Query) int64 {
	h := fnv.New64a()
	h.Write([]byte(q.Origin + "-" + q.Destination))
	if !q.Date.IsZero() {
		h.Write([]byte(utils.FormatDate(q.Date)))
	}
	h.Write([]byte(q.TravelClass))
	return int64(h.Sum64())
}
