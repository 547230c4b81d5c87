package flights

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/seenimoa/flightdesk/internal/infra"
	"github.com/seenimoa/flightdesk/internal/metrics"
	"github.com/seenimoa/flightdesk/internal/ranking"
	"github.com/seenimoa/flightdesk/pkg/utils"
)

// WindowOption configures SearchWindow.
type WindowOption func(*windowConfig)

type windowConfig struct {
	today infra.Clock
}

// WithToday sets the clock used to skip adjacent dates in the past.
func WithToday(clock infra.Clock) WindowOption {
	return func(c *windowConfig) {
		if clock != nil {
			c.today = clock
		}
	}
}

// SearchWindow searches the requested date, then the day before and the
// day after, one call at a time. Only the requested-date search can fail
// the window; adjacent failures are logged and left out.
func SearchWindow(ctx context.Context, src Source, q Query, opts ...WindowOption) (ranking.SearchWindow, error) {
	cfg := windowConfig{today: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	q = q.Normalize()
	if err := q.Validate(); err != nil {
		return ranking.SearchWindow{}, err
	}

	w := ranking.SearchWindow{RequestedDate: q.Date}
	offers, err := src.Search(ctx, q)
	metrics.Searches.WithLabelValues(src.Name(), metrics.Outcome(err)).Inc()
	if err != nil {
		return w, fmt.Errorf("search %s-%s on %s: %w", q.Origin, q.Destination, utils.FormatDate(q.Date), err)
	}
	w.Requested = offers

	today := utils.Day(cfg.today())
	for _, delta := range []int{-1, 1} {
		date := utils.AddDays(q.Date, delta)
		if date.Before(today) {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		alt, err := src.Search(ctx, q.OnDate(date))
		metrics.Searches.WithLabelValues(src.Name(), metrics.Outcome(err)).Inc()
		if err != nil {
			log.Printf("flights: adjacent date %s skipped: %v", utils.FormatDate(date), err)
			continue
		}
		w.Adjacent = append(w.Adjacent, ranking.DatedOffers{Date: date, Offers: alt})
	}
	return w, nil
}
