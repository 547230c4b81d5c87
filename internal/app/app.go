// Package app builds flightdesk's collaborators from configuration. The
// CLI and the HTTP API share it so both run against the same inventory,
// rate sources, confirmer and notification channels.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/seenimoa/flightdesk/internal/agent"
	"github.com/seenimoa/flightdesk/internal/airports"
	"github.com/seenimoa/flightdesk/internal/booking"
	"github.com/seenimoa/flightdesk/internal/config"
	"github.com/seenimoa/flightdesk/internal/currency"
	"github.com/seenimoa/flightdesk/internal/fare"
	"github.com/seenimoa/flightdesk/internal/flights"
	"github.com/seenimoa/flightdesk/internal/infra"
	"github.com/seenimoa/flightdesk/internal/llm"
	"github.com/seenimoa/flightdesk/internal/notify"
	"github.com/seenimoa/flightdesk/internal/ranking"
	"github.com/seenimoa/flightdesk/pkg/models"
)

// ErrNoInterpreter is returned when a natural-language request arrives but
// no LLM provider is configured.
var ErrNoInterpreter = errors.New("app: no LLM provider configured; set FLIGHTDESK_LLM_OPENAI_KEY or llm.ollama_url")

// App holds the wired collaborators.
type App struct {
	Config     *config.Config
	Directory  *airports.Directory
	LLM        *llm.Router // nil when no provider is configured
	Amadeus    *flights.AmadeusClient
	Source     flights.Source
	RateSource currency.RateSource // nil when every rate URL is empty
	Converter  *currency.Converter
	Ledger     *booking.Ledger
	Confirmer  *booking.DemoConfirmer
	Fare       fare.Calculator
	Notifiers  notify.Multi

	closers []func() error
}

// New wires an App. Optional channels that cannot be reached (Redis,
// Kafka) are logged and skipped; the application still works without
// them.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{
		Config:    cfg,
		Directory: airports.Default(),
		Ledger:    booking.NewLedger(),
		Fare:      fare.NewCalculator(cfg.Booking.TaxRate, cfg.Booking.Currency),
	}

	router, err := llm.NewRouterFromConfig(cfg.LLM)
	switch {
	case err == nil:
		a.LLM = router
	case errors.Is(err, llm.ErrNoProviders):
		log.Printf("app: no LLM provider configured, natural-language booking disabled")
	default:
		return nil, fmt.Errorf("LLM setup failed: %w", err)
	}

	if cfg.UseDemoInventory() {
		log.Printf("app: using the offline demo inventory")
		a.Source = flights.NewDemoSource()
	} else {
		a.Amadeus = flights.NewAmadeusClient(cfg.Amadeus.APIKey, cfg.Amadeus.APISecret, cfg.Amadeus.Hostname)
		a.Source = a.Amadeus
	}

	conv, err := a.buildConverter(ctx)
	if err != nil {
		return nil, err
	}
	a.Converter = conv

	a.Confirmer = booking.NewDemoConfirmer(booking.WithLedger(a.Ledger))
	a.buildNotifiers()
	return a, nil
}

func (a *App) buildConverter(ctx context.Context) (*currency.Converter, error) {
	rc := a.Config.Rates
	client := &http.Client{Timeout: 15 * time.Second}

	var sources []currency.RateSource
	if rc.APIURL != "" {
		sources = append(sources, currency.NewHTTPSource(rc.APIURL, client))
	}
	if rc.FeedURL != "" {
		sources = append(sources, currency.NewFeedSource(rc.FeedURL))
	}
	if rc.TableURL != "" {
		sources = append(sources, currency.NewTableSource(rc.TableURL, client))
	}
	switch len(sources) {
	case 0:
		log.Printf("app: no exchange-rate source configured, conversions use fallback rates")
	case 1:
		a.RateSource = sources[0]
	default:
		a.RateSource = currency.NewChainSource(sources...)
	}

	opts := []currency.Option{currency.WithBase(rc.Base), currency.WithTTL(rc.TTL())}
	if len(rc.Fallback) > 0 {
		opts = append(opts, currency.WithFallbackRates(rc.FallbackBase, rc.Fallback))
	}

	var cache currency.RateCache
	if rc.RedisURL != "" {
		rdb, err := currency.DialRedis(ctx, rc.RedisURL)
		if err != nil {
			log.Printf("app: WARNING redis rate cache unavailable, using memory: %v", err)
		} else {
			cache = currency.NewRedisRateCache(rdb)
			a.closers = append(a.closers, rdb.Close)
		}
	}
	return currency.NewConverter(a.RateSource, cache, opts...), nil
}

func (a *App) buildNotifiers() {
	nc := a.Config.Notify
	if nc.EmailEnabled {
		a.Notifiers = append(a.Notifiers, notify.NewLogNotifier())
	}
	if len(nc.KafkaBrokers) > 0 {
		k, err := notify.DialKafka(nc.KafkaBrokers, nc.KafkaTopic)
		if err != nil {
			log.Printf("app: WARNING kafka notifications disabled: %v", err)
			return
		}
		a.Notifiers = append(a.Notifiers, k)
		a.closers = append(a.closers, k.Close)
	}
}

// AddNotifier registers another booking event channel.
func (a *App) AddNotifier(n notify.Notifier) {
	a.Notifiers = append(a.Notifiers, n)
}

// Interpreter returns the LLM used by agents, or nil. The result is an
// untyped nil when no router exists so agents fall back to templates.
func (a *App) Interpreter() llm.LLMProvider {
	if a.LLM == nil {
		return nil
	}
	return a.LLM
}

// NewOrchestrator builds an interactive booking session runner on console.
func (a *App) NewOrchestrator(console *agent.Console) (*agent.Orchestrator, error) {
	provider := a.Interpreter()
	if provider == nil {
		return nil, ErrNoInterpreter
	}
	var notifier notify.Notifier
	if len(a.Notifiers) > 0 {
		notifier = a.Notifiers
	}
	return agent.NewOrchestrator(agent.OrchestratorConfig{
		Console:      console,
		Search:       agent.NewSearchAgent(provider, a.Directory, agent.WithMaxResults(a.Config.Booking.MaxResults)),
		Ticket:       agent.NewTicketAgent(provider),
		Notification: agent.NewNotificationAgent(provider),
		Source:       a.Source,
		Converter:    a.Converter,
		Confirmer:    a.Confirmer,
		Notifier:     notifier,
		Fare:         a.Fare,
		Currency:     a.Config.Booking.Currency,
	}), nil
}

// NewConsoleOrchestrator is NewOrchestrator on stdin and stdout.
func (a *App) NewConsoleOrchestrator() (*agent.Orchestrator, error) {
	return a.NewOrchestrator(agent.NewConsole(os.Stdin, os.Stdout))
}

// SearchResult is a ranked search window priced in one currency.
type SearchResult struct {
	Request  models.SearchRequest
	Currency string
	Degraded bool // fallback exchange rates were used
	ranking.Result
}

// Search runs a structured request without the interactive session:
// window search, conversion to cur (the configured currency when empty)
// and ranking by the request's hint. An empty requested date returns
// models.ErrNotFound.
func (a *App) Search(ctx context.Context, req models.SearchRequest, cur string, today infra.Clock) (*SearchResult, error) {
	if cur == "" {
		cur = a.Config.Booking.Currency
	}
	q := flights.QueryFromRequest(req)
	q.Currency = cur

	var opts []flights.WindowOption
	if today != nil {
		opts = append(opts, flights.WithToday(today))
	}
	win, err := flights.SearchWindow(ctx, a.Source, q, opts...)
	if err != nil {
		return nil, err
	}
	if len(win.Requested) == 0 {
		return nil, fmt.Errorf("%w: no flights %s on %s", models.ErrNotFound, req.Route(), req.DepartureDate.Format("2006-01-02"))
	}
	converted, degraded, err := a.Converter.ConvertWindow(ctx, win, cur)
	if err != nil {
		return nil, err
	}
	return &SearchResult{
		Request:  req,
		Currency: cur,
		Degraded: degraded,
		Result:   ranking.RankWindow(converted, req.Hint),
	}, nil
}

// Close releases connections opened by New.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
