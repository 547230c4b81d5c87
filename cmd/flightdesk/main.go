// flightdesk books flights from a natural-language request.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/flightdesk/api"
	"github.com/seenimoa/flightdesk/internal/airports"
	"github.com/seenimoa/flightdesk/internal/app"
	"github.com/seenimoa/flightdesk/internal/config"
	"github.com/seenimoa/flightdesk/internal/present"
	"github.com/seenimoa/flightdesk/pkg/models"
	"github.com/seenimoa/flightdesk/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "flightdesk",
	Short: "flightdesk: conversational flight search and booking",
	Long: `flightdesk turns a request like "cheapest flight from Mumbai to Delhi
on 15 December" into a ranked list of fares in your currency, collects
passenger details and issues a simulated ticket.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		level, _ := cmd.Flags().GetString("log-level")
		if level == "" {
			level = cfg.Logging.Level
		}
		return config.SetLogLevel(level)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(bookCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(airportsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// signalContext is cancelled on Ctrl-C.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newApp wires the application for one command.
func newApp(ctx context.Context) (*app.App, error) {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("setup failed: %w", err)
	}
	return a, nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("flightdesk %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Book Command ---

var bookCmd = &cobra.Command{
	Use:   "book [request]",
	Short: "Start an interactive booking session",
	Long: `Start an interactive booking session. The request may be given as
arguments or typed at the prompt. Type "cancel" at any prompt to stop.

Examples:
  flightdesk book cheapest flight from Mumbai to Delhi on 2025-12-15
  flightdesk book "morning flight Bangalore to Goa tomorrow, 2 adults"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		orch, err := a.NewConsoleOrchestrator()
		if err != nil {
			return err
		}

		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  flightdesk: flight booking assistant")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Inventory: %s   Currency: %s\n", a.Source.Name(), cfg.Booking.Currency)
		fmt.Println(`  Type "cancel" at any prompt to stop.`)

		_, err = orch.Run(ctx, strings.Join(args, " "))
		if errors.Is(err, models.ErrUserCancelled) || errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

// --- Search Command ---

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search and rank flights without booking",
	Long: `Search one route on one date plus the neighbouring days, convert the
fares and print them ranked.

Examples:
  flightdesk search --from Mumbai --to Delhi --date 2025-12-15
  flightdesk search --from BLR --to GOI --date 2025-12-20 --hint "direct" --currency USD`,
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		day, _ := cmd.Flags().GetString("date")
		hint, _ := cmd.Flags().GetString("hint")
		cur, _ := cmd.Flags().GetString("currency")
		adults, _ := cmd.Flags().GetInt("adults")
		class, _ := cmd.Flags().GetString("class")

		ctx, stop := signalContext()
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		req, err := buildRequest(a.Directory, from, to, day, adults, class, hint)
		if err != nil {
			return err
		}
		req.MaxResults = cfg.Booking.MaxResults
		if req.DepartureDate.Before(utils.Day(time.Now())) {
			return fmt.Errorf("%w: date %s is in the past", models.ErrValidation, day)
		}

		res, err := a.Search(ctx, req, strings.ToUpper(cur), nil)
		if err != nil {
			return err
		}
		fmt.Println(present.Header(res.Request))
		fmt.Printf("Sorting: %s\n\n", res.Preference.Description())
		fmt.Print(present.Format(res.Ordered, res.Alternatives, res.Currency, cfg.Booking.TaxRate))
		if res.Degraded {
			fmt.Println("\nNote: live exchange rates are unavailable; prices use fallback rates.")
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().String("from", "", "origin city or IATA code")
	searchCmd.Flags().String("to", "", "destination city or IATA code")
	searchCmd.Flags().String("date", "", "departure date (YYYY-MM-DD)")
	searchCmd.Flags().String("hint", "", `ranking preference, e.g. "cheapest", "direct", "morning"`)
	searchCmd.Flags().String("currency", "", "display currency (default: booking.currency)")
	searchCmd.Flags().Int("adults", 1, "number of adult passengers")
	searchCmd.Flags().String("class", "ECONOMY", "travel class")
	_ = searchCmd.MarkFlagRequired("from")
	_ = searchCmd.MarkFlagRequired("to")
	_ = searchCmd.MarkFlagRequired("date")
}

// buildRequest resolves places and parses the date of a flag-driven search.
func buildRequest(dir *airports.Directory, from, to, day string, adults int, class, hint string) (models.SearchRequest, error) {
	origin, err := dir.Resolve(from)
	if err != nil {
		return models.SearchRequest{}, err
	}
	dest, err := dir.Resolve(to)
	if err != nil {
		return models.SearchRequest{}, err
	}
	d, err := utils.ParseDate(day)
	if err != nil {
		return models.SearchRequest{}, fmt.Errorf("%w: date %q is not YYYY-MM-DD", models.ErrValidation, day)
	}
	if adults < 1 {
		adults = 1
	}
	req := models.SearchRequest{
		OriginCode:      origin,
		DestinationCode: dest,
		DepartureDate:   d,
		Adults:          adults,
		TravelClass:     models.ParseFareClass(class),
		Hint:            hint,
	}
	if ap, err := dir.ByCode(origin); err == nil {
		req.OriginCity = ap.City
	}
	if ap, err := dir.ByCode(dest); err == nil {
		req.DestinationCity = ap.City
	}
	return req, nil
}

// --- Convert Command ---

var convertCmd = &cobra.Command{
	Use:   "convert [amount] [from] [to]",
	Short: "Convert an amount between currencies",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := decimal.NewFromString(args[0])
		if err != nil {
			return fmt.Errorf("%w: amount %q is not a number", models.ErrValidation, args[0])
		}

		ctx, stop := signalContext()
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		conv, err := a.Converter.Convert(ctx, amount, args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Printf("%s = %s\n", present.Money(amount, conv.From), present.Money(conv.Amount, conv.To))
		fmt.Printf("  rate: %s (%s)\n", conv.Rate.String(), conv.Source)
		if conv.Degraded {
			fmt.Println("  Note: live exchange rates are unavailable; fallback rate used.")
		}
		return nil
	},
}

// --- Airports Command ---

var airportsCmd = &cobra.Command{
	Use:   "airports [city|code]",
	Short: "List known airports",
	RunE: func(cmd *cobra.Command, args []string) error {
		country, _ := cmd.Flags().GetString("country")
		dir := airports.Default()

		var list []models.Airport
		switch {
		case len(args) == 1 && utils.IsIATACode(args[0]):
			a, err := dir.ByCode(args[0])
			if err != nil {
				list = dir.SearchCity(args[0])
				break
			}
			list = []models.Airport{a}
		case len(args) > 0:
			list = dir.SearchCity(strings.Join(args, " "))
		case country != "":
			list = dir.SearchCountry(country)
		default:
			list = dir.All()
		}
		if len(list) == 0 {
			return fmt.Errorf("%w: no matching airports", models.ErrNotFound)
		}
		fmt.Print(airports.FormatList(list))
		return nil
	},
}

func init() {
	airportsCmd.Flags().String("country", "", "filter by country")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(context.Background())
		if err != nil {
			return err
		}
		defer a.Close()

		api.Version = version
		srv := api.NewServer(a)
		fmt.Printf("Starting flightdesk API server on %s\n", cfg.API.Addr())
		return srv.ListenAndServe(cfg.API.Addr())
	},
}

// --- Status Command ---

// check is one row of the status report.
type check struct {
	name string
	err  error
	skip string
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and check external services",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  flightdesk: System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Time (IST):    %s\n", utils.FormatDateTimeIST(time.Now()))
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    LLM Provider:  %s (model: %s)\n", cfg.LLM.Primary, cfg.LLM.Model)
		fmt.Printf("    Inventory:     %s\n", a.Source.Name())
		fmt.Printf("    Currency:      %s (GST %s)\n", cfg.Booking.Currency, utils.FormatPct(cfg.Booking.TaxRate))
		fmt.Printf("    Notifications: %s\n", a.Notifiers.Name())
		fmt.Printf("    API Server:    %s\n", cfg.API.Addr())
		fmt.Println()

		fmt.Println("  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "not set"
			if k.IsSet {
				status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}
		fmt.Println()

		fmt.Println("  Services:")
		for _, c := range runChecks(ctx, a) {
			status := "ok"
			switch {
			case c.skip != "":
				status = "skipped (" + c.skip + ")"
			case c.err != nil:
				status = "FAILED: " + c.err.Error()
			}
			fmt.Printf("    %-25s %s\n", c.name+":", status)
		}
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

// runChecks checks the LLM providers, the inventory and the rate source
// concurrently.
func runChecks(ctx context.Context, a *app.App) []check {
	results := make([]check, 3)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		results[0] = check{name: "LLM"}
		if a.LLM == nil {
			results[0].skip = "no provider"
			return nil
		}
		var failed []string
		for name, err := range a.LLM.HealthCheck(gctx) {
			if err != nil {
				failed = append(failed, fmt.Sprintf("%s: %v", name, err))
			}
		}
		if len(failed) > 0 {
			results[0].err = errors.New(strings.Join(failed, "; "))
		}
		return nil
	})
	g.Go(func() error {
		results[1] = check{name: "Amadeus"}
		if a.Amadeus == nil {
			results[1].skip = "demo inventory"
			return nil
		}
		_, results[1].err = a.Amadeus.Token(gctx)
		return nil
	})
	g.Go(func() error {
		results[2] = check{name: "Exchange rates"}
		if a.RateSource == nil {
			results[2].skip = "fallback rates only"
			return nil
		}
		_, results[2].err = a.RateSource.Rates(gctx, cfg.Rates.Base)
		return nil
	})

	_ = g.Wait()
	return results
}
