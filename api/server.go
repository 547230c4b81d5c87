// Package api provides the HTTP API for flightdesk.
//
// It exposes airport lookup, currency conversion, fare breakdowns,
// passenger ID checks, ranked flight search, demo bookings and a
// WebSocket stream of booking events.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/seenimoa/flightdesk/internal/agent"
	"github.com/seenimoa/flightdesk/internal/app"
	"github.com/seenimoa/flightdesk/internal/currency"
	"github.com/seenimoa/flightdesk/internal/fare"
	"github.com/seenimoa/flightdesk/internal/identity"
	"github.com/seenimoa/flightdesk/internal/infra"
	"github.com/seenimoa/flightdesk/internal/metrics"
	"github.com/seenimoa/flightdesk/internal/notify"
	"github.com/seenimoa/flightdesk/internal/present"
	"github.com/seenimoa/flightdesk/pkg/models"
	"github.com/seenimoa/flightdesk/pkg/utils"
)

// Version is reported by /health. The CLI overrides it at build time.
var Version = "dev"

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	app    *app.App
	wsHub  *WSHub
	now    infra.Clock
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithClock sets the clock used for "today" in search validation.
func WithClock(clock infra.Clock) ServerOption {
	return func(s *Server) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewServer creates a configured API server. The WebSocket hub is added to
// the app's notifiers so every booking is pushed to connected clients.
func NewServer(a *app.App, opts ...ServerOption) *Server {
	s := &Server{
		app:   a,
		wsHub: NewWSHub(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	a.AddNotifier(s.wsHub)
	s.router = s.buildRouter()
	return s
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-done:
	}
	log.Println("api: shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(instrument)
	r.Use(middleware.Timeout(120 * time.Second))

	origins := []string{"*"}
	if len(s.app.Config.API.CORSOrigins) > 0 {
		origins = s.app.Config.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Airports
		r.Get("/airports", s.handleAirports)
		r.Get("/airports/{code}", s.handleAirportByCode)

		// Pricing
		r.Post("/convert", s.handleConvert)
		r.Get("/rates", s.handleGetRates)
		r.Get("/currencies", s.handleCurrencies)
		r.Post("/fare/breakdown", s.handleFareBreakdown)

		// Passengers
		r.Post("/identity/normalize", s.handleIdentity)

		// Search
		r.Post("/search", s.handleSearch)

		// Bookings
		r.Get("/bookings", s.handleListBookings)
		r.Post("/bookings", s.handleCreateBooking)
		r.Get("/bookings/{ref}", s.handleGetBooking)

		// Configuration
		r.Get("/config", s.handleGetConfig)
		r.Get("/config/keys", s.handleGetConfigKeys)

		// WebSocket
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// instrument records request counts and latency by route pattern.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ConvertRequest is the body for POST /api/v1/convert.
type ConvertRequest struct {
	Amount decimal.Decimal `json:"amount"`
	From   string          `json:"from"`
	To     string          `json:"to"`
}

// ConvertResponse adds display strings to a conversion.
type ConvertResponse struct {
	Amount    decimal.Decimal `json:"amount"`
	Rate      decimal.Decimal `json:"rate"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Source    string          `json:"source"`
	Degraded  bool            `json:"degraded"`
	Formatted string          `json:"formatted"`
}

// FareRequest is the body for POST /api/v1/fare/breakdown. TaxRate
// defaults to the configured rate.
type FareRequest struct {
	Base     decimal.Decimal `json:"base"`
	TaxRate  *float64        `json:"tax_rate,omitempty"`
	Currency string          `json:"currency,omitempty"`
}

// IdentityRequest is the body for POST /api/v1/identity/normalize.
type IdentityRequest struct {
	Type   string `json:"type"`   // AADHAAR, PASSPORT, DRIVING_LICENSE or 1/2/3
	Number string `json:"number"`
}

// SearchRequest is the body for POST /api/v1/search. Origin and
// destination accept a city name or an IATA code.
type SearchRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Date        string `json:"date"` // YYYY-MM-DD
	Adults      int    `json:"adults,omitempty"`
	TravelClass string `json:"travel_class,omitempty"`
	Hint        string `json:"hint,omitempty"`
	Currency    string `json:"currency,omitempty"`
	MaxResults  int    `json:"max_results,omitempty"`
}

// SearchResponse is a ranked, converted search window.
type SearchResponse struct {
	Request      models.SearchRequest      `json:"request"`
	Preference   models.RankingPreference  `json:"preference"`
	SortedBy     string                    `json:"sorted_by"`
	Currency     string                    `json:"currency"`
	Degraded     bool                      `json:"degraded"`
	Ordered      []models.FareOffer        `json:"ordered"`
	Alternatives []models.AlternativeOffer `json:"alternatives"`
	Table        string                    `json:"table"`
}

// PassengerInput is one traveller in a booking request.
type PassengerInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Gender    string `json:"gender"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	IDType    string `json:"id_type"`
	IDNumber  string `json:"id_number"`
}

// BookingRequest is the body for POST /api/v1/bookings.
type BookingRequest struct {
	Offer      models.FareOffer `json:"offer"`
	Passengers []PassengerInput `json:"passengers"`
}

// BookingResponse carries the confirmation with its rendered ticket.
type BookingResponse struct {
	Confirmation *models.BookingConfirmation `json:"confirmation"`
	Ticket       string                      `json:"ticket"`
	Message      string                      `json:"message"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":     "ok",
			"version":    Version,
			"inventory":  s.app.Source.Name(),
			"currency":   s.app.Config.Booking.Currency,
			"llm":        s.app.LLM != nil,
			"ws_clients": s.wsHub.ClientCount(),
			"time_ist":   utils.FormatDateTimeIST(s.now()),
		},
	})
}

func (s *Server) handleAirports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var list []models.Airport
	switch {
	case q.Get("city") != "":
		list = s.app.Directory.SearchCity(q.Get("city"))
	case q.Get("country") != "":
		list = s.app.Directory.SearchCountry(q.Get("country"))
	default:
		list = s.app.Directory.All()
	}
	if list == nil {
		list = []models.Airport{}
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: list})
}

func (s *Server) handleAirportByCode(w http.ResponseWriter, r *http.Request) {
	a, err := s.app.Directory.ByCode(chi.URLParam(r, "code"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: a})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.From == "" || req.To == "" {
		writeError(w, http.StatusBadRequest, "from and to are required")
		return
	}
	if req.Amount.IsNegative() {
		writeError(w, http.StatusBadRequest, "amount must not be negative")
		return
	}
	conv, err := s.app.Converter.Convert(r.Context(), req.Amount, req.From, req.To)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: ConvertResponse{
		Amount:    conv.Amount,
		Rate:      conv.Rate,
		From:      conv.From,
		To:        conv.To,
		Source:    conv.Source,
		Degraded:  conv.Degraded,
		Formatted: present.Money(conv.Amount, conv.To),
	}})
}

func (s *Server) handleCurrencies(w http.ResponseWriter, r *http.Request) {
	codes := currency.SupportedCurrencies()
	out := make([]map[string]string, len(codes))
	for i, code := range codes {
		out[i] = map[string]string{"code": code, "symbol": currency.Symbol(code)}
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: out})
}

func (s *Server) handleFareBreakdown(w http.ResponseWriter, r *http.Request) {
	var req FareRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rate := s.app.Fare.TaxRate
	if req.TaxRate != nil {
		rate = *req.TaxRate
	}
	cur := req.Currency
	if cur == "" {
		cur = s.app.Fare.Currency
	}
	bd, err := fare.Breakdown(req.Base, rate, cur)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: bd})
}

func (s *Server) handleIdentity(w http.ResponseWriter, r *http.Request) {
	var req IdentityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	id, err := identity.New(identity.ParseIDType(req.Type), req.Number)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: id})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	if !decodeBody(w, r, &body) {
		return
	}
	req, err := s.searchRequest(body)
	if err != nil {
		writeErr(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 90*time.Second)
	defer cancel()

	res, err := s.app.Search(ctx, req, strings.ToUpper(body.Currency), s.now)
	if err != nil {
		writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: SearchResponse{
		Request:      res.Request,
		Preference:   res.Preference,
		SortedBy:     res.Preference.Description(),
		Currency:     res.Currency,
		Degraded:     res.Degraded,
		Ordered:      res.Ordered,
		Alternatives: res.Alternatives,
		Table:        present.Format(res.Ordered, res.Alternatives, res.Currency, s.app.Fare.TaxRate),
	}})
}

// searchRequest resolves places and validates the date of a search body.
func (s *Server) searchRequest(body SearchRequest) (models.SearchRequest, error) {
	if body.Origin == "" || body.Destination == "" || body.Date == "" {
		return models.SearchRequest{}, fmt.Errorf("%w: origin, destination and date are required", models.ErrValidation)
	}
	origin, err := s.app.Directory.Resolve(body.Origin)
	if err != nil {
		return models.SearchRequest{}, err
	}
	dest, err := s.app.Directory.Resolve(body.Destination)
	if err != nil {
		return models.SearchRequest{}, err
	}
	date, err := utils.ParseDate(body.Date)
	if err != nil {
		return models.SearchRequest{}, fmt.Errorf("%w: date %q is not YYYY-MM-DD", models.ErrValidation, body.Date)
	}
	if date.Before(utils.Day(s.now())) {
		return models.SearchRequest{}, fmt.Errorf("%w: date %s is in the past", models.ErrValidation, body.Date)
	}
	maxResults := body.MaxResults
	if maxResults <= 0 {
		maxResults = s.app.Config.Booking.MaxResults
	}
	req := models.SearchRequest{
		OriginCode:      origin,
		DestinationCode: dest,
		DepartureDate:   date,
		Adults:          body.Adults,
		TravelClass:     models.ParseFareClass(body.TravelClass),
		MaxResults:      maxResults,
		Hint:            body.Hint,
	}
	if a, err := s.app.Directory.ByCode(origin); err == nil {
		req.OriginCity = a.City
	}
	if a, err := s.app.Directory.ByCode(dest); err == nil {
		req.DestinationCity = a.City
	}
	if req.Adults < 1 {
		req.Adults = 1
	}
	return req, nil
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var body BookingRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Offer.ID == "" || !body.Offer.Price.IsPositive() || body.Offer.Currency == "" {
		writeError(w, http.StatusBadRequest, "offer with id, price and currency is required")
		return
	}
	if err := models.ValidateSegments(body.Offer.Segments); err != nil {
		writeErr(w, err)
		return
	}

	passengers := make([]models.Passenger, 0, len(body.Passengers))
	for i, p := range body.Passengers {
		id, err := identity.New(identity.ParseIDType(p.IDType), p.IDNumber)
		if err != nil {
			writeErr(w, fmt.Errorf("passenger %d: %w", i+1, err))
			return
		}
		passengers = append(passengers, models.Passenger{
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Gender:    strings.ToUpper(p.Gender),
			Email:     p.Email,
			Phone:     p.Phone,
			ID:        id,
		})
	}

	bd, err := s.app.Fare.ForOffer(body.Offer, len(passengers))
	if err != nil {
		writeErr(w, err)
		return
	}
	c, err := s.app.Confirmer.Book(r.Context(), body.Offer, passengers, bd)
	if err != nil {
		writeErr(w, err)
		return
	}
	c.SessionID = middleware.GetReqID(r.Context())

	msg := agent.ConfirmationMessage(c)
	if len(s.app.Notifiers) > 0 {
		if err := s.app.Notifiers.Notify(r.Context(), notify.NewBookingEvent(c, msg)); err != nil {
			log.Printf("api: notification for %s failed: %v", c.Reference, err)
		}
	}

	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Data: BookingResponse{
		Confirmation: c,
		Ticket:       present.Ticket(c),
		Message:      msg,
	}})
}

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.app.Ledger.Recent(limit)})
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	c, err := s.app.Ledger.ByReference(chi.URLParam(r, "ref"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: BookingResponse{
		Confirmation: c,
		Ticket:       present.Ticket(c),
		Message:      agent.ConfirmationMessage(c),
	}})
}

// ============================================================
// Helpers
// ============================================================

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{Success: false, Error: msg})
}

// writeErr maps the error taxonomy to an HTTP status.
func writeErr(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrExternalService):
		return http.StatusBadGateway
	case errors.Is(err, models.ErrUserCancelled):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
