package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/seenimoa/flightdesk/internal/airports"
	"github.com/seenimoa/flightdesk/internal/app"
	"github.com/seenimoa/flightdesk/internal/booking"
	"github.com/seenimoa/flightdesk/internal/config"
	"github.com/seenimoa/flightdesk/internal/currency"
	"github.com/seenimoa/flightdesk/internal/fare"
	"github.com/seenimoa/flightdesk/internal/flights"
	"github.com/seenimoa/flightdesk/internal/notify"
	"github.com/seenimoa/flightdesk/pkg/models"
	"github.com/seenimoa/flightdesk/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

var (
	fixedNow   = time.Date(2025, 11, 1, 9, 30, 0, 0, time.UTC)
	travelDate = time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
)

func clock() time.Time { return fixedNow }

func offer(id string, date time.Time, price string, stops int, depHour int) models.FareOffer {
	dep := date.Add(time.Duration(depHour) * time.Hour)
	return models.FareOffer{
		ID:       id,
		Price:    decimal.RequireFromString(price),
		Currency: "USD",
		Segments: []models.FlightSegment{{
			CarrierCode:  "6E",
			CarrierName:  "IndiGo",
			FlightNumber: "20" + id,
			Origin:       "BOM",
			Destination:  "DEL",
			Departure:    dep,
			Arrival:      dep.Add(2 * time.Hour),
		}},
		Duration:  2*time.Hour + time.Duration(stops)*time.Hour,
		Stops:     stops,
		FareClass: models.Economy,
	}
}

type stubSource struct {
	mu      sync.Mutex
	byDate  map[string][]models.FareOffer
	queries []flights.Query
	err     error
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Search(_ context.Context, q flights.Query) ([]models.FareOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	if s.err != nil {
		return nil, s.err
	}
	return s.byDate[utils.FormatDate(q.Date)], nil
}

func (s *stubSource) queryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recordingNotifier) Name() string { return "recording" }

func (r *recordingNotifier) Notify(_ context.Context, ev notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

type testEnv struct {
	srv      *Server
	source   *stubSource
	notifier *recordingNotifier
	app      *app.App
}

func testServer(t *testing.T) *testEnv {
	t.Helper()
	src := &stubSource{byDate: map[string][]models.FareOffer{
		"2025-12-01": {
			offer("1", travelDate, "120", 1, 9),
			offer("2", travelDate, "100", 0, 6),
		},
		"2025-12-02": {offer("3", travelDate.AddDate(0, 0, 1), "80", 0, 7)},
	}}
	cfg := &config.Config{
		LLM:     config.LLMConfig{OpenAIKey: "sk-abcdef1234567890xyz"},
		Booking: config.BookingConfig{Currency: "INR", TaxRate: fare.DefaultTaxRate, MaxResults: 5},
	}
	ledger := booking.NewLedger()
	a := &app.App{
		Config:    cfg,
		Directory: airports.Default(),
		Source:    src,
		Converter: currency.NewConverter(nil, nil),
		Ledger:    ledger,
		Confirmer: booking.NewDemoConfirmer(
			booking.WithLedger(ledger),
			booking.WithReferenceFunc(func() string { return "PNR001" }),
			booking.WithClock(clock),
		),
		Fare: fare.NewCalculator(fare.DefaultTaxRate, "INR"),
	}
	rec := &recordingNotifier{}
	a.AddNotifier(rec)

	srv := NewServer(a, WithClock(clock))
	go srv.Hub().Run()
	return &testEnv{srv: srv, source: src, notifier: rec, app: a}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

// decodeData decodes the envelope's data into v.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success, got error %q", resp.Error)
	}
	if err := json.Unmarshal(resp.Data, v); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
}

func bookingBody(o models.FareOffer) BookingRequest {
	return BookingRequest{
		Offer: o,
		Passengers: []PassengerInput{{
			FirstName: "Asha",
			LastName:  "Rao",
			Gender:    "f",
			Email:     "asha@example.com",
			Phone:     "+91-9876543210",
			IDType:    "AADHAAR",
			IDNumber:  "1234 5678 9012",
		}},
	}
}

// ════════════════════════════════════════════════════════════════════
// Health & metrics
// ════════════════════════════════════════════════════════════════════

func TestHealth(t *testing.T) {
	env := testServer(t)
	rec := env.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var data map[string]interface{}
	decodeData(t, rec, &data)
	if data["status"] != "ok" || data["inventory"] != "stub" || data["currency"] != "INR" {
		t.Errorf("health = %v", data)
	}
	if data["llm"] != false {
		t.Errorf("llm = %v, want false", data["llm"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := testServer(t)
	env.do(t, http.MethodGet, "/api/v1/health", nil)

	rec := env.do(t, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "flightdesk_http_requests_total") {
		t.Error("metrics should include the HTTP request counter")
	}
	if !strings.Contains(body, `route="/api/v1/health"`) {
		t.Error("requests should be labelled by route pattern")
	}
}

// ════════════════════════════════════════════════════════════════════
// Airports
// ════════════════════════════════════════════════════════════════════

func TestAirports(t *testing.T) {
	env := testServer(t)

	t.Run("by city", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/airports?city=mumbai", nil)
		var list []models.Airport
		decodeData(t, rec, &list)
		if len(list) == 0 || list[0].Code != "BOM" {
			t.Errorf("airports = %+v", list)
		}
	})

	t.Run("by country", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/airports?country=India", nil)
		var list []models.Airport
		decodeData(t, rec, &list)
		for _, a := range list {
			if a.Country != "India" {
				t.Errorf("unexpected airport %+v", a)
			}
		}
		if len(list) < 2 {
			t.Errorf("got %d Indian airports", len(list))
		}
	})

	t.Run("unknown city is an empty list", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/airports?city=Atlantis", nil)
		var list []models.Airport
		decodeData(t, rec, &list)
		if len(list) != 0 {
			t.Errorf("airports = %+v", list)
		}
	})

	t.Run("by code", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/airports/del", nil)
		var a models.Airport
		decodeData(t, rec, &a)
		if a.Code != "DEL" || a.City != "Delhi" {
			t.Errorf("airport = %+v", a)
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/airports/ZZZ", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

// ════════════════════════════════════════════════════════════════════
// Pricing
// ════════════════════════════════════════════════════════════════════

func TestConvert(t *testing.T) {
	env := testServer(t)
	rec := env.do(t, http.MethodPost, "/api/v1/convert", ConvertRequest{
		Amount: decimal.NewFromInt(100), From: "usd", To: "inr",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var got ConvertResponse
	decodeData(t, rec, &got)
	if !got.Amount.Equal(decimal.RequireFromString("8312")) {
		t.Errorf("amount = %s, want 8312", got.Amount)
	}
	if !got.Degraded || got.Source != currency.SourceFallback {
		t.Errorf("expected fallback conversion, got %+v", got)
	}
	if got.From != "USD" || got.To != "INR" {
		t.Errorf("codes = %s→%s", got.From, got.To)
	}
	if !strings.Contains(got.Formatted, "8,312.00") {
		t.Errorf("formatted = %q", got.Formatted)
	}
}

func TestConvertValidation(t *testing.T) {
	env := testServer(t)
	tests := []struct {
		name string
		body interface{}
	}{
		{"missing codes", ConvertRequest{Amount: decimal.NewFromInt(1)}},
		{"negative amount", ConvertRequest{Amount: decimal.NewFromInt(-1), From: "USD", To: "INR"}},
		{"bad json", "not an object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/convert", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if resp := decodeResponse(t, rec); resp.Success || resp.Error == "" {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}

func TestCurrencies(t *testing.T) {
	env := testServer(t)
	rec := env.do(t, http.MethodGet, "/api/v1/currencies", nil)
	var list []map[string]string
	decodeData(t, rec, &list)
	found := false
	for _, c := range list {
		if c["code"] == "INR" {
			found = c["symbol"] == "₹"
		}
	}
	if !found {
		t.Errorf("INR missing or wrong symbol in %v", list)
	}
}

func TestRatesWithoutSource(t *testing.T) {
	env := testServer(t)
	rec := env.do(t, http.MethodGet, "/api/v1/rates", nil)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestFareBreakdown(t *testing.T) {
	env := testServer(t)

	rec := env.do(t, http.MethodPost, "/api/v1/fare/breakdown", FareRequest{Base: decimal.RequireFromString("8312")})
	var bd models.TicketPriceBreakdown
	decodeData(t, rec, &bd)
	if !bd.Tax.Equal(decimal.RequireFromString("1496.16")) || !bd.Total.Equal(decimal.RequireFromString("9808.16")) {
		t.Errorf("breakdown = %+v", bd)
	}
	if bd.Currency != "INR" {
		t.Errorf("currency = %q, want INR", bd.Currency)
	}

	zero := 0.0
	rec = env.do(t, http.MethodPost, "/api/v1/fare/breakdown", FareRequest{Base: decimal.NewFromInt(50), TaxRate: &zero, Currency: "usd"})
	decodeData(t, rec, &bd)
	if !bd.Total.Equal(decimal.NewFromInt(50)) || bd.Currency != "USD" {
		t.Errorf("zero-rate breakdown = %+v", bd)
	}

	negative := -5.0
	rec = env.do(t, http.MethodPost, "/api/v1/fare/breakdown", FareRequest{Base: decimal.NewFromInt(50), TaxRate: &negative})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative rate status = %d, want 400", rec.Code)
	}
}

// ════════════════════════════════════════════════════════════════════
// Identity
// ════════════════════════════════════════════════════════════════════

func TestIdentityNormalize(t *testing.T) {
	env := testServer(t)
	tests := []struct {
		name       string
		req        IdentityRequest
		wantStatus int
		wantNorm   string
	}{
		{"aadhaar spaces", IdentityRequest{Type: "AADHAAR", Number: "1234 5678 9012"}, http.StatusOK, "1234-5678-9012"},
		{"menu choice", IdentityRequest{Type: "2", Number: "P1234567"}, http.StatusOK, "P1234567"},
		{"short aadhaar", IdentityRequest{Type: "1", Number: "1234"}, http.StatusBadRequest, ""},
		{"letters", IdentityRequest{Type: "AADHAAR", Number: "1234-5678-901A"}, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/identity/normalize", tt.req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var id models.PassengerIdentity
			decodeData(t, rec, &id)
			if id.Normalized != tt.wantNorm {
				t.Errorf("normalized = %q, want %q", id.Normalized, tt.wantNorm)
			}
		})
	}
}

// ════════════════════════════════════════════════════════════════════
// Search
// ════════════════════════════════════════════════════════════════════

func TestSearchRanksAndConverts(t *testing.T) {
	env := testServer(t)
	rec := env.do(t, http.MethodPost, "/api/v1/search", SearchRequest{
		Origin: "Mumbai", Destination: "DEL", Date: "2025-12-01", Hint: "cheapest please",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var got SearchResponse
	decodeData(t, rec, &got)

	if got.Request.OriginCode != "BOM" || got.Request.DestinationCode != "DEL" || got.Request.Adults != 1 {
		t.Errorf("request = %+v", got.Request)
	}
	if got.Preference != models.PreferPrice {
		t.Errorf("preference = %q, want price", got.Preference)
	}
	if got.Currency != "INR" || !got.Degraded {
		t.Errorf("currency = %q degraded = %v", got.Currency, got.Degraded)
	}
	if len(got.Ordered) != 2 || got.Ordered[0].ID != "2" || got.Ordered[1].ID != "1" {
		t.Fatalf("ordered = %+v", got.Ordered)
	}
	if !got.Ordered[0].Price.Equal(decimal.RequireFromString("8312")) || got.Ordered[0].Currency != "INR" {
		t.Errorf("first offer price = %s %s", got.Ordered[0].Price, got.Ordered[0].Currency)
	}
	if q := got.Ordered[0].Quoted(); q.Currency != "USD" || !q.Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("quoted = %+v", q)
	}
	if len(got.Alternatives) != 1 || got.Alternatives[0].Offer.ID != "3" {
		t.Errorf("alternatives = %+v", got.Alternatives)
	}
	if !strings.Contains(got.Table, "8,312.00") {
		t.Errorf("table should show converted prices:\n%s", got.Table)
	}
	if n := env.source.queryCount(); n != 3 {
		t.Errorf("source queried %d times, want 3", n)
	}
}

func TestSearchUSDKeepsQuotedPrices(t *testing.T) {
	env := testServer(t)
	rec := env.do(t, http.MethodPost, "/api/v1/search", SearchRequest{
		Origin: "BOM", Destination: "DEL", Date: "2025-12-01", Currency: "usd",
	})
	var got SearchResponse
	decodeData(t, rec, &got)
	if got.Currency != "USD" || got.Degraded {
		t.Errorf("currency = %q degraded = %v", got.Currency, got.Degraded)
	}
	if !got.Ordered[0].Price.Equal(decimal.NewFromInt(100)) {
		t.Errorf("price = %s, want 100", got.Ordered[0].Price)
	}
}

func TestSearchErrors(t *testing.T) {
	tests := []struct {
		name       string
		req        SearchRequest
		sourceErr  error
		wantStatus int
	}{
		{"missing date", SearchRequest{Origin: "BOM", Destination: "DEL"}, nil, http.StatusBadRequest},
		{"bad date", SearchRequest{Origin: "BOM", Destination: "DEL", Date: "01/12/2025"}, nil, http.StatusBadRequest},
		{"past date", SearchRequest{Origin: "BOM", Destination: "DEL", Date: "2025-10-01"}, nil, http.StatusBadRequest},
		{"unknown city", SearchRequest{Origin: "Atlantis", Destination: "DEL", Date: "2025-12-01"}, nil, http.StatusNotFound},
		{"no flights", SearchRequest{Origin: "BOM", Destination: "DEL", Date: "2025-12-20"}, nil, http.StatusNotFound},
		{
			"inventory down",
			SearchRequest{Origin: "BOM", Destination: "DEL", Date: "2025-12-01"},
			fmt.Errorf("%w: amadeus timeout", models.ErrExternalService),
			http.StatusBadGateway,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testServer(t)
			env.source.err = tt.sourceErr
			rec := env.do(t, http.MethodPost, "/api/v1/search", tt.req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

// ════════════════════════════════════════════════════════════════════
// Bookings
// ════════════════════════════════════════════════════════════════════

func TestCreateBooking(t *testing.T) {
	env := testServer(t)
	rec := env.do(t, http.MethodPost, "/api/v1/bookings", bookingBody(offer("2", travelDate, "100", 0, 6)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var got BookingResponse
	decodeData(t, rec, &got)

	c := got.Confirmation
	if c == nil || c.Reference != "PNR001" || c.Status != models.BookingConfirmed {
		t.Fatalf("confirmation = %+v", c)
	}
	if !c.Breakdown.Total.Equal(decimal.NewFromInt(118)) || c.Breakdown.Currency != "USD" {
		t.Errorf("breakdown = %+v", c.Breakdown)
	}
	p := c.Passengers[0]
	if p.Gender != "F" || p.ID.Normalized != "1234-5678-9012" {
		t.Errorf("passenger = %+v", p)
	}
	if !strings.Contains(got.Ticket, "PNR001") || !strings.Contains(got.Message, "PNR001") {
		t.Error("ticket and message should carry the reference")
	}

	env.notifier.mu.Lock()
	events := env.notifier.events
	env.notifier.mu.Unlock()
	if len(events) != 1 || events[0].Reference != "PNR001" || events[0].Type != notify.EventBookingConfirmed {
		t.Errorf("events = %+v", events)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/bookings/PNR001", nil)
	var fetched BookingResponse
	decodeData(t, rec, &fetched)
	if fetched.Confirmation.Reference != "PNR001" {
		t.Errorf("fetched = %+v", fetched.Confirmation)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/bookings", nil)
	var logs []models.BookingLog
	decodeData(t, rec, &logs)
	if len(logs) != 1 || logs[0].Reference != "PNR001" || logs[0].Route != "BOM-DEL" {
		t.Errorf("ledger = %+v", logs)
	}
}

func TestCreateBookingErrors(t *testing.T) {
	good := offer("2", travelDate, "100", 0, 6)

	noSegments := good
	noSegments.Segments = nil

	badID := bookingBody(good)
	badID.Passengers[0].IDNumber = "12"

	noPassengers := bookingBody(good)
	noPassengers.Passengers = nil

	badEmail := bookingBody(good)
	badEmail.Passengers[0].Email = "not-an-email"

	one := 1
	full := good
	full.SeatsAvailable = &one
	twoPassengers := bookingBody(full)
	twoPassengers.Passengers = append(twoPassengers.Passengers, twoPassengers.Passengers[0])

	tests := []struct {
		name string
		body BookingRequest
	}{
		{"missing offer", BookingRequest{}},
		{"no segments", bookingBody(noSegments)},
		{"invalid id", badID},
		{"no passengers", noPassengers},
		{"invalid email", badEmail},
		{"not enough seats", twoPassengers},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testServer(t)
			rec := env.do(t, http.MethodPost, "/api/v1/bookings", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
			if len(env.notifier.events) != 0 {
				t.Error("failed bookings must not notify")
			}
		})
	}
}

func TestBookingLookups(t *testing.T) {
	env := testServer(t)

	rec := env.do(t, http.MethodGet, "/api/v1/bookings/NOPE01", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown reference status = %d, want 404", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/bookings?limit=abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/bookings?limit=5", nil)
	var logs []models.BookingLog
	decodeData(t, rec, &logs)
	if len(logs) != 0 {
		t.Errorf("ledger = %+v", logs)
	}
}

// ════════════════════════════════════════════════════════════════════
// Configuration
// ════════════════════════════════════════════════════════════════════

func TestGetConfigIsRedacted(t *testing.T) {
	env := testServer(t)
	rec := env.do(t, http.MethodGet, "/api/v1/config", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "sk-abcdef1234567890xyz") {
		t.Error("config response leaked the OpenAI key")
	}
	if !strings.Contains(body, "sk-...xyz") {
		t.Error("config response should carry the masked key")
	}
	if env.app.Config.LLM.OpenAIKey != "sk-abcdef1234567890xyz" {
		t.Error("redaction modified the running config")
	}
}

func TestGetConfigKeys(t *testing.T) {
	env := testServer(t)
	rec := env.do(t, http.MethodGet, "/api/v1/config/keys", nil)
	var keys []config.KeyStatus
	decodeData(t, rec, &keys)
	if len(keys) != 3 {
		t.Fatalf("got %d keys, want 3", len(keys))
	}
	if !keys[0].IsSet || keys[1].IsSet {
		t.Errorf("keys = %+v", keys)
	}
}

// ════════════════════════════════════════════════════════════════════
// Errors
// ════════════════════════════════════════════════════════════════════

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", models.ErrValidation), http.StatusBadRequest},
		{models.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: down", models.ErrExternalService), http.StatusBadGateway},
		{models.ErrUserCancelled, http.StatusConflict},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

// ════════════════════════════════════════════════════════════════════
// WebSocket
// ════════════════════════════════════════════════════════════════════

func TestHubNotify(t *testing.T) {
	hub := NewWSHub()
	go hub.Run()

	client := &WSClient{hub: hub, send: make(chan WSMessage, 4)}
	hub.Register(client)

	c := &models.BookingConfirmation{Reference: "PNR777"}
	if err := hub.Notify(context.Background(), notify.NewBookingEvent(c, "hi")); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	select {
	case msg := <-client.send:
		ev, ok := msg.Data.(notify.Event)
		if msg.Type != notify.EventBookingConfirmed || !ok || ev.Reference != "PNR777" {
			t.Errorf("message = %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
	}

	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount = %d, want 1", hub.ClientCount())
	}
	hub.Unregister(client)
	if _, ok := <-client.send; ok {
		t.Error("send channel should be closed after Unregister")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	env := testServer(t)
	hub := env.srv.Hub()

	client := &WSClient{hub: hub, send: make(chan WSMessage, 1)}
	hub.Register(client)
	for i := 0; i < 3; i++ {
		if err := hub.Broadcast(context.Background(), WSMessage{Type: "flood"}); err != nil {
			t.Fatalf("Broadcast: %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for !client.isClosed() {
		if time.Now().After(deadline) {
			t.Fatal("slow client was not dropped")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// A request arriving after the drop must not write to the closed channel.
	env.srv.replyWS(client, []byte(`{"type":"ping"}`))
	env.srv.replyWS(client, []byte(`{"type":"recent"}`))
	if client.trySend(WSMessage{Type: "pong"}) {
		t.Error("trySend should refuse a dropped client")
	}
	hub.Unregister(client)
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0", hub.ClientCount())
	}
}

func TestHubNotifyRespectsContext(t *testing.T) {
	hub := NewWSHub() // not running: the broadcast buffer fills up
	for i := 0; i < cap(hub.broadcast); i++ {
		hub.broadcast <- WSMessage{Type: "filler"}
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := hub.Notify(ctx, notify.Event{Type: notify.EventBookingConfirmed})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestWebSocketStream(t *testing.T) {
	env := testServer(t)
	ts := httptest.NewServer(env.srv.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	if err := conn.WriteJSON(WSMessage{Type: "ping"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != "pong" {
		t.Fatalf("ping reply = %+v, err = %v", msg, err)
	}

	data, _ := json.Marshal(bookingBody(offer("2", travelDate, "100", 0, 6)))
	resp, err := http.Post(ts.URL+"/api/v1/bookings", "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post booking: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("booking status = %d", resp.StatusCode)
	}

	var ev struct {
		Type string       `json:"type"`
		Data notify.Event `json:"data"`
	}
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Type != notify.EventBookingConfirmed || ev.Data.Reference != "PNR001" {
		t.Errorf("event = %+v", ev)
	}

	if err := conn.WriteJSON(WSMessage{Type: "recent"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var recent struct {
		Type string              `json:"type"`
		Data []models.BookingLog `json:"data"`
	}
	if err := conn.ReadJSON(&recent); err != nil {
		t.Fatalf("read recent: %v", err)
	}
	if recent.Type != "recent" || len(recent.Data) != 1 {
		t.Errorf("recent = %+v", recent)
	}
}
