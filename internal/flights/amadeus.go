package flights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/flightdesk/internal/infra"
	"github.com/seenimoa/flightdesk/pkg/models"
	"github.com/seenimoa/flightdesk/pkg/utils"
)

// Amadeus hosts.
const (
	AmadeusTestURL       = "https://test.api.amadeus.com"
	AmadeusProductionURL = "https://api.amadeus.com"
)

// tokenSkew is subtracted from expires_in so a token is never used right
// at its expiry.
const tokenSkew = 300 * time.Second

// ErrNotConfigured is returned when Amadeus credentials are missing.
var ErrNotConfigured = errors.New("flights: amadeus credentials not configured")

// AmadeusClient searches the Amadeus flight-offers API using OAuth2
// client credentials.
type AmadeusClient struct {
	apiKey    string
	apiSecret string
	baseURL   string
	client    *http.Client
	limiter   *infra.RateLimiter
	now       infra.Clock

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// AmadeusOption configures an AmadeusClient.
type AmadeusOption func(*AmadeusClient)

// WithBaseURL overrides the API host.
func WithBaseURL(u string) AmadeusOption {
	return func(c *AmadeusClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(h *http.Client) AmadeusOption {
	return func(c *AmadeusClient) { c.client = h }
}

// WithRateLimiter replaces the default limiter.
func WithRateLimiter(rl *infra.RateLimiter) AmadeusOption {
	return func(c *AmadeusClient) { c.limiter = rl }
}

// WithClock sets the time source used for token expiry.
func WithClock(clock infra.Clock) AmadeusOption {
	return func(c *AmadeusClient) {
		if clock != nil {
			c.now = clock
		}
	}
}

// NewAmadeusClient creates a client. hostname is "test" (default) or
// "production".
func NewAmadeusClient(apiKey, apiSecret, hostname string, opts ...AmadeusOption) *AmadeusClient {
	base := AmadeusTestURL
	if strings.EqualFold(hostname, "production") {
		base = AmadeusProductionURL
	}
	c := &AmadeusClient{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   base,
		client:    &http.Client{Timeout: 30 * time.Second},
		// The test tier allows 10 transactions per second.
		limiter: infra.NewRateLimiter(10, 100*time.Millisecond),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *AmadeusClient) Name() string { return "amadeus" }

// IsConfigured reports whether credentials are present.
func (c *AmadeusClient) IsConfigured() bool {
	return c.apiKey != "" && c.apiSecret != ""
}

type tokenResponse struct {
	TokenType   string `json:"token_type"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// Token returns a cached access token, fetching a new one when the cached
// token is missing or within five minutes of expiry.
func (c *AmadeusClient) Token(ctx context.Context) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && c.now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.apiKey)
	form.Set("client_secret", c.apiSecret)

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	body, err := infra.Do(ctx, c.client, http.MethodPost, c.baseURL+"/v1/security/oauth2/token",
		strings.NewReader(form.Encode()),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"})
	if err != nil {
		return "", fmt.Errorf("%w: amadeus token: %v", models.ErrExternalService, err)
	}
	defer body.Close()

	var tr tokenResponse
	if err := json.NewDecoder(body).Decode(&tr); err != nil {
		return "", fmt.Errorf("%w: decode amadeus token: %v", models.ErrExternalService, err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("%w: amadeus returned an empty token", models.ErrExternalService)
	}

	c.accessToken = tr.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(tr.ExpiresIn)*time.Second - tokenSkew)
	log.Printf("flights/amadeus: access token obtained, expires in %ds", tr.ExpiresIn)
	return c.accessToken, nil
}

func (c *AmadeusClient) invalidateToken() {
	c.mu.Lock()
	c.accessToken = ""
	c.mu.Unlock()
}

// Search queries /v2/shopping/flight-offers for one date.
func (c *AmadeusClient) Search(ctx context.Context, q Query) ([]models.FareOffer, error) {
	q = q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, err
	}
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("originLocationCode", q.Origin)
	params.Set("destinationLocationCode", q.Destination)
	params.Set("departureDate", utils.FormatDate(q.Date))
	params.Set("adults", strconv.Itoa(q.Adults))
	params.Set("travelClass", string(q.TravelClass))
	params.Set("max", strconv.Itoa(q.MaxResults))
	if q.Currency != "" {
		params.Set("currencyCode", q.Currency)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	body, err := infra.Get(ctx, c.client, c.baseURL+"/v2/shopping/flight-offers?"+params.Encode(),
		map[string]string{"Authorization": "Bearer " + token})
	if err != nil {
		var he *infra.HTTPError
		if errors.As(err, &he) {
			switch he.StatusCode {
			case http.StatusBadRequest:
				// Amadeus answers 400 for dates/routes it has no inventory for.
				log.Printf("flights/amadeus: no offers for %s-%s on %s: %s",
					q.Origin, q.Destination, utils.FormatDate(q.Date), he.Body)
				return []models.FareOffer{}, nil
			case http.StatusUnauthorized:
				c.invalidateToken()
			}
		}
		return nil, fmt.Errorf("%w: amadeus search: %v", models.ErrExternalService, err)
	}
	defer body.Close()

	offers, err := parseOffers(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrExternalService, err)
	}
	log.Printf("flights/amadeus: %d offers for %s-%s on %s",
		len(offers), q.Origin, q.Destination, utils.FormatDate(q.Date))
	return offers, nil
}

// --- Response parsing ---

type offersResponse struct {
	Data         []amadeusOffer `json:"data"`
	Dictionaries struct {
		Carriers map[string]string `json:"carriers"`
	} `json:"dictionaries"`
}

type amadeusOffer struct {
	ID                    string `json:"id"`
	NumberOfBookableSeats *int   `json:"numberOfBookableSeats"`
	Price                 struct {
		Total    string `json:"total"`
		Currency string `json:"currency"`
	} `json:"price"`
	Itineraries []struct {
		Duration string           `json:"duration"`
		Segments []amadeusSegment `json:"segments"`
	} `json:"itineraries"`
	TravelerPricings []struct {
		FareDetailsBySegment []struct {
			Cabin string `json:"cabin"`
		} `json:"fareDetailsBySegment"`
	} `json:"travelerPricings"`
}

type amadeusSegment struct {
	CarrierCode string          `json:"carrierCode"`
	Number      string          `json:"number"`
	Departure   amadeusEndpoint `json:"departure"`
	Arrival     amadeusEndpoint `json:"arrival"`
	Aircraft    struct {
		Code string `json:"code"`
	} `json:"aircraft"`
}

type amadeusEndpoint struct {
	IATACode string `json:"iataCode"`
	At       string `json:"at"`
}

const amadeusTimeLayout = "2006-01-02T15:04:05"

func parseOffers(r io.Reader) ([]models.FareOffer, error) {
	var resp offersResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode flight offers: %w", err)
	}
	offers := make([]models.FareOffer, 0, len(resp.Data))
	for _, raw := range resp.Data {
		o, err := convertOffer(raw, resp.Dictionaries.Carriers)
		if err != nil {
			log.Printf("flights/amadeus: skipping offer %s: %v", raw.ID, err)
			continue
		}
		offers = append(offers, o)
	}
	return offers, nil
}

func convertOffer(raw amadeusOffer, carriers map[string]string) (models.FareOffer, error) {
	price, err := decimal.NewFromString(raw.Price.Total)
	if err != nil {
		return models.FareOffer{}, fmt.Errorf("price %q: %w", raw.Price.Total, err)
	}
	if len(raw.Itineraries) == 0 {
		return models.FareOffer{}, errors.New("no itineraries")
	}
	itin := raw.Itineraries[0]

	segs := make([]models.FlightSegment, 0, len(itin.Segments))
	for _, s := range itin.Segments {
		dep, err := time.Parse(amadeusTimeLayout, s.Departure.At)
		if err != nil {
			return models.FareOffer{}, fmt.Errorf("departure time: %w", err)
		}
		arr, err := time.Parse(amadeusTimeLayout, s.Arrival.At)
		if err != nil {
			return models.FareOffer{}, fmt.Errorf("arrival time: %w", err)
		}
		name := carriers[s.CarrierCode]
		if name == "" {
			name = s.CarrierCode
		}
		segs = append(segs, models.FlightSegment{
			CarrierCode:  s.CarrierCode,
			CarrierName:  utils.TitleCarrier(name),
			FlightNumber: s.Number,
			Origin:       s.Departure.IATACode,
			Destination:  s.Arrival.IATACode,
			Departure:    dep,
			Arrival:      arr,
			Aircraft:     s.Aircraft.Code,
		})
	}
	if err := models.ValidateSegments(segs); err != nil {
		return models.FareOffer{}, err
	}

	dur, err := utils.ParseISODuration(itin.Duration)
	if err != nil {
		dur = segs[len(segs)-1].Arrival.Sub(segs[0].Departure)
	}

	class := models.Economy
	if len(raw.TravelerPricings) > 0 && len(raw.TravelerPricings[0].FareDetailsBySegment) > 0 {
		class = models.ParseFareClass(raw.TravelerPricings[0].FareDetailsBySegment[0].Cabin)
	}

	return models.FareOffer{
		ID:             raw.ID,
		Price:          price,
		Currency:       strings.ToUpper(raw.Price.Currency),
		Segments:       segs,
		Duration:       dur,
		Stops:          len(segs) - 1,
		FareClass:      class,
		SeatsAvailable: raw.NumberOfBookableSeats,
	}, nil
}
