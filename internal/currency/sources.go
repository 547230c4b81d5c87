package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/flightdesk/internal/infra"
	"github.com/seenimoa/flightdesk/pkg/models"
)

// RateSource fetches a full exchange-rate table. The returned table may be
// in a different base than requested; the converter re-bases it.
type RateSource interface {
	Name() string
	Rates(ctx context.Context, base string) (*models.ExchangeRateTable, error)
}

// DefaultAPIURL is the exchangerate-api compatible endpoint.
const DefaultAPIURL = "https://open.er-api.com/v6/latest"

// --- JSON API ---

// HTTPSource reads exchangerate-api style JSON from {url}/{base}.
type HTTPSource struct {
	url     string
	client  *http.Client
	limiter *infra.RateLimiter
}

// NewHTTPSource creates a JSON API source. An empty url uses DefaultAPIURL.
func NewHTTPSource(apiURL string, client *http.Client) *HTTPSource {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &HTTPSource{
		url:     strings.TrimRight(apiURL, "/"),
		client:  client,
		limiter: infra.NewRateLimiter(5, time.Second),
	}
}

func (s *HTTPSource) Name() string { return "exchangerate-api" }

type apiResponse struct {
	Result    string             `json:"result"`
	BaseCode  string             `json:"base_code"`
	Rates     map[string]float64 `json:"rates"`
	ErrorType string             `json:"error-type"`
}

func (s *HTTPSource) Rates(ctx context.Context, base string) (*models.ExchangeRateTable, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	base = strings.ToUpper(base)
	body, err := infra.Get(ctx, s.client, s.url+"/"+base, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var resp apiResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode rates: %w", err)
	}
	if resp.Result != "success" {
		return nil, fmt.Errorf("rates api returned %q (%s)", resp.Result, resp.ErrorType)
	}
	if len(resp.Rates) == 0 {
		return nil, errors.New("rates api returned an empty table")
	}
	if resp.BaseCode == "" {
		resp.BaseCode = base
	}
	return &models.ExchangeRateTable{
		Base:   strings.ToUpper(resp.BaseCode),
		Rates:  normalizeRates(resp.Rates),
		Source: s.Name(),
	}, nil
}

// --- ECB RSS feed ---

// ecbTitleRe matches "1.0876 USD = 1 EUR 2025-01-02 ECB Reference rate".
var ecbTitleRe = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s+([A-Z]{3})\s*=\s*1\s+([A-Z]{3})`)

// FeedSource reads ECB reference-rate RSS feeds. Every item carries one
// quote against EUR, so several feeds (or one combined feed) are merged
// into a single EUR-based table.
type FeedSource struct {
	urls   []string
	parser *gofeed.Parser
}

// NewFeedSource creates a feed source over the given RSS URLs.
func NewFeedSource(urls ...string) *FeedSource {
	return &FeedSource{urls: urls, parser: gofeed.NewParser()}
}

func (s *FeedSource) Name() string { return "ecb-rss" }

func (s *FeedSource) Rates(ctx context.Context, _ string) (*models.ExchangeRateTable, error) {
	if len(s.urls) == 0 {
		return nil, errors.New("no feed urls configured")
	}
	t := &models.ExchangeRateTable{Rates: make(map[string]float64), Source: s.Name()}
	var errs []error
	for _, u := range s.urls {
		feed, err := s.parser.ParseURLWithContext(u, ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("parse feed %s: %w", u, err))
			continue
		}
		mergeFeed(t, feed)
	}
	if len(t.Rates) == 0 {
		errs = append(errs, errors.New("no rates found in feeds"))
		return nil, errors.Join(errs...)
	}
	return t, nil
}

// mergeFeed adds every quote found in the feed's item titles.
func mergeFeed(t *models.ExchangeRateTable, feed *gofeed.Feed) {
	for _, item := range feed.Items {
		m := ecbTitleRe.FindStringSubmatch(item.Title)
		if m == nil {
			continue
		}
		rate, err := strconv.ParseFloat(m[1], 64)
		if err != nil || rate <= 0 {
			continue
		}
		if t.Base == "" {
			t.Base = m[3]
		}
		if m[3] != t.Base {
			continue
		}
		t.Rates[m[2]] = rate
	}
}

// --- HTML rate table ---

// TableSource scrapes an x-rates style HTML table. Each row links to a
// pair page whose query string names the quote currency (to=XXX); the
// second cell holds units per one base.
type TableSource struct {
	url    string
	client *http.Client
}

// NewTableSource creates a scraper for pageURL. The base currency is sent
// as the "from" query parameter.
func NewTableSource(pageURL string, client *http.Client) *TableSource {
	return &TableSource{url: pageURL, client: client}
}

func (s *TableSource) Name() string { return "rate-table" }

func (s *TableSource) Rates(ctx context.Context, base string) (*models.ExchangeRateTable, error) {
	base = strings.ToUpper(base)
	u, err := url.Parse(s.url)
	if err != nil {
		return nil, fmt.Errorf("parse table url: %w", err)
	}
	q := u.Query()
	q.Set("from", base)
	q.Set("amount", "1")
	u.RawQuery = q.Encode()

	body, err := infra.Get(ctx, s.client, u.String(), map[string]string{"Accept": "text/html"})
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return parseRateTable(body, base)
}

func parseRateTable(r io.Reader, base string) (*models.ExchangeRateTable, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse rate table HTML: %w", err)
	}
	t := &models.ExchangeRateTable{Base: base, Rates: make(map[string]float64), Source: "rate-table"}
	doc.Find("table.tablesorter tr").Each(func(_ int, row *goquery.Selection) {
		cell := row.Find("td").Eq(1)
		href, ok := cell.Find("a").Attr("href")
		if !ok {
			return
		}
		link, err := url.Parse(href)
		if err != nil {
			return
		}
		code := strings.ToUpper(link.Query().Get("to"))
		if len(code) != 3 {
			return
		}
		rate, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(cell.Text()), ",", ""), 64)
		if err != nil || rate <= 0 {
			return
		}
		t.Rates[code] = rate
	})
	if len(t.Rates) == 0 {
		return nil, errors.New("no rates found in table")
	}
	return t, nil
}

// --- Chain ---

// ChainSource tries each source in order and returns the first success.
type ChainSource struct {
	sources []RateSource
}

// NewChainSource creates a chain. Nil sources are skipped.
func NewChainSource(sources ...RateSource) *ChainSource {
	c := &ChainSource{}
	for _, s := range sources {
		if s != nil {
			c.sources = append(c.sources, s)
		}
	}
	return c
}

func (c *ChainSource) Name() string {
	names := make([]string, len(c.sources))
	for i, s := range c.sources {
		names[i] = s.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

func (c *ChainSource) Rates(ctx context.Context, base string) (*models.ExchangeRateTable, error) {
	var errs []error
	for _, s := range c.sources {
		t, err := s.Rates(ctx, base)
		if err == nil {
			if t.Source == "" {
				t.Source = s.Name()
			}
			return t, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no rate sources configured", models.ErrExternalService)
	}
	return nil, fmt.Errorf("%w: %w", models.ErrExternalService, errors.Join(errs...))
}
