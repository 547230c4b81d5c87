package infra

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// UserAgent identifies flightdesk on outbound requests.
const UserAgent = "flightdesk/1.0 (+https://github.com/seenimoa/flightdesk)"

// HTTPClient is the shared outbound client.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}

// HTTPError is returned for responses with status >= 400.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// Do sends a request with default headers and returns the body of a
// successful response. The caller closes the body.
func Do(ctx context.Context, client *http.Client, method, url string, body io.Reader, headers map[string]string) (io.ReadCloser, error) {
	if client == nil {
		client = HTTPClient
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json, text/html, */*")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP %s %s: %w", method, url, err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(b),
		}
	}
	return resp.Body, nil
}

// Get is Do with GET and no body.
func Get(ctx context.Context, client *http.Client, url string, headers map[string]string) (io.ReadCloser, error) {
	return Do(ctx, client, http.MethodGet, url, nil, headers)
}
