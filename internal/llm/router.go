package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/flightdesk/internal/config"
)

// Router sends requests to a primary provider, retrying transient
// failures and falling back to the other registered providers.
type Router struct {
	mu         sync.RWMutex
	providers  map[string]LLMProvider
	primary    string
	fallbacks  []string
	maxRetries int
	retryDelay time.Duration
}

// RouterOption configures the router.
type RouterOption func(*Router)

// WithFallbacks sets the fallback provider chain.
func WithFallbacks(providers ...string) RouterOption {
	return func(r *Router) { r.fallbacks = providers }
}

// WithMaxRetries sets the number of retries per provider.
func WithMaxRetries(n int) RouterOption {
	return func(r *Router) { r.maxRetries = n }
}

// WithRetryDelay sets the base delay between retries; attempt n waits n
// times this delay.
func WithRetryDelay(d time.Duration) RouterOption {
	return func(r *Router) { r.retryDelay = d }
}

// NewRouter creates a router with the given primary provider name.
func NewRouter(primary string, opts ...RouterOption) *Router {
	r := &Router{
		providers:  make(map[string]LLMProvider),
		primary:    primary,
		maxRetries: 2,
		retryDelay: time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterProvider adds a provider to the router.
func (r *Router) RegisterProvider(provider LLMProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
}

// GetProvider returns a registered provider by name.
func (r *Router) GetProvider(name string) (LLMProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Primary returns the primary provider.
func (r *Router) Primary() (LLMProvider, error) {
	p, ok := r.GetProvider(r.primary)
	if !ok {
		return nil, fmt.Errorf("%w: primary provider %q not registered", ErrNoProviders, r.primary)
	}
	return p, nil
}

// Name satisfies LLMProvider.
func (r *Router) Name() string { return "router/" + r.primary }

// Models returns the primary provider's models.
func (r *Router) Models() []string {
	p, err := r.Primary()
	if err != nil {
		return nil
	}
	return p.Models()
}

// Ping checks the primary provider.
func (r *Router) Ping(ctx context.Context) error {
	p, err := r.Primary()
	if err != nil {
		return err
	}
	return p.Ping(ctx)
}

// Chat tries each provider in the chain, retrying transient errors.
func (r *Router) Chat(ctx context.Context, messages []Message, tools []Tool, opts *ChatOptions) (*Response, error) {
	var lastErr error = ErrNoProviders
	for _, p := range r.chain() {
		resp, err := r.chatWithRetry(ctx, p, messages, tools, opts)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if isNonRetryable(err) {
			return nil, err
		}
		log.Printf("llm/router: provider %s failed: %v, trying next", p.Name(), err)
	}
	return nil, fmt.Errorf("llm/router: all providers failed: %w", lastErr)
}

// ChatStream opens a stream on the first provider that accepts it.
func (r *Router) ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan StreamChunk, error) {
	var lastErr error = ErrNoProviders
	for _, p := range r.chain() {
		ch, err := p.ChatStream(ctx, messages, opts)
		if err == nil {
			return ch, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("llm/router: stream provider %s failed: %v, trying next", p.Name(), err)
	}
	return nil, fmt.Errorf("llm/router: all stream providers failed: %w", lastErr)
}

// HealthCheck pings every registered provider concurrently.
func (r *Router) HealthCheck(ctx context.Context) map[string]error {
	r.mu.RLock()
	providers := make([]LLMProvider, 0, len(r.providers))
	for _, p := range r.providers {
		providers = append(providers, p)
	}
	r.mu.RUnlock()

	results := make(map[string]error, len(providers))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range providers {
		g.Go(func() error {
			pingCtx, cancel := context.WithTimeout(gctx, 10*time.Second)
			defer cancel()
			err := p.Ping(pingCtx)
			mu.Lock()
			results[p.Name()] = err
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// ── Internal Helpers ──

func (r *Router) chain() []LLMProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := append([]string{r.primary}, r.fallbacks...)
	seen := make(map[string]bool, len(names))
	out := make([]LLMProvider, 0, len(names))
	for _, n := range names {
		p, ok := r.providers[n]
		if !ok || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, p)
	}
	return out
}

func (r *Router) chatWithRetry(ctx context.Context, p LLMProvider, messages []Message, tools []Tool, opts *ChatOptions) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.retryDelay * time.Duration(attempt)):
			}
		}
		resp, err := p.Chat(ctx, messages, tools, opts)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if isNonRetryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

// isNonRetryable reports errors that another attempt cannot fix.
func isNonRetryable(err error) bool {
	return errors.Is(err, ErrNoAPIKey) ||
		errors.Is(err, ErrInvalidModel) ||
		errors.Is(err, ErrContextLength)
}

// NewRouterFromConfig registers every provider the configuration enables.
// The configured primary comes first; any other available provider is a
// fallback.
func NewRouterFromConfig(cfg config.LLMConfig) (*Router, error) {
	router := NewRouter(cfg.Primary, WithMaxRetries(2), WithRetryDelay(time.Second))
	var fallbacks []string

	if cfg.OpenAIKey != "" {
		model := ""
		if cfg.Primary == ProviderOpenAI {
			model = cfg.Model
		}
		p, err := NewOpenAIProvider(cfg.OpenAIKey, WithOpenAIModel(model))
		if err == nil {
			router.RegisterProvider(p)
			if cfg.Primary != ProviderOpenAI {
				fallbacks = append(fallbacks, ProviderOpenAI)
			}
		}
	}

	if cfg.OllamaURL != "" {
		model := ""
		if cfg.Primary == ProviderOllama {
			model = cfg.Model
		}
		router.RegisterProvider(NewOllamaProvider(cfg.OllamaURL, WithOllamaModel(model)))
		if cfg.Primary != ProviderOllama {
			fallbacks = append(fallbacks, ProviderOllama)
		}
	}

	if len(router.providers) == 0 {
		return nil, ErrNoProviders
	}
	if _, ok := router.providers[cfg.Primary]; !ok {
		// Promote the first fallback so Primary() works.
		router.primary = fallbacks[0]
		fallbacks = fallbacks[1:]
	}
	router.fallbacks = fallbacks
	return router, nil
}
