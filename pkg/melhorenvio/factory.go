package melhorenvio

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/angelmondragon/vitrine-backend/pkg/config"
	"github.com/sony/gobreaker"
)

// Factory builds per-tenant clients that share one HTTP client and one
// circuit breaker per host.
type Factory struct {
	cfg        config.MelhorEnvioConfig
	httpClient *http.Client
	recorder   Recorder

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewFactory returns a Factory. recorder may be nil.
func NewFactory(cfg config.MelhorEnvioConfig, recorder Recorder, httpClient *http.Client) *Factory {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Factory{
		cfg:        cfg,
		httpClient: httpClient,
		recorder:   recorder,
		breakers:   map[string]*gobreaker.CircuitBreaker{},
	}
}

// Client returns a client for the tenant token on the selected environment.
func (f *Factory) Client(token string, sandbox bool) (*Client, error) {
	base := f.baseURL(sandbox)
	return NewClient(token, sandbox, f.cfg.UserAgent(),
		WithBaseURL(base),
		WithHTTPClient(f.httpClient),
		WithBreaker(f.breaker(base)),
		WithRecorder(f.recorder),
	)
}

func (f *Factory) baseURL(sandbox bool) string {
	if sandbox && f.cfg.SandboxBaseURL != "" {
		return f.cfg.SandboxBaseURL
	}
	if !sandbox && f.cfg.ProductionURL != "" {
		return f.cfg.ProductionURL
	}
	return BaseURL(sandbox)
}

func (f *Factory) breaker(host string) *gobreaker.CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cb, ok := f.breakers[host]; ok {
		return cb
	}
	cb := NewBreaker(host, f.cfg)
	f.breakers[host] = cb
	return cb
}

// NewBreaker trips after consecutive transport failures or 5xx answers.
// Rejections such as 4xx validation errors never count against the host.
func NewBreaker(name string, cfg config.MelhorEnvioConfig) *gobreaker.CircuitBreaker {
	maxFails := cfg.BreakerMaxFails
	if maxFails == 0 {
		maxFails = 5
	}
	openFor := cfg.BreakerOpenFor
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	halfOpen := cfg.BreakerHalfOpen
	if halfOpen == 0 {
		halfOpen = 1
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: halfOpen,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFails
		},
		IsSuccessful: countsAsSuccess,
	})
}

func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	if apiErr, ok := AsAPIError(err); ok {
		return !apiErr.Retryable()
	}
	return false
}
