package melhorenvio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/vitrine-backend/pkg/errors"
	"github.com/sony/gobreaker"
)

const (
	SandboxBaseURL    = "https://sandbox.melhorenvio.com.br"
	ProductionBaseURL = "https://melhorenvio.com.br"

	defaultTimeout = 20 * time.Second

	errorBodyLimit   int64 = 64 << 10
	successBodyLimit int64 = 4 << 20
)

var errTokenRequired = errors.New("melhor envio token is required")

// Recorder receives one observation per upstream call.
type Recorder interface {
	Observe(operation string, status int, elapsed time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) Observe(string, int, time.Duration) {}

// Client calls the Melhor Envio v2 API on behalf of one tenant token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userAgent  string
	breaker    *gobreaker.CircuitBreaker
	metrics    Recorder
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the host selected from the sandbox flag.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

// WithBreaker routes every call through cb.
func WithBreaker(cb *gobreaker.CircuitBreaker) Option {
	return func(c *Client) {
		c.breaker = cb
	}
}

func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.metrics = r
		}
	}
}

// BaseURL picks the API host for the environment flag.
func BaseURL(sandbox bool) string {
	if sandbox {
		return SandboxBaseURL
	}
	return ProductionBaseURL
}

// NewClient builds a client for token. userAgent must identify the
// integration as "App Name (contact@email)".
func NewClient(token string, sandbox bool, userAgent string, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errTokenRequired
	}

	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    BaseURL(sandbox),
		token:      token,
		userAgent:  userAgent,
		metrics:    noopRecorder{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// do sends one request. Non-2xx answers become *APIError wrapped as a
// dependency error carrying the upstream status and body.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode "+op+" request")
		}
		payload = b
	}

	start := time.Now()
	status := 0
	data, err := c.execute(func() ([]byte, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		status = resp.StatusCode
		if status < 200 || status >= 300 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
			return nil, &APIError{StatusCode: status, Body: strings.TrimSpace(string(msg))}
		}
		return io.ReadAll(io.LimitReader(resp.Body, successBodyLimit))
	})
	c.metrics.Observe(op, status, time.Since(start))

	if err != nil {
		if apiErr, ok := AsAPIError(err); ok {
			return pkgerrors.Upstream(apiErr, "melhor envio "+op+" failed", apiErr.StatusCode, apiErr.Body)
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "melhor envio temporarily unavailable")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "melhor envio "+op+" request")
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode melhor envio "+op+" response")
	}
	return nil
}

func (c *Client) execute(fn func() ([]byte, error)) ([]byte, error) {
	if c.breaker == nil {
		return fn()
	}
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	data, _ := res.([]byte)
	return data, nil
}

// Calculate quotes every service for the parcel set.
func (c *Client) Calculate(ctx context.Context, req CalculateRequest) ([]Quote, error) {
	var quotes []Quote
	if err := c.do(ctx, "calculate", http.MethodPost, "/api/v2/me/shipment/calculate", req, &quotes); err != nil {
		return nil, err
	}
	return quotes, nil
}

// AddToCart creates a pending shipment for one order.
func (c *Client) AddToCart(ctx context.Context, req CartRequest) (*CartItem, error) {
	var item CartItem
	if err := c.do(ctx, "cart", http.MethodPost, "/api/v2/me/cart", req, &item); err != nil {
		return nil, err
	}
	if item.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "melhor envio cart response missing shipment id")
	}
	return &item, nil
}

type ordersPayload struct {
	Orders []string `json:"orders"`
}

// Checkout pays for the shipments with the account balance.
func (c *Client) Checkout(ctx context.Context, shipmentIDs ...string) (*Purchase, error) {
	var resp CheckoutResponse
	if err := c.do(ctx, "checkout", http.MethodPost, "/api/v2/me/shipment/checkout", ordersPayload{Orders: shipmentIDs}, &resp); err != nil {
		return nil, err
	}
	return &resp.Purchase, nil
}

// Generate asks the carrier to produce labels for purchased shipments.
func (c *Client) Generate(ctx context.Context, shipmentIDs ...string) (map[string]GenerateResult, error) {
	out := map[string]GenerateResult{}
	if err := c.do(ctx, "generate", http.MethodPost, "/api/v2/me/shipment/generate", ordersPayload{Orders: shipmentIDs}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Print returns a durable URL for the label PDF.
func (c *Client) Print(ctx context.Context, shipmentIDs ...string) (string, error) {
	payload := struct {
		Mode   string   `json:"mode"`
		Orders []string `json:"orders"`
	}{Mode: "private", Orders: shipmentIDs}

	var resp PrintResponse
	if err := c.do(ctx, "print", http.MethodPost, "/api/v2/me/shipment/print", payload, &resp); err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "melhor envio print response missing url")
	}
	return resp.URL, nil
}

// Tracking fetches the carrier status of the shipments, keyed by shipment id.
func (c *Client) Tracking(ctx context.Context, shipmentIDs ...string) (map[string]Tracking, error) {
	out := map[string]Tracking{}
	if err := c.do(ctx, "tracking", http.MethodPost, "/api/v2/me/shipment/tracking", ordersPayload{Orders: shipmentIDs}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel voids a shipment that has not been posted yet.
func (c *Client) Cancel(ctx context.Context, shipmentID, reason string) (map[string]CancelResult, error) {
	if reason == "" {
		reason = "cancelled by store"
	}
	payload := struct {
		Order struct {
			ID          string `json:"id"`
			ReasonID    string `json:"reason_id"`
			Description string `json:"description"`
		} `json:"order"`
	}{}
	payload.Order.ID = shipmentID
	payload.Order.ReasonID = "2"
	payload.Order.Description = reason

	out := map[string]CancelResult{}
	if err := c.do(ctx, "cancel", http.MethodPost, "/api/v2/me/shipment/cancel", payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAddresses returns the sender addresses registered on the account.
func (c *Client) ListAddresses(ctx context.Context) ([]Address, error) {
	var page addressPage
	if err := c.do(ctx, "addresses", http.MethodGet, "/api/v2/me/addresses", nil, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// GetAddress loads one registered sender address.
func (c *Client) GetAddress(ctx context.Context, id string) (*Address, error) {
	var addr Address
	path := fmt.Sprintf("/api/v2/me/addresses/%s", url.PathEscape(strings.TrimSpace(id)))
	if err := c.do(ctx, "address", http.MethodGet, path, nil, &addr); err != nil {
		return nil, err
	}
	return &addr, nil
}

// ListServices returns every service the account may quote.
func (c *Client) ListServices(ctx context.Context) ([]Service, error) {
	var services []Service
	if err := c.do(ctx, "services", http.MethodGet, "/api/v2/me/shipment/services", nil, &services); err != nil {
		return nil, err
	}
	return services, nil
}
