// Package upstream is the REST client for the inventory backend this
// gateway fronts. The backend owns all stock arithmetic, persistence and
// authorization; this client only moves JSON and maps failures onto the
// gateway's error codes.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/quayline/stockdesk-backend/pkg/config"
	pkgerrors "github.com/quayline/stockdesk-backend/pkg/errors"
)

type credsKey struct{}

// WithCredentials stashes the caller's Cookie header so every upstream
// call carries the browser session verbatim. The gateway never inspects
// the session itself.
func WithCredentials(ctx context.Context, cookie string) context.Context {
	if cookie == "" {
		return ctx
	}
	return context.WithValue(ctx, credsKey{}, cookie)
}

func credentialsFrom(ctx context.Context) string {
	if v, ok := ctx.Value(credsKey{}).(string); ok {
		return v
	}
	return ""
}

// Client talks to the inventory backend.
type Client struct {
	base          *url.URL
	http          *http.Client
	secondaryPath string
}

// NewClient validates the configuration and builds a client.
func NewClient(cfg config.UpstreamConfig) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing upstream base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("upstream base url must be absolute, got %q", cfg.BaseURL)
	}
	secondary := cfg.Secondary
	if secondary == "" {
		secondary = "/api/shenzhen/stock"
	}
	return &Client{
		base:          base,
		http:          &http.Client{Timeout: cfg.Timeout},
		secondaryPath: secondary,
	}, nil
}

// Stock lists the primary-pool lots for the active tenant.
func (c *Client) Stock(ctx context.Context) ([]StockLot, error) {
	var lots []StockLot
	if err := c.get(ctx, "/api/stock", &lots); err != nil {
		return nil, err
	}
	return lots, nil
}

// SecondaryStock lists the secondary-pool lots (the remote warehouse).
func (c *Client) SecondaryStock(ctx context.Context) ([]StockLot, error) {
	var lots []StockLot
	if err := c.get(ctx, c.secondaryPath, &lots); err != nil {
		return nil, err
	}
	return lots, nil
}

// Products lists the tenant's product catalog for select population.
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.get(ctx, "/api/products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// CurrentMerchant resolves the active tenant for the session.
func (c *Client) CurrentMerchant(ctx context.Context) (*Merchant, error) {
	var payload struct {
		Success  bool      `json:"success"`
		Message  string    `json:"message"`
		Merchant *Merchant `json:"merchant"`
	}
	if err := c.get(ctx, "/api/merchants/current", &payload); err != nil {
		return nil, err
	}
	if !payload.Success || payload.Merchant == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, nonEmpty(payload.Message, "no active merchant"))
	}
	return payload.Merchant, nil
}

// UpdateStockFields sends a partial update keyed by product id.
func (c *Client) UpdateStockFields(ctx context.Context, update StockFieldUpdate) error {
	return c.post(ctx, "/api/stock/update", update)
}

// RecordIncoming writes one incoming line.
func (c *Client) RecordIncoming(ctx context.Context, line IncomingLine) error {
	return c.post(ctx, "/api/incoming", line)
}

// RecordOutgoing writes one outgoing line.
func (c *Client) RecordOutgoing(ctx context.Context, line OutgoingLine) error {
	return c.post(ctx, "/api/outgoing", line)
}

// Relocate asks the backend for a direct single-lot move.
func (c *Client) Relocate(ctx context.Context, req RelocateRequest) error {
	return c.post(ctx, "/api/stock/relocate", req)
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, dest)
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode upstream payload")
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	var status statusResponse
	if err := c.do(req, &status); err != nil {
		return err
	}
	// The backend reports some failures inside a 200 body.
	if status.failed() {
		return pkgerrors.New(pkgerrors.CodeUpstream, nonEmpty(status.failureMessage(), "upstream reported failure"))
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	target := c.base.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build upstream request")
	}
	req.Header.Set("Accept", "application/json")
	if cookie := credentialsFrom(ctx); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, fmt.Sprintf("%s %s", req.Method, req.URL.Path))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return pkgerrors.New(pkgerrors.CodeUnauthenticated, "upstream session rejected")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return pkgerrors.New(pkgerrors.CodeUpstream, upstreamMessage(resp)).
			WithDetails(map[string]any{"status": resp.StatusCode, "path": req.URL.Path})
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode upstream response")
	}
	return nil
}

func upstreamMessage(resp *http.Response) string {
	var payload statusResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&payload); err == nil {
		if msg := payload.failureMessage(); msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("upstream returned %s", strings.ToLower(resp.Status))
}

func nonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
