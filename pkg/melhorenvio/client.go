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

	"github.com/blackbass-labs/blackbass-backend/pkg/config"
	pkgerrors "github.com/blackbass-labs/blackbass-backend/pkg/errors"
	"github.com/blackbass-labs/blackbass-backend/pkg/logger"
)

const (
	defaultBaseURL           = "https://sandbox.melhorenvio.com.br"
	errorBodyReadLimit int64 = 2048
)

var (
	errCredentialsRequired = errors.New("melhor envio client id and secret are required")
	errLoggerRequired      = errors.New("melhor envio logger is required")
)

// Client wraps the Melhor Envio shipping aggregator API. OAuth token
// endpoints authenticate with Basic credentials; every other call carries a
// per-store Bearer token supplied by the caller.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	clientID     string
	clientSecret string
	redirectURL  string
	userAgent    string
	logger       *logger.Logger
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

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the Melhor Envio client from configuration.
func NewClient(cfg config.MelhorEnvioConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, errCredentialsRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      defaultBaseURL,
		clientID:     strings.TrimSpace(cfg.ClientID),
		clientSecret: strings.TrimSpace(cfg.ClientSecret),
		redirectURL:  strings.TrimSpace(cfg.RedirectURL),
		userAgent:    strings.TrimSpace(cfg.UserAgent),
		logger:       logg,
	}
	if cfg.BaseURL != "" {
		client.baseURL = strings.TrimSpace(cfg.BaseURL)
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// AuthorizeURL builds the user-facing OAuth authorization URL for the given
// opaque state.
func (c *Client) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.clientID)
	q.Set("redirect_uri", c.redirectURL)
	q.Set("response_type", "code")
	q.Set("scope", "cart-read cart-write shipping-calculate shipping-checkout shipping-generate shipping-print shipping-tracking")
	q.Set("state", state)
	return fmt.Sprintf("%s/oauth/authorize?%s", strings.TrimRight(c.baseURL, "/"), q.Encode())
}

// ExchangeCode trades an authorization code for a token pair.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "authorization code is required")
	}
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.redirectURL)
	return c.tokenRequest(ctx, "exchange_code", form)
}

// Refresh trades a refresh token for a fresh token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refresh token is required")
	}
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return c.tokenRequest(ctx, "refresh_token", form)
}

func (c *Client) tokenRequest(ctx context.Context, op string, form url.Values) (*TokenResponse, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "melhor envio client not configured")
	}

	c.log(ctx, "request", op, nil)

	endpoint := strings.TrimRight(c.baseURL, "/") + "/oauth/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build token request")
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	c.setUserAgent(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(ctx, "error", op, map[string]any{"error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute token request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		c.log(ctx, "error", op, map[string]any{"error": cause.Error()})
		return nil, pkgerrors.Wrap(codeForStatus(resp.StatusCode), cause, "token request failed")
	}

	var token TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode token response")
	}
	if token.AccessToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "token response missing access token")
	}

	c.log(ctx, "response", op, map[string]any{"expires_in": token.ExpiresIn})
	return &token, nil
}

// Quote calculates shipping options for a shipment sketch.
func (c *Client) Quote(ctx context.Context, accessToken string, req QuoteRequest) ([]QuoteOption, error) {
	var options []QuoteOption
	if err := c.do(ctx, accessToken, http.MethodPost, "/api/v2/me/shipment/calculate", req, &options); err != nil {
		return nil, err
	}
	return options, nil
}

// CartInsert adds a shipment to the aggregator cart and returns its id.
func (c *Client) CartInsert(ctx context.Context, accessToken string, req CartRequest) (*CartItem, error) {
	if req.Service <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping service id is required")
	}
	if len(req.Products) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart shipment requires products")
	}

	c.log(ctx, "request", "cart_insert", map[string]any{
		"service":  req.Service,
		"products": len(req.Products),
	})

	var item CartItem
	if err := c.do(ctx, accessToken, http.MethodPost, "/api/v2/me/cart", req, &item); err != nil {
		c.log(ctx, "error", "cart_insert", map[string]any{"error": err.Error()})
		return nil, err
	}
	if item.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart insert returned no shipment id")
	}

	c.log(ctx, "response", "cart_insert", map[string]any{"shipment_id": item.ID})
	return &item, nil
}

// Checkout purchases the given cart shipments.
func (c *Client) Checkout(ctx context.Context, accessToken string, orderIDs []string) (*CheckoutResponse, error) {
	if len(orderIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout requires order ids")
	}

	c.log(ctx, "request", "checkout", map[string]any{"orders": len(orderIDs)})

	var out CheckoutResponse
	body := map[string]any{"orders": orderIDs}
	if err := c.do(ctx, accessToken, http.MethodPost, "/api/v2/me/shipment/checkout", body, &out); err != nil {
		c.log(ctx, "error", "checkout", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "checkout", map[string]any{"purchase_id": out.Purchase.ID})
	return &out, nil
}

// GenerateLabels asks the aggregator to render labels for purchased orders.
func (c *Client) GenerateLabels(ctx context.Context, accessToken string, orderIDs []string) error {
	if len(orderIDs) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "generate requires order ids")
	}

	c.log(ctx, "request", "generate_labels", map[string]any{"orders": len(orderIDs)})

	body := map[string]any{"orders": orderIDs}
	if err := c.do(ctx, accessToken, http.MethodPost, "/api/v2/me/shipment/generate", body, nil); err != nil {
		c.log(ctx, "error", "generate_labels", map[string]any{"error": err.Error()})
		return err
	}
	return nil
}

// PrintLabels returns a public URL for the rendered labels.
func (c *Client) PrintLabels(ctx context.Context, accessToken string, orderIDs []string) (*PrintResponse, error) {
	if len(orderIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "print requires order ids")
	}

	c.log(ctx, "request", "print_labels", map[string]any{"orders": len(orderIDs)})

	body := map[string]any{"mode": "public", "orders": orderIDs}
	var out PrintResponse
	if err := c.do(ctx, accessToken, http.MethodPost, "/api/v2/me/shipment/print", body, &out); err != nil {
		c.log(ctx, "error", "print_labels", map[string]any{"error": err.Error()})
		return nil, err
	}
	if out.URL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "print returned no label url")
	}

	c.log(ctx, "response", "print_labels", nil)
	return &out, nil
}

// Track fetches tracking snapshots for the given aggregator order ids.
func (c *Client) Track(ctx context.Context, accessToken string, orderIDs []string) (map[string]TrackingInfo, error) {
	if len(orderIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking requires order ids")
	}

	body := map[string]any{"orders": orderIDs}
	out := map[string]TrackingInfo{}
	if err := c.do(ctx, accessToken, http.MethodPost, "/api/v2/me/shipment/tracking", body, &out); err != nil {
		c.log(ctx, "error", "track", map[string]any{"error": err.Error()})
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, accessToken, method, path string, body any, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "melhor envio client not configured")
	}
	if strings.TrimSpace(accessToken) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "store shipping token is required")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal melhor envio request")
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := strings.TrimRight(c.baseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build melhor envio request")
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setUserAgent(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute melhor envio request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		return pkgerrors.Wrap(codeForStatus(resp.StatusCode), cause, "melhor envio request failed")
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode melhor envio response")
	}
	return nil
}

func (c *Client) setUserAgent(req *http.Request) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("melhorenvio %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("melhorenvio %s", phase))
	}
}

func codeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusUnprocessableEntity:
		return pkgerrors.CodeValidation
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}
