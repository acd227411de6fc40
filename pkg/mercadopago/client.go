package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/blackbass-labs/blackbass-backend/pkg/config"
	pkgerrors "github.com/blackbass-labs/blackbass-backend/pkg/errors"
	"github.com/blackbass-labs/blackbass-backend/pkg/logger"
)

const (
	defaultBaseURL             = "https://api.mercadopago.com"
	errorBodyReadLimit   int64 = 2048
	paymentFetchRetries        = 3
	paymentFetchBackoff        = 500 * time.Millisecond
)

var (
	errAccessTokenRequired = errors.New("mercado pago access token is required")
	errLoggerRequired      = errors.New("mercado pago logger is required")
)

// Client wraps the Mercado Pago REST surface used by checkout and webhooks.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	logger      *logger.Logger
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

// NewClient builds the Mercado Pago client from configuration.
func NewClient(cfg config.MercadoPagoConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, errAccessTokenRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := &Client{
		accessToken: token,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logg,
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

// CreatePreference registers a redirect-mode checkout preference.
func (c *Client) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mercado pago client not configured")
	}
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "preference requires at least one item")
	}

	c.log(ctx, "request", "create_preference", map[string]any{
		"items":              len(req.Items),
		"external_reference": req.ExternalReference,
	})

	var pref Preference
	if err := c.do(ctx, http.MethodPost, "/checkout/preferences", req, &pref, nil); err != nil {
		c.log(ctx, "error", "create_preference", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_preference", map[string]any{"preference_id": pref.ID})
	return &pref, nil
}

// GetPayment fetches the authoritative payment record. Transient failures
// are retried with exponential backoff because webhook handling depends on
// this read.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mercado pago client not configured")
	}
	id := strings.TrimSpace(paymentID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}

	c.log(ctx, "request", "get_payment", map[string]any{"payment_id": id})

	var payment Payment
	backoff := retry.WithMaxRetries(paymentFetchRetries, retry.NewExponential(paymentFetchBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.do(ctx, http.MethodGet, "/v1/payments/"+id, nil, &payment, nil)
		if err == nil {
			return nil
		}
		if te := pkgerrors.As(err); te != nil && te.Code() == pkgerrors.CodeDependency {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		c.log(ctx, "error", "get_payment", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "get_payment", map[string]any{
		"payment_id": payment.ID,
		"status":     payment.Status,
	})
	return &payment, nil
}

// CreateDirectPayment charges a card token synchronously.
func (c *Client) CreateDirectPayment(ctx context.Context, req DirectPaymentRequest) (*Payment, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mercado pago client not configured")
	}
	if strings.TrimSpace(req.Token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "card token is required")
	}
	if req.TransactionAmount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction amount must be positive")
	}

	c.log(ctx, "request", "create_payment", map[string]any{
		"amount":            req.TransactionAmount,
		"payment_method_id": req.PaymentMethodID,
		"installments":      req.Installments,
	})

	headers := map[string]string{"X-Idempotency-Key": uuid.NewString()}
	var payment Payment
	if err := c.do(ctx, http.MethodPost, "/v1/payments", req, &payment, headers); err != nil {
		c.log(ctx, "error", "create_payment", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_payment", map[string]any{
		"payment_id": payment.ID,
		"status":     payment.Status,
	})
	return &payment, nil
}

// GetPreapproval fetches a recurring-payment authorization.
func (c *Client) GetPreapproval(ctx context.Context, preapprovalID string) (*Preapproval, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mercado pago client not configured")
	}
	id := strings.TrimSpace(preapprovalID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "preapproval id is required")
	}

	var pre Preapproval
	if err := c.do(ctx, http.MethodGet, "/preapproval/"+id, nil, &pre, nil); err != nil {
		c.log(ctx, "error", "get_preapproval", map[string]any{"error": err.Error()})
		return nil, err
	}
	return &pre, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal mercado pago request")
		}
		reader = bytes.NewReader(payload)
	}

	url := strings.TrimRight(c.baseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build mercado pago request")
	}

	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute mercado pago request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		return pkgerrors.Wrap(domainCodeForStatus(resp.StatusCode), cause, "mercado pago request failed")
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode mercado pago response")
	}
	return nil
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
		logFields[k] = redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("mercadopago %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("mercadopago %s", phase))
	}
}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"card", "token", "cvv", "secret", "email", "phone", "cpf", "cnpj"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	case http.StatusUnprocessableEntity:
		return pkgerrors.CodeStateConflict
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}
