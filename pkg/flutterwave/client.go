package flutterwave

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stuvendor/stuvendor-backend/pkg/config"
	"github.com/stuvendor/stuvendor-backend/pkg/logger"
)

const transfersPath = "/transfers"

var (
	errSecretRequired = errors.New("flutterwave secret is required")
	errLoggerRequired = errors.New("flutterwave logger is required")

	// ErrTransferTimeout marks transport timeouts so callers can distinguish
	// "provider said no" from "provider never answered".
	ErrTransferTimeout = errors.New("flutterwave transfer timed out")

	// ErrTransferRejected marks an explicit provider-side rejection.
	ErrTransferRejected = errors.New("flutterwave transfer rejected")
)

// TransferParams describes one outbound bank transfer.
type TransferParams struct {
	BankCode      string
	AccountNumber string
	Amount        decimal.Decimal
	Currency      string
	Reference     string
	Narration     string
}

// TransferResult carries the provider's acknowledgment of a transfer.
type TransferResult struct {
	ProviderID string
	Status     string
}

// Client wraps the Flutterwave transfer API with centralized auth, logging,
// bounded timeouts, and error classification.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secret     string
	currency   string
	logger     *logger.Logger
}

// NewClient initializes the Flutterwave wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.FlutterwaveConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errSecretRequired
	}

	timeout := cfg.TransferTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.flutterwave.com/v3"
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		secret:     secret,
		currency:   strings.ToUpper(strings.TrimSpace(cfg.Currency)),
		logger:     logg,
	}

	logg.Info(ctx, "flutterwave client initialized")
	return c, nil
}

// Currency returns the configured settlement currency.
func (c *Client) Currency() string {
	if c == nil {
		return ""
	}
	return c.currency
}

type transferRequest struct {
	AccountBank   string `json:"account_bank"`
	AccountNumber string `json:"account_number"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Reference     string `json:"reference"`
	Narration     string `json:"narration"`
}

type transferResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

// Transfer initiates a bank transfer and classifies the outcome.
func (c *Client) Transfer(ctx context.Context, params TransferParams) (*TransferResult, error) {
	if params.BankCode == "" || params.AccountNumber == "" {
		return nil, fmt.Errorf("bank code and account number are required")
	}
	if params.Reference == "" {
		return nil, fmt.Errorf("transfer reference is required")
	}
	if !params.Amount.IsPositive() {
		return nil, fmt.Errorf("transfer amount must be positive")
	}

	currency := params.Currency
	if currency == "" {
		currency = c.currency
	}

	payload := transferRequest{
		AccountBank:   params.BankCode,
		AccountNumber: params.AccountNumber,
		Amount:        params.Amount.String(),
		Currency:      currency,
		Reference:     params.Reference,
		Narration:     params.Narration,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding transfer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+transfersPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building transfer request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	req.Header.Set("Content-Type", "application/json")

	c.log(ctx, "request", "create_transfer", map[string]any{
		"reference": params.Reference,
		"currency":  currency,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.log(ctx, "error", "create_transfer", map[string]any{"error": "timeout", "reference": params.Reference})
			return nil, fmt.Errorf("%w: %v", ErrTransferTimeout, err)
		}
		c.log(ctx, "error", "create_transfer", map[string]any{"error": err.Error(), "reference": params.Reference})
		return nil, fmt.Errorf("calling transfer api: %w", err)
	}
	defer resp.Body.Close()

	var decoded transferResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding transfer response: %w", err)
	}

	if resp.StatusCode >= 400 || !strings.EqualFold(decoded.Status, "success") {
		c.log(ctx, "error", "create_transfer", map[string]any{
			"http_status": resp.StatusCode,
			"status":      decoded.Status,
			"message":     decoded.Message,
			"reference":   params.Reference,
		})
		return nil, fmt.Errorf("%w: %s", ErrTransferRejected, decoded.Message)
	}

	result := &TransferResult{
		ProviderID: decoded.Data.ID.String(),
		Status:     decoded.Status,
	}
	c.log(ctx, "response", "create_transfer", map[string]any{
		"transfer_id": result.ProviderID,
		"reference":   params.Reference,
	})
	return result, nil
}

func (c *Client) log(ctx context.Context, stage, operation string, fields map[string]any) {
	if c.logger == nil {
		return
	}
	merged := map[string]any{"provider": "flutterwave", "stage": stage, "operation": operation}
	for k, v := range fields {
		merged[k] = v
	}
	c.logger.Info(c.logger.WithFields(ctx, merged), "flutterwave."+operation)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
