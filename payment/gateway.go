// Package payment talks to the card/UPI payment gateway. Without API keys it
// runs in mock mode: gateway order ids are generated locally and signatures
// are not checked.
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/37vikanshu-dot/Mini-Drop/circuitbreaker"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

var (
	ErrInvalidSignature = errors.New("payment signature mismatch")
	ErrGateway          = errors.New("payment gateway error")
)

type Config struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Timeout   time.Duration
}

type Gateway struct {
	cfg     Config
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
	now     func() time.Time
	logger  *zap.Logger
}

func NewGateway(cfg Config, logger *zap.Logger) *Gateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Gateway{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: circuitbreaker.NewCircuitBreaker("payment-gateway", 5, 30*time.Second),
		now:     time.Now,
		logger:  logger,
	}
}

// Mock reports whether orders are created locally.
func (g *Gateway) Mock() bool {
	return g.cfg.KeyID == "" || g.cfg.KeySecret == ""
}

// KeyID is handed to the client so it can open the gateway checkout.
func (g *Gateway) KeyID() string {
	if g.cfg.KeyID == "" {
		return "test_key"
	}
	return g.cfg.KeyID
}

type orderRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	PaymentCapture int    `json:"payment_capture"`
}

type orderResponse struct {
	ID string `json:"id"`
}

// CreateOrder registers amountPaise with the gateway and returns its order id.
func (g *Gateway) CreateOrder(ctx context.Context, amountPaise int64) (string, error) {
	if g.Mock() {
		return fmt.Sprintf("order_mock_%d", g.now().Unix()), nil
	}

	body, err := json.Marshal(orderRequest{
		Amount:         amountPaise,
		Currency:       "INR",
		Receipt:        fmt.Sprintf("rcpt_%d", g.now().Unix()),
		PaymentCapture: 1,
	})
	if err != nil {
		return "", err
	}

	var out orderResponse
	err = g.breaker.Execute(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/orders", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.SetBasicAuth(g.cfg.KeyID, g.cfg.KeySecret)
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return fmt.Errorf("%w: status %d", ErrGateway, resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&out)
	})
	if err != nil {
		g.logger.Error("Payment gateway order creation failed", zap.Int64("amount_paise", amountPaise), zap.Error(err))
		if errors.Is(err, ErrGateway) {
			return "", fmt.Errorf("create gateway order: %w", err)
		}
		return "", fmt.Errorf("create gateway order: %w: %v", ErrGateway, err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("%w: empty order id", ErrGateway)
	}
	return out.ID, nil
}

// Verify checks the callback signature, HMAC-SHA256 over
// "<gateway order id>|<payment id>" keyed with the secret. Verification is
// skipped when no secret is configured.
func (g *Gateway) Verify(orderID, paymentID, signature string) error {
	if g.cfg.KeySecret == "" {
		return nil
	}
	expected := Sign(g.cfg.KeySecret, orderID, paymentID)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
