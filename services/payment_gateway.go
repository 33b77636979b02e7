package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/arco-atelier/arco-api/config"
	"go.uber.org/zap"
)

// PaymentStatusDone is the gateway status of an approved payment
const PaymentStatusDone = "DONE"

// Payment is the gateway's view of a confirmed payment
type Payment struct {
	PaymentKey  string `json:"paymentKey"`
	OrderID     string `json:"orderId"`
	OrderName   string `json:"orderName"`
	Status      string `json:"status"`
	Method      string `json:"method"`
	TotalAmount int64  `json:"totalAmount"`
	ApprovedAt  string `json:"approvedAt"`
}

// PaymentGateway confirms and refunds card payments
type PaymentGateway interface {
	Confirm(ctx context.Context, paymentKey, orderID string, amount int64) (*Payment, error)
	Cancel(ctx context.Context, paymentKey, reason string) error
}

// TossPayments is the PaymentGateway backed by the Toss Payments REST API
type TossPayments struct {
	baseURL    string
	authHeader string
	httpClient *http.Client
	log        *zap.Logger
}

// NewTossPayments creates a gateway client authenticated with the secret key
func NewTossPayments(cfg *config.Config, log *zap.Logger) *TossPayments {
	token := base64.StdEncoding.EncodeToString([]byte(cfg.TossSecretKey + ":"))
	return &TossPayments{
		baseURL:    cfg.TossAPIURL,
		authHeader: "Basic " + token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// Confirm approves a payment the customer authorized in the payment widget
func (t *TossPayments) Confirm(ctx context.Context, paymentKey, orderID string, amount int64) (*Payment, error) {
	body := map[string]any{
		"paymentKey": paymentKey,
		"orderId":    orderID,
		"amount":     amount,
	}

	var payment Payment
	if err := t.post(ctx, "/v1/payments/confirm", body, &payment); err != nil {
		return nil, err
	}

	t.log.Info("Payment confirmed",
		zap.String("order_id", payment.OrderID),
		zap.String("status", payment.Status),
		zap.Int64("amount", payment.TotalAmount),
	)
	return &payment, nil
}

// Cancel refunds the full amount of a payment
func (t *TossPayments) Cancel(ctx context.Context, paymentKey, reason string) error {
	path := fmt.Sprintf("/v1/payments/%s/cancel", url.PathEscape(paymentKey))
	if err := t.post(ctx, path, map[string]any{"cancelReason": reason}, nil); err != nil {
		return err
	}

	t.log.Info("Payment cancelled", zap.String("payment_key", paymentKey), zap.String("reason", reason))
	return nil
}

func (t *TossPayments) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", t.authHeader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		gwErr := &GatewayError{StatusCode: resp.StatusCode}
		if jsonErr := json.Unmarshal(raw, gwErr); jsonErr != nil || gwErr.Code == "" {
			gwErr.Code = "UNKNOWN_GATEWAY_ERROR"
			gwErr.Message = string(raw)
		}
		t.log.Warn("Payment gateway rejected request",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("code", gwErr.Code),
		)
		return gwErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return nil
}
