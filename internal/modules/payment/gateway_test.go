package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func signPayload(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	g := NewGateway("rzp_test_key", "secret123")

	sig := signPayload("secret123", "order_1", "pay_live_1")
	if !g.VerifySignature("order_1", "pay_live_1", sig) {
		t.Fatal("valid signature rejected")
	}
	if g.VerifySignature("order_1", "pay_live_1", "deadbeef") {
		t.Fatal("forged signature accepted")
	}
	// signing a different order must not verify
	if g.VerifySignature("order_2", "pay_live_1", sig) {
		t.Fatal("signature bound to the wrong order accepted")
	}
	// wrong secret
	other := signPayload("othersecret", "order_1", "pay_live_1")
	if g.VerifySignature("order_1", "pay_live_1", other) {
		t.Fatal("signature under the wrong secret accepted")
	}
}

func TestVerifySignatureSandboxBypass(t *testing.T) {
	g := NewGateway("rzp_test_key", "secret123")

	if !g.VerifySignature("order_1", "pay_test_abc", "anything") {
		t.Fatal("sandbox payment must skip verification")
	}
}
