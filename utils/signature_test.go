package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestComputePaymentSignature(t *testing.T) {
	t.Parallel()

	// Independently computed HMAC-SHA256 over "gw_1|pay_1" with key "secret".
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte("gw_1|pay_1"))
	want := hex.EncodeToString(mac.Sum(nil))

	got := ComputePaymentSignature("gw_1", "pay_1", "secret")
	if got != want {
		t.Errorf("ComputePaymentSignature() = %s, want %s", got, want)
	}
}

func TestVerifyPaymentSignature(t *testing.T) {
	t.Parallel()

	const secret = "test_key_secret"
	valid := ComputePaymentSignature("order_abc", "pay_xyz", secret)

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		secret    string
		signature string
		want      bool
	}{
		{
			name:      "valid signature",
			orderID:   "order_abc",
			paymentID: "pay_xyz",
			secret:    secret,
			signature: valid,
			want:      true,
		},
		{
			name:      "tampered order id",
			orderID:   "order_abd",
			paymentID: "pay_xyz",
			secret:    secret,
			signature: valid,
			want:      false,
		},
		{
			name:      "tampered payment id",
			orderID:   "order_abc",
			paymentID: "pay_xyy",
			secret:    secret,
			signature: valid,
			want:      false,
		},
		{
			name:      "wrong secret",
			orderID:   "order_abc",
			paymentID: "pay_xyz",
			secret:    "other_secret",
			signature: valid,
			want:      false,
		},
		{
			name:      "empty signature",
			orderID:   "order_abc",
			paymentID: "pay_xyz",
			secret:    secret,
			signature: "",
			want:      false,
		},
		{
			name:      "truncated signature",
			orderID:   "order_abc",
			paymentID: "pay_xyz",
			secret:    secret,
			signature: valid[:len(valid)-2],
			want:      false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := VerifyPaymentSignature(tt.orderID, tt.paymentID, tt.secret, tt.signature)
			if got != tt.want {
				t.Errorf("VerifyPaymentSignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPaymentSignaturePayload(t *testing.T) {
	t.Parallel()

	if got := PaymentSignaturePayload("gw_1", "pay_1"); got != "gw_1|pay_1" {
		t.Errorf("PaymentSignaturePayload() = %q, want %q", got, "gw_1|pay_1")
	}
}
