package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// PaymentSignaturePayload builds the string the gateway signs on checkout
// completion: "<gatewayOrderId>|<gatewayPaymentId>".
func PaymentSignaturePayload(gatewayOrderID, gatewayPaymentID string) string {
	return gatewayOrderID + "|" + gatewayPaymentID
}

// ComputePaymentSignature returns the hex-encoded HMAC-SHA256 the gateway
// is expected to have produced for the given identifiers.
func ComputePaymentSignature(gatewayOrderID, gatewayPaymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(PaymentSignaturePayload(gatewayOrderID, gatewayPaymentID)))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPaymentSignature recomputes the signature server-side from the
// secret and compares it against the client-submitted one in constant time.
// The claimed signature is never trusted without recomputation.
func VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, secret, signature string) bool {
	expected := ComputePaymentSignature(gatewayOrderID, gatewayPaymentID, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
