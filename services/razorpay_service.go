package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/snowstorm/snowstorm_backend/models"
	"github.com/snowstorm/snowstorm_backend/utils"
)

// RazorpayService handles interactions with the Razorpay API
type RazorpayService struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
}

// NewRazorpayService creates a new Razorpay service instance
func NewRazorpayService() *RazorpayService {
	keyID := os.Getenv("RAZORPAY_KEY_ID")
	keySecret := os.Getenv("RAZORPAY_KEY_SECRET")

	if keyID == "" || keySecret == "" {
		log.Printf("WARNING: Razorpay credentials not fully configured:")
		if keyID == "" {
			log.Printf("  - RAZORPAY_KEY_ID is missing")
		}
		if keySecret == "" {
			log.Printf("  - RAZORPAY_KEY_SECRET is missing")
		}
		log.Printf("Please set these environment variables for the payment gateway to work")
	}

	baseURL := os.Getenv("RAZORPAY_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.razorpay.com/v1/"
	}

	return &RazorpayService{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// KeyID returns the publishable key id the SPA needs to open checkout.
func (s *RazorpayService) KeyID() string {
	return s.keyID
}

// CreateOrder creates a gateway order for the given amount in minor units.
// Returns models.ErrGatewayUnavailable on transport failures so the caller
// can report a retryable 502 without having written any ledger row.
func (s *RazorpayService) CreateOrder(amount int64, currency, receipt string) (*models.RazorpayOrder, error) {
	if s.keyID == "" || s.keySecret == "" {
		return nil, fmt.Errorf("missing Razorpay credentials. Please set RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET environment variables")
	}
	if currency == "" {
		currency = "INR"
	}
	if receipt == "" {
		receipt = NewReceipt()
	}

	payload := models.RazorpayOrderRequest{
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.baseURL+"orders", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.keyID, s.keySecret)

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("Razorpay order creation failed: %v", err)
		return nil, models.ErrGatewayUnavailable
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if os.Getenv("RAZORPAY_DEBUG") == "true" {
		log.Printf("Razorpay API Response (%d): %s", resp.StatusCode, string(respBody))
	}

	if resp.StatusCode != http.StatusOK {
		var gatewayErr models.RazorpayError
		if err := json.Unmarshal(respBody, &gatewayErr); err == nil && gatewayErr.Error.Code != "" {
			log.Printf("Razorpay API Error: %s - %s", gatewayErr.Error.Code, gatewayErr.Error.Description)
			return nil, fmt.Errorf("razorpay API error: %s", gatewayErr.Error.Code)
		}
		return nil, fmt.Errorf("razorpay API error: unexpected status %d", resp.StatusCode)
	}

	var order models.RazorpayOrder
	if err := json.Unmarshal(respBody, &order); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w\nResponse body: %s", err, string(respBody))
	}

	return &order, nil
}

// VerifySignature recomputes the checkout callback signature from the key
// secret and compares it in constant time.
func (s *RazorpayService) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	return utils.VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, s.keySecret, signature)
}

// NewReceipt generates a unique receipt identifier for a gateway order.
func NewReceipt() string {
	return "rcpt_" + uuid.NewString()
}
