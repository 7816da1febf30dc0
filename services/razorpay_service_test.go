package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/snowstorm/snowstorm_backend/models"
)

func newStubService(t *testing.T, handler http.HandlerFunc) *RazorpayService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	t.Setenv("RAZORPAY_KEY_ID", "rzp_test_key")
	t.Setenv("RAZORPAY_KEY_SECRET", "rzp_test_secret")
	t.Setenv("RAZORPAY_BASE_URL", server.URL+"/")

	return NewRazorpayService()
}

func TestCreateOrder(t *testing.T) {
	svc := newStubService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "rzp_test_key" || pass != "rzp_test_secret" {
			t.Error("missing or wrong basic auth")
		}

		var req models.RazorpayOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Amount != 29900 || req.Currency != "INR" {
			t.Errorf("request = %+v", req)
		}

		json.NewEncoder(w).Encode(models.RazorpayOrder{
			ID:        "order_stub_1",
			Entity:    "order",
			Amount:    req.Amount,
			AmountDue: req.Amount,
			Currency:  req.Currency,
			Receipt:   req.Receipt,
			Status:    "created",
		})
	})

	order, err := svc.CreateOrder(29900, "INR", "rcpt_42")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.ID != "order_stub_1" {
		t.Errorf("order ID = %q", order.ID)
	}
	if order.Amount != 29900 {
		t.Errorf("order amount = %d", order.Amount)
	}
}

func TestCreateOrderGatewayError(t *testing.T) {
	svc := newStubService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]map[string]string{
			"error": {"code": "BAD_REQUEST_ERROR", "description": "amount too small"},
		})
	})

	_, err := svc.CreateOrder(1, "INR", "")
	if err == nil {
		t.Fatal("CreateOrder expected error")
	}
	if !strings.Contains(err.Error(), "BAD_REQUEST_ERROR") {
		t.Errorf("error = %v, want gateway code surfaced", err)
	}
}

func TestCreateOrderTransportFailure(t *testing.T) {
	svc := newStubService(t, func(w http.ResponseWriter, r *http.Request) {})
	// Point at a closed port.
	t.Setenv("RAZORPAY_BASE_URL", "http://127.0.0.1:1/")
	svc = NewRazorpayService()

	_, err := svc.CreateOrder(29900, "INR", "")
	if err != models.ErrGatewayUnavailable {
		t.Errorf("CreateOrder error = %v, want ErrGatewayUnavailable", err)
	}
}

func TestCreateOrderMissingCredentials(t *testing.T) {
	t.Setenv("RAZORPAY_KEY_ID", "")
	t.Setenv("RAZORPAY_KEY_SECRET", "")
	t.Setenv("RAZORPAY_BASE_URL", "")
	svc := NewRazorpayService()

	if _, err := svc.CreateOrder(29900, "INR", ""); err == nil {
		t.Error("CreateOrder without credentials expected error")
	}
}

func TestNewReceipt(t *testing.T) {
	t.Parallel()

	a, b := NewReceipt(), NewReceipt()
	if !strings.HasPrefix(a, "rcpt_") {
		t.Errorf("receipt %q missing prefix", a)
	}
	if a == b {
		t.Error("receipts not unique")
	}
}
