package websocket

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOriginAllowed(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://store.example.com")
	t.Setenv("FRONTEND_URL", "")

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{"no origin header means a non-browser client", "", true},
		{"dev server origin", "http://localhost:3000", true},
		{"configured origin", "https://store.example.com", true},
		{"origin matching is case insensitive", "HTTPS://STORE.EXAMPLE.COM", true},
		{"unknown origin rejected", "https://evil.example.com", false},
		{"subdomain of a configured origin rejected", "https://store.example.com.evil.net", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := originAllowed(req); got != tt.want {
				t.Errorf("originAllowed(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}
