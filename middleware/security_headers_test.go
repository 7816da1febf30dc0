package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestBuildCSP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  SecurityConfig
		want    []string
		notWant []string
	}{
		{
			name:   "default policy allows the checkout SDK and gateway API",
			config: SecurityConfig{},
			want: []string{
				"script-src 'self' https://checkout.razorpay.com",
				"frame-src https://checkout.razorpay.com https://api.razorpay.com",
				"connect-src 'self' https://api.razorpay.com",
			},
			notWant: []string{"script-src 'self' https://checkout.razorpay.com 'unsafe-inline'"},
		},
		{
			name:   "inline scripts only when enabled",
			config: SecurityConfig{AllowInlineJS: true},
			want:   []string{"script-src 'self' https://checkout.razorpay.com 'unsafe-inline'"},
		},
		{
			name:   "extra connect origins are appended",
			config: SecurityConfig{ConnectSrc: []string{"https://store.example.com"}},
			want:   []string{"connect-src 'self' https://api.razorpay.com https://store.example.com"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			csp := buildCSP(tt.config)
			for _, want := range tt.want {
				if !strings.Contains(csp, want) {
					t.Errorf("CSP %q missing %q", csp, want)
				}
			}
			for _, notWant := range tt.notWant {
				if strings.Contains(csp, notWant) {
					t.Errorf("CSP %q should not contain %q", csp, notWant)
				}
			}
		})
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.Use(SecurityHeadersWithConfig(SecurityConfig{}))
	e.GET("/", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	h := rec.Header()
	for header, want := range map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	} {
		if got := h.Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if csp := h.Get("Content-Security-Policy"); !strings.Contains(csp, "https://checkout.razorpay.com") {
		t.Errorf("CSP %q should allow the checkout SDK", csp)
	}
}
