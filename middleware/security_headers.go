// middleware/security_headers.go
package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// Origins the checkout page always needs: the Razorpay SDK script and the
// payment iframe it opens.
const (
	razorpayCheckoutOrigin = "https://checkout.razorpay.com"
	razorpayAPIOrigin      = "https://api.razorpay.com"
)

// SecurityConfig controls the Content-Security-Policy emitted for the
// storefront. The gateway origins are always part of the policy.
type SecurityConfig struct {
	// Extra origins the SPA may call besides the API and the gateway.
	ConnectSrc []string
	// Some checkout embeds need inline bootstrap scripts.
	AllowInlineJS bool
}

// SecurityHeadersWithConfig emits the storefront's security headers on every
// response. The CSP string is built once at startup.
func SecurityHeadersWithConfig(config SecurityConfig) echo.MiddlewareFunc {
	csp := buildCSP(config)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-XSS-Protection", "1; mode=block")
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
			h.Set("Content-Security-Policy", csp)
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

			h.Del("Server")
			h.Del("X-Powered-By")

			return next(c)
		}
	}
}

func buildCSP(config SecurityConfig) string {
	scriptSrc := "script-src 'self' " + razorpayCheckoutOrigin
	if config.AllowInlineJS {
		scriptSrc += " 'unsafe-inline'"
	}

	connectSrc := append([]string{"'self'", razorpayAPIOrigin}, config.ConnectSrc...)

	csp := []string{
		"default-src 'self'",
		scriptSrc,
		// cover images and thumbnails are served from /uploads on this origin
		"img-src 'self' data: https:",
		"style-src 'self' 'unsafe-inline'",
		"frame-src " + razorpayCheckoutOrigin + " " + razorpayAPIOrigin,
		"connect-src " + strings.Join(connectSrc, " "),
	}

	return strings.Join(csp, "; ")
}
