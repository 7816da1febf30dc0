package security

import (
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

var allowedContentTypes = []string{
	echo.MIMEApplicationJSON,
	echo.MIMEApplicationForm,
	echo.MIMEMultipartForm,
}

// ValidateContentType reports whether a mutating request's content type is
// one the API accepts. Parameters after ";" are ignored.
func ValidateContentType(contentType string) bool {
	base := strings.TrimSpace(strings.Split(contentType, ";")[0])
	for _, allowed := range allowedContentTypes {
		if strings.EqualFold(base, allowed) {
			return true
		}
	}
	return false
}

// ContentTypeGuard rejects POST/PUT/PATCH requests whose body claims a
// content type the handlers never parse.
func ContentTypeGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			method := c.Request().Method
			if method != http.MethodPost && method != http.MethodPut && method != http.MethodPatch {
				return next(c)
			}

			contentType := c.Request().Header.Get(echo.HeaderContentType)
			if contentType == "" || ValidateContentType(contentType) {
				return next(c)
			}

			log.Printf("Rejected %s %s with content type %q from %s, headers: %v",
				method, c.Request().URL.Path, contentType, c.RealIP(),
				SanitizeHeaders(c.Request().Header))
			return echo.NewHTTPError(http.StatusUnsupportedMediaType, "Unsupported content type")
		}
	}
}

// SanitizeHeaders strips credentials before a request's headers are logged.
func SanitizeHeaders(headers http.Header) http.Header {
	clean := headers.Clone()
	for _, header := range []string{"Authorization", "Cookie", "Set-Cookie", "X-Remember-Token"} {
		clean.Del(header)
	}
	return clean
}
