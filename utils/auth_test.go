package utils

import (
	"net/http"
	"testing"

	"github.com/snowstorm/snowstorm_backend/middleware"
)

func TestExtractBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "bearer token", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "lowercase scheme", header: "bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "missing header", header: "", want: ""},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", want: ""},
		{name: "scheme only", header: "Bearer", want: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, _ := http.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if got := ExtractBearerToken(r); got != tt.want {
				t.Errorf("ExtractBearerToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateTokenRoundtrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, _, err := middleware.GenerateJWT("64a000000000000000000001", "buyer@example.com", "customer")
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != "64a000000000000000000001" {
		t.Errorf("UserID = %q", claims.UserID)
	}
	if claims.Email != "buyer@example.com" {
		t.Errorf("Email = %q", claims.Email)
	}
	if claims.Role != "customer" {
		t.Errorf("Role = %q", claims.Role)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	if _, err := ValidateToken(""); err == nil {
		t.Error("ValidateToken(\"\") expected error")
	}
	if _, err := ValidateToken("not.a.token"); err == nil {
		t.Error("ValidateToken with malformed token expected error")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token, _, err := middleware.GenerateJWT("64a000000000000000000001", "buyer@example.com", "customer")
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}

	t.Setenv("JWT_SECRET", "different-secret")
	if _, err := ValidateToken(token); err == nil {
		t.Error("ValidateToken with wrong secret expected error")
	}
}
