package utils

import (
	"strings"
	"testing"
)

func TestSanitizeEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "valid", input: "Buyer@Example.COM", want: "buyer@example.com"},
		{name: "surrounding spaces", input: "  buyer@example.com  ", want: "buyer@example.com"},
		{name: "missing domain", input: "buyer@", wantErr: true},
		{name: "missing at", input: "buyer.example.com", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := SanitizeEmail(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SanitizeEmail(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("SanitizeEmail(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeInputStripsScripts(t *testing.T) {
	t.Parallel()

	got := SanitizeInput(`  <b>hi</b>  `)
	if strings.Contains(got, "<b>") {
		t.Errorf("SanitizeInput left raw HTML: %q", got)
	}
	if strings.HasPrefix(got, " ") || strings.HasSuffix(got, " ") {
		t.Errorf("SanitizeInput left surrounding spaces: %q", got)
	}
}

func TestValidateEbookAsset(t *testing.T) {
	t.Parallel()

	if err := ValidateEbookAsset("book.pdf", 1024); err != nil {
		t.Errorf("pdf rejected: %v", err)
	}
	if err := ValidateEbookAsset("book.epub", 1024); err != nil {
		t.Errorf("epub rejected: %v", err)
	}
	if err := ValidateEbookAsset("book.exe", 1024); err == nil {
		t.Error("exe accepted")
	}
	if err := ValidateEbookAsset("book.pdf", 51*1024*1024); err == nil {
		t.Error("oversized file accepted")
	}
}

func TestValidateCoverImage(t *testing.T) {
	t.Parallel()

	if err := ValidateCoverImage("cover.PNG", 1024); err != nil {
		t.Errorf("png rejected: %v", err)
	}
	if err := ValidateCoverImage("cover.svg", 1024); err == nil {
		t.Error("svg accepted")
	}
	if err := ValidateCoverImage("cover.jpg", 6*1024*1024); err == nil {
		t.Error("oversized cover accepted")
	}
}
