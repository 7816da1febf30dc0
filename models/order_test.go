package models

import (
	"testing"
	"time"
)

func TestOrderExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name      string
		expiresAt *time.Time
		want      bool
	}{
		{name: "no expiry set", expiresAt: nil, want: false},
		{name: "expiry in future", expiresAt: &future, want: false},
		{name: "expiry in past", expiresAt: &past, want: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			o := Order{ExpiresAt: tt.expiresAt}
			if got := o.Expired(now); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrderExpiredBoundary(t *testing.T) {
	t.Parallel()

	// Exactly at the deadline the order is still payable.
	at := time.Unix(1700000000, 0)
	o := Order{ExpiresAt: &at}
	if o.Expired(at) {
		t.Error("Expired() at the exact deadline = true, want false")
	}
}
