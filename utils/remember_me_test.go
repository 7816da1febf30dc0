package utils

import (
	"testing"
	"time"
)

func TestSessionEncryptionRoundtrip(t *testing.T) {
	t.Setenv("REMEMBER_ME_ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")

	session := RememberedSession{
		UserID:    "64a000000000000000000001",
		Email:     "buyer@example.com",
		Role:      "customer",
		ExpiresAt: time.Now().Add(time.Hour).Truncate(time.Second),
	}

	blob, err := EncryptSession(session)
	if err != nil {
		t.Fatalf("EncryptSession: %v", err)
	}
	if blob == "" {
		t.Fatal("EncryptSession returned empty blob")
	}

	got, err := DecryptSession(blob)
	if err != nil {
		t.Fatalf("DecryptSession: %v", err)
	}
	if got.UserID != session.UserID || got.Email != session.Email || got.Role != session.Role {
		t.Errorf("decrypted session = %+v, want %+v", got, session)
	}
}

func TestDecryptSessionRejectsTampering(t *testing.T) {
	t.Setenv("REMEMBER_ME_ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")

	blob, err := EncryptSession(RememberedSession{UserID: "u1"})
	if err != nil {
		t.Fatalf("EncryptSession: %v", err)
	}

	if _, err := DecryptSession("AAAA" + blob[4:]); err == nil {
		t.Error("DecryptSession accepted tampered blob")
	}
	if _, err := DecryptSession("not-base64!!"); err == nil {
		t.Error("DecryptSession accepted garbage")
	}
}

func TestEncryptSessionNonDeterministic(t *testing.T) {
	t.Setenv("REMEMBER_ME_ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")

	session := RememberedSession{UserID: "u1"}
	a, _ := EncryptSession(session)
	b, _ := EncryptSession(session)
	if a == b {
		t.Error("ciphertexts repeat, nonce not random")
	}
}
