package utils

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/snowstorm/snowstorm_backend/config"
)

// RememberedSession is the encrypted blob stored in Redis for "Remember Me"
// logins. It never contains the password, only enough to re-issue a JWT.
type RememberedSession struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// GenerateRememberMeToken generates an opaque token for "Remember Me"
func GenerateRememberMeToken() string {
	return uuid.NewString()
}

func rememberMeKey() []byte {
	key := os.Getenv("REMEMBER_ME_ENCRYPTION_KEY")
	if key == "" {
		key = os.Getenv("JWT_SECRET")
	}
	// AES-256 requires exactly 32 bytes
	if len(key) < 32 {
		key = key + "00000000000000000000000000000000"
	}
	return []byte(key[:32])
}

// EncryptSession encrypts the session before storing in Redis
func EncryptSession(session RememberedSession) (string, error) {
	jsonData, err := json.Marshal(session)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(rememberMeKey())
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, jsonData, nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptSession decrypts a session blob from Redis
func DecryptSession(encryptedData string) (*RememberedSession, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encryptedData)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(rememberMeKey())
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, err
	}

	var session RememberedSession
	if err := json.Unmarshal(plaintext, &session); err != nil {
		return nil, err
	}

	return &session, nil
}

// StoreRememberedSession stores an encrypted session in Redis
func StoreRememberedSession(redisClient *redis.Client, token string, session RememberedSession, expiration time.Duration) error {
	if redisClient == nil {
		return fmt.Errorf("redis client not available")
	}

	ctx := context.Background()

	encryptedData, err := EncryptSession(session)
	if err != nil {
		return fmt.Errorf("failed to encrypt session: %w", err)
	}

	key := config.RedisKey("remember_me:" + token)
	if err := redisClient.Set(ctx, key, encryptedData, expiration).Err(); err != nil {
		return fmt.Errorf("failed to store in Redis: %w", err)
	}

	return nil
}

// RetrieveRememberedSession retrieves and decrypts a session from Redis
func RetrieveRememberedSession(redisClient *redis.Client, token string) (*RememberedSession, error) {
	if redisClient == nil {
		return nil, fmt.Errorf("redis client not available")
	}

	ctx := context.Background()

	key := config.RedisKey("remember_me:" + token)
	encryptedData, err := redisClient.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("remember me token not found or expired")
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}

	session, err := DecryptSession(encryptedData)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt session: %w", err)
	}

	if time.Now().After(session.ExpiresAt) {
		redisClient.Del(ctx, key)
		return nil, fmt.Errorf("remember me token expired")
	}

	return session, nil
}

// RemoveRememberedSession removes a remembered session from Redis
func RemoveRememberedSession(redisClient *redis.Client, token string) error {
	if redisClient == nil {
		return fmt.Errorf("redis client not available")
	}

	ctx := context.Background()
	return redisClient.Del(ctx, config.RedisKey("remember_me:" + token)).Err()
}
