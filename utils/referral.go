package utils

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

// AffiliateCodePrefix is the prefix of every generated referral code.
const AffiliateCodePrefix = "AFF"

// GenerateAffiliateCode generates a referral code for a new affiliate.
// Format: AFF-XXXXXX where XXXXXX is 6 random alphanumeric characters.
// Example: AFF-ABC123
func GenerateAffiliateCode() (string, error) {
	// 4 random bytes give 6 base32 characters
	randomBytes := make([]byte, 4)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return "", err
	}

	randomStr := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	randomStr = strings.ToUpper(randomStr[:6])
	randomStr = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, randomStr)

	if len(randomStr) < 6 {
		randomStr = randomStr + strings.Repeat("0", 6-len(randomStr))
	}

	return AffiliateCodePrefix + "-" + randomStr, nil
}
