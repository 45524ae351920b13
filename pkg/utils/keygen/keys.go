package keygen

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// MinAPIKeyLength is the shortest key GenerateAPIKey will produce.
	MinAPIKeyLength = 24
)

// GenerateAPIKey returns a random alphanumeric key suitable for
// auth.admin_api_key.
func GenerateAPIKey(length int) (string, error) {
	if length < MinAPIKeyLength {
		return "", fmt.Errorf("key length %d is below the minimum of %d", length, MinAPIKeyLength)
	}
	result := make([]byte, length)
	limit := big.NewInt(int64(len(charset)))
	for i := range result {
		num, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		result[i] = charset[num.Int64()]
	}
	return string(result), nil
}
