package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateOTP returns a decimal activation code of exactly length digits,
// zero-padded, drawn uniformly from [0, 10^length). crypto/rand.Int is
// used instead of a modulo reduction so the distribution carries no bias.
func GenerateOTP(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("otp length must be positive, got %d", length)
	}

	bound := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return "", fmt.Errorf("reading random source: %w", err)
	}

	return fmt.Sprintf("%0*d", length, n), nil
}
