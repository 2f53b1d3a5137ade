package core

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	otpLength   = 6
	otpAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// TokenGenerator produces meetup confirmation codes.
type TokenGenerator func() (string, error)

// GenerateOTP returns a random 6-character code drawn uniformly from A-Z0-9.
func GenerateOTP() (string, error) {
	max := big.NewInt(int64(len(otpAlphabet)))
	b := make([]byte, otpLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}
		b[i] = otpAlphabet[n.Int64()]
	}
	return string(b), nil
}
