package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// codeAlphabet deliberately omits 0/O and 1/I so codes survive being read
// aloud or copied by hand.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateReferralCode creates a random referral code of the given length
// drawn from an unambiguous uppercase/digit alphabet.
func GenerateReferralCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid code length %d", length)
	}

	code := make([]byte, length)
	max := big.NewInt(int64(len(codeAlphabet)))

	for i := range code {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random code: %w", err)
		}
		code[i] = codeAlphabet[idx.Int64()]
	}

	return string(code), nil
}
