package services

import (
	"fmt"
	"math/rand"
)

const codeLength = 6

// newVerificationCode returns a string of exactly six decimal digits,
// uniform over "000000".."999999". The code is a short-lived shared
// secret delivered out-of-band, not a credential, so math/rand suffices.
func newVerificationCode() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}
