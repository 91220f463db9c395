package services

import "testing"

func TestNewVerificationCodeFormat(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		code := newVerificationCode()
		if len(code) != codeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), codeLength)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("code %q contains non-digit %q", code, r)
			}
		}
		seen[code] = true
	}
	// A thousand draws from a million values collapsing to a handful
	// would mean the generator is broken.
	if len(seen) < 900 {
		t.Fatalf("only %d distinct codes in 1000 draws", len(seen))
	}
}
