package phone

import (
	"fmt"
	"strings"
)

// subscriberDigits is the national significant number length; together
// with the country code it gives the canonical E.164 digit count.
const subscriberDigits = 9

// Normalizer converts locally formatted phone numbers into canonical
// international form for the configured country calling code.
type Normalizer struct {
	countryCode string
}

// NewNormalizer creates a normalizer for the given country calling code
// (digits only, e.g. "254").
func NewNormalizer(countryCode string) *Normalizer {
	return &Normalizer{countryCode: countryCode}
}

// Normalize returns the canonical form of the number: non-digits are
// stripped, a leading 0 is replaced by the country code, a number
// already carrying the country code passes through, and anything else
// gets the country code prefixed. Numbers shorter than the canonical
// length are rejected.
func (n *Normalizer) Normalize(raw string) (string, error) {
	digits := stripNonDigits(raw)
	if digits == "" {
		return "", fmt.Errorf("phone %q has no digits", raw)
	}

	var canonical string
	switch {
	case strings.HasPrefix(digits, "0"):
		canonical = n.countryCode + digits[1:]
	case strings.HasPrefix(digits, n.countryCode):
		canonical = digits
	default:
		canonical = n.countryCode + digits
	}

	if len(canonical) < len(n.countryCode)+subscriberDigits {
		return "", fmt.Errorf("phone %q too short after normalization", raw)
	}
	return canonical, nil
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
