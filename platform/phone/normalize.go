// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const region = "IN"

// ErrInvalidMobile is returned when a number cannot be normalized to a
// 10-digit Indian mobile number.
var ErrInvalidMobile = errors.New("not a valid 10-digit mobile number")

// NormalizeMobile reduces a raw phone value to a normalized 10-digit Indian
// mobile number. Non-digit characters are stripped; a leading "91" country
// prefix is dropped when the result is 12 digits; longer inputs keep their
// last 10 digits. The result must be exactly 10 digits and start with
// 6, 7, 8 or 9. Normalization is idempotent: a normalized number passes
// through unchanged.
func NormalizeMobile(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if strings.HasPrefix(digits, "91") && len(digits) == 12 {
		digits = digits[2:]
	} else if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}

	if len(digits) != 10 {
		return "", ErrInvalidMobile
	}
	switch digits[0] {
	case '6', '7', '8', '9':
		return digits, nil
	}
	return "", ErrInvalidMobile
}

// E164 formats an already-normalized 10-digit mobile number for display and
// export. If parsing fails, it returns the input unchanged.
func E164(normalized string) string {
	number, err := phonenumbers.Parse(normalized, region)
	if err != nil {
		return normalized
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}
