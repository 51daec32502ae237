package core

import "strings"

const (
	countryPrefix   = "+994"
	canonicalLength = 13 // "+994" + 9 subscriber digits
)

// operatorPrefixes are the two digits following the country code that map to
// a mobile operator. Landline and shortcode prefixes are rejected because an
// OTP can only be delivered to a mobile subscriber.
var operatorPrefixes = map[string]struct{}{
	"10": {}, "50": {}, "51": {}, "55": {},
	"60": {}, "70": {}, "77": {}, "99": {},
}

// CanonicalPhone normalizes a phone number to the +994XXXXXXXXX form used as
// the key for OTP, rate-limit, and identity lookups. Spaces, dashes, and
// other separators are dropped; local ("0xx..."), bare ("994xx...") and
// subscriber-only (9 digit) spellings are accepted. Returns ErrInvalidPhone
// if the result is not a well-formed mobile number.
func CanonicalPhone(phone string) (string, error) {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	number := digits.String()
	switch {
	case strings.HasPrefix(number, "0"):
		number = countryPrefix + number[1:]
	case strings.HasPrefix(number, "994"):
		number = "+" + number
	case len(number) == 9:
		number = countryPrefix + number
	default:
		return "", ErrInvalidPhone
	}

	if len(number) != canonicalLength {
		return "", ErrInvalidPhone
	}
	if _, ok := operatorPrefixes[number[4:6]]; !ok {
		return "", ErrInvalidPhone
	}
	return number, nil
}

// MaskPhone hides the middle of a canonical number for logs and events.
func MaskPhone(phone string) string {
	if len(phone) != canonicalLength {
		return "***"
	}
	return phone[:6] + "*****" + phone[canonicalLength-2:]
}
