package phone

import "strings"

// Kind classifies a formatted number.
type Kind string

const (
	KindMobile   Kind = "mobile"
	KindLandline Kind = "landline"
	KindInvalid  Kind = "invalid"
)

// Classify reports which canonical shape candidate has, if any.
// Prefixes "00" and "3" never belong to a valid number.
func Classify(candidate string) Kind {
	s := strings.TrimSpace(candidate)

	if strings.HasPrefix(s, "00") || strings.HasPrefix(s, "3") {
		return KindInvalid
	}
	if s == "" || s[0] != '0' || !allDigits(s) {
		return KindInvalid
	}

	switch len(s) {
	case 11:
		return KindMobile
	case 10:
		return KindLandline
	default:
		return KindInvalid
	}
}

// IsValid reports whether candidate is a canonical mobile or landline number.
func IsValid(candidate string) bool {
	return Classify(candidate) != KindInvalid
}
