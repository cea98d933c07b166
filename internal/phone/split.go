package phone

import "strings"

// DefaultSeparator is used when a caller does not choose one.
const DefaultSeparator = ","

// Split breaks raw on every literal occurrence of sep, trims each piece and
// drops the ones that end up empty.
//
// An empty sep means "do not split": the whole trimmed string is a single
// token. An empty or blank raw yields nil.
func Split(raw, sep string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if sep == "" {
		return []string{raw}
	}

	parts := strings.Split(raw, sep)
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// Clean drops every character that is not an ASCII digit or '*'.
// It is idempotent: Clean(Clean(s)) == Clean(s).
func Clean(token string) string {
	var b strings.Builder
	b.Grow(len(token))
	for i := 0; i < len(token); i++ {
		c := token[i]
		if isDigit(c) || c == '*' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// allDigits reports whether s is non-empty and made only of ASCII digits.
func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}
