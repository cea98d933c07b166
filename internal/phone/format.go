package phone

// format.go normalizes a cleaned token to the national format.
//
// The rules form an ordered ladder. They are evaluated top to bottom and the
// first rule whose predicate matches decides the result. The leading-star
// rule is the only one that does not terminate: it strips one '*' and lets
// the remaining rules look at what is left.
//
// The ladder never fails. A token no rule recognizes comes back unchanged
// and is rejected later by IsValid.

import "strings"

// Rule names reported by Explain.
const (
	RuleEmpty         = "empty"
	RuleCountryCode   = "country-code"
	RuleMobileNoTrunk = "mobile-without-zero"
	RuleMobile        = "canonical-mobile"
	RuleLandline      = "canonical-landline"
	RuleBareTen       = "bare-ten-digits"
	RuleLocalLandline = "local-landline"
	RuleStrayDigit    = "stray-leading-digit"
	RuleNoMatch       = "no-match"
)

// formatRule is one rung of the ladder.
type formatRule struct {
	name  string
	match func(s string) bool
	apply func(s string) string
}

// formatRules is evaluated in order after the optional '*' strip.
// 0\d{10} and 0\d{9} are distinguished only by length; a bare ten digit
// string that does not start with 9 is passed through untouched.
var formatRules = []formatRule{
	{
		name:  RuleCountryCode,
		match: func(s string) bool { return strings.HasPrefix(s, "63") && len(s) >= 12 },
		apply: func(s string) string { return "0" + s[len(s)-10:] },
	},
	{
		name:  RuleMobileNoTrunk,
		match: func(s string) bool { return len(s) == 10 && s[0] == '9' && allDigits(s) },
		apply: prefixZero,
	},
	{
		name:  RuleMobile,
		match: func(s string) bool { return len(s) == 11 && s[0] == '0' && allDigits(s) },
		apply: unchanged,
	},
	{
		name:  RuleLandline,
		match: func(s string) bool { return len(s) == 10 && s[0] == '0' && allDigits(s) },
		apply: unchanged,
	},
	{
		name:  RuleBareTen,
		match: func(s string) bool { return len(s) == 10 && allDigits(s) },
		apply: unchanged,
	},
	{
		name:  RuleLocalLandline,
		match: func(s string) bool { return len(s) >= 7 && len(s) <= 9 && allDigits(s) },
		apply: prefixZero,
	},
	{
		name:  RuleStrayDigit,
		match: func(s string) bool { return len(s) == 11 && allDigits(s) },
		apply: func(s string) string { return "0" + s[1:] },
	},
}

func prefixZero(s string) string { return "0" + s }

func unchanged(s string) string { return s }

// Format maps a cleaned token to its national representation.
// See the rule ladder above; Format("") == "".
func Format(cleaned string) string {
	out, _ := Explain(cleaned)
	return out
}

// Explain is Format that also names the rule that produced the result.
func Explain(cleaned string) (string, string) {
	if cleaned == "" {
		return "", RuleEmpty
	}

	s := strings.TrimPrefix(cleaned, "*")

	for _, r := range formatRules {
		if r.match(s) {
			return r.apply(s), r.name
		}
	}
	return s, RuleNoMatch
}
