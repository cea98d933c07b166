package phone

import "github.com/nyaruka/phonenumbers"

// Region is the numbering plan national numbers belong to.
const Region = "PH"

// ToE164 renders a national number such as 09171234567 as +639171234567.
// Inputs libphonenumber cannot parse are returned unchanged.
func ToE164(national string) string {
	num, err := phonenumbers.Parse(national, Region)
	if err != nil {
		return national
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}
