package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is assumed for numbers given without a country prefix.
const DefaultRegion = "US"

// SanitizePhone formats a contact number as E.164. Input that does not parse
// is returned trimmed so validation can reject it.
func SanitizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}

	parsedNumber, err := phonenumbers.Parse(phone, DefaultRegion)
	if err != nil {
		return phone
	}
	return phonenumbers.Format(parsedNumber, phonenumbers.E164)
}
