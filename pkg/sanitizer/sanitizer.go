package sanitizer

import (
	"regexp"
	"strings"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var reISBNSeparators = regexp.MustCompile(`[\s\-]+`)

func SanitizeTitle(input string) string {
	return TrimAndNormalize(input)
}

func SanitizeName(input string) string {
	return TrimAndNormalize(input)
}

func SanitizeEmail(input string) string {
	p := Pipeline{
		strings.TrimSpace,
		strings.ToLower,
	}
	return p.Apply(input)
}

// SanitizeISBN reduces an ISBN to its bare digits (plus a trailing X for
// ISBN-10). "978-0-306-40615-7" becomes "9780306406157".
func SanitizeISBN(input string) string {
	p := Pipeline{
		strings.TrimSpace,
		func(s string) string { return strings.TrimPrefix(strings.TrimPrefix(s, "ISBN:"), "ISBN") },
		func(s string) string { return reISBNSeparators.ReplaceAllString(s, "") },
		strings.ToUpper,
	}
	return p.Apply(input)
}
