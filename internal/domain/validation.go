package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxSubdomainLen   = 50
	MaxCompanyNameLen = 100
	MaxEmailLen       = 100
	MaxPersonNameLen  = 50
)

var (
	subdomainPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

	// Same acceptance set as the HTML5 / RFC 5322 "valid email" production:
	// a permissive local part and dot-separated alphanumeric domain labels.
	emailPattern = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+" +
		`@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?` +
		`(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)
)

// NormalizeSubdomain trims surrounding whitespace and lowercases s.
func NormalizeSubdomain(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeEmail trims surrounding whitespace and lowercases s.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidSubdomain reports whether s matches the subdomain pattern. It does not
// normalize.
func ValidSubdomain(s string) bool {
	return subdomainPattern.MatchString(s)
}

// ValidEmail reports whether s is a syntactically valid address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func tooLong(s string, limit int) bool {
	return utf8.RuneCountInString(s) > limit
}

func tooLongMsg(limit int) string {
	return fmt.Sprintf("is too long (maximum is %d characters)", limit)
}
