package rules

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// splitWithEscapeCharacter splits the string by the specified separator
// character unless it is escaped.
func splitWithEscapeCharacter(str string, sep, escapeCharacter byte, preserveAllTokens bool) []string {
	parts := make([]string, 0)

	if str == "" {
		return parts
	}

	var sb strings.Builder
	escaped := false
	for i := range str {
		c := str[i]

		if c == escapeCharacter {
			escaped = true
		} else if c == sep {
			if escaped {
				sb.WriteByte(c)
				escaped = false
			} else {
				if preserveAllTokens || sb.Len() > 0 {
					parts = append(parts, sb.String())
					sb.Reset()
				}
			}
		} else {
			if escaped {
				escaped = false
				sb.WriteByte(escapeCharacter)
			}
			sb.WriteByte(c)
		}
	}

	if preserveAllTokens || sb.Len() > 0 {
		parts = append(parts, sb.String())
	}

	return parts
}

// isDomainOrSubdomainOfAny checks if domain is the domain itself or a
// subdomain of any of the domains.
func isDomainOrSubdomainOfAny(domain string, domains []string) bool {
	for _, d := range domains {
		if strings.HasSuffix(d, ".*") {
			// A pattern like "google.*" will match any "google.TLD" domain or
			// subdomain.
			withoutWildcard := d[0 : len(d)-1]

			if strings.HasPrefix(domain, withoutWildcard) ||
				(strings.Index(domain, withoutWildcard) > 0 &&
					strings.Index(domain, "."+withoutWildcard) > 0) {
				tld, icann := publicsuffix.PublicSuffix(domain)

				// Check that the domain's TLD is one of the public suffixes.
				if tld != "" && icann &&
					strings.HasSuffix(domain, withoutWildcard+tld) {
					return true
				}
			}
		} else {
			if domain == d ||
				(strings.HasSuffix(domain, d) &&
					strings.HasSuffix(domain, "."+d)) {
				return true
			}
		}
	}

	return false
}

// startsAtIndexWith checks if str starts with substr at the specified index.
func startsAtIndexWith(str string, startIndex int, substr string) bool {
	if len(str)-startIndex < len(substr) {
		return false
	}

	for i := 0; i < len(substr); i++ {
		if str[startIndex+i] != substr[i] {
			return false
		}
	}

	return true
}

// sort.Interface implementation for sorting strings by their length.
type byLength []string

func (s byLength) Len() int { return len(s) }

func (s byLength) Swap(i, j int) { s[i], s[j] = s[j], s[i] }

func (s byLength) Less(i, j int) bool { return len(s[i]) < len(s[j]) }
