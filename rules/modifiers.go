package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ReplaceModifier is the $replace modifier payload: a regular expression with
// a replacement template that is applied to response bodies of matching
// requests.  The value format is "/regex/replacement/flags" with the "/"
// character escapable with a backslash.
type ReplaceModifier struct {
	value       string
	re          *regexp.Regexp
	replacement string
}

// NewReplaceModifier parses the $replace modifier value.
func NewReplaceModifier(value string) (*ReplaceModifier, error) {
	parts := splitWithEscapeCharacter(value, '/', escapeCharacter, true)

	// The value starts with "/", so the first token is always empty.
	if len(parts) > 0 && parts[0] == "" {
		parts = parts[1:]
	}

	if len(parts) < 2 || len(parts) > 3 {
		return nil, fmt.Errorf("cannot parse $replace value: %s", value)
	}

	modifiers := ""
	if len(parts) == 3 {
		modifiers = parts[2]
	}

	pattern := parts[0]
	if strings.Contains(modifiers, "i") {
		pattern = "(?i)" + pattern
	}
	if strings.Contains(modifiers, "s") {
		pattern = "(?s)" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid $replace regex %q: %w", parts[0], err)
	}

	return &ReplaceModifier{
		value:       value,
		re:          re,
		replacement: parts[1],
	}, nil
}

// Value returns the original modifier value.
func (m *ReplaceModifier) Value() string {
	return m.value
}

// Apply rewrites the content according to this modifier and returns the
// result.  All occurrences of the pattern are replaced, matching the legacy
// behavior where the "g" flag was always implied.
func (m *ReplaceModifier) Apply(content string) string {
	return m.re.ReplaceAllString(content, m.replacement)
}

// CookieModifier is the $cookie modifier payload.  It determines which
// cookies the rule applies to (by exact name or by a name regex), and may
// carry maxAge/sameSite overrides instead of outright removal.  An empty
// value matches every cookie.
//
// Value format: "name|/regex/[;maxAge=N][;sameSite=value]".
type CookieModifier struct {
	value    string
	name     string
	re       *regexp.Regexp
	MaxAge   int
	SameSite string
}

// NewCookieModifier parses the $cookie modifier value.
func NewCookieModifier(value string) (*CookieModifier, error) {
	m := &CookieModifier{value: value}

	parts := strings.Split(value, ";")
	matcher := strings.TrimSpace(parts[0])

	if len(matcher) > 1 &&
		strings.HasPrefix(matcher, maskRegexRule) &&
		strings.HasSuffix(matcher, maskRegexRule) {
		re, err := regexp.Compile(matcher[1 : len(matcher)-1])
		if err != nil {
			return nil, fmt.Errorf("invalid $cookie regex %q: %w", matcher, err)
		}
		m.re = re
	} else {
		m.name = matcher
	}

	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		keyValue := strings.SplitN(part, "=", 2)
		if len(keyValue) != 2 {
			return nil, fmt.Errorf("invalid $cookie option: %s", part)
		}

		switch keyValue[0] {
		case "maxAge":
			maxAge, err := strconv.Atoi(keyValue[1])
			if err != nil || maxAge < 0 {
				return nil, fmt.Errorf("invalid $cookie maxAge: %s", keyValue[1])
			}
			m.MaxAge = maxAge
		case "sameSite":
			m.SameSite = keyValue[1]
		default:
			return nil, fmt.Errorf("unknown $cookie option: %s", keyValue[0])
		}
	}

	return m, nil
}

// Value returns the original modifier value.
func (m *CookieModifier) Value() string {
	return m.value
}

// MatchesCookie checks if the modifier applies to the cookie with the
// specified name.
func (m *CookieModifier) MatchesCookie(name string) bool {
	switch {
	case m.re != nil:
		return m.re.MatchString(name)
	case m.name != "":
		return m.name == name
	default:
		// Empty $cookie matches any cookie.
		return true
	}
}

// IsRemoving returns true when the modifier removes matching cookies rather
// than modifying their attributes.
func (m *CookieModifier) IsRemoving() bool {
	return m.MaxAge == 0 && m.SameSite == ""
}
