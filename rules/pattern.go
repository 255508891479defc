package rules

import (
	"regexp"
	"strings"
)

// Masks of the basic rule patterns.
const (
	// MaskStartURL definition:
	// Matching the beginning of an address. With this character you don't
	// have to specify a particular protocol and subdomain in address mask.
	// It means, || stands for http://*., https://*., ws://*., wss://*. at once.
	MaskStartURL = "||"

	// MaskPipe definition:
	// A pointer to the beginning or the end of address. The value depends on
	// the character placement in the mask. For example, a rule swf| corresponds
	// to http://example.com/annoyingflash.swf, but not to
	// http://example.com/swf/index.html. |http://example.org corresponds to
	// http://example.org, but not to http://domain.com?url=http://example.org.
	MaskPipe = "|"

	// MaskSeparator definition:
	// Separator character mark. Separator character is any character, but a
	// letter, a digit, or one of the following: _ - .
	MaskSeparator = "^"

	// MaskAnyCharacter is a wildcard character. It is used to represent "any
	// set of characters". This can also be an empty string or a string of any
	// length.
	MaskAnyCharacter = "*"
)

// Regular expressions the rule pattern masks are converted to.
const (
	// RegexAnyCharacter corresponds to MaskAnyCharacter.
	RegexAnyCharacter = ".*"

	// RegexSeparator corresponds to MaskSeparator.
	RegexSeparator = "([^ a-zA-Z0-9.%]|$)"

	// RegexStartURL corresponds to MaskStartURL.
	RegexStartURL = "^(http|https|ws|wss)://([a-z0-9-_.]+\\.)?"

	// RegexStartString corresponds to MaskPipe if it is in the beginning of a pattern.
	RegexStartString = "^"

	// RegexEndString corresponds to MaskPipe if it is in the end of a pattern.
	RegexEndString = "$"
)

// reRegexSpecialCharacters matches the regex special characters that must be
// escaped in the basic rule patterns.  The pattern masks (|, *, ^) are
// processed separately.
var reRegexSpecialCharacters = regexp.MustCompile(`[.+?${}()\[\]\/\\&]`)

// patternToRegexp is a helper method for converting a basic rule pattern to a
// regular expression.
func patternToRegexp(pattern string) string {
	if pattern == MaskStartURL || pattern == MaskPipe ||
		pattern == MaskAnyCharacter || pattern == "" {
		return RegexAnyCharacter
	}

	if len(pattern) > 1 &&
		strings.HasPrefix(pattern, maskRegexRule) &&
		strings.HasSuffix(pattern, maskRegexRule) {
		return pattern[1 : len(pattern)-1]
	}

	var prefix, suffix string
	if strings.HasPrefix(pattern, MaskStartURL) {
		prefix = RegexStartURL
		pattern = pattern[len(MaskStartURL):]
	} else if strings.HasPrefix(pattern, MaskPipe) {
		prefix = RegexStartString
		pattern = pattern[len(MaskPipe):]
	}

	if strings.HasSuffix(pattern, MaskPipe) {
		suffix = RegexEndString
		pattern = pattern[:len(pattern)-1]
	}

	regex := reRegexSpecialCharacters.ReplaceAllString(pattern, `\$0`)
	regex = strings.ReplaceAll(regex, MaskSeparator, RegexSeparator)
	regex = strings.ReplaceAll(regex, MaskAnyCharacter, RegexAnyCharacter)

	return prefix + regex + suffix
}
