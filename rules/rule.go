// Package rules implements the filtering rule model: parsing a single line of
// a filter list into a typed rule, and matching typed rules against requests,
// hostnames, and markup.
package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AdguardTeam/contentfilter/filterutil"
)

// RuleSyntaxError represents an error while parsing a filtering rule.
type RuleSyntaxError struct {
	msg      string
	ruleText string
}

// Error implements the error interface for *RuleSyntaxError.
func (e *RuleSyntaxError) Error() string {
	return fmt.Sprintf("syntax error: %s, rule: %s", e.msg, e.ruleText)
}

// ErrUnsupportedRule signals that this might be a valid rule type,
// but it is not yet supported by this library.
var ErrUnsupportedRule = errors.New("this type of rules is unsupported")

// Rule is a base interface for all filtering rules.
type Rule interface {
	// Text returns the original rule text.
	Text() string

	// GetFilterListID returns ID of the filter list this rule belongs to.
	GetFilterListID() int
}

// NewRule creates a new filtering rule from the specified line.  It returns
// nil if the line is empty or if it is a comment.
func NewRule(line string, filterListID int) (Rule, error) {
	line = strings.TrimSpace(line)

	if line == "" || isComment(line) {
		return nil, nil
	}

	if isCosmetic(line) {
		return NewCosmeticRule(line, filterListID)
	}

	if isContent(line) {
		return NewContentRule(line, filterListID)
	}

	return NewNetworkRule(line, filterListID)
}

// isComment checks if the line is a comment.
func isComment(line string) bool {
	if len(line) == 0 {
		return false
	}

	if line[0] == '!' {
		return true
	}

	if line[0] == '#' {
		if len(line) == 1 {
			return true
		}

		// Make sure that this is not a cosmetic rule.
		for _, marker := range cosmeticRulesMarkers {
			if startsAtIndexWith(line, 0, marker) {
				return false
			}
		}

		return true
	}

	return false
}

// loadDomains loads the $domain modifier or cosmetic rule domains.  sep is the
// separator character: for network rules it is '|', for cosmetic it is ','.
func loadDomains(domains, sep string) (permittedDomains, restrictedDomains []string, err error) {
	if domains == "" {
		return nil, nil, errors.New("no domains specified")
	}

	list := strings.Split(domains, sep)
	for _, d := range list {
		restricted := false
		if strings.HasPrefix(d, "~") {
			restricted = true
			d = d[1:]
		}

		if !filterutil.IsDomainName(d) && !strings.HasSuffix(d, ".*") {
			return nil, nil, fmt.Errorf("invalid domain specified: %s", domains)
		}

		if restricted {
			restrictedDomains = append(restrictedDomains, d)
		} else {
			permittedDomains = append(permittedDomains, d)
		}
	}

	return permittedDomains, restrictedDomains, nil
}
