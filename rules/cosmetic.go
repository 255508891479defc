package rules

import (
	"bytes"
	"sort"
	"strings"
)

// CosmeticRuleType is the enumeration of different cosmetic rules.
type CosmeticRuleType uint

// CosmeticRuleType enumeration.
const (
	// CosmeticElementHiding is for ## rules.
	CosmeticElementHiding CosmeticRuleType = iota

	// CosmeticCSS is for #$# rules that inject style definitions.
	CosmeticCSS

	// CosmeticJS is for #%# rules that inject scripts.
	CosmeticJS
)

// cosmeticRuleMarker is a special marker that defines what type of cosmetic
// rule we are dealing with.
type cosmeticRuleMarker string

// cosmeticRuleMarker enumeration.
const (
	markerElementHiding                cosmeticRuleMarker = "##"
	markerElementHidingException       cosmeticRuleMarker = "#@#"
	markerElementHidingExtCSS          cosmeticRuleMarker = "#?#"
	markerElementHidingExtCSSException cosmeticRuleMarker = "#@?#"

	markerCSS                cosmeticRuleMarker = "#$#"
	markerCSSException       cosmeticRuleMarker = "#@$#"
	markerCSSExtCSS          cosmeticRuleMarker = "#$?#"
	markerCSSExtCSSException cosmeticRuleMarker = "#@$?#"

	markerJS          cosmeticRuleMarker = "#%#"
	markerJSException cosmeticRuleMarker = "#@%#"
)

// cosmeticRulesMarkers contains all possible cosmetic rule markers.
var cosmeticRulesMarkers = []string{
	string(markerElementHiding), string(markerElementHidingException),
	string(markerElementHidingExtCSS), string(markerElementHidingExtCSSException),
	string(markerCSS), string(markerCSSException),
	string(markerCSSExtCSS), string(markerCSSExtCSSException),
	string(markerJS), string(markerJSException),
}

// Necessary for the findCosmeticRuleMarker function.  Initialized in init().
var cosmeticRuleMarkersFirstChars []byte

func init() {
	// Sorting markers by length in reverse order so that the longest markers
	// are tried first.
	sort.Sort(sort.Reverse(byLength(cosmeticRulesMarkers)))

	for _, marker := range cosmeticRulesMarkers {
		if bytes.IndexByte(cosmeticRuleMarkersFirstChars, marker[0]) == -1 {
			cosmeticRuleMarkersFirstChars = append(cosmeticRuleMarkersFirstChars, marker[0])
		}
	}
}

// extCSSPseudoClasses are the legacy pseudo-class prefixes that force a
// selector to be handled by the extended CSS engine even without an ExtCSS
// marker.
var extCSSPseudoClasses = []string{
	"[-ext-",
	":has(",
	":has-text(",
	":contains(",
	":matches-css(",
	":matches-css-before(",
	":matches-css-after(",
	":-abp-has(",
	":-abp-contains(",
	":if(",
	":if-not(",
	":nth-ancestor(",
	":upward(",
}

// CosmeticRule represents a cosmetic rule: element hiding, CSS injection, or
// JS injection.
type CosmeticRule struct {
	RuleText     string           // RuleText is the original rule text
	FilterListID int              // Filter list identifier
	Type         CosmeticRuleType // Type of the rule

	permittedDomains  []string // a list of permitted domains for this rule
	restrictedDomains []string // a list of restricted domains for this rule

	// Content meaning depends on the rule type:
	// element hiding -- just a selector;
	// CSS -- a selector plus a style definition;
	// JS -- the text of the script to be injected.
	Content string

	// Whitelist means that this rule disables rules with the same content on
	// the specified domains.
	Whitelist bool

	// ExtendedCSS means that this rule is supposed to be applied by the
	// javascript-based extended CSS library rather than by native CSS.
	ExtendedCSS bool
}

// NewCosmeticRule parses the rule text and creates a cosmetic rule.
func NewCosmeticRule(ruleText string, filterListID int) (*CosmeticRule, error) {
	f := CosmeticRule{
		RuleText:     ruleText,
		FilterListID: filterListID,
	}

	index, m := findCosmeticRuleMarker(ruleText)
	if index == -1 {
		return nil, &RuleSyntaxError{msg: "cannot find cosmetic marker", ruleText: ruleText}
	}

	if index > 0 {
		// The marker is preceded by the list of domains.
		domains := ruleText[:index]
		permitted, restricted, err := loadDomains(domains, ",")
		if err != nil {
			return nil, &RuleSyntaxError{msg: "cannot load domains", ruleText: ruleText}
		}
		f.permittedDomains = permitted
		f.restrictedDomains = restricted
	}

	f.Content = strings.TrimSpace(ruleText[index+len(m):])
	if f.Content == "" {
		return nil, &RuleSyntaxError{msg: "empty rule content", ruleText: ruleText}
	}

	switch cosmeticRuleMarker(m) {
	case markerElementHiding:
		f.Type = CosmeticElementHiding
	case markerElementHidingException:
		f.Type = CosmeticElementHiding
		f.Whitelist = true
	case markerElementHidingExtCSS:
		f.Type = CosmeticElementHiding
		f.ExtendedCSS = true
	case markerElementHidingExtCSSException:
		f.Type = CosmeticElementHiding
		f.Whitelist = true
		f.ExtendedCSS = true
	case markerCSS:
		f.Type = CosmeticCSS
	case markerCSSException:
		f.Type = CosmeticCSS
		f.Whitelist = true
	case markerCSSExtCSS:
		f.Type = CosmeticCSS
		f.ExtendedCSS = true
	case markerCSSExtCSSException:
		f.Type = CosmeticCSS
		f.Whitelist = true
		f.ExtendedCSS = true
	case markerJS:
		f.Type = CosmeticJS
	case markerJSException:
		f.Type = CosmeticJS
		f.Whitelist = true
	default:
		return nil, ErrUnsupportedRule
	}

	if !f.ExtendedCSS && f.Type != CosmeticJS && requiresExtendedCSS(f.Content) {
		f.ExtendedCSS = true
	}

	if f.Whitelist && len(f.permittedDomains) == 0 {
		return nil, &RuleSyntaxError{
			msg:      "whitelist rule must have at least one domain specified",
			ruleText: ruleText,
		}
	}

	return &f, nil
}

// Text returns the original rule text.  Implements the [Rule] interface.
func (f *CosmeticRule) Text() string {
	return f.RuleText
}

// GetFilterListID returns ID of the filter list this rule belongs to.
func (f *CosmeticRule) GetFilterListID() int {
	return f.FilterListID
}

// String returns original rule text.
func (f *CosmeticRule) String() string {
	return f.RuleText
}

// GetPermittedDomains returns a list of domains this rule is permitted on.
func (f *CosmeticRule) GetPermittedDomains() []string {
	return f.permittedDomains
}

// IsGeneric returns true if rule can be considered generic (is not limited to
// a specific domain).
func (f *CosmeticRule) IsGeneric() bool {
	return len(f.permittedDomains) == 0
}

// Match returns true if this rule can be used on the specified hostname.
func (f *CosmeticRule) Match(hostname string) bool {
	if len(f.permittedDomains) == 0 && len(f.restrictedDomains) == 0 {
		return true
	}

	if len(f.restrictedDomains) > 0 {
		if isDomainOrSubdomainOfAny(hostname, f.restrictedDomains) {
			// Domain or host is restricted, i.e. example.org,~sub.example.org.
			return false
		}
	}

	if len(f.permittedDomains) > 0 {
		if !isDomainOrSubdomainOfAny(hostname, f.permittedDomains) {
			return false
		}
	}

	return true
}

// requiresExtendedCSS checks if the selector uses extended CSS pseudo-classes.
func requiresExtendedCSS(selector string) bool {
	for _, pseudo := range extCSSPseudoClasses {
		if strings.Contains(selector, pseudo) {
			return true
		}
	}

	return false
}

// isCosmetic checks if this line is a cosmetic filtering rule.
func isCosmetic(line string) bool {
	index, _ := findCosmeticRuleMarker(line)
	return index != -1
}

// findCosmeticRuleMarker looks for a cosmetic rule marker in the rule text and
// returns the start index and the marker found.  If nothing is found, it
// returns -1.
func findCosmeticRuleMarker(ruleText string) (int, string) {
	for _, firstMarkerChar := range cosmeticRuleMarkersFirstChars {
		startIndex := strings.IndexByte(ruleText, firstMarkerChar)
		if startIndex == -1 {
			continue
		}

		// Handling false positives while looking for cosmetic rules in host
		// files, e.g. "0.0.0.0 example.org  ## comment".
		if startIndex > 0 && ruleText[startIndex-1] == ' ' {
			continue
		}

		for _, marker := range cosmeticRulesMarkers {
			if startsAtIndexWith(ruleText, startIndex, marker) {
				return startIndex, marker
			}
		}
	}

	return -1, ""
}
