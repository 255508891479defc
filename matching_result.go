package contentfilter

import (
	"github.com/AdguardTeam/contentfilter/rules"
)

// CosmeticOption is the enumeration of various content script options.
// Depending on the set of enabled flags the content script will contain a
// different set of settings.
type CosmeticOption uint32

// CosmeticOption enumeration.
const (
	// CosmeticOptionGenericCSS - if generic elemhide and CSS rules are
	// enabled.  Can be disabled by a $generichide rule.
	CosmeticOptionGenericCSS CosmeticOption = 1 << iota
	// CosmeticOptionCSS - if elemhide and CSS rules are enabled.  Can be
	// disabled by an $elemhide rule.
	CosmeticOptionCSS
	// CosmeticOptionJS - if JS rules and scriptlets are enabled.  Can be
	// disabled by a $jsinject rule.
	CosmeticOptionJS

	// CosmeticOptionAll - everything is enabled.
	CosmeticOptionAll = CosmeticOptionGenericCSS | CosmeticOptionCSS | CosmeticOptionJS

	// CosmeticOptionNone - everything is disabled.
	CosmeticOptionNone = CosmeticOption(0)
)

// MatchingResult contains all the rules matching a web request, and provides
// methods that define how a web request should be processed.
type MatchingResult struct {
	// BasicRule - a rule matching the request.  It could lead to one of the
	// following:
	// * block the request
	// * unblock the request (a regular whitelist rule or a document-level
	//   whitelist rule)
	// * modify the way cosmetic rules work for this request
	// * modify the response (see $redirect rules)
	BasicRule *rules.NetworkRule

	// DocumentRule - a rule matching the request's referrer and having one of
	// the following modifiers:
	// * $document -- this one basically disables everything
	// * $urlblock -- disables network-level rules (not cosmetic)
	// * $genericblock -- disables generic network-level rules
	//
	// Other document-level modifiers like $jsinject or $content will be
	// ignored here as they don't do anything by themselves.
	DocumentRule *rules.NetworkRule

	// CspRules - a set of rules modifying the response's
	// content-security-policy.  See $csp modifier.
	CspRules []*rules.NetworkRule

	// CookieRules - a set of rules modifying the request's and response's
	// cookies.  See $cookie modifier.
	CookieRules []*rules.NetworkRule

	// ReplaceRules - a set of rules modifying the response's content.  See
	// $replace modifier.
	ReplaceRules []*rules.NetworkRule

	// StealthRule - this is a whitelist rule that negates stealth mode
	// features.  Note that the stealth rule can be received from both rules
	// and sourceRules.
	StealthRule *rules.NetworkRule
}

// NewMatchingResult creates an instance of the MatchingResult struct and
// fills it with the rules.
//
// rules - a set of rules matching the request URL
// sourceRules - a set of rules matching the referrer
func NewMatchingResult(ruleList, sourceRules []*rules.NetworkRule) (result *MatchingResult) {
	ruleList = removeBadfilterRules(ruleList)
	sourceRules = removeBadfilterRules(sourceRules)

	result = &MatchingResult{}

	// First of all, find document-level whitelist rules.
	for _, rule := range sourceRules {
		if rule.IsDocumentWhitelistRule() {
			if result.DocumentRule == nil || rule.IsHigherPriority(result.DocumentRule) {
				result.DocumentRule = rule
			}
		}

		if rule.IsOptionEnabled(rules.OptionStealth) {
			result.StealthRule = rule
		}
	}

	// Second - check if blocking rules (generic or all of them) are allowed.
	// Both kinds are allowed by default.
	genericAllowed := true
	basicAllowed := true
	if result.DocumentRule != nil {
		if result.DocumentRule.IsOptionEnabled(rules.OptionUrlblock) {
			basicAllowed = false
		} else if result.DocumentRule.IsOptionEnabled(rules.OptionGenericblock) {
			genericAllowed = false
		}
	}

	// Iterate through the list of rules and fill the MatchingResult struct.
	for _, rule := range ruleList {
		switch {
		case rule.IsOptionEnabled(rules.OptionCookie):
			result.CookieRules = append(result.CookieRules, rule)
		case rule.IsOptionEnabled(rules.OptionReplace):
			result.ReplaceRules = append(result.ReplaceRules, rule)
		case rule.IsOptionEnabled(rules.OptionCsp):
			result.CspRules = append(result.CspRules, rule)
		case rule.IsOptionEnabled(rules.OptionStealth):
			result.StealthRule = rule
		default:
			// Check blocking rules against $genericblock / $urlblock.
			if !rule.Whitelist {
				if !basicAllowed {
					continue
				}
				if !genericAllowed && rule.IsGeneric() {
					continue
				}
			}

			if result.BasicRule == nil || rule.IsHigherPriority(result.BasicRule) {
				result.BasicRule = rule
			}
		}
	}

	return result
}

// GetBasicResult returns a rule that should be applied to the web request.
//
// Possible outcomes are:
// * returns nil -- bypass the request.
// * returns a whitelist rule -- bypass the request.
// * returns a blocking rule -- block the request.
func (m *MatchingResult) GetBasicResult() *rules.NetworkRule {
	// $replace rules have a higher priority than other basic rules including
	// exceptions.  If a request matches an active $replace rule, the request
	// is let through so that the response content can be modified.
	//
	// Document-level exception rules with $content or $document do disable
	// $replace rules for the requests matching them.
	if len(m.GetReplaceRules()) > 0 {
		if !m.isReplaceDisabled() {
			return nil
		}
	}

	if m.BasicRule == nil {
		return m.DocumentRule
	}

	return m.BasicRule
}

// GetCosmeticOption returns a bit-flag with the list of cosmetic options.
func (m *MatchingResult) GetCosmeticOption() CosmeticOption {
	if m.BasicRule == nil || !m.BasicRule.Whitelist {
		return CosmeticOptionAll
	}

	option := CosmeticOptionAll

	if m.BasicRule.IsOptionEnabled(rules.OptionElemhide) {
		option = option ^ CosmeticOptionCSS
		option = option ^ CosmeticOptionGenericCSS
	}

	if m.BasicRule.IsOptionEnabled(rules.OptionGenerichide) {
		option = option ^ CosmeticOptionGenericCSS
	}

	if m.BasicRule.IsOptionEnabled(rules.OptionJsinject) {
		option = option ^ CosmeticOptionJS
	}

	return option
}

// GetCspRules returns the $csp rules to apply, with whitelist $csp rules
// already taken into account.  A whitelist rule with an empty $csp value
// disables all of them.
func (m *MatchingResult) GetCspRules() []*rules.NetworkRule {
	return filterAdvancedModifierRules(m.CspRules, func(rule *rules.NetworkRule) string {
		return rule.CSP
	})
}

// GetCookieRules returns the $cookie rules to apply, with whitelist $cookie
// rules already taken into account.
func (m *MatchingResult) GetCookieRules() []*rules.NetworkRule {
	return filterAdvancedModifierRules(m.CookieRules, func(rule *rules.NetworkRule) string {
		if rule.Cookie == nil {
			return ""
		}
		return rule.Cookie.Value()
	})
}

// GetReplaceRules returns the $replace rules to apply, with whitelist
// $replace rules already taken into account.
func (m *MatchingResult) GetReplaceRules() []*rules.NetworkRule {
	return filterAdvancedModifierRules(m.ReplaceRules, func(rule *rules.NetworkRule) string {
		if rule.Replace == nil {
			return ""
		}
		return rule.Replace.Value()
	})
}

// isReplaceDisabled checks for a document-level exception with $content or
// $document that disables the $replace rules.
func (m *MatchingResult) isReplaceDisabled() bool {
	for _, rule := range []*rules.NetworkRule{m.BasicRule, m.DocumentRule} {
		if rule == nil || !rule.Whitelist {
			continue
		}
		if rule.IsOptionEnabled(rules.OptionContent) || rule.IsDocumentWhitelistRule() {
			return true
		}
	}

	return false
}

// filterAdvancedModifierRules applies whitelist rules to a set of rules with
// an advanced modifier ($csp, $cookie, $replace).  A whitelist rule negates
// blacklist rules with the same modifier value; a whitelist rule with an
// empty value negates all of them.
func filterAdvancedModifierRules(
	ruleList []*rules.NetworkRule,
	value func(*rules.NetworkRule) string,
) (filtered []*rules.NetworkRule) {
	var whitelist []*rules.NetworkRule
	for _, rule := range ruleList {
		if rule.Whitelist {
			whitelist = append(whitelist, rule)
		}
	}

	for _, rule := range ruleList {
		if rule.Whitelist {
			continue
		}

		negated := false
		for _, w := range whitelist {
			v := value(w)
			if v == "" || v == value(rule) {
				negated = true
				break
			}
		}

		if !negated {
			filtered = append(filtered, rule)
		}
	}

	return filtered
}

// removeBadfilterRules looks if there are any matching $badfilter rules and
// removes matching bad filters from the array (see the $badfilter description
// for more info).
func removeBadfilterRules(ruleList []*rules.NetworkRule) []*rules.NetworkRule {
	var badfilterRules []*rules.NetworkRule

	for _, badfilter := range ruleList {
		if badfilter.IsOptionEnabled(rules.OptionBadfilter) {
			badfilterRules = append(badfilterRules, badfilter)
		}
	}

	if len(badfilterRules) == 0 {
		return ruleList
	}

	filteredRules := []*rules.NetworkRule{}
	for _, rule := range ruleList {
		if rule.IsOptionEnabled(rules.OptionBadfilter) {
			continue
		}

		negated := false
		for _, badfilter := range badfilterRules {
			if badfilter.NegatesBadfilter(rule) {
				negated = true
				break
			}
		}
		if !negated {
			filteredRules = append(filteredRules, rule)
		}
	}

	return filteredRules
}
