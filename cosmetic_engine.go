package contentfilter

import (
	"strings"

	"github.com/AdguardTeam/contentfilter/filterlist"
	"github.com/AdguardTeam/contentfilter/rules"
)

// CosmeticEngine combines all the cosmetic rules and allows to quickly find
// all rules matching this or that hostname.
type CosmeticEngine struct {
	// RulesCount is the count of rules added to the engine.
	RulesCount int

	lookupTables map[rules.CosmeticRuleType]*cosmeticLookupTable
}

// NewCosmeticEngine builds a new cosmetic engine from the rules of the
// specified storage.
func NewCosmeticEngine(s *filterlist.RuleStorage) *CosmeticEngine {
	engine := &CosmeticEngine{
		lookupTables: map[rules.CosmeticRuleType]*cosmeticLookupTable{
			rules.CosmeticElementHiding: newCosmeticLookupTable(),
			rules.CosmeticCSS:           newCosmeticLookupTable(),
			rules.CosmeticJS:            newCosmeticLookupTable(),
		},
	}

	scanner := s.NewRuleStorageScanner()
	for scanner.Scan() {
		f, _ := scanner.Rule()
		rule, ok := f.(*rules.CosmeticRule)
		if ok {
			engine.addRule(rule)
		}
	}

	return engine
}

// addRule adds a new cosmetic rule to one of the lookup tables.
func (e *CosmeticEngine) addRule(f *rules.CosmeticRule) {
	table, ok := e.lookupTables[f.Type]
	if !ok {
		return
	}

	table.addRule(f)
	e.RulesCount++
}

// StylesResult contains the CSS styles to be applied to a page.
type StylesResult struct {
	Generic        []string `json:"generic"`
	Specific       []string `json:"specific"`
	GenericExtCSS  []string `json:"genericExtCss"`
	SpecificExtCSS []string `json:"specificExtCss"`
}

func (s *StylesResult) append(r *rules.CosmeticRule) {
	switch {
	case r.IsGeneric() && r.ExtendedCSS:
		s.GenericExtCSS = append(s.GenericExtCSS, r.Content)
	case r.IsGeneric():
		s.Generic = append(s.Generic, r.Content)
	case r.ExtendedCSS:
		s.SpecificExtCSS = append(s.SpecificExtCSS, r.Content)
	default:
		s.Specific = append(s.Specific, r.Content)
	}
}

// ScriptsResult contains the scripts to be executed on a page.
type ScriptsResult struct {
	Generic  []string `json:"generic"`
	Specific []string `json:"specific"`
}

func (s *ScriptsResult) append(r *rules.CosmeticRule) {
	if r.IsGeneric() {
		s.Generic = append(s.Generic, r.Content)
	} else {
		s.Specific = append(s.Specific, r.Content)
	}
}

// CosmeticResult represents all scripts and styles that needs to be injected
// into the page.
type CosmeticResult struct {
	// ElementHiding is the element hiding styles.
	ElementHiding StylesResult `json:"elementHiding"`

	// CSS is the styles from the CSS injection rules.
	CSS StylesResult `json:"css"`

	// JS is the scripts to be injected into the page.
	JS ScriptsResult `json:"js"`
}

// Match builds scripts and styles that needs to be injected into the
// specified page.
//
// hostname is the page hostname.
// includeCSS defines if we should inject any CSS and element hiding rules
// (see $elemhide).
// includeJS defines if we should inject JS into the page (see $jsinject).
// includeGenericCSS defines if we should inject generic CSS and element
// hiding rules (see $generichide).
func (e *CosmeticEngine) Match(
	hostname string,
	includeCSS, includeJS, includeGenericCSS bool,
) (r CosmeticResult) {
	if includeCSS {
		e.appendStyles(&r.ElementHiding, rules.CosmeticElementHiding, hostname, includeGenericCSS)
		e.appendStyles(&r.CSS, rules.CosmeticCSS, hostname, includeGenericCSS)
	}

	if includeJS {
		c := e.lookupTables[rules.CosmeticJS]
		for _, rule := range c.genericRules {
			if rule.Match(hostname) && !c.isWhitelisted(hostname, rule) {
				r.JS.append(rule)
			}
		}
		for _, rule := range c.findByHostname(hostname) {
			r.JS.append(rule)
		}
	}

	return r
}

// appendStyles fills a StylesResult from the lookup table of the specified
// rule type.
func (e *CosmeticEngine) appendStyles(
	s *StylesResult,
	ruleType rules.CosmeticRuleType,
	hostname string,
	includeGeneric bool,
) {
	c := e.lookupTables[ruleType]

	if includeGeneric {
		for _, rule := range c.genericRules {
			if rule.Match(hostname) && !c.isWhitelisted(hostname, rule) {
				s.append(rule)
			}
		}
	}

	for _, rule := range c.findByHostname(hostname) {
		s.append(rule)
	}
}

// cosmeticLookupTable is a helper structure to speed up cosmetic rules
// matching.
type cosmeticLookupTable struct {
	// byHostname is a map with rules grouped by their permitted domains.
	byHostname map[string][]*rules.CosmeticRule

	// genericRules is the list of rules which are not limited to a domain.
	genericRules []*rules.CosmeticRule

	// whitelist is a map with whitelist rules.  The key is the rule content.
	whitelist map[string][]*rules.CosmeticRule
}

// newCosmeticLookupTable creates a new empty instance of the lookup table.
func newCosmeticLookupTable() *cosmeticLookupTable {
	return &cosmeticLookupTable{
		byHostname: map[string][]*rules.CosmeticRule{},
		whitelist:  map[string][]*rules.CosmeticRule{},
	}
}

// addRule adds the specified rule to the lookup table.
func (c *cosmeticLookupTable) addRule(f *rules.CosmeticRule) {
	if f.Whitelist {
		c.whitelist[f.Content] = append(c.whitelist[f.Content], f)

		return
	}

	if f.IsGeneric() {
		c.genericRules = append(c.genericRules, f)

		return
	}

	for _, hostname := range f.GetPermittedDomains() {
		c.byHostname[hostname] = append(c.byHostname[hostname], f)
	}
}

// findByHostname looks for matching domain-specific rules, with the
// whitelisted ones already filtered out.  A rule registered under several
// permitted domains is returned once.
func (c *cosmeticLookupTable) findByHostname(hostname string) (result []*rules.CosmeticRule) {
	if len(c.byHostname) == 0 {
		return nil
	}

	for _, domain := range hostnameAndSubdomains(hostname) {
		for _, rule := range c.byHostname[domain] {
			if cosmeticRuleIn(result, rule) {
				continue
			}

			if rule.Match(hostname) && !c.isWhitelisted(hostname, rule) {
				result = append(result, rule)
			}
		}
	}

	return result
}

// cosmeticRuleIn checks if the rule is already in the list.
func cosmeticRuleIn(list []*rules.CosmeticRule, rule *rules.CosmeticRule) bool {
	for _, r := range list {
		if r == rule {
			return true
		}
	}

	return false
}

// isWhitelisted checks if the rule content is disabled on the specified
// hostname by a whitelist rule.
func (c *cosmeticLookupTable) isWhitelisted(hostname string, f *rules.CosmeticRule) bool {
	for _, rule := range c.whitelist[f.Content] {
		if rule.Match(hostname) {
			return true
		}
	}

	return false
}

// hostnameAndSubdomains returns the hostname itself plus every domain it is a
// subdomain of.
func hostnameAndSubdomains(hostname string) (domains []string) {
	domains = append(domains, hostname)
	for i := strings.IndexByte(hostname, '.'); i != -1; i = strings.IndexByte(hostname, '.') {
		hostname = hostname[i+1:]
		domains = append(domains, hostname)
	}

	return domains
}
