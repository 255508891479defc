// Package contentfilter implements a content filtering engine: it parses
// filtering rules and provides a fast way of checking web requests and pages
// against them.
package contentfilter

import (
	"github.com/AdguardTeam/contentfilter/filterlist"
	"github.com/AdguardTeam/contentfilter/rules"
)

// Engine represents the filtering engine with all the loaded rules.
type Engine struct {
	networkEngine  *NetworkEngine
	cosmeticEngine *CosmeticEngine
	contentEngine  *ContentEngine
}

// NewEngine parses the filtering rules and creates a filtering engine of
// them.
func NewEngine(s *filterlist.RuleStorage) *Engine {
	return &Engine{
		networkEngine:  NewNetworkEngine(s),
		cosmeticEngine: NewCosmeticEngine(s),
		contentEngine:  NewContentEngine(s),
	}
}

// RulesCount returns the count of rules loaded into the engine.
func (e *Engine) RulesCount() int {
	return e.networkEngine.RulesCount +
		e.cosmeticEngine.RulesCount +
		e.contentEngine.RulesCount
}

// MatchRequest matches the specified request against the filtering engine and
// returns the matching result.
func (e *Engine) MatchRequest(r *rules.Request) *MatchingResult {
	var networkRules []*rules.NetworkRule
	var sourceRules []*rules.NetworkRule

	networkRules = e.networkEngine.MatchAll(r)
	if r.SourceURL != "" {
		sourceRequest := rules.NewRequest(r.SourceURL, "", rules.TypeDocument)
		sourceRules = e.networkEngine.MatchAll(sourceRequest)
	}

	return NewMatchingResult(networkRules, sourceRules)
}

// GetCosmeticResult gets the cosmetic result for the specified hostname and
// cosmetic options.
func (e *Engine) GetCosmeticResult(hostname string, option CosmeticOption) CosmeticResult {
	includeCSS := option&CosmeticOptionCSS == CosmeticOptionCSS
	includeGenericCSS := option&CosmeticOptionGenericCSS == CosmeticOptionGenericCSS
	includeJS := option&CosmeticOptionJS == CosmeticOptionJS

	return e.cosmeticEngine.Match(hostname, includeCSS, includeJS, includeGenericCSS)
}

// GetContentRules returns the content rules applicable on the specified
// hostname.
func (e *Engine) GetContentRules(hostname string) []*rules.ContentRule {
	return e.contentEngine.Match(hostname)
}
