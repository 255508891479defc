package contentfilter

import (
	"sync/atomic"

	"github.com/AdguardTeam/contentfilter/filterlist"
	"github.com/AdguardTeam/contentfilter/rules"
	"github.com/AdguardTeam/golibs/errors"
)

// Standard rule container names.  The order of this list is the order in
// which the containers are registered by default.
const (
	ContainerAds        = "ads"
	ContainerPrivacy    = "privacy"
	ContainerSocial     = "social"
	ContainerAnnoyances = "annoyances"
	ContainerCustom     = "custom"
	ContainerUser       = "user"

	// ContainerWhitelist holds the exception rules built of the sites the
	// user has whitelisted.
	ContainerWhitelist = "whitelist"
)

// RequestFilter is the facade that combines the engines of several rule
// containers and answers filtering questions about web requests and pages.
//
// A RequestFilter is immutable: it holds the engine snapshots that were
// current at construction time.  To pick up container changes, build a new
// one and publish it through a [RequestFilterHolder].
type RequestFilter struct {
	// engines is the list of container engines in registration order.  When
	// two matched rules have equal priority, the rule from the
	// earlier-registered container wins, since strictly higher priority is
	// required to displace an already-found rule.
	engines []*containerEngine
}

// containerEngine is an engine snapshot bound to the container name it was
// built from.
type containerEngine struct {
	engine *Engine
	name   string
}

// NewRequestFilter builds a request filter from the current state of the
// specified containers.  Container order defines the match tie-break order.
func NewRequestFilter(filters ...*Filter) (f *RequestFilter, err error) {
	f = &RequestFilter{}

	for _, filter := range filters {
		engine, eerr := filter.Engine()
		if eerr != nil {
			return nil, errors.Annotate(eerr, "container %q: %w", filter.Name)
		}

		f.engines = append(f.engines, &containerEngine{
			engine: engine,
			name:   filter.Name,
		})
	}

	return f, nil
}

// NewRequestFilterFromStorage builds a request filter with a single unnamed
// container on top of an existing rule storage.
func NewRequestFilterFromStorage(s *filterlist.RuleStorage) *RequestFilter {
	return &RequestFilter{
		engines: []*containerEngine{{
			engine: NewEngine(s),
			name:   ContainerCustom,
		}},
	}
}

// RulesCount returns the count of rules loaded into all the container
// engines.
func (f *RequestFilter) RulesCount() (n int) {
	for _, ce := range f.engines {
		n += ce.engine.RulesCount()
	}

	return n
}

// MatchRequest matches the request against all the containers and returns
// the combined matching result.
func (f *RequestFilter) MatchRequest(r *rules.Request) *MatchingResult {
	var networkRules []*rules.NetworkRule
	var sourceRules []*rules.NetworkRule

	var sourceRequest *rules.Request
	if r.SourceURL != "" {
		sourceRequest = rules.NewRequest(r.SourceURL, "", rules.TypeDocument)
	}

	for _, ce := range f.engines {
		networkRules = append(networkRules, ce.engine.networkEngine.MatchAll(r)...)
		if sourceRequest != nil {
			sourceRules = append(sourceRules, ce.engine.networkEngine.MatchAll(sourceRequest)...)
		}
	}

	return NewMatchingResult(networkRules, sourceRules)
}

// Verdict is the summary of what should be done with a web request.
type Verdict struct {
	// Rule is the network rule the verdict is based on.  nil when no rule
	// matched.
	Rule *rules.NetworkRule

	// CSP is the list of Content-Security-Policy values to add to the
	// response.
	CSP []string

	// Cookies is the list of $cookie modifiers to apply to the request's and
	// response's cookies.
	Cookies []*rules.CookieModifier

	// Replaces is the list of $replace modifiers to apply to the response
	// content.
	Replaces []*rules.ReplaceModifier

	// Blocked tells whether the request should be blocked.
	Blocked bool
}

// Check matches the request and folds the matching result into a verdict.
func (f *RequestFilter) Check(r *rules.Request) (v Verdict) {
	result := f.MatchRequest(r)

	basic := result.GetBasicResult()
	v.Rule = basic
	v.Blocked = basic != nil && !basic.Whitelist

	for _, rule := range result.GetCspRules() {
		v.CSP = append(v.CSP, rule.CSP)
	}
	for _, rule := range result.GetCookieRules() {
		if rule.Cookie != nil {
			v.Cookies = append(v.Cookies, rule.Cookie)
		}
	}
	for _, rule := range result.GetReplaceRules() {
		if rule.Replace != nil {
			v.Replaces = append(v.Replaces, rule.Replace)
		}
	}

	return v
}

// GetCosmeticResult merges the cosmetic results of all the containers for
// the specified hostname.
func (f *RequestFilter) GetCosmeticResult(hostname string, option CosmeticOption) (r CosmeticResult) {
	for _, ce := range f.engines {
		cr := ce.engine.GetCosmeticResult(hostname, option)

		appendStylesResult(&r.ElementHiding, &cr.ElementHiding)
		appendStylesResult(&r.CSS, &cr.CSS)
		r.JS.Generic = append(r.JS.Generic, cr.JS.Generic...)
		r.JS.Specific = append(r.JS.Specific, cr.JS.Specific...)
	}

	return r
}

// GetContentRules merges the content rules of all the containers for the
// specified hostname.
func (f *RequestFilter) GetContentRules(hostname string) (result []*rules.ContentRule) {
	for _, ce := range f.engines {
		result = append(result, ce.engine.GetContentRules(hostname)...)
	}

	return result
}

// appendStylesResult merges src into dst.
func appendStylesResult(dst, src *StylesResult) {
	dst.Generic = append(dst.Generic, src.Generic...)
	dst.Specific = append(dst.Specific, src.Specific...)
	dst.GenericExtCSS = append(dst.GenericExtCSS, src.GenericExtCSS...)
	dst.SpecificExtCSS = append(dst.SpecificExtCSS, src.SpecificExtCSS...)
}

// RequestFilterHolder publishes RequestFilter snapshots.  Readers always
// observe a complete filter generation: the filter is built first and then
// swapped in with a single atomic store.
type RequestFilterHolder struct {
	ptr atomic.Pointer[RequestFilter]
}

// Get returns the current filter generation, or nil when nothing has been
// published yet.
func (h *RequestFilterHolder) Get() *RequestFilter {
	return h.ptr.Load()
}

// Store publishes a new filter generation.
func (h *RequestFilterHolder) Store(f *RequestFilter) {
	h.ptr.Store(f)
}
