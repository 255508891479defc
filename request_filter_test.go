package contentfilter_test

import (
	"testing"

	"github.com/AdguardTeam/contentfilter"
	"github.com/AdguardTeam/contentfilter/filterlist"
	"github.com/AdguardTeam/contentfilter/rules"
	"github.com/AdguardTeam/golibs/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRequestFilter builds a request filter of several containers, one
// rule set per container.
func newTestRequestFilter(t *testing.T, containers map[string][]string) *contentfilter.RequestFilter {
	t.Helper()

	names := []string{
		contentfilter.ContainerAds,
		contentfilter.ContainerPrivacy,
		contentfilter.ContainerSocial,
		contentfilter.ContainerAnnoyances,
		contentfilter.ContainerCustom,
		contentfilter.ContainerUser,
		contentfilter.ContainerWhitelist,
	}

	var filters []*contentfilter.Filter
	id := 1
	for _, name := range names {
		ruleTexts, ok := containers[name]
		if !ok {
			continue
		}

		f := contentfilter.NewFilter(id, name)
		f.AddRules(ruleTexts)
		filters = append(filters, f)
		id++
	}

	rf, err := contentfilter.NewRequestFilter(filters...)
	require.NoError(t, err)

	return rf
}

func TestRequestFilter_Check_blocked(t *testing.T) {
	t.Parallel()

	rf := newTestRequestFilter(t, map[string][]string{
		contentfilter.ContainerAds: {"||tracker.example^$third-party"},
	})

	r := rules.NewRequest(
		"https://tracker.example/collect.js",
		"https://example.org/",
		rules.TypeScript,
	)
	v := rf.Check(r)
	assert.True(t, v.Blocked)
	require.NotNil(t, v.Rule)
	assert.Equal(t, "||tracker.example^$third-party", v.Rule.String())
}

func TestRequestFilter_Check_whitelisted(t *testing.T) {
	t.Parallel()

	rf := newTestRequestFilter(t, map[string][]string{
		contentfilter.ContainerAds:       {"||tracker.example^"},
		contentfilter.ContainerWhitelist: {"@@||tracker.example^"},
	})

	r := rules.NewRequest("https://tracker.example/collect.js", "", rules.TypeScript)
	v := rf.Check(r)
	assert.False(t, v.Blocked)
	require.NotNil(t, v.Rule)
	assert.True(t, v.Rule.Whitelist)
}

func TestRequestFilter_Check_modifiers(t *testing.T) {
	t.Parallel()

	rf := newTestRequestFilter(t, map[string][]string{
		contentfilter.ContainerAds: {
			"||example.org^$csp=frame-src 'none'",
			"||example.org^$cookie=__utm",
		},
		contentfilter.ContainerPrivacy: {
			"||example.org^$replace=/banner/advert/i",
		},
	})

	r := rules.NewRequest("https://example.org/page.html", "", rules.TypeDocument)
	v := rf.Check(r)

	// $replace lets the request through so that the response can be
	// rewritten.
	assert.False(t, v.Blocked)
	assert.Equal(t, []string{"frame-src 'none'"}, v.CSP)
	require.Equal(t, 1, len(v.Cookies))
	assert.True(t, v.Cookies[0].MatchesCookie("__utm"))
	require.Equal(t, 1, len(v.Replaces))
	assert.Equal(t, "advert", v.Replaces[0].Apply("BANNER"))
}

func TestRequestFilter_containerOrder(t *testing.T) {
	t.Parallel()

	// Rules of equal priority: the earlier-registered container wins.
	rf := newTestRequestFilter(t, map[string][]string{
		contentfilter.ContainerAds:     {"||example.org^"},
		contentfilter.ContainerPrivacy: {"||example.org^$important"},
	})

	r := rules.NewRequest("https://example.org/", "", rules.TypeOther)
	v := rf.Check(r)
	require.NotNil(t, v.Rule)
	assert.Equal(t, "||example.org^$important", v.Rule.String())

	rf = newTestRequestFilter(t, map[string][]string{
		contentfilter.ContainerAds:     {"||example.org^$script"},
		contentfilter.ContainerPrivacy: {"||example.org^$script"},
	})

	r = rules.NewRequest("https://example.org/main.js", "", rules.TypeScript)
	v = rf.Check(r)
	require.NotNil(t, v.Rule)
	assert.Equal(t, 1, v.Rule.FilterListID)
}

func TestRequestFilter_GetCosmeticResult(t *testing.T) {
	t.Parallel()

	rf := newTestRequestFilter(t, map[string][]string{
		contentfilter.ContainerAds:        {"##banner_ads"},
		contentfilter.ContainerAnnoyances: {"example.org##banner_annoyance"},
	})

	result := rf.GetCosmeticResult("example.org", contentfilter.CosmeticOptionAll)
	assert.Contains(t, result.ElementHiding.Generic, "banner_ads")
	assert.Contains(t, result.ElementHiding.Specific, "banner_annoyance")

	result = rf.GetCosmeticResult("example.com", contentfilter.CosmeticOptionAll)
	assert.Contains(t, result.ElementHiding.Generic, "banner_ads")
	assert.Nil(t, result.ElementHiding.Specific)
}

func TestRequestFilter_generichide(t *testing.T) {
	t.Parallel()

	rf := newTestRequestFilter(t, map[string][]string{
		contentfilter.ContainerAds: {
			"##banner_generic",
			"example.org##banner_specific",
		},
		contentfilter.ContainerWhitelist: {"@@||example.org^$generichide"},
	})

	r := rules.NewRequest("https://example.org/", "", rules.TypeDocument)
	result := rf.MatchRequest(r)
	option := result.GetCosmeticOption()

	cosmetic := rf.GetCosmeticResult("example.org", option)
	assert.Nil(t, cosmetic.ElementHiding.Generic)
	assert.Contains(t, cosmetic.ElementHiding.Specific, "banner_specific")
}

func TestRequestFilter_elemhide(t *testing.T) {
	t.Parallel()

	rf := newTestRequestFilter(t, map[string][]string{
		contentfilter.ContainerAds: {
			"##banner_generic",
			"example.org##banner_specific",
		},
		contentfilter.ContainerWhitelist: {"@@||example.org^$elemhide"},
	})

	r := rules.NewRequest("https://example.org/", "", rules.TypeDocument)
	result := rf.MatchRequest(r)
	option := result.GetCosmeticOption()

	cosmetic := rf.GetCosmeticResult("example.org", option)
	assert.Nil(t, cosmetic.ElementHiding.Generic)
	assert.Nil(t, cosmetic.ElementHiding.Specific)
}

func TestRequestFilter_GetContentRules(t *testing.T) {
	t.Parallel()

	rf := newTestRequestFilter(t, map[string][]string{
		contentfilter.ContainerAds:  {`example.org$$div[id="ad_frame"]`},
		contentfilter.ContainerUser: {`example.org$$span[class="sponsored"]`},
	})

	contentRules := rf.GetContentRules("example.org")
	assert.Equal(t, 2, len(contentRules))
	assert.Empty(t, rf.GetContentRules("example.com"))
}

func TestRequestFilterFromStorage(t *testing.T) {
	t.Parallel()

	list := &filterlist.StringRuleList{
		ID:        1,
		RulesText: "||example.org^\n##banner",
	}
	storage, err := filterlist.NewRuleStorage([]filterlist.RuleList{list})
	require.NoError(t, err)
	testutil.CleanupAndRequireSuccess(t, storage.Close)

	rf := contentfilter.NewRequestFilterFromStorage(storage)
	assert.Equal(t, 2, rf.RulesCount())

	r := rules.NewRequest("https://example.org/", "", rules.TypeOther)
	assert.True(t, rf.Check(r).Blocked)
}

func TestRequestFilterHolder(t *testing.T) {
	t.Parallel()

	h := &contentfilter.RequestFilterHolder{}
	assert.Nil(t, h.Get())

	rf := newTestRequestFilter(t, map[string][]string{
		contentfilter.ContainerAds: {"||example.org^"},
	})
	h.Store(rf)
	assert.Same(t, rf, h.Get())

	other := newTestRequestFilter(t, map[string][]string{
		contentfilter.ContainerAds: {"||example.com^"},
	})
	h.Store(other)
	assert.Same(t, other, h.Get())
}
