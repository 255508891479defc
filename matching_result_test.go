package contentfilter

import (
	"testing"

	"github.com/AdguardTeam/contentfilter/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNetworkRule(t *testing.T, ruleText string) *rules.NetworkRule {
	t.Helper()

	f, err := rules.NewNetworkRule(ruleText, 1)
	require.NoError(t, err)
	require.NotNil(t, f)

	return f
}

func TestNewMatchingResult(t *testing.T) {
	ruleText := "||example.org^"
	sourceRuleText := "||example.com^$domain=example.org"

	rule := newTestNetworkRule(t, ruleText)
	sourceRule := newTestNetworkRule(t, sourceRuleText)

	result := NewMatchingResult([]*rules.NetworkRule{rule}, []*rules.NetworkRule{sourceRule})
	assert.Equal(t, rule, result.BasicRule)
	assert.Equal(t, rule, result.GetBasicResult())
	assert.Equal(t, CosmeticOptionAll, result.GetCosmeticOption())
}

func TestNewMatchingResultWhitelist(t *testing.T) {
	ruleText := "||example.org^"
	whitelistRuleText := "@@||example.org^"

	rule := newTestNetworkRule(t, ruleText)
	whitelistRule := newTestNetworkRule(t, whitelistRuleText)

	result := NewMatchingResult([]*rules.NetworkRule{rule, whitelistRule}, nil)
	assert.Equal(t, whitelistRule, result.BasicRule)
	assert.Equal(t, whitelistRule, result.GetBasicResult())
}

func TestGetCosmeticOption(t *testing.T) {
	testCases := []struct {
		name     string
		ruleText string
		want     CosmeticOption
	}{{
		name:     "blocking",
		ruleText: "||example.org^",
		want:     CosmeticOptionAll,
	}, {
		name:     "elemhide",
		ruleText: "@@||example.org^$elemhide",
		want:     CosmeticOptionJS,
	}, {
		name:     "generichide",
		ruleText: "@@||example.org^$generichide",
		want:     CosmeticOptionCSS | CosmeticOptionJS,
	}, {
		name:     "jsinject",
		ruleText: "@@||example.org^$jsinject",
		want:     CosmeticOptionCSS | CosmeticOptionGenericCSS,
	}, {
		name:     "document",
		ruleText: "@@||example.org^$document",
		want:     CosmeticOptionNone,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rule := newTestNetworkRule(t, tc.ruleText)
			result := NewMatchingResult([]*rules.NetworkRule{rule}, nil)
			assert.Equal(t, tc.want, result.GetCosmeticOption())
		})
	}
}

func TestBadfilterRules(t *testing.T) {
	ruleText := "||example.org^"
	badfilterRuleText := "||example.org^$badfilter"

	rule := newTestNetworkRule(t, ruleText)
	badfilterRule := newTestNetworkRule(t, badfilterRuleText)

	result := NewMatchingResult([]*rules.NetworkRule{rule, badfilterRule}, nil)
	assert.Nil(t, result.BasicRule)
	assert.Nil(t, result.DocumentRule)
	assert.Nil(t, result.GetBasicResult())
}

func TestBadfilterSourceRules(t *testing.T) {
	rule := newTestNetworkRule(t, "||example.org^")
	sourceRule := newTestNetworkRule(t, "@@||example.com^$document")
	badfilterRule := newTestNetworkRule(t, "@@||example.com^$document,badfilter")

	sourceRules := []*rules.NetworkRule{sourceRule, badfilterRule}
	result := NewMatchingResult([]*rules.NetworkRule{rule}, sourceRules)
	assert.Nil(t, result.DocumentRule)
	assert.Equal(t, rule, result.GetBasicResult())
}

func TestDocumentUrlblockRule(t *testing.T) {
	rule := newTestNetworkRule(t, "||banner.example.org^")
	sourceRule := newTestNetworkRule(t, "@@||example.org^$urlblock")

	result := NewMatchingResult(
		[]*rules.NetworkRule{rule},
		[]*rules.NetworkRule{sourceRule},
	)
	assert.Nil(t, result.BasicRule)
	assert.Equal(t, sourceRule, result.DocumentRule)
	assert.Equal(t, sourceRule, result.GetBasicResult())
}

func TestDocumentGenericblockRule(t *testing.T) {
	genericRule := newTestNetworkRule(t, "||banner.example.org^")
	specificRule := newTestNetworkRule(t, "||banner.example.org^$domain=example.org")
	sourceRule := newTestNetworkRule(t, "@@||example.org^$genericblock")

	result := NewMatchingResult(
		[]*rules.NetworkRule{genericRule, specificRule},
		[]*rules.NetworkRule{sourceRule},
	)
	assert.Equal(t, specificRule, result.BasicRule)
	assert.Equal(t, specificRule, result.GetBasicResult())
}

func TestReplaceRules(t *testing.T) {
	rule := newTestNetworkRule(t, "||example.org^$replace=/banner/advert/i")

	result := NewMatchingResult([]*rules.NetworkRule{rule}, nil)

	// The request must be let through so that the response can be
	// modified.
	assert.Nil(t, result.GetBasicResult())

	replaceRules := result.GetReplaceRules()
	require.Equal(t, 1, len(replaceRules))
	assert.Equal(t, rule, replaceRules[0])
}

func TestReplaceRulesDisabledByContent(t *testing.T) {
	rule := newTestNetworkRule(t, "||example.org^$replace=/banner/advert/i")
	contentRule := newTestNetworkRule(t, "@@||example.org^$content")

	result := NewMatchingResult([]*rules.NetworkRule{rule, contentRule}, nil)
	assert.Equal(t, contentRule, result.GetBasicResult())
}

func TestReplaceRulesDisabledByDocument(t *testing.T) {
	rule := newTestNetworkRule(t, "||example.org^$replace=/banner/advert/i")
	sourceRule := newTestNetworkRule(t, "@@||example.org^$document")

	result := NewMatchingResult(
		[]*rules.NetworkRule{rule},
		[]*rules.NetworkRule{sourceRule},
	)
	assert.Equal(t, sourceRule, result.GetBasicResult())
}

func TestCspRules(t *testing.T) {
	cspRule := newTestNetworkRule(t, "||example.org^$csp=frame-src 'none'")
	otherCspRule := newTestNetworkRule(t, "||example.org^$csp=script-src 'self'")
	whitelistRule := newTestNetworkRule(t, "@@||example.org^$csp=frame-src 'none'")

	ruleList := []*rules.NetworkRule{cspRule, otherCspRule, whitelistRule}
	result := NewMatchingResult(ruleList, nil)

	cspRules := result.GetCspRules()
	require.Equal(t, 1, len(cspRules))
	assert.Equal(t, otherCspRule, cspRules[0])

	// A whitelist rule with an empty $csp value disables all of them.
	disableAllRule := newTestNetworkRule(t, "@@||example.org^$csp")
	result = NewMatchingResult(append(ruleList, disableAllRule), nil)
	assert.Empty(t, result.GetCspRules())
}

func TestCookieRules(t *testing.T) {
	cookieRule := newTestNetworkRule(t, "||example.org^$cookie=NAME")
	otherCookieRule := newTestNetworkRule(t, "||example.org^$cookie=OTHER")
	whitelistRule := newTestNetworkRule(t, "@@||example.org^$cookie=NAME")

	ruleList := []*rules.NetworkRule{cookieRule, otherCookieRule, whitelistRule}
	result := NewMatchingResult(ruleList, nil)

	cookieRules := result.GetCookieRules()
	require.Equal(t, 1, len(cookieRules))
	assert.Equal(t, otherCookieRule, cookieRules[0])
}
