package lookup_test

import (
	"testing"

	"github.com/AdguardTeam/contentfilter/lookup"
	"github.com/AdguardTeam/contentfilter/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainsTable_TryAdd(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		want assert.BoolAssertionFunc
		name string
		text string
	}{{
		want: assert.False,
		name: "no_domain",
		text: testRuleTextNoDomain,
	}, {
		want: assert.True,
		name: "domain",
		text: testRuleTextWithDomain,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := newStorage(t, tc.text)
			tbl := lookup.NewDomainsTable(s)
			assertRuleIsAdded(t, tbl, s, tc.want)
		})
	}
}

func TestDomainsTable_MatchAll(t *testing.T) {
	t.Parallel()

	s := newStorage(t, testRuleTextAll)
	tbl := lookup.NewDomainsTable(s)
	loadTable(t, tbl, s)

	testCases := []struct {
		name         string
		urlStr       string
		srcURLStr    string
		wantRuleText string
	}{{
		name:         "no_match",
		urlStr:       testURLStrNoDomain,
		srcURLStr:    testURLStrNoDomain,
		wantRuleText: "",
	}, {
		name:         "no_src",
		urlStr:       testURLStrWithSubdomain,
		srcURLStr:    "",
		wantRuleText: "",
	}, {
		name:         "match_domain",
		urlStr:       testURLStrWithSubdomain,
		srcURLStr:    testURLStrWithDomain,
		wantRuleText: testRuleWithDomain,
	}, {
		name:         "match_subdomain",
		urlStr:       testURLStrWithSubdomain,
		srcURLStr:    testURLStrWithSubdomain,
		wantRuleText: testRuleWithDomain,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := rules.NewRequest(tc.urlStr, tc.srcURLStr, rules.TypeOther)
			assertMatch(t, tbl, r, tc.wantRuleText)
		})
	}
}

func BenchmarkDomainsTable_MatchAll(b *testing.B) {
	s := newStorage(b, testRuleTextAll)
	tbl := lookup.NewDomainsTable(s)
	loadTable(b, tbl, s)

	r := rules.NewRequest(testURLStrWithSubdomain, testURLStrWithDomain, rules.TypeOther)

	var gotRules []*rules.NetworkRule

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		gotRules = tbl.MatchAll(r)
	}

	require.Len(b, gotRules, 1)
}
