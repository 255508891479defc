package lookup_test

import (
	"testing"

	"github.com/AdguardTeam/contentfilter/lookup"
	"github.com/AdguardTeam/contentfilter/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShortcutsTable_TryAdd(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		want assert.BoolAssertionFunc
		name string
		text string
	}{{
		want: assert.False,
		name: "no_shortcuts",
		text: testRuleTextNoShortcutsTiny,
	}, {
		want: assert.False,
		name: "no_shortcuts_url",
		text: testRuleTextNoShortcutsURL,
	}, {
		want: assert.True,
		name: "success",
		text: testRuleText,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := newStorage(t, tc.text)
			tbl := lookup.NewShortcutsTable(s)
			assertRuleIsAdded(t, tbl, s, tc.want)
		})
	}
}

func TestShortcutsTable_MatchAll(t *testing.T) {
	t.Parallel()

	s := newStorage(t, testRuleTextAll)
	tbl := lookup.NewShortcutsTable(s)
	loadTable(t, tbl, s)

	testCases := []struct {
		name         string
		urlStr       string
		wantRuleText string
	}{{
		name:         "no_match",
		urlStr:       testURLStrNoMatch,
		wantRuleText: "",
	}, {
		name:         "match",
		urlStr:       testURLStrWithDomain,
		wantRuleText: testRule,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := rules.NewRequest(tc.urlStr, tc.urlStr, rules.TypeOther)
			assertMatch(t, tbl, r, tc.wantRuleText)
		})
	}
}

func BenchmarkShortcutsTable_MatchAll(b *testing.B) {
	s := newStorage(b, testRuleTextAll)
	tbl := lookup.NewShortcutsTable(s)
	loadTable(b, tbl, s)

	r := rules.NewRequest(testURLStrWithDomain, testURLStrWithDomain, rules.TypeOther)

	var gotRules []*rules.NetworkRule

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		gotRules = tbl.MatchAll(r)
	}

	require.Len(b, gotRules, 1)
}
