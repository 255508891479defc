package lookup

import (
	"github.com/AdguardTeam/contentfilter/rules"
)

// SeqScanTable is basically just a list of network rules that are scanned
// sequentially.  Here we put the rules that are not eligible for other
// tables.
type SeqScanTable struct {
	rules []*rules.NetworkRule
}

// type check
var _ Table = (*SeqScanTable)(nil)

// TryAdd implements the [Table] interface for *SeqScanTable.
func (s *SeqScanTable) TryAdd(f *rules.NetworkRule, _ int64) (ok bool) {
	if containsRule(s.rules, f) {
		return false
	}

	s.rules = append(s.rules, f)

	return true
}

// MatchAll implements the [Table] interface for *SeqScanTable.
func (s *SeqScanTable) MatchAll(r *rules.Request) (result []*rules.NetworkRule) {
	for _, rule := range s.rules {
		if rule.Match(r) {
			result = append(result, rule)
		}
	}

	return result
}

// containsRule checks if the specified rule is already in the list.
func containsRule(list []*rules.NetworkRule, r *rules.NetworkRule) (ok bool) {
	for _, rule := range list {
		if rule.RuleText == r.RuleText {
			return true
		}
	}

	return false
}
