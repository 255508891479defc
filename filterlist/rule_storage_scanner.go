package filterlist

import (
	"github.com/AdguardTeam/contentfilter/rules"
)

// RuleStorageScanner scans multiple RuleScanner instances.  The rule index is
// built from the rule index in the list and the list ID:
// the first 4 bytes is the list ID,
// the second 4 bytes is the rule index inside of the list.
type RuleStorageScanner struct {
	// Scanners is the list of list scanners backing this combined scanner.
	Scanners []*RuleScanner

	// currentScanner is the scanner the rules are currently read from.
	currentScanner *RuleScanner

	// currentScannerIdx is the index of the current scanner.
	currentScannerIdx int
}

// Scan advances the scanner to the next rule, switching to the next list
// scanner when the current one is exhausted.
func (s *RuleStorageScanner) Scan() bool {
	if len(s.Scanners) == 0 {
		return false
	}

	if s.currentScanner == nil {
		s.currentScannerIdx = 0
		s.currentScanner = s.Scanners[s.currentScannerIdx]
	}

	for {
		if s.currentScanner.Scan() {
			return true
		}

		// Take the next scanner or just return false if there's nothing more.
		if s.currentScannerIdx == (len(s.Scanners) - 1) {
			return false
		}

		s.currentScannerIdx++
		s.currentScanner = s.Scanners[s.currentScannerIdx]
	}
}

// Rule returns the most recent rule parsed by a call to Scan, and its storage
// index.
func (s *RuleStorageScanner) Rule() (rules.Rule, int64) {
	if s.currentScanner == nil {
		return nil, 0
	}

	f, idx := s.currentScanner.Rule()
	if f == nil {
		return nil, 0
	}

	return f, ruleListIdxToStorageIdx(f.GetFilterListID(), idx)
}

// ruleListIdxToStorageIdx converts a pair of listID and the rule list index
// to a single int64 "storage index".
func ruleListIdxToStorageIdx(listID, ruleIdx int) int64 {
	return int64(listID)<<32 | int64(ruleIdx)&0xFFFFFFFF
}

// storageIdxToRuleListIdx converts the "storage index" back to the rule list
// identifier and the index of the rule in the list.
func storageIdxToRuleListIdx(storageIdx int64) (listID, ruleIdx int) {
	listID = int(storageIdx >> 32)
	ruleIdx = int(int32(storageIdx))

	return listID, ruleIdx
}
