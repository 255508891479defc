package filterlist

import (
	"bufio"
	"io"
	"strings"

	"github.com/AdguardTeam/contentfilter/rules"
)

// RuleScanner implements an interface for reading filtering rules from a rule
// list line by line.  Invalid lines and comments are skipped silently.
type RuleScanner struct {
	// reader is the rule list contents reader.
	reader *bufio.Reader

	// currentRule is the most recently parsed rule.
	currentRule rules.Rule

	// currentRuleIdx is the byte offset of the line the most recently parsed
	// rule starts at.
	currentRuleIdx int

	// currentPos is the current position of the scanner in the reader.
	currentPos int

	// listID is the identifier of the rule list being scanned.
	listID int

	// ignoreCosmetic tells the scanner to skip cosmetic and HTML filtering
	// rules.
	ignoreCosmetic bool

	// done is set when the reader is exhausted.
	done bool
}

// NewRuleScanner creates a new instance of the RuleScanner.
func NewRuleScanner(reader io.Reader, listID int, ignoreCosmetic bool) *RuleScanner {
	return &RuleScanner{
		reader:         bufio.NewReader(reader),
		listID:         listID,
		ignoreCosmetic: ignoreCosmetic,
	}
}

// Scan advances the scanner to the next rule.  It returns false when the scan
// stops, either by reaching the end of the input or on an i/o error.
func (s *RuleScanner) Scan() bool {
	if s.done {
		return false
	}

	for {
		lineIdx := s.currentPos
		line, err := s.readLine()
		if err != nil && err != io.EOF {
			s.done = true

			return false
		}

		rule := s.parseLine(line)
		if rule != nil {
			s.currentRule = rule
			s.currentRuleIdx = lineIdx

			return true
		}

		if err == io.EOF {
			s.done = true

			return false
		}
	}
}

// Rule returns the most recent rule parsed by a call to Scan, and the byte
// offset of its line in the list.
func (s *RuleScanner) Rule() (rules.Rule, int) {
	return s.currentRule, s.currentRuleIdx
}

// readLine reads the next line and advances the scanner position.
func (s *RuleScanner) readLine() (line string, err error) {
	line, err = s.reader.ReadString('\n')
	s.currentPos += len(line)

	return line, err
}

// parseLine builds a rule from the line or returns nil if the line does not
// contain a usable rule.
func (s *RuleScanner) parseLine(line string) rules.Rule {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	rule, err := rules.NewRule(line, s.listID)
	if err != nil {
		return nil
	}

	if s.ignoreCosmetic {
		switch rule.(type) {
		case *rules.CosmeticRule, *rules.ContentRule:
			return nil
		}
	}

	return rule
}
