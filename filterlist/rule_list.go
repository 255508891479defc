// Package filterlist provides different implementations of the rule lists
// and the serialized rule storage on top of them.
package filterlist

import (
	"bufio"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/AdguardTeam/contentfilter/rules"
	"github.com/AdguardTeam/golibs/errors"
)

// ErrRuleRetrieval signals that the rule cannot be retrieved by the specified
// index.
const ErrRuleRetrieval errors.Error = "cannot retrieve the rule"

// RuleList represents a set of filtering rules.
type RuleList interface {
	// GetID returns the rule list identifier.
	GetID() int

	// NewScanner creates a new scanner that reads the list contents.
	NewScanner() *RuleScanner

	// RetrieveRule retrieves a rule by its index.
	RetrieveRule(ruleIdx int) (rules.Rule, error)

	// Closer is used to close the rules list.
	io.Closer
}

// StringRuleList represents a string-based rule list.
type StringRuleList struct {
	// RulesText is a string with filtering rules (one per line).
	RulesText string

	// ID is the rule list identifier.
	ID int

	// IgnoreCosmetic defines whether to ignore cosmetic rules or not.
	IgnoreCosmetic bool
}

// type check
var _ RuleList = (*StringRuleList)(nil)

// GetID returns the rule list identifier.
func (l *StringRuleList) GetID() int {
	return l.ID
}

// NewScanner creates a new rule scanner that reads the list contents.
func (l *StringRuleList) NewScanner() *RuleScanner {
	return NewRuleScanner(strings.NewReader(l.RulesText), l.ID, l.IgnoreCosmetic)
}

// RetrieveRule finds and deserializes the rule by its index.  If there's no
// rule by that index or the rule is invalid, it returns an error.
func (l *StringRuleList) RetrieveRule(ruleIdx int) (rules.Rule, error) {
	if ruleIdx < 0 || ruleIdx >= len(l.RulesText) {
		return nil, ErrRuleRetrieval
	}

	endOfLine := strings.IndexByte(l.RulesText[ruleIdx:], '\n')
	if endOfLine == -1 {
		endOfLine = len(l.RulesText)
	} else {
		endOfLine += ruleIdx
	}

	line := strings.TrimSpace(l.RulesText[ruleIdx:endOfLine])
	if line == "" {
		return nil, ErrRuleRetrieval
	}

	return rules.NewRule(line, l.ID)
}

// Close does nothing for a string-based rule list.
func (l *StringRuleList) Close() error {
	return nil
}

// FileRuleList represents a file-based rule list.  Rules are read from the
// file lazily, only the line offsets are kept in memory by the engines.
type FileRuleList struct {
	// mu protects the file handle from concurrent seeks.
	mu sync.Mutex

	// file is the opened rule list file.
	file *os.File

	// ID is the rule list identifier.
	ID int

	// IgnoreCosmetic defines whether to ignore cosmetic rules or not.
	IgnoreCosmetic bool
}

// type check
var _ RuleList = (*FileRuleList)(nil)

// NewFileRuleList creates a rule list backed by the file at path.
func NewFileRuleList(id int, path string, ignoreCosmetic bool) (l *FileRuleList, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Annotate(err, "opening rule list file: %w")
	}

	return &FileRuleList{
		file:           file,
		ID:             id,
		IgnoreCosmetic: ignoreCosmetic,
	}, nil
}

// GetID returns the rule list identifier.
func (l *FileRuleList) GetID() int {
	return l.ID
}

// NewScanner creates a new rule scanner that reads the list contents.  The
// scanner shares the underlying file handle with RetrieveRule, so the list
// must be scanned before the rules are retrieved.
func (l *FileRuleList) NewScanner() *RuleScanner {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, _ = l.file.Seek(0, io.SeekStart)

	return NewRuleScanner(l.file, l.ID, l.IgnoreCosmetic)
}

// RetrieveRule finds and deserializes the rule by its index.
func (l *FileRuleList) RetrieveRule(ruleIdx int) (rules.Rule, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ruleIdx < 0 {
		return nil, ErrRuleRetrieval
	}

	_, err := l.file.Seek(int64(ruleIdx), io.SeekStart)
	if err != nil {
		return nil, ErrRuleRetrieval
	}

	reader := bufio.NewReader(l.file)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, ErrRuleRetrieval
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return nil, ErrRuleRetrieval
	}

	return rules.NewRule(line, l.ID)
}

// Close closes the underlying file.
func (l *FileRuleList) Close() error {
	return l.file.Close()
}
