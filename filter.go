package contentfilter

import (
	"strings"
	"sync"

	"github.com/AdguardTeam/contentfilter/filterlist"
	"github.com/AdguardTeam/golibs/errors"
)

// Filter is a mutable, named container of filtering rules.  Rules are kept
// in their text form and an [Engine] built of them is created lazily: the
// engine snapshot is immutable, so mutating the filter never disturbs the
// engines already handed out.
type Filter struct {
	// mu protects all the fields below.
	mu sync.Mutex

	// engine is the cached engine snapshot.  nil when the filter was
	// modified after the last Engine call.
	engine *Engine

	// ruleIdx maps rule text to its position in ruleTexts.
	ruleIdx map[string]int

	// Name is the name of this rule container.
	Name string

	// ruleTexts is the ordered list of the rules of this filter.
	ruleTexts []string

	// ID is the filter list identifier.
	ID int
}

// NewFilter creates an empty filter container.
func NewFilter(id int, name string) *Filter {
	return &Filter{
		ruleIdx: map[string]int{},
		Name:    name,
		ID:      id,
	}
}

// AddRule adds a rule to the filter.  Adding a rule with a text that is
// already present is a no-op.  It returns true if the rule was actually
// added.
func (f *Filter) AddRule(ruleText string) (added bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.add(ruleText)
}

// AddRules adds a batch of rules to the filter.  Duplicates are skipped.  It
// returns the number of rules actually added.
func (f *Filter) AddRules(ruleTexts []string) (added int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ruleText := range ruleTexts {
		if f.add(ruleText) {
			added++
		}
	}

	return added
}

// add inserts a single rule.  f.mu must be held.
func (f *Filter) add(ruleText string) (added bool) {
	ruleText = strings.TrimSpace(ruleText)
	if ruleText == "" {
		return false
	}

	if _, ok := f.ruleIdx[ruleText]; ok {
		return false
	}

	f.ruleIdx[ruleText] = len(f.ruleTexts)
	f.ruleTexts = append(f.ruleTexts, ruleText)
	f.engine = nil

	return true
}

// RemoveRule removes the rule with the specified text from the filter.  It
// returns true if the rule was found and removed.
func (f *Filter) RemoveRule(ruleText string) (removed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ruleText = strings.TrimSpace(ruleText)
	idx, ok := f.ruleIdx[ruleText]
	if !ok {
		return false
	}

	f.ruleTexts = append(f.ruleTexts[:idx], f.ruleTexts[idx+1:]...)
	delete(f.ruleIdx, ruleText)
	for i := idx; i < len(f.ruleTexts); i++ {
		f.ruleIdx[f.ruleTexts[i]] = i
	}

	f.engine = nil

	return true
}

// GetRules returns a copy of the filter's rule texts in their original
// order.
func (f *Filter) GetRules() (ruleTexts []string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ruleTexts = make([]string, len(f.ruleTexts))
	copy(ruleTexts, f.ruleTexts)

	return ruleTexts
}

// Len returns the number of rules in the filter.
func (f *Filter) Len() (n int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.ruleTexts)
}

// Engine returns an engine snapshot built of the filter's current rules.
// The engine is rebuilt only when the filter was modified since the last
// call.
func (f *Filter) Engine() (e *Engine, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.engine != nil {
		return f.engine, nil
	}

	list := &filterlist.StringRuleList{
		ID:        f.ID,
		RulesText: strings.Join(f.ruleTexts, "\n"),
	}

	storage, err := filterlist.NewRuleStorage([]filterlist.RuleList{list})
	if err != nil {
		return nil, errors.Annotate(err, "building engine for filter %q: %w", f.Name)
	}

	f.engine = NewEngine(storage)

	return f.engine, nil
}
