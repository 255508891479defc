package rules

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/AdguardTeam/golibs/errors"
	"golang.org/x/net/html"
)

// Content rule masks.
const (
	maskContentRule          = "$$"
	maskContentExceptionRule = "$@$"
)

// Special content rule attributes that are not element attribute selectors.
const (
	attrTagContent        = "tag-content"
	attrWildcard          = "wildcard"
	attrMaxLength         = "max-length"
	attrMinLength         = "min-length"
	attrParentElements    = "parent-elements"
	attrParentSearchLevel = "parent-search-level"
)

// defaultParentSearchLevel is how many levels up the tree we go looking for a
// parent element when the rule does not override it.
const defaultParentSearchLevel = 3

// defaultMaxContentLength limits the inner content length of the elements the
// rule is checked against.
const defaultMaxContentLength = 8192

// ContentRule is a rule for modifying HTML documents: it removes the HTML
// elements it matches from the page before it is rendered.
//
// Rule syntax: [domains]$$tagName[attr1="value1"][attr2="value2"]
type ContentRule struct {
	RuleText     string // RuleText is the original rule text
	FilterListID int    // Filter list identifier

	permittedDomains  []string // a list of permitted domains for this rule
	restrictedDomains []string // a list of restricted domains for this rule

	// Whitelist means that this rule disables other rules with the same tag
	// name on the specified domains.
	Whitelist bool

	// TagName is the name of the HTML elements this rule looks for.
	TagName string

	// Attributes that the element must have, in the order they were listed in
	// the rule.
	Attributes []ContentAttribute

	tagContentFilter string    // substring the element content must contain
	wildcard         *Wildcard // wildcard the element content must match

	maxContentLength int // maximum length of the element content
	minContentLength int // minimum length of the element content

	parentElements    []string // tag names of parent elements to remove instead
	parentSearchLevel int      // how far up the tree to look for them
}

// ContentAttribute is an attribute selector of a content rule.  The element
// attribute value must contain Value as a substring.
type ContentAttribute struct {
	Name  string
	Value string
}

// NewContentRule parses the rule text and creates a content rule.
func NewContentRule(ruleText string, filterListID int) (r *ContentRule, err error) {
	r = &ContentRule{
		RuleText:     ruleText,
		FilterListID: filterListID,

		maxContentLength:  defaultMaxContentLength,
		parentSearchLevel: defaultParentSearchLevel,
	}

	mask := maskContentExceptionRule
	maskIndex := strings.Index(ruleText, mask)
	if maskIndex >= 0 {
		r.Whitelist = true
	} else {
		mask = maskContentRule
		maskIndex = strings.Index(ruleText, mask)
	}
	if maskIndex < 0 {
		return nil, &RuleSyntaxError{msg: "cannot find content marker", ruleText: ruleText}
	}

	if maskIndex > 0 {
		domains := ruleText[:maskIndex]
		permitted, restricted, derr := loadDomains(domains, ",")
		if derr != nil {
			return nil, &RuleSyntaxError{msg: "cannot load domains", ruleText: ruleText}
		}
		r.permittedDomains = permitted
		r.restrictedDomains = restricted
	}

	body := ruleText[maskIndex+len(mask):]
	attrsIndex := strings.IndexByte(body, '[')
	if attrsIndex == -1 {
		r.TagName = body
	} else {
		r.TagName = body[:attrsIndex]
		err = r.loadAttributes(body[attrsIndex:])
		if err != nil {
			return nil, err
		}
	}

	if r.TagName == "" {
		return nil, &RuleSyntaxError{msg: "empty tag name", ruleText: ruleText}
	}

	if !r.Whitelist && r.IsGeneric() {
		return nil, &RuleSyntaxError{
			msg:      "content rule must have at least one permitted domain",
			ruleText: ruleText,
		}
	}

	return r, nil
}

// loadAttributes parses the [name="value"] attribute selectors of the rule.
// Double quotes inside the value are escaped by doubling them.
func (r *ContentRule) loadAttributes(str string) (err error) {
	startIndex := 0
	for startIndex != -1 && startIndex < len(str) {
		equalityIndex := strings.IndexByte(str[startIndex:], '=')
		if equalityIndex == -1 {
			return &RuleSyntaxError{msg: "invalid attribute", ruleText: r.RuleText}
		}
		equalityIndex += startIndex

		quoteStartIndex := strings.IndexByte(str[equalityIndex:], '"')
		if quoteStartIndex == -1 {
			return &RuleSyntaxError{msg: "invalid attribute", ruleText: r.RuleText}
		}
		quoteStartIndex += equalityIndex

		quoteEndIndex := findClosingQuote(str, quoteStartIndex+1)
		if quoteEndIndex == -1 {
			return &RuleSyntaxError{msg: "invalid attribute", ruleText: r.RuleText}
		}

		name := str[startIndex+1 : equalityIndex]
		value := strings.ReplaceAll(str[quoteStartIndex+1:quoteEndIndex], `""`, `"`)

		err = r.loadAttribute(name, value)
		if err != nil {
			return err
		}

		next := strings.IndexByte(str[quoteEndIndex:], '[')
		if next == -1 {
			startIndex = -1
		} else {
			startIndex = quoteEndIndex + next
		}
	}

	return nil
}

// loadAttribute applies a single parsed attribute to the rule.
func (r *ContentRule) loadAttribute(name, value string) (err error) {
	switch name {
	case attrTagContent:
		r.tagContentFilter = value
	case attrWildcard:
		r.wildcard, err = NewWildcard(value)
		if err != nil {
			return &RuleSyntaxError{msg: "invalid wildcard", ruleText: r.RuleText}
		}
	case attrMaxLength:
		r.maxContentLength, err = strconv.Atoi(value)
		if err != nil {
			return &RuleSyntaxError{msg: "invalid max-length", ruleText: r.RuleText}
		}
	case attrMinLength:
		r.minContentLength, err = strconv.Atoi(value)
		if err != nil {
			return &RuleSyntaxError{msg: "invalid min-length", ruleText: r.RuleText}
		}
	case attrParentElements:
		r.parentElements = strings.Split(value, ",")
	case attrParentSearchLevel:
		r.parentSearchLevel, err = strconv.Atoi(value)
		if err != nil {
			return &RuleSyntaxError{msg: "invalid parent-search-level", ruleText: r.RuleText}
		}
	default:
		r.Attributes = append(r.Attributes, ContentAttribute{Name: name, Value: value})
	}

	return nil
}

// findClosingQuote finds the quote that ends an attribute value, skipping the
// doubled quotes used for escaping.
func findClosingQuote(str string, startIndex int) int {
	i := startIndex
	for i < len(str) {
		quoteIndex := strings.IndexByte(str[i:], '"')
		if quoteIndex == -1 {
			return -1
		}
		quoteIndex += i

		if quoteIndex+1 < len(str) && str[quoteIndex+1] == '"' {
			i = quoteIndex + 2
			continue
		}

		return quoteIndex
	}

	return -1
}

// Text returns the original rule text.  Implements the [Rule] interface.
func (r *ContentRule) Text() string {
	return r.RuleText
}

// GetFilterListID returns ID of the filter list this rule belongs to.
func (r *ContentRule) GetFilterListID() int {
	return r.FilterListID
}

// String returns original rule text.
func (r *ContentRule) String() string {
	return r.RuleText
}

// GetPermittedDomains returns a list of domains this rule is permitted on.
func (r *ContentRule) GetPermittedDomains() []string {
	return r.permittedDomains
}

// IsGeneric returns true if rule can be considered generic (is not limited to
// a specific domain).
func (r *ContentRule) IsGeneric() bool {
	return len(r.permittedDomains) == 0
}

// Match returns true if this rule can be used on the specified hostname.
func (r *ContentRule) Match(hostname string) bool {
	if len(r.restrictedDomains) > 0 &&
		isDomainOrSubdomainOfAny(hostname, r.restrictedDomains) {
		return false
	}

	if len(r.permittedDomains) > 0 &&
		!isDomainOrSubdomainOfAny(hostname, r.permittedDomains) {
		return false
	}

	return true
}

// MatchNode checks if an HTML element matches this rule's attribute selectors
// and content constraints.  content is the inner HTML of the node.
func (r *ContentRule) MatchNode(node *html.Node, content string) bool {
	if node.Type != html.ElementNode || node.Data != r.TagName {
		return false
	}

	for _, attr := range r.Attributes {
		if !nodeHasAttribute(node, attr) {
			return false
		}
	}

	if r.maxContentLength > 0 && len(content) > r.maxContentLength {
		return false
	}
	if r.minContentLength > 0 && len(content) < r.minContentLength {
		return false
	}

	if r.tagContentFilter == "" && r.wildcard == nil {
		return true
	}

	if content == "" {
		return false
	}

	if r.tagContentFilter != "" && !strings.Contains(content, r.tagContentFilter) {
		return false
	}

	if r.wildcard != nil && !r.wildcard.Matches(content) {
		return false
	}

	return true
}

// FindParent looks up the tree for a parent element listed in the rule's
// parent-elements attribute.  Returns nil when there is none within the
// search level or the rule has no parent-elements.
func (r *ContentRule) FindParent(node *html.Node) *html.Node {
	if len(r.parentElements) == 0 {
		return nil
	}

	parent := node.Parent
	for i := 0; i < r.parentSearchLevel; i++ {
		if parent == nil {
			return nil
		}
		if parent.Type == html.ElementNode {
			for _, tagName := range r.parentElements {
				if parent.Data == tagName {
					return parent
				}
			}
		}
		parent = parent.Parent
	}

	return nil
}

// nodeHasAttribute checks that the node attribute value contains the selector
// value as a substring.
func nodeHasAttribute(node *html.Node, attr ContentAttribute) bool {
	for _, a := range node.Attr {
		if a.Key == attr.Name {
			return strings.Contains(a.Val, attr.Value)
		}
	}

	return false
}

// isContent checks if this line is a content filtering rule.
func isContent(line string) bool {
	index := strings.IndexByte(line, '$')
	if index == -1 {
		return false
	}

	return strings.Contains(line, maskContentRule) ||
		strings.Contains(line, maskContentExceptionRule)
}

// Wildcard matches strings against a simple pattern where '*' matches any
// sequence of characters and '?' matches any single character.
type Wildcard struct {
	regexp   *regexp.Regexp
	shortcut string
}

// NewWildcard creates a Wildcard from its pattern.
func NewWildcard(pattern string) (w *Wildcard, err error) {
	re, err := regexp.Compile("(?i)" + wildcardToRegexp(pattern))
	if err != nil {
		return nil, errors.Annotate(err, "compiling wildcard %q: %w", pattern)
	}

	return &Wildcard{
		regexp:   re,
		shortcut: extractWildcardShortcut(pattern),
	}, nil
}

// Matches returns true if the input matches the wildcard.  The shortcut is
// checked first to avoid running the regexp on obvious mismatches.
func (w *Wildcard) Matches(input string) bool {
	if input == "" {
		return false
	}

	if !strings.Contains(strings.ToLower(input), w.shortcut) {
		return false
	}

	return w.regexp.MatchString(input)
}

// wildcardToRegexp converts a wildcard pattern to a regular expression.
func wildcardToRegexp(pattern string) string {
	sb := strings.Builder{}
	sb.WriteByte('^')
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '*':
			sb.WriteString(`[\s\S]*`)
		case '?':
			sb.WriteByte('.')
		case '\\', '+', '|', '{', '}', '[', ']', '(', ')', '^', '$', '.', '#':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('$')

	return sb.String()
}

// extractWildcardShortcut returns the longest substring of the pattern that
// contains no wildcard characters.
func extractWildcardShortcut(pattern string) string {
	shortcut := ""
	current := strings.Builder{}
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c == '*' || c == '?' {
			if current.Len() > len(shortcut) {
				shortcut = current.String()
			}
			current.Reset()

			continue
		}

		current.WriteByte(c)
	}
	if current.Len() > len(shortcut) {
		shortcut = current.String()
	}

	return strings.ToLower(shortcut)
}
