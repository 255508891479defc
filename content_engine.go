package contentfilter

import (
	"bytes"
	"strings"

	"github.com/AdguardTeam/contentfilter/filterlist"
	"github.com/AdguardTeam/contentfilter/rules"
	"golang.org/x/net/html"
)

// ContentEngine combines the HTML filtering rules ($$ rules) and allows to
// quickly find the ones matching this or that hostname.
type ContentEngine struct {
	// RulesCount is the count of rules added to the engine.
	RulesCount int

	// byHostname is a map with rules grouped by their permitted domains.
	byHostname map[string][]*rules.ContentRule

	// whitelist is a map with whitelist rules.  The key is the rule tag name.
	whitelist map[string][]*rules.ContentRule
}

// NewContentEngine builds a new content engine from the rules of the
// specified storage.
func NewContentEngine(s *filterlist.RuleStorage) (engine *ContentEngine) {
	engine = &ContentEngine{
		byHostname: map[string][]*rules.ContentRule{},
		whitelist:  map[string][]*rules.ContentRule{},
	}

	scanner := s.NewRuleStorageScanner()
	for scanner.Scan() {
		f, _ := scanner.Rule()
		rule, ok := f.(*rules.ContentRule)
		if ok {
			engine.addRule(rule)
		}
	}

	return engine
}

// addRule adds a new content rule to the engine.
func (e *ContentEngine) addRule(f *rules.ContentRule) {
	if f.Whitelist {
		e.whitelist[f.TagName] = append(e.whitelist[f.TagName], f)
	} else {
		for _, hostname := range f.GetPermittedDomains() {
			e.byHostname[hostname] = append(e.byHostname[hostname], f)
		}
	}

	e.RulesCount++
}

// Match returns the content rules applicable on the specified hostname.  A
// rule registered under several permitted domains is returned once.
func (e *ContentEngine) Match(hostname string) (result []*rules.ContentRule) {
	if len(e.byHostname) == 0 {
		return nil
	}

	for _, domain := range hostnameAndSubdomains(hostname) {
		for _, rule := range e.byHostname[domain] {
			if contentRuleIn(result, rule) {
				continue
			}

			if rule.Match(hostname) && !e.isWhitelisted(hostname, rule) {
				result = append(result, rule)
			}
		}
	}

	return result
}

// contentRuleIn checks if the rule is already in the list.
func contentRuleIn(list []*rules.ContentRule, rule *rules.ContentRule) bool {
	for _, r := range list {
		if r == rule {
			return true
		}
	}

	return false
}

// isWhitelisted checks if rules with this tag name are disabled on the
// specified hostname.
func (e *ContentEngine) isWhitelisted(hostname string, f *rules.ContentRule) bool {
	for _, rule := range e.whitelist[f.TagName] {
		if rule.Match(hostname) {
			return true
		}
	}

	return false
}

// FilterHTML parses the page content, removes the elements matching any of
// the specified rules, and renders the document back.  When no element
// matches, the original content is returned unchanged.
func FilterHTML(content string, contentRules []*rules.ContentRule) (filtered string, err error) {
	if len(contentRules) == 0 {
		return content, nil
	}

	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return "", err
	}

	toRemove := collectMatchingNodes(doc, contentRules)
	if len(toRemove) == 0 {
		return content, nil
	}

	for _, node := range toRemove {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}

	var buf bytes.Buffer
	err = html.Render(&buf, doc)
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}

// collectMatchingNodes walks the document tree and collects the elements to
// be removed.  When a rule has a parent-elements attribute, the listed parent
// is removed instead of the matching element itself.
func collectMatchingNodes(doc *html.Node, contentRules []*rules.ContentRule) (result []*html.Node) {
	seen := map[*html.Node]struct{}{}

	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}

		if node.Type != html.ElementNode {
			return
		}

		content := innerHTML(node)
		for _, rule := range contentRules {
			if !rule.MatchNode(node, content) {
				continue
			}

			target := node
			if parent := rule.FindParent(node); parent != nil {
				target = parent
			}

			if _, ok := seen[target]; !ok {
				seen[target] = struct{}{}
				result = append(result, target)
			}
		}
	}
	walk(doc)

	return result
}

// innerHTML renders the inner content of the node.
func innerHTML(node *html.Node) string {
	var buf bytes.Buffer
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		_ = html.Render(&buf, child)
	}

	return buf.String()
}
