package contentfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentEngineMatch(t *testing.T) {
	rulesText := `example.org$$div[id="ad_text"]
example.org$$script[tag-content="banner"]
example.org$@$script`
	ruleStorage := newTestRuleStorage(t, 1, rulesText)
	engine := NewContentEngine(ruleStorage)
	assert.Equal(t, 3, engine.RulesCount)

	// The script rule is disabled by the whitelist rule.
	matched := engine.Match("example.org")
	require.Equal(t, 1, len(matched))
	assert.Equal(t, "div", matched[0].TagName)

	assert.Empty(t, engine.Match("example.net"))
}

func TestContentEngineMatchMultipleDomains(t *testing.T) {
	rulesText := `example.org,sub.example.org$$div[id="ad_text"]`
	ruleStorage := newTestRuleStorage(t, 1, rulesText)
	engine := NewContentEngine(ruleStorage)

	// The hostname matches both permitted domains, but the rule must be
	// returned only once.
	assert.Equal(t, 1, len(engine.Match("sub.example.org")))
	assert.Equal(t, 1, len(engine.Match("example.org")))
}
