package contentfilter

import (
	"encoding/json"
	"testing"

	"github.com/AdguardTeam/contentfilter/filterlist"
	"github.com/stretchr/testify/assert"
)

func TestElementHidingSimple(t *testing.T) {
	engine := buildCosmeticEngine(t)

	// Simple matching
	result := engine.Match("example.org", true, true, true)

	assert.Contains(t, result.ElementHiding.Generic, "banner_generic")
	assert.Equal(t, 1, len(result.ElementHiding.Generic))
	assert.NotContains(t, result.ElementHiding.Generic, "banner_generic_disabled")
	assert.Equal(t, 1, len(result.ElementHiding.Specific))
	assert.Contains(t, result.ElementHiding.Specific, "banner_specific")
	assert.Nil(t, result.ElementHiding.GenericExtCSS)
	assert.Nil(t, result.ElementHiding.SpecificExtCSS)

	jsonString, err := json.MarshalIndent(result, "", "\t")
	if err != nil {
		t.Fatalf("cannot marshal: %s", err)
	}

	t.Logf("%s", jsonString)
}

func TestElementHidingNoDisabled(t *testing.T) {
	engine := buildCosmeticEngine(t)

	// Simple matching
	result := engine.Match("example.com", true, true, true)

	assert.Equal(t, 2, len(result.ElementHiding.Generic))
	assert.Contains(t, result.ElementHiding.Generic, "banner_generic")
	assert.Contains(t, result.ElementHiding.Generic, "banner_generic_disabled")
	assert.Nil(t, result.ElementHiding.Specific)
	assert.Nil(t, result.ElementHiding.GenericExtCSS)
	assert.Nil(t, result.ElementHiding.SpecificExtCSS)

	jsonString, err := json.MarshalIndent(result, "", "\t")
	if err != nil {
		t.Fatalf("cannot marshal: %s", err)
	}

	t.Logf("%s", jsonString)
}

func TestElementHidingNoGeneric(t *testing.T) {
	engine := buildCosmeticEngine(t)

	// Simple matching
	result := engine.Match("example.org", true, true, false)

	assert.Nil(t, result.ElementHiding.Generic)
	assert.Equal(t, 1, len(result.ElementHiding.Specific))
	assert.Contains(t, result.ElementHiding.Specific, "banner_specific")
	assert.Nil(t, result.ElementHiding.GenericExtCSS)
	assert.Nil(t, result.ElementHiding.SpecificExtCSS)

	jsonString, err := json.MarshalIndent(result, "", "\t")
	if err != nil {
		t.Fatalf("cannot marshal: %s", err)
	}

	t.Logf("%s", jsonString)
}

func TestElementHidingNoCSS(t *testing.T) {
	engine := buildCosmeticEngine(t)

	// Simple matching
	result := engine.Match("example.org", false, true, true)

	assert.Nil(t, result.ElementHiding.Specific)
	assert.Nil(t, result.ElementHiding.Generic)
	assert.Nil(t, result.ElementHiding.GenericExtCSS)
	assert.Nil(t, result.ElementHiding.SpecificExtCSS)

	jsonString, err := json.MarshalIndent(result, "", "\t")
	if err != nil {
		t.Fatalf("cannot marshal: %s", err)
	}

	t.Logf("%s", jsonString)
}

func TestElementHidingMultipleDomains(t *testing.T) {
	rulesText := `example.org,sub.example.org##banner_multi`

	lists := []filterlist.RuleList{
		&filterlist.StringRuleList{
			ID:             1,
			RulesText:      rulesText,
			IgnoreCosmetic: false,
		},
	}

	ruleStorage, err := filterlist.NewRuleStorage(lists)
	if err != nil {
		t.Fatalf("failed to create a rule storage: %s", err)
	}
	engine := NewCosmeticEngine(ruleStorage)

	// The hostname matches both permitted domains, but the selector must
	// be returned only once.
	result := engine.Match("sub.example.org", true, true, true)
	assert.Equal(t, []string{"banner_multi"}, result.ElementHiding.Specific)

	result = engine.Match("example.org", true, true, true)
	assert.Equal(t, []string{"banner_multi"}, result.ElementHiding.Specific)
}

func TestScriptRules(t *testing.T) {
	rulesText := `example.org#%#window.__testInjected = true;
example.com#%#window.__otherInjected = true;
example.com#@%#window.__otherInjected = true;`

	lists := []filterlist.RuleList{
		&filterlist.StringRuleList{
			ID:             1,
			RulesText:      rulesText,
			IgnoreCosmetic: false,
		},
	}

	ruleStorage, err := filterlist.NewRuleStorage(lists)
	if err != nil {
		t.Fatalf("failed to create a rule storage: %s", err)
	}
	engine := NewCosmeticEngine(ruleStorage)

	result := engine.Match("example.org", true, true, true)
	assert.Equal(t, 1, len(result.JS.Specific))
	assert.Contains(t, result.JS.Specific, "window.__testInjected = true;")

	result = engine.Match("example.com", true, true, true)
	assert.Nil(t, result.JS.Specific)

	result = engine.Match("example.org", true, false, true)
	assert.Nil(t, result.JS.Specific)
}

func buildCosmeticEngine(t *testing.T) *CosmeticEngine {
	rulesText := `##banner_generic
##banner_generic_disabled
example.org##banner_specific
example.org#@#banner_generic_disabled`

	lists := []filterlist.RuleList{
		&filterlist.StringRuleList{
			ID:             1,
			RulesText:      rulesText,
			IgnoreCosmetic: false,
		},
	}

	ruleStorage, err := filterlist.NewRuleStorage(lists)
	if err != nil {
		t.Fatalf("failed to create a rule storage: %s", err)
	}

	return NewCosmeticEngine(ruleStorage)
}
