package proxy

import (
	"testing"

	"github.com/AdguardTeam/contentfilter"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/stretchr/testify/assert"
)

func TestBuildContentScriptCode(t *testing.T) {
	s := &Server{
		logger: slogutil.NewDiscardLogger(),
	}

	result := contentfilter.CosmeticResult{
		ElementHiding: contentfilter.StylesResult{
			Generic: []string{
				"#generic_banner",
			},
			Specific: []string{
				"#specific_banner",
			},
		},
		CSS: contentfilter.StylesResult{
			Generic: []string{
				"#generic_banner { visibility: none; content: \"test\"; }",
			},
			Specific: []string{
				"#specific_banner { visibility: none; content: \"test\"; }",
			},
		},
		JS: contentfilter.ScriptsResult{
			Generic: []string{
				"console.log('hello from generic')",
			},
			Specific: []string{
				"console.log('hello from specific')",
			},
		},
	}

	code := s.buildContentScriptCode(result)
	assert.NotEmpty(t, code)

	assert.Contains(t, code, `"#specific_banner","#generic_banner"`)
	assert.Contains(t, code, "visibility: none")
	assert.Contains(t, code, "hello from generic")
	assert.Contains(t, code, "hello from specific")
}

func TestBuildContentScriptCodeEmpty(t *testing.T) {
	s := &Server{
		logger: slogutil.NewDiscardLogger(),
	}

	code := s.buildContentScriptCode(contentfilter.CosmeticResult{})
	assert.NotEmpty(t, code)

	assert.Contains(t, code, "var hide = [];")
	assert.Contains(t, code, "var css = [];")
	assert.Contains(t, code, "var scripts = [];")
}
