package proxy

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/AdguardTeam/contentfilter/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssumeRequestTypeFromMediaType(t *testing.T) {
	assert.Equal(t, rules.TypeDocument, assumeRequestTypeFromMediaType("text/html"))
	assert.Equal(t, rules.TypeDocument, assumeRequestTypeFromMediaType("text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3"))
	assert.Equal(t, rules.TypeStylesheet, assumeRequestTypeFromMediaType("text/css"))
	assert.Equal(t, rules.TypeScript, assumeRequestTypeFromMediaType("text/javascript"))
	assert.Equal(t, rules.TypeImage, assumeRequestTypeFromMediaType("image/png"))
	assert.Equal(t, rules.TypeXmlhttprequest, assumeRequestTypeFromMediaType("application/json"))
	assert.Equal(t, rules.TypeOther, assumeRequestTypeFromMediaType("application/octet-stream"))
}

func TestAssumeRequestTypeFromURL(t *testing.T) {
	u, _ := url.Parse("http://example.org/script.js")
	assert.Equal(t, rules.TypeScript, assumeRequestTypeFromURL(u))

	u, _ = url.Parse("http://example.org/script.css")
	assert.Equal(t, rules.TypeStylesheet, assumeRequestTypeFromURL(u))

	u, _ = url.Parse("http://example.org/font.woff2")
	assert.Equal(t, rules.TypeFont, assumeRequestTypeFromURL(u))

	u, _ = url.Parse("http://example.org/page")
	assert.Equal(t, rules.TypeOther, assumeRequestTypeFromURL(u))
}

func TestNewSession(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "https://example.org/banner.png", nil)
	req.Header.Set("Referer", "https://example.com/")

	s := NewSession("test-session", req)
	require.NotNil(t, s)
	assert.Equal(t, "test-session", s.ID)
	assert.Equal(t, rules.TypeImage, s.Request.RequestType)
	assert.Equal(t, "example.org", s.Request.Hostname)
	assert.True(t, s.Request.ThirdParty)
}

func TestSessionSetResponse(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "https://example.org/page", nil)
	s := NewSession("test-session", req)
	assert.Equal(t, rules.TypeOther, s.Request.RequestType)

	res := &http.Response{Header: http.Header{}}
	res.Header.Set("Content-Type", "text/html; charset=utf-8")
	s.SetResponse(res)

	assert.Equal(t, rules.TypeDocument, s.Request.RequestType)
	assert.Equal(t, "text/html", s.MediaType)
	assert.Equal(t, "utf-8", s.Charset)
}
