package proxy

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"

	"github.com/AdguardTeam/contentfilter/rules"
	"github.com/AdguardTeam/gomitmproxy/proxyutil"
)

// blockedPageTmpl is the page shown instead of the blocked documents.
var blockedPageTmpl = template.Must(template.New("blockedPage").Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>Blocked: {{.Hostname}}</title>
</head>
<body>
	<h1>Access to {{.Hostname}} is blocked</h1>
	<p>The request was blocked by the filtering rule <code>{{.RuleText}}</code>.</p>
</body>
</html>
`))

// safebrowsingPageTmpl is the warning page shown instead of the documents
// found in a safebrowsing list.
var safebrowsingPageTmpl = template.Must(template.New("safebrowsingPage").Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>Dangerous site: {{.Hostname}}</title>
</head>
<body>
	<h1>{{.Hostname}} may be dangerous</h1>
	<p>This site is listed in the {{.List}} list.</p>
</body>
</html>
`))

// blockedPageParameters is the data for blockedPageTmpl.
type blockedPageParameters struct {
	Hostname string
	RuleText string
}

// safebrowsingPageParameters is the data for safebrowsingPageTmpl.
type safebrowsingPageParameters struct {
	Hostname string
	List     string
}

// newBlockedResponse creates an HTTP response for a blocked request.
func newBlockedResponse(session *Session, f *rules.NetworkRule) *http.Response {
	params := blockedPageParameters{
		Hostname: session.Request.Hostname,
		RuleText: f.Text(),
	}

	var data bytes.Buffer
	_ = blockedPageTmpl.Execute(&data, params)

	return newHTMLResponse(session.HTTPRequest, data.String())
}

// newSafebrowsingResponse creates the warning page response for a document
// found in a safebrowsing list.
func newSafebrowsingResponse(session *Session, list string) *http.Response {
	params := safebrowsingPageParameters{
		Hostname: session.Request.Hostname,
		List:     list,
	}

	var data bytes.Buffer
	_ = safebrowsingPageTmpl.Execute(&data, params)

	return newHTMLResponse(session.HTTPRequest, data.String())
}

// newHTMLResponse builds a self-closing HTML response.
func newHTMLResponse(r *http.Request, html string) *http.Response {
	body := strings.NewReader(html)
	res := proxyutil.NewResponse(http.StatusInternalServerError, body, r)
	res.Close = true
	res.Header.Set("Content-Type", "text/html; charset=utf-8")

	return res
}
