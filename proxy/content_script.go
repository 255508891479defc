package proxy

import (
	"bytes"
	"io"
	"net/http"
	"text/template"

	"github.com/AdguardTeam/contentfilter"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/gomitmproxy/proxyutil"
)

// contentScriptURLCode is the HTML code injected into the filtered pages.
const contentScriptURLCode = `
<script src="//{{.InjectionHostname}}/content-script.js?hostname={{.Hostname}}&option={{.Option}}&ts={{.Timestamp}}"></script>
`

var contentScriptURLTmpl = template.Must(template.New("contentScriptURL").Parse(contentScriptURLCode))

// contentScriptCode is the content script itself.  It applies the element
// hiding styles, the CSS injection rules, and runs the JS rules.
const contentScriptCode = `(function () {
	if (window.__contentFilterApplied) { return; }
	window.__contentFilterApplied = true;

	var hide = {{.HideSelectors}};
	var css = {{.CSSRules}};

	var style = document.createElement("style");
	style.type = "text/css";
	var cssText = "";
	if (hide.length > 0) {
		cssText += hide.join(", ") + " { display: none!important; }\n";
	}
	for (var i = 0; i < css.length; i += 1) {
		cssText += css[i] + "\n";
	}
	if (cssText !== "") {
		style.appendChild(document.createTextNode(cssText));
		(document.head || document.documentElement).appendChild(style);
	}

	var scripts = {{.Scripts}};
	for (var j = 0; j < scripts.length; j += 1) {
		try {
			/* jshint evil:true */
			new Function(scripts[j])();
		} catch (ex) {
			console.error("content filter script error: " + ex);
		}
	}
})();
`

var contentScriptTmpl = template.Must(template.New("contentScript").Parse(contentScriptCode))

// contentScriptURLParameters is the data for contentScriptURLTmpl.
type contentScriptURLParameters struct {
	Hostname          string
	InjectionHostname string
	Option            contentfilter.CosmeticOption
	Timestamp         int64 // just to avoid caching
}

// contentScriptParameters is the data for contentScriptTmpl.  The fields are
// pre-marshaled JSON arrays.
type contentScriptParameters struct {
	HideSelectors string
	CSSRules      string
	Scripts       string
}

// buildInjectionCode creates HTML code for the content script injection.
func (s *Server) buildInjectionCode(session *Session) string {
	params := contentScriptURLParameters{
		Hostname:          session.Request.Hostname,
		InjectionHostname: s.InjectionHost,
		Option:            session.Result.GetCosmeticOption(),
		Timestamp:         s.createdAt.Unix(),
	}

	var data bytes.Buffer
	if err := contentScriptURLTmpl.Execute(&data, params); err != nil {
		s.logger.Error("building injection code", slogutil.KeyError, err)

		return ""
	}

	return data.String()
}

// buildContentScriptCode executes the content script code template.
func (s *Server) buildContentScriptCode(result contentfilter.CosmeticResult) string {
	hide := append([]string{}, result.ElementHiding.Specific...)
	hide = append(hide, result.ElementHiding.Generic...)

	css := append([]string{}, result.CSS.Specific...)
	css = append(css, result.CSS.Generic...)

	scripts := append([]string{}, result.JS.Specific...)
	scripts = append(scripts, result.JS.Generic...)

	params := contentScriptParameters{
		HideSelectors: marshalJSONArray(hide),
		CSSRules:      marshalJSONArray(css),
		Scripts:       marshalJSONArray(scripts),
	}

	var data bytes.Buffer
	if err := contentScriptTmpl.Execute(&data, params); err != nil {
		s.logger.Error("building content script code", slogutil.KeyError, err)

		return ""
	}

	return data.String()
}

// buildContentScript builds the content script response.
func (s *Server) buildContentScript(session *Session) *http.Response {
	r := session.HTTPRequest
	if r.Method != http.MethodGet {
		return newNotFoundResponse(r)
	}

	hostname := getQueryParameter(r, "hostname")
	option := getQueryParameterUint64(r, "option")
	ts := int64(getQueryParameterUint64(r, "ts"))

	if hostname == "" || option == 0 || ts == 0 {
		return newNotFoundResponse(r)
	}

	if ts == s.createdAt.Unix() && r.Header.Get("If-Modified-Since") != "" {
		// Simply return a 304 Not-Modified response.
		res := proxyutil.NewResponse(http.StatusNotModified, nil, r)
		res.Header.Set("Content-Type", "text/javascript; charset=utf-8")

		// Re-enable the cache.
		enableCache(res)

		return res
	}

	cosmeticResult := s.filter().GetCosmeticResult(
		hostname,
		contentfilter.CosmeticOption(option),
	)
	bodyBytes := []byte(s.buildContentScriptCode(cosmeticResult))
	contentLen := len(bodyBytes)

	var bodyReader io.Reader
	if s.CompressContentScript {
		b, err := compressGzip(bodyBytes)
		if err != nil {
			s.logger.Error("compressing content script", slogutil.KeyError, err)

			return proxyutil.NewErrorResponse(r, err)
		}

		contentLen = b.Len()
		bodyReader = b
	} else {
		bodyReader = bytes.NewReader(bodyBytes)
	}

	res := proxyutil.NewResponse(http.StatusOK, bodyReader, r)
	res.Header.Set("Content-Type", "text/javascript; charset=utf-8")
	res.ContentLength = int64(contentLen)

	if s.CompressContentScript {
		res.Header.Set("Content-Encoding", "gzip")
	}

	// Make the browser cache the response.
	enableCache(res)

	return res
}
