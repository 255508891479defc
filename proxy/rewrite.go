package proxy

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/AdguardTeam/contentfilter"
	"github.com/AdguardTeam/contentfilter/rules"
)

// cspHeaderName is the header the $csp rule values are appended to.
const cspHeaderName = "Content-Security-Policy"

// applyCspRules adds the Content-Security-Policy headers required by the
// matched $csp rules.
func (s *Server) applyCspRules(session *Session) {
	for _, rule := range session.Result.GetCspRules() {
		if rule.CSP != "" {
			session.HTTPResponse.Header.Add(cspHeaderName, rule.CSP)
		}
	}
}

// filterRequestCookies applies the $cookie rules to the request's Cookie
// header.  Only the removing modifiers are relevant here, the attribute
// overrides apply to Set-Cookie.
func (s *Server) filterRequestCookies(session *Session) {
	cookieRules := session.Result.GetCookieRules()
	if len(cookieRules) == 0 {
		return
	}

	r := session.HTTPRequest
	cookies := r.Cookies()
	if len(cookies) == 0 {
		return
	}

	var kept []string
	removed := 0
	for _, c := range cookies {
		if removesCookie(cookieRules, c.Name) {
			s.logger.Debug("removing request cookie", "id", session.ID, "cookie", c.Name)
			removed++

			continue
		}

		kept = append(kept, c.Name+"="+c.Value)
	}

	if removed == 0 {
		return
	}

	if len(kept) == 0 {
		r.Header.Del("Cookie")
	} else {
		r.Header.Set("Cookie", strings.Join(kept, "; "))
	}
}

// filterResponseCookies applies the $cookie rules to the response's
// Set-Cookie headers: matching cookies are either dropped or get their
// Max-Age and SameSite attributes overridden.
func (s *Server) filterResponseCookies(session *Session) {
	cookieRules := session.Result.GetCookieRules()
	if len(cookieRules) == 0 {
		return
	}

	res := session.HTTPResponse
	cookies := res.Cookies()
	if len(cookies) == 0 {
		return
	}

	res.Header.Del("Set-Cookie")
	for _, c := range cookies {
		m := matchCookieModifier(cookieRules, c.Name)
		if m == nil {
			res.Header.Add("Set-Cookie", c.String())

			continue
		}

		if m.IsRemoving() {
			s.logger.Debug("removing response cookie", "id", session.ID, "cookie", c.Name)

			continue
		}

		if m.MaxAge != 0 {
			c.MaxAge = m.MaxAge
		}
		switch m.SameSite {
		case "lax":
			c.SameSite = http.SameSiteLaxMode
		case "strict":
			c.SameSite = http.SameSiteStrictMode
		case "none":
			c.SameSite = http.SameSiteNoneMode
		}

		res.Header.Add("Set-Cookie", c.String())
	}
}

// removesCookie checks if any of the matched $cookie rules removes the
// cookie with the specified name.
func removesCookie(cookieRules []*rules.NetworkRule, name string) bool {
	m := matchCookieModifier(cookieRules, name)

	return m != nil && m.IsRemoving()
}

// matchCookieModifier returns the first $cookie modifier applicable to the
// cookie with the specified name.
func matchCookieModifier(
	cookieRules []*rules.NetworkRule,
	name string,
) *rules.CookieModifier {
	for _, rule := range cookieRules {
		if rule.Cookie != nil && rule.Cookie.MatchesCookie(name) {
			return rule.Cookie
		}
	}

	return nil
}

// applyReplaceRules rewrites the response body with the matched $replace
// rules, in the order of their appearance.
func (s *Server) applyReplaceRules(session *Session) (err error) {
	res := session.HTTPResponse

	body, err := decodeLatin1(res.Body)
	defer func() { _ = res.Body.Close() }()
	if err != nil {
		return err
	}

	for _, rule := range session.Result.GetReplaceRules() {
		if rule.Replace != nil {
			body = rule.Replace.Apply(body)
		}
	}

	return setResponseBody(session, body)
}

// filterHTML modifies the HTML document response: it injects the cosmetic
// content script, removes the elements matched by the content rules, and
// applies the $replace rules.
func (s *Server) filterHTML(session *Session) (err error) {
	res := session.HTTPResponse

	body, err := decodeLatin1(res.Body)
	defer func() { _ = res.Body.Close() }()
	if err != nil {
		return err
	}

	contentRules := s.filter().GetContentRules(session.Request.Hostname)
	if len(contentRules) > 0 {
		body, err = contentfilter.FilterHTML(body, contentRules)
		if err != nil {
			return err
		}
	}

	for _, rule := range session.Result.GetReplaceRules() {
		if rule.Replace != nil {
			body = rule.Replace.Apply(body)
		}
	}

	injection := s.buildInjectionCode(session)
	if injection != "" {
		body = injectAfterHead(body, injection)
	}

	return setResponseBody(session, body)
}

// injectAfterHead inserts the injection right after the opening head tag, or
// prepends it when the document has none.
func injectAfterHead(body, injection string) string {
	lower := strings.ToLower(body)
	idx := strings.Index(lower, "<head")
	if idx != -1 {
		end := strings.IndexByte(lower[idx:], '>')
		if end != -1 {
			pos := idx + end + 1

			return body[:pos] + injection + body[pos:]
		}
	}

	return injection + body
}

// setResponseBody replaces the response body and adjusts the headers
// accordingly.
func setResponseBody(session *Session, body string) (err error) {
	encoded, err := encodeLatin1(body)
	if err != nil {
		return err
	}

	res := session.HTTPResponse
	res.Body = io.NopCloser(bytes.NewReader(encoded))
	res.ContentLength = int64(len(encoded))
	res.Header.Set("Content-Length", strconv.Itoa(len(encoded)))

	return nil
}
