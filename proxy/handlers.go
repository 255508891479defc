package proxy

import (
	"net"
	"net/http"

	"github.com/AdguardTeam/contentfilter"
	"github.com/AdguardTeam/contentfilter/cache"
	"github.com/AdguardTeam/contentfilter/rules"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/gomitmproxy"
	"github.com/AdguardTeam/gomitmproxy/proxyutil"
)

// onRequest handles the outgoing HTTP requests.
func (s *Server) onRequest(sess *gomitmproxy.Session) (*http.Request, *http.Response) {
	r := sess.Request()
	session := NewSession(sess.ID(), r)

	s.logger.Debug("saving session", "id", session.ID)
	sess.SetProp(sessionPropKey, session)

	if r.Method == http.MethodConnect {
		// Do nothing for CONNECT requests.
		return nil, nil
	}

	if session.Request.Hostname == s.InjectionHost {
		return r, s.buildContentScript(session)
	}

	if session.Request.RequestType == rules.TypeDocument {
		if res := s.checkSafebrowsing(session); res != nil {
			sess.SetProp(requestBlockedKey, true)

			return nil, res
		}
	}

	session.Result = s.filter().MatchRequest(session.Request)
	rule := session.Result.GetBasicResult()

	if rule != nil && !rule.Whitelist {
		s.logger.Debug(
			"blocked",
			"id", session.ID,
			"rule", rule.String(),
			"url", session.Request.URL,
		)

		// Mark this request as blocked so that we don't modify it in the
		// onResponse handler.
		sess.SetProp(requestBlockedKey, true)

		return nil, newBlockedResponse(session, rule)
	}

	s.filterRequestCookies(session)

	// Ask for an uncompressed response so that the body can be modified.
	r.Header.Del("Accept-Encoding")

	if s.shouldSuppressCache(session) {
		suppressCache(r)
	}

	return r, nil
}

// onResponse handles all the responses.
func (s *Server) onResponse(sess *gomitmproxy.Session) *http.Response {
	if _, ok := sess.GetProp(requestBlockedKey); ok {
		// The request was already blocked.
		return nil
	}

	v, ok := sess.GetProp(sessionPropKey)
	if !ok {
		s.logger.Error("session not found", "id", sess.ID())

		return nil
	}

	session, ok := v.(*Session)
	if !ok {
		s.logger.Error("session prop has a wrong type", "id", sess.ID())

		return nil
	}

	// Update the session, this will cause the request type re-calc.
	session.SetResponse(sess.Response())

	// Now once we received the response, we must re-calculate the result.
	session.Result = s.filter().MatchRequest(session.Request)
	rule := session.Result.GetBasicResult()
	if rule != nil && !rule.Whitelist {
		s.logger.Debug(
			"blocked",
			"id", session.ID,
			"rule", rule.String(),
			"url", session.Request.URL,
		)

		return newBlockedResponse(session, rule)
	}

	s.applyCspRules(session)
	s.filterResponseCookies(session)

	if session.Request.RequestType == rules.TypeDocument &&
		session.Result.GetCosmeticOption() != contentfilter.CosmeticOptionNone {
		err := s.filterHTML(session)
		if err != nil {
			s.logger.Error("filtering html", "id", session.ID, slogutil.KeyError, err)

			return proxyutil.NewErrorResponse(session.HTTPRequest, err)
		}

		return session.HTTPResponse
	}

	if len(session.Result.GetReplaceRules()) > 0 && isTextMediaType(session.MediaType) {
		err := s.applyReplaceRules(session)
		if err != nil {
			s.logger.Error("applying replace rules", "id", session.ID, slogutil.KeyError, err)

			return proxyutil.NewErrorResponse(session.HTTPRequest, err)
		}

		return session.HTTPResponse
	}

	return nil
}

// onConnect intercepts and suppresses connections to InjectionHost.
func (s *Server) onConnect(_ *gomitmproxy.Session, _, addr string) net.Conn {
	host, _, err := net.SplitHostPort(addr)
	if err == nil && host == s.InjectionHost {
		return &proxyutil.NoopConn{}
	}

	return nil
}

// checkSafebrowsing consults the caches for the document host.  It returns a
// warning page response when the host is known to be dangerous and is not
// currently trusted by the user.
func (s *Server) checkSafebrowsing(session *Session) *http.Response {
	host := session.Request.Hostname
	if s.trusted.IsTrusted(host) {
		return nil
	}

	list, found := s.safebrowsing.Get(cache.HashPrefix(host))
	if !found || list == "" {
		return nil
	}

	s.logger.Debug("dangerous host", "id", session.ID, "host", host, "list", list)

	return newSafebrowsingResponse(session, list)
}

// isTextMediaType tells if the response content is a text that the $replace
// rules can be safely applied to.
func isTextMediaType(mediaType string) bool {
	switch mediaType {
	case "text/html", "text/plain", "text/css", "text/javascript",
		"application/javascript", "application/x-javascript",
		"application/json", "application/xml", "audio/x-mpegurl":
		return true
	default:
		return false
	}
}
