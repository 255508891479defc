package proxy

import (
	"fmt"
	"net/http"
	"time"

	"github.com/AdguardTeam/contentfilter/rules"
)

// suppressCachePeriod is for how long after the startup the HTTP cache is
// suppressed.  This makes sure that the updated content script is injected
// into the pages the browser has cached earlier.
const suppressCachePeriod = time.Minute

// defaultCacheExpiration is the lifetime the proxy's own responses are
// cached for.
const defaultCacheExpiration = time.Hour

// shouldSuppressCache checks if we should suppress the HTTP cache for the
// given request.
func (s *Server) shouldSuppressCache(session *Session) bool {
	if time.Since(s.createdAt) > suppressCachePeriod {
		return false
	}

	// Don't suppress cache for static resources.
	switch session.Request.RequestType {
	case rules.TypeImage, rules.TypeFont, rules.TypeScript,
		rules.TypeStylesheet, rules.TypeMedia:
		return false
	default:
		return true
	}
}

// suppressCache removes cache headers from the HTTP request.
func suppressCache(r *http.Request) {
	// Last modified time based caching.
	r.Header.Del("If-Modified-Since")
	r.Header.Del("If-Unmodified-Since")

	// ETag based caching.
	r.Header.Del("If-None-Match")
	r.Header.Del("If-Match")
	r.Header.Del("If-Range")
}

// enableCache sets caching headers on an HTTP response.
func enableCache(r *http.Response) {
	maxAge := int64(defaultCacheExpiration.Seconds())
	expires := time.Now().Add(defaultCacheExpiration)

	r.Header.Del("Pragma")
	r.Header.Set("Last-Modified", "Wed, 01 Jan 2020 01:00:00 GMT")
	r.Header.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAge))
	r.Header.Set("Expires", expires.Format(http.TimeFormat))
}
