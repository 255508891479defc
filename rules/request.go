package rules

import (
	"strings"

	"github.com/AdguardTeam/contentfilter/filterutil"
	"golang.org/x/net/publicsuffix"
)

// maxURLLength limits the length of the URL in the Request.  Characters over
// this limit are simply cut off.  Rules that could match parts of a URL over
// this limit are rare and not worth the extra allocations.
const maxURLLength = 4 * 1024

// RequestType is the request types enumeration.
type RequestType uint32

// RequestType enumeration.
const (
	// TypeDocument is for top-level documents.
	TypeDocument RequestType = 1 << iota
	// TypeSubdocument is for documents loaded in a nested context (frames).
	TypeSubdocument
	// TypeScript is for scripts.
	TypeScript
	// TypeStylesheet is for stylesheets.
	TypeStylesheet
	// TypeObject is for plugin objects.
	TypeObject
	// TypeImage is for images.
	TypeImage
	// TypeXmlhttprequest is for XMLHttpRequest and fetch requests.
	TypeXmlhttprequest
	// TypeMedia is for audio and video.
	TypeMedia
	// TypeFont is for fonts.
	TypeFont
	// TypeWebsocket is for websocket connections.
	TypeWebsocket
	// TypePing is for navigator.sendBeacon and ping attributes of links.
	TypePing
	// TypeOther is for requests of an unknown type.
	TypeOther
)

// Count returns the count of the enabled flags.
func (t RequestType) Count() int {
	if t == 0 {
		return 0
	}

	flags := uint32(t)
	count := 0
	var i uint
	for i = 0; i < 32; i++ {
		mask := uint32(1 << i)
		if (flags & mask) == mask {
			count++
		}
	}
	return count
}

// Request represents a web filtering request with all its necessary
// properties.
type Request struct {
	// URL is the full request URL.
	URL string

	// URLLowerCase is the full request URL in lower case.
	URLLowerCase string

	// Hostname is the hostname to filter.
	Hostname string

	// Domain is the effective top-level domain of the request with an
	// additional label.
	Domain string

	// SourceURL is the full URL of the source.
	SourceURL string

	// SourceHostname is the hostname of the source.
	SourceHostname string

	// SourceDomain is the effective top-level domain of the source with an
	// additional label.
	SourceDomain string

	// RequestType is the type of the filtering request.
	RequestType RequestType

	// ThirdParty is true if the filtering request should consider
	// $third-party modifier.
	ThirdParty bool
}

// NewRequest creates a new instance of Request and populates its fields.
func NewRequest(url, sourceURL string, requestType RequestType) *Request {
	if len(url) > maxURLLength {
		url = url[:maxURLLength]
	}
	if len(sourceURL) > maxURLLength {
		sourceURL = sourceURL[:maxURLLength]
	}

	r := Request{
		RequestType: requestType,

		URL:          url,
		URLLowerCase: strings.ToLower(url),
		Hostname:     filterutil.ExtractHostname(url),

		SourceURL:      sourceURL,
		SourceHostname: filterutil.ExtractHostname(sourceURL),
	}

	domain := effectiveTLDPlusOne(r.Hostname)
	if domain != "" {
		r.Domain = domain
	} else {
		r.Domain = r.Hostname
	}

	sourceDomain := effectiveTLDPlusOne(r.SourceHostname)
	if sourceDomain != "" {
		r.SourceDomain = sourceDomain
	} else {
		r.SourceDomain = r.SourceHostname
	}

	if r.SourceDomain != "" && r.SourceDomain != r.Domain {
		r.ThirdParty = true
	}

	return &r
}

// effectiveTLDPlusOne is a faster version of publicsuffix.EffectiveTLDPlusOne
// that avoids using fmt.Errorf when the domain is less or equal the public
// suffix.
func effectiveTLDPlusOne(hostname string) (domain string) {
	hostnameLen := len(hostname)
	if hostnameLen < 1 {
		return ""
	}

	if hostname[0] == '.' || hostname[hostnameLen-1] == '.' {
		return ""
	}

	suffix, _ := publicsuffix.PublicSuffix(hostname)

	i := hostnameLen - len(suffix) - 1
	if i < 0 || hostname[i] != '.' {
		return ""
	}

	return hostname[1+strings.LastIndex(hostname[:i], "."):]
}
