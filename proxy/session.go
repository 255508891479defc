// Package proxy implements a MITM proxy that uses the filtering engine to
// block and modify web content.
package proxy

import (
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/AdguardTeam/contentfilter"
	"github.com/AdguardTeam/contentfilter/rules"
)

// Session contains all the necessary data to filter requests and responses.
// It also contains the current state of the request.  Throughout the HTTP
// request lifetime, session data is updated with new information.
//
// There are two main stages of the HTTP request lifetime:
//
//  1. Received the HTTP request headers.  At this point, we can find all the
//     rules matching the request using what we know.  We assume the resource
//     type by URL and "Accept" headers and look for matching rules.  If
//     there's a match, and the request should be blocked, we simply block
//     it.  Otherwise, we continue the HTTP request execution.
//  2. Received the HTTP response headers.  At this point we've got the
//     content-type header so we know for sure what type of resource we're
//     dealing with.  We are looking for matching rules again, and update
//     them.  The possible outcomes are:
//     2.1. The request must be blocked.
//     2.2. The response must be modified (with a $replace or a $csp rule,
//     for instance).
//     2.3. This is an HTML response so we need to filter the response body
//     and apply cosmetic filters.
//     2.4. We should continue execution and do nothing with the response.
type Session struct {
	ID      string         // Session identifier
	Request *rules.Request // Request data

	HTTPRequest  *http.Request  // HTTP request data
	HTTPResponse *http.Response // HTTP response data

	MediaType string // Mime media type
	Charset   string // Response charset (if it's possible to parse it from content-type)

	Result *contentfilter.MatchingResult // Filtering engine result
}

// NewSession creates a new instance of the Session struct and initializes
// it.
//
// id is a unique session identifier, req is the HTTP request data.
func NewSession(id string, req *http.Request) *Session {
	requestType := assumeRequestType(req, nil)

	return &Session{
		ID:          id,
		Request:     rules.NewRequest(req.URL.String(), req.Referer(), requestType),
		HTTPRequest: req,
	}
}

// SetResponse sets the response of this session.  This can also end in
// changing the request type.
func (s *Session) SetResponse(res *http.Response) {
	s.HTTPResponse = res

	// Re-calculate RequestType once we have the response headers.
	s.Request.RequestType = assumeRequestType(s.HTTPRequest, s.HTTPResponse)

	contentType := res.Header.Get("Content-Type")
	mediaType, params, _ := mime.ParseMediaType(contentType)

	s.MediaType = mediaType
	if charset, ok := params["charset"]; ok {
		s.Charset = charset
	}
}

// assumeRequestType assumes the request type from what we know at this
// point.  res may be nil if the response has not been received yet.
func assumeRequestType(req *http.Request, res *http.Response) rules.RequestType {
	if res != nil {
		contentType := res.Header.Get("Content-Type")
		mediaType, _, _ := mime.ParseMediaType(contentType)

		return assumeRequestTypeFromMediaType(mediaType)
	}

	requestType := assumeRequestTypeFromMediaType(req.Header.Get("Accept"))
	if requestType == rules.TypeOther {
		// Try to get it from the URL.
		requestType = assumeRequestTypeFromURL(req.URL)
	}

	return requestType
}

// assumeRequestTypeFromMediaType tries to detect the content type from the
// specified media type.
func assumeRequestTypeFromMediaType(mediaType string) rules.RequestType {
	switch {
	// $document
	case strings.HasPrefix(mediaType, "application/xhtml"),
		strings.HasPrefix(mediaType, "text/html"),
		// Recognize m3u playlists as documents so that $replace rules can be
		// applied to the refs to video ads they may contain.
		strings.HasPrefix(mediaType, "audio/x-mpegURL"):
		return rules.TypeDocument
	// $stylesheet
	case strings.HasPrefix(mediaType, "text/css"):
		return rules.TypeStylesheet
	// $script
	case strings.HasPrefix(mediaType, "application/javascript"),
		strings.HasPrefix(mediaType, "application/x-javascript"),
		strings.HasPrefix(mediaType, "text/javascript"):
		return rules.TypeScript
	// $image
	case strings.HasPrefix(mediaType, "image/"):
		return rules.TypeImage
	// $object
	case strings.HasPrefix(mediaType, "application/x-shockwave-flash"):
		return rules.TypeObject
	// $font
	case strings.HasPrefix(mediaType, "application/font"),
		strings.HasPrefix(mediaType, "application/vnd.ms-fontobject"),
		strings.HasPrefix(mediaType, "application/x-font-"),
		strings.HasPrefix(mediaType, "font/"):
		return rules.TypeFont
	// $media
	case strings.HasPrefix(mediaType, "audio/"),
		strings.HasPrefix(mediaType, "video/"):
		return rules.TypeMedia
	// $xmlhttprequest
	case strings.HasPrefix(mediaType, "application/json"):
		return rules.TypeXmlhttprequest
	default:
		return rules.TypeOther
	}
}

// fileExtensions maps known file extensions to request types.
var fileExtensions = map[string]rules.RequestType{
	// $script
	".js":     rules.TypeScript,
	".vbs":    rules.TypeScript,
	".coffee": rules.TypeScript,
	// $image
	".jpg":  rules.TypeImage,
	".jpeg": rules.TypeImage,
	".gif":  rules.TypeImage,
	".png":  rules.TypeImage,
	".tiff": rules.TypeImage,
	".psd":  rules.TypeImage,
	".ico":  rules.TypeImage,
	// $stylesheet
	".css":  rules.TypeStylesheet,
	".less": rules.TypeStylesheet,
	// $object
	".jar": rules.TypeObject,
	".swf": rules.TypeObject,
	// $media
	".wav":  rules.TypeMedia,
	".mp3":  rules.TypeMedia,
	".mp4":  rules.TypeMedia,
	".avi":  rules.TypeMedia,
	".flv":  rules.TypeMedia,
	".m3u":  rules.TypeMedia,
	".webm": rules.TypeMedia,
	".mpeg": rules.TypeMedia,
	".ogg":  rules.TypeMedia,
	".mov":  rules.TypeMedia,
	".mkv":  rules.TypeMedia,
	// $font
	".ttf":   rules.TypeFont,
	".otf":   rules.TypeFont,
	".woff":  rules.TypeFont,
	".woff2": rules.TypeFont,
	".eot":   rules.TypeFont,
	// $xmlhttprequest
	".json": rules.TypeXmlhttprequest,
}

// assumeRequestTypeFromURL assumes the request type from the file extension.
func assumeRequestTypeFromURL(u *url.URL) rules.RequestType {
	requestType, ok := fileExtensions[path.Ext(u.Path)]
	if !ok {
		return rules.TypeOther
	}

	return requestType
}
