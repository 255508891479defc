package proxy

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/AdguardTeam/gomitmproxy/proxyutil"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// decodeLatin1 decodes a Latin1 string from the reader.  Latin1 maps every
// byte to a code point, so the decode/encode round trip preserves the body
// bytes exactly even when the real charset is different.
func decodeLatin1(reader io.Reader) (string, error) {
	r := transform.NewReader(reader, charmap.ISO8859_1.NewDecoder())
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// encodeLatin1 encodes the string as a byte array using Latin1.
func encodeLatin1(str string) ([]byte, error) {
	return charmap.ISO8859_1.NewEncoder().Bytes([]byte(str))
}

// compressGzip compresses the specified byte array.
func compressGzip(toCompress []byte) (*bytes.Buffer, error) {
	var b bytes.Buffer
	gz := gzip.NewWriter(&b)
	if _, err := gz.Write(toCompress); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}

	return &b, nil
}

// marshalJSONArray marshals the strings into a JSON array literal.  An empty
// slice becomes "[]".
func marshalJSONArray(values []string) string {
	if len(values) == 0 {
		return "[]"
	}

	b, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}

	return string(b)
}

// newNotFoundResponse builds an empty 404 response.
func newNotFoundResponse(r *http.Request) *http.Response {
	res := proxyutil.NewResponse(http.StatusNotFound, nil, r)
	res.Header.Set("Content-Type", "text/html")

	return res
}

// getQueryParameter returns the query parameter value, or an empty string if
// it is missing or repeated.
func getQueryParameter(r *http.Request, name string) string {
	params, ok := r.URL.Query()[name]
	if !ok || len(params) != 1 {
		return ""
	}

	return params[0]
}

// getQueryParameterUint64 returns the numeric query parameter value, or zero
// when it is missing or malformed.
func getQueryParameterUint64(r *http.Request, name string) uint64 {
	val, err := strconv.ParseUint(getQueryParameter(r, name), 10, 64)
	if err != nil {
		return 0
	}

	return val
}
