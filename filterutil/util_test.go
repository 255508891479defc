package filterutil_test

import (
	"net/url"
	"testing"

	"github.com/AdguardTeam/contentfilter/filterutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractHostname(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{{
		name: "empty",
		in:   "",
		want: "",
	}, {
		name: "http",
		in:   "http://example.com",
		want: "example.com",
	}, {
		name: "http_port",
		in:   "http://example.com:80",
		want: "example.com",
	}, {
		name: "http_path",
		in:   "http://example.com/",
		want: "example.com",
	}, {
		name: "path",
		in:   "/foo?query=bar",
		want: "",
	}, {
		name: "two_slashes",
		in:   "//foo?query=bar",
		want: "foo",
	}, {
		name: "three_slashes",
		in:   "///foo",
		want: "",
	}, {
		name: "port",
		in:   ":8080",
		want: "",
	}, {
		name: "port_string",
		in:   ":foo",
		want: "",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := filterutil.ExtractHostname(tc.in)
			require.Equal(t, tc.want, got)

			assert.Equal(t, extractHostnameStd(tc.in), got)
		})
	}
}

// extractHostnameStd retrieves hostname from the given URL using standard
// library.
func extractHostnameStd(addr string) (hostname string) {
	u, err := url.Parse(addr)
	if err != nil {
		return ""
	}

	return u.Hostname()
}

func BenchmarkExtractHostname(b *testing.B) {
	const (
		exampleURL  = "http://example.com"
		exampleHost = "example.com"
	)

	b.Run("no_std", func(b *testing.B) {
		b.ReportAllocs()

		var got string

		for i := 0; i < b.N; i++ {
			got = filterutil.ExtractHostname(exampleURL)
		}

		assert.Equal(b, exampleHost, got)
	})

	b.Run("std", func(b *testing.B) {
		b.ReportAllocs()

		var got string

		for i := 0; i < b.N; i++ {
			got = extractHostnameStd(exampleURL)
		}

		assert.Equal(b, exampleHost, got)
	})
}

func TestIsDomainName(t *testing.T) {
	assert.True(t, filterutil.IsDomainName("1.cc"))
	assert.True(t, filterutil.IsDomainName("1.2.cc"))
	assert.True(t, filterutil.IsDomainName("a.b.cc"))
	assert.True(t, filterutil.IsDomainName("abc.abc.abc"))
	assert.True(t, filterutil.IsDomainName("a-bc.ab--c.abc"))
	assert.True(t, filterutil.IsDomainName("abc.xn--p1ai"))
	assert.True(t, filterutil.IsDomainName("xn--p1ai.xn--p1ai"))
	assert.True(t, filterutil.IsDomainName("cc"))
	assert.True(t, filterutil.IsDomainName("xn--p1ai"))

	assert.False(t, filterutil.IsDomainName(""))
	assert.False(t, filterutil.IsDomainName("#cc"))
	assert.False(t, filterutil.IsDomainName("a.cc#"))
	assert.False(t, filterutil.IsDomainName("abc.xn--"))
	assert.False(t, filterutil.IsDomainName("abc.xn--asd"))

	assert.False(t, filterutil.IsDomainName(".a.cc"))
	assert.False(t, filterutil.IsDomainName("a.cc."))

	assert.False(t, filterutil.IsDomainName("-a.cc"))
	assert.False(t, filterutil.IsDomainName("a-.cc"))

	assert.False(t, filterutil.IsDomainName("a.1cc"))
	assert.False(t, filterutil.IsDomainName("a.cc1"))
	assert.False(t, filterutil.IsDomainName("a.c"))

	const longLabel = "123456789012345678901234567890123456789012345678901234567890123"
	assert.True(t, filterutil.IsDomainName(longLabel+".cc"))
	assert.False(t, filterutil.IsDomainName(longLabel+"4.cc"))
}

func TestFastHash(t *testing.T) {
	assert.Equal(t, uint32(0), filterutil.FastHash(""))
	assert.NotEqual(t, filterutil.FastHash("example"), filterutil.FastHash("examplf"))

	// The hash of a substring equals the hash of that string on its own.
	assert.Equal(
		t,
		filterutil.FastHash("ample"),
		filterutil.FastHashBetween("example", 2, len("example")),
	)
}
