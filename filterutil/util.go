package filterutil

import "strings"

// maxDomainNameLength is the maximum length of a full ASCII hostname
// including the dots.
const maxDomainNameLength = 253

// maxLabelLength is the maximum length of a single domain name label.
const maxLabelLength = 63

// ExtractHostname quickly retrieves the hostname from a URL without parsing
// it fully.
func ExtractHostname(url string) string {
	if url == "" {
		return ""
	}

	firstIdx := strings.Index(url, "//")
	if firstIdx == -1 {
		// This is a non-hierarchical structured URL (e.g. stun: or turn:).
		// https://tools.ietf.org/html/rfc4395#section-2.2
		firstIdx = strings.Index(url, ":")
		if firstIdx == -1 {
			return ""
		}
		firstIdx = firstIdx - 1
	} else {
		firstIdx = firstIdx + 2
	}

	if firstIdx < 0 {
		return ""
	}

	nextIdx := strings.IndexAny(url[firstIdx:], "/:?")
	if nextIdx == -1 {
		nextIdx = len(url)
	} else {
		nextIdx += firstIdx
	}

	if nextIdx <= firstIdx {
		return ""
	}

	return url[firstIdx:nextIdx]
}

// IsDomainName checks if the input string is a valid domain name.  Each label
// must be 1 to 63 characters of ASCII letters, digits, and hyphens, must not
// start or end with a hyphen, and the rightmost label must look like a TLD:
// letters only, or a punycode label.
func IsDomainName(name string) bool {
	if name == "" || len(name) > maxDomainNameLength {
		return false
	}

	labels := strings.Split(name, ".")
	for _, label := range labels {
		if !isValidLabel(label) {
			return false
		}
	}

	return isValidTLD(labels[len(labels)-1])
}

// isValidLabel checks a single domain name label.
func isValidLabel(label string) bool {
	if label == "" || len(label) > maxLabelLength {
		return false
	}

	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}

	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c >= 'a' && c <= 'z',
			c >= 'A' && c <= 'Z',
			c >= '0' && c <= '9',
			c == '-':
			// Valid character.
		default:
			return false
		}
	}

	return true
}

// isValidTLD checks the rightmost label of a domain name.  It must be at
// least two letters, or a punycode label like "xn--p1ai".
func isValidTLD(label string) bool {
	if len(label) < 2 {
		return false
	}

	lettersOnly := true
	for i := 0; i < len(label); i++ {
		c := label[i]
		if !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') {
			lettersOnly = false
			break
		}
	}
	if lettersOnly {
		return true
	}

	return len(label) >= len("xn--wwww") &&
		strings.HasPrefix(strings.ToLower(label), "xn--")
}
