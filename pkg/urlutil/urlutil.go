package urlutil

import (
	"fmt"
	"net/url"
)

// Canonicalize applies a deterministic normalization to a URL:
//   - Scheme and host are lowercased
//   - Trailing slashes are removed from the path, except for root "/"
//   - Fragments are removed
//   - Default ports are omitted (e.g., :80 for http, :443 for https)
//
// Query parameters are kept; catalog search URLs depend on them.
func Canonicalize(sourceUrl url.URL) url.URL {
	canonical := sourceUrl

	canonical.Scheme = lowerASCII(canonical.Scheme)
	canonical.Host = lowerASCII(canonical.Host)

	if host, port := canonical.Hostname(), canonical.Port(); port != "" {
		if (canonical.Scheme == "http" && port == "80") ||
			(canonical.Scheme == "https" && port == "443") {
			canonical.Host = host
		}
	}

	if len(canonical.Path) > 1 {
		canonical.Path = stripTrailingSlash(canonical.Path)
	}

	canonical.Fragment = ""
	canonical.RawFragment = ""

	return canonical
}

// Resolve resolves href against base and canonicalizes the result.
func Resolve(base url.URL, href string) (url.URL, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return url.URL{}, fmt.Errorf("parse %q: %w", href, err)
	}
	resolved := base.ResolveReference(ref)
	return Canonicalize(*resolved), nil
}

// lowerASCII converts ASCII characters to lowercase without allocating
// when nothing needs lowering.
func lowerASCII(s string) string {
	var needsLower bool
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			needsLower = true
			break
		}
	}
	if !needsLower {
		return s
	}
	b := []byte(s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

func stripTrailingSlash(path string) string {
	for len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	return path
}
