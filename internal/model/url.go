package model

import (
	"net/url"
	"strings"
)

// MergeURL merges a possibly relative path against a base URL and returns a
// fully qualified absolute URL. Components from path win, falling back to
// base, falling back to a neutral default, so the result is always well
// formed and the function never fails.
func MergeURL(path, base string) string {
	pu, err := url.Parse(strings.TrimSpace(path))
	if err != nil {
		pu = &url.URL{}
	}
	bu, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		bu = &url.URL{}
	}

	scheme := pu.Scheme
	if scheme == "" {
		scheme = bu.Scheme
	}
	if scheme == "" {
		scheme = "http"
	}
	host := pu.Host
	if host == "" {
		host = bu.Host
	}
	if host == "" {
		host = "localhost"
	}
	p := pu.Path
	if p == "" {
		p = bu.Path
	}
	if p == "" {
		p = "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}

	// Assembled by hand: url.URL.String would percent-escape the {braces}
	// of URI templates.
	out := scheme + "://" + host + p
	if pu.RawQuery != "" {
		out += "?" + pu.RawQuery
	}
	return out
}
