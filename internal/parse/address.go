package parse

import (
	"fmt"
	"regexp"
	"strings"
)

var ipv4Re = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)

const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

// Target is a normalised sensor address together with the scheme used to reach it.
type Target struct {
	Host   string
	Scheme string
}

// URL returns the root resource of the target.
func (t Target) URL() string {
	return t.Scheme + "://" + t.Host + "/"
}

// NormalizeAddress strips a leading protocol prefix and any path suffix from raw.
// A port, if present, is kept.
func NormalizeAddress(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "http://") {
		s = s[len("http://"):]
	} else if strings.HasPrefix(s, "https://") {
		s = s[len("https://"):]
	}
	if i := strings.Index(s, "/"); i >= 0 {
		s = s[:i]
	}
	return s
}

// IsIPv4Literal reports whether s is a bare four-octet dotted-decimal string.
// Octet ranges are not checked and a trailing port disqualifies the match.
func IsIPv4Literal(s string) bool {
	return ipv4Re.MatchString(s)
}

// ParseAddress normalises raw and selects plain HTTP for IPv4 literals, HTTPS otherwise.
func ParseAddress(raw string) (Target, error) {
	host := NormalizeAddress(raw)
	if host == "" {
		return Target{}, fmt.Errorf("unable to parse address: %q", raw)
	}

	scheme := SchemeHTTPS
	if IsIPv4Literal(host) {
		scheme = SchemeHTTP
	}
	return Target{Host: host, Scheme: scheme}, nil
}
