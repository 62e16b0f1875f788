// Package urlutil provides URL manipulation utilities for building
// externally visible links.
package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const redacted = "REDACTED"

// URL scheme constants.
const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

// NormalizeBaseURL normalizes a base URL for consistent use:
//   - Adds http:// scheme if no scheme provided
//   - Removes trailing slashes for clean path joining
//
// Examples:
//
//	"radio.local"              -> "http://radio.local"
//	"https://radio.example/"   -> "https://radio.example"
//	"http://localhost:8080/aa/" -> "http://localhost:8080/aa"
func NormalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return ""
	}

	if !strings.HasPrefix(baseURL, SchemeHTTP+"://") && !strings.HasPrefix(baseURL, SchemeHTTPS+"://") {
		baseURL = SchemeHTTP + "://" + baseURL
	}

	return strings.TrimRight(baseURL, "/")
}

// JoinPath appends path segments to a base URL. Each segment is escaped
// with url.PathEscape, so a segment can never add path levels, a query or a
// line break. Empty segments are skipped.
func JoinPath(baseURL string, segments ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(baseURL, "/"))
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		b.WriteByte('/')
		b.WriteString(url.PathEscape(seg))
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

// UnescapeSegment reverses the escaping JoinPath applies to a segment. A
// value that is not valid escaping is returned unchanged.
func UnescapeSegment(seg string) string {
	if !strings.Contains(seg, "%") {
		return seg
	}
	if unescaped, err := url.PathUnescape(seg); err == nil {
		return unescaped
	}
	return seg
}

// RedactQuery replaces the query of u so credentials carried there, such as a
// bare premium listen key, never reach logs. Unparseable input is replaced
// entirely.
func RedactQuery(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return redacted
	}
	if parsed.RawQuery == "" && !parsed.ForceQuery {
		return u
	}
	parsed.RawQuery = redacted
	parsed.ForceQuery = false
	return parsed.String()
}

// Origin returns scheme://host for a request, honouring X-Forwarded-Proto
// and X-Forwarded-Host values when a reverse proxy supplied them.
func Origin(forwardedProto, forwardedHost, host string) string {
	scheme := SchemeHTTP
	if strings.EqualFold(strings.TrimSpace(forwardedProto), SchemeHTTPS) {
		scheme = SchemeHTTPS
	}

	// A proxy chain may append several hosts; the first is the client-facing one.
	if fh, _, _ := strings.Cut(forwardedHost, ","); strings.TrimSpace(fh) != "" {
		host = strings.TrimSpace(fh)
	}

	return scheme + "://" + host
}

// ValidateBaseURL checks that u is an absolute http(s) URL with a host and no
// query or fragment, suitable as a prefix for generated links.
func ValidateBaseURL(u string) error {
	if u == "" {
		return errors.New("URL is required")
	}

	parsed, err := url.Parse(u)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	switch strings.ToLower(parsed.Scheme) {
	case SchemeHTTP, SchemeHTTPS:
	case "":
		return errors.New("URL must include a scheme (http:// or https://)")
	default:
		return fmt.Errorf("unsupported URL scheme: %s (supported: http, https)", parsed.Scheme)
	}

	if parsed.Host == "" {
		return errors.New("URL must include a host")
	}
	if parsed.RawQuery != "" || parsed.Fragment != "" {
		return errors.New("URL must not include a query or fragment")
	}
	return nil
}
