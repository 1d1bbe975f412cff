package utils

import (
	"net/http"
	"strings"
)

// GetScheme determines the scheme (http/https) from the request
func GetScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return strings.ToLower(strings.TrimSpace(strings.Split(scheme, ",")[0]))
	}
	return "http"
}

// IsSecureRequest reports whether the visitor reached us over HTTPS.
func IsSecureRequest(r *http.Request) bool {
	return GetScheme(r) == "https"
}
