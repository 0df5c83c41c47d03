package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseSecureURL rejects anything that is not an absolute https URL.
func ParseSecureURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsed.Scheme != "https" {
		return nil, fmt.Errorf("insecure URL rejected: %q", raw)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("URL has no host: %q", raw)
	}
	return parsed, nil
}
