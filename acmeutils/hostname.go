package acmeutils

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"
)

// NormalizeHostname validates and normalizes a DNS identifier value: it
// trims a single trailing dot, punycodes any non-ASCII labels, and allows
// at most one leading wildcard label ("*."). It rejects empty labels,
// disallowed characters, and wildcards anywhere but the leftmost label.
func NormalizeHostname(h string) (string, error) {
	h = strings.TrimSuffix(h, ".")
	if h == "" || strings.HasSuffix(h, ".") || strings.HasPrefix(h, ".") || strings.Contains(h, "..") {
		return "", fmt.Errorf("acmeutils: invalid hostname %q", h)
	}

	wildcard := false
	if strings.HasPrefix(h, "*.") {
		wildcard = true
		h = h[2:]
	}
	if strings.Contains(h, "*") {
		return "", fmt.Errorf("acmeutils: invalid wildcard hostname %q", h)
	}

	ascii, err := idna.Lookup.ToASCII(h)
	if err != nil {
		return "", fmt.Errorf("acmeutils: invalid hostname %q: %w", h, err)
	}

	if wildcard {
		return "*." + ascii, nil
	}
	return ascii, nil
}
