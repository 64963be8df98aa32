package acmeclient

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// errNotRetryAfter is returned internally when a Retry-After value could
// not be parsed by any of the three forms; the caller treats this as
// "Retry-After absent".
var errNotRetryAfter = errors.New("acmeclient: unparseable Retry-After value")

// parseRetryAfter parses a Retry-After header value as, in order: a
// non-negative decimal integer (delta-seconds), an RFC 3339 absolute
// datetime, or an RFC 7231 HTTP-date (RFC 1123 or obsolete RFC 850 form).
// Leading/trailing whitespace is tolerated. It never panics; a
// whitespace-only or otherwise unparseable input is an error.
func parseRetryAfter(v string, now time.Time) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, errNotRetryAfter
	}

	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 {
			return 0, errNotRetryAfter
		}
		return n, nil
	}

	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return deltaSeconds(t, now), nil
	}

	if t, err := http.ParseTime(v); err == nil {
		return deltaSeconds(t, now), nil
	}

	return 0, errNotRetryAfter
}

func deltaSeconds(t, now time.Time) int {
	d := int(t.Sub(now).Seconds())
	if d < 0 {
		return 0
	}
	return d
}
