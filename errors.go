package acmeclient

import (
	"encoding/json"
	"errors"
	"fmt"
)

// badNonceType is the RFC 8555 problem type that triggers the pipeline's
// single automatic retry.
const badNonceType = "urn:ietf:params:acme:error:badNonce"

// Problem is an RFC 7807 problem document, as returned by an ACME endpoint
// to describe an error.
type Problem struct {
	Type       string      `json:"type,omitempty"`
	Title      string      `json:"title,omitempty"`
	Status     int         `json:"status,omitempty"`
	Detail     string      `json:"detail,omitempty"`
	Instance   string      `json:"instance,omitempty"`
	Subproblem []*Problem  `json:"subproblems,omitempty"`
	Identifier *Identifier `json:"identifier,omitempty"`
}

func (p *Problem) String() string {
	if p == nil {
		return "<nil problem>"
	}
	return fmt.Sprintf("%s: %s", p.Type, p.Detail)
}

// ProtocolError is returned when the server responds with an error status
// (400 or above) and a non-empty body. If the body parsed as application/problem+json, Problem is
// populated; Raw always carries the original response body so a caller can
// inspect server-added fields the Problem struct doesn't model.
type ProtocolError struct {
	Problem *Problem
	Raw     json.RawMessage
}

func (e *ProtocolError) Error() string {
	if e.Problem != nil {
		return fmt.Sprintf("acmeclient: protocol error: %s", e.Problem)
	}
	return fmt.Sprintf("acmeclient: protocol error: %s", string(e.Raw))
}

// HTTPError is returned when an error response (status 400 or above) carries
// an empty body. A non-empty body that does not parse is a ProtocolError.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("acmeclient: http error: status %d", e.StatusCode)
}

// RetryAfterError is returned when an error response (status 400 or above)
// that is not a badNonce problem carries a parseable
// Retry-After header, in preference to a protocol error for the same
// response. Seconds is the advisory delay; the core never sleeps on it.
type RetryAfterError struct {
	Seconds int
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("acmeclient: retry after %ds", e.Seconds)
}

// ErrNonceUnavailable is returned when a nonce could not be obtained: the
// HEAD request to the newNonce endpoint failed, or its response lacked a
// Replay-Nonce header.
var ErrNonceUnavailable = errors.New("acmeclient: no replay nonce available")

// ValidationError is returned by builders before any network call, for
// input that can never succeed against the server.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "acmeclient: validation error: " + e.Reason
}

// Sentinel ValidationError reasons (spec.md §7).
const (
	ReasonNoIdentifiers     = "NoIdentifiers"
	ReasonInvalidReasonCode = "InvalidReasonCode"
	ReasonInvalidPem        = "InvalidPem"
	// ReasonNoCertificate is raised by RevocationBuilder.toWire when no
	// certificate was ever set (DER, PEM, or Certificate), distinct from
	// ReasonInvalidPem, which is reserved for a certificate that was
	// supplied but failed to parse.
	ReasonNoCertificate = "NoCertificate"
)

// DecodeError wraps a malformed JSON body or timestamp in a server
// response. It is always fatal for the call that produced it.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("acmeclient: decode error (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("acmeclient: decode error: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// InvalidTimestamp is the DecodeError.Reason used for a malformed RFC 3339
// timestamp in a server response.
const InvalidTimestamp = "InvalidTimestamp"

// IsBadNonce reports whether err is a ProtocolError carrying the ACME
// badNonce problem type.
func IsBadNonce(err error) bool {
	var pe *ProtocolError
	if errors.As(err, &pe) && pe.Problem != nil {
		return pe.Problem.Type == badNonceType
	}
	return false
}
