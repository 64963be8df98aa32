// Package acmeutils provides small, stateless helpers used when proving
// control of a domain: key authorization strings, the DNS-01 TXT record
// value, and DNS identifier normalization.
package acmeutils

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// thumbprinter is satisfied by *acmekey.Key. Declared locally (rather than
// importing acmekey directly into the signature) so this package's public
// API reads in terms of the thumbprint it needs, matching the narrow
// "account key" dependency the teacher's KeyAuthorization had.
type thumbprinter interface {
	Thumbprint() (string, error)
}

// KeyAuthorization computes the key authorization string "{token}.{thumbprint}"
// for the given account key and challenge token.
func KeyAuthorization(accountKey thumbprinter, token string) (string, error) {
	thumbprint, err := accountKey.Thumbprint()
	if err != nil {
		return "", fmt.Errorf("acmeutils: key authorization: %w", err)
	}

	return token + "." + thumbprint, nil
}

// DNS01Value computes the value that must be published in a _acme-challenge
// TXT record to satisfy a dns-01 challenge: base64url-no-pad(SHA-256(key
// authorization)).
func DNS01Value(accountKey thumbprinter, token string) (string, error) {
	ka, err := KeyAuthorization(accountKey, token)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256([]byte(ka))
	return base64.RawURLEncoding.EncodeToString(sum[:]), nil
}
