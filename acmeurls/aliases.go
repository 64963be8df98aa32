// Package acmeurls resolves the small set of directory URL aliases the
// acmeclient library knows about at library scope.
package acmeurls

import (
	"fmt"
	"net/url"
)

// Alias is a short name for a well-known ACME directory URL.
type Alias string

const (
	LetsEncrypt        Alias = "lets_encrypt"
	LetsEncryptStaging Alias = "lets_encrypt_staging"
	ZeroSSL            Alias = "zerossl"
)

var directories = map[Alias]string{
	LetsEncrypt:        "https://acme-v02.api.letsencrypt.org/directory",
	LetsEncryptStaging: "https://acme-staging-v02.api.letsencrypt.org/directory",
	ZeroSSL:            "https://acme.zerossl.com/v2/DV90",
}

// Resolve expands a directory URL alias to its literal URL. If v is not a
// recognised alias, it is returned unmodified (it is assumed to already be
// a literal directory URL). An empty string is returned unmodified too; the
// caller is responsible for rejecting it.
func Resolve(v string) string {
	if u, ok := directories[Alias(v)]; ok {
		return u
	}
	return v
}

// Valid reports whether u parses as an HTTPS URL. This is the minimum bar a
// directory URL (literal or alias-resolved) must clear before a request is
// made against it.
func Valid(u string) bool {
	pu, err := url.Parse(u)
	return err == nil && pu.Scheme == "https" && pu.Host != ""
}

// ErrUnknownAlias is returned by Lookup for an alias not in the registry.
var ErrUnknownAlias = fmt.Errorf("acmeurls: unknown directory alias")

// Lookup returns the literal URL for a known alias, or ErrUnknownAlias.
func Lookup(a Alias) (string, error) {
	u, ok := directories[a]
	if !ok {
		return "", ErrUnknownAlias
	}
	return u, nil
}
