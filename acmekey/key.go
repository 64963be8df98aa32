// Package acmekey provides the account-key abstraction used to sign every
// ACME request: JWS signing with either an embedded jwk or a kid protected
// header, key generation, RFC 7638 thumbprints, and a lossless JSON
// round-trip.
package acmekey

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"gopkg.in/square/go-jose.v2"
)

// Type identifies the key algorithm backing a Key.
type Type string

const (
	// EC256 is P-256 ECDSA (ES256). This is the default key type because it
	// is universally supported by public ACME servers.
	EC256 Type = "ec256"
	// Ed25519 is EdDSA over Curve25519.
	Ed25519 Type = "ed25519"
	// RS256 is RSA; Generate creates a defaultRSABits (2048-bit) key.
	RS256 Type = "rs256"
)

const defaultRSABits = 2048

// Key is a tagged private key used to sign ACME requests. The zero value is
// not usable; construct one with Generate, Wrap, or by unmarshaling JSON
// produced by MarshalJSON.
//
// Once Kid is set (via WithKid), the key signs with a kid protected header
// referencing the ACME account URL. While Kid is empty, the key signs with
// an embedded jwk protected header. This is the only distinction between
// the two ACME signing conventions; no separate "raw JWK" type is needed.
type Key struct {
	typ  Type
	priv crypto.Signer
	kid  string
}

// Generate produces a fresh private key of the given type. An empty Type
// defaults to EC256.
func Generate(t Type) (*Key, error) {
	if t == "" {
		t = EC256
	}

	switch t {
	case EC256:
		priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("acmekey: generate ec256 key: %w", err)
		}
		return &Key{typ: EC256, priv: priv}, nil

	case Ed25519:
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("acmekey: generate ed25519 key: %w", err)
		}
		return &Key{typ: Ed25519, priv: priv}, nil

	case RS256:
		priv, err := rsa.GenerateKey(rand.Reader, defaultRSABits)
		if err != nil {
			return nil, fmt.Errorf("acmekey: generate rs256 key: %w", err)
		}
		return &Key{typ: RS256, priv: priv}, nil

	default:
		return nil, fmt.Errorf("acmekey: unsupported key type %q", t)
	}
}

// Wrap adapts an existing private key (e.g. a certificate's key, used to
// authorize an out-of-account revocation) into a Key with no Kid set.
func Wrap(priv crypto.Signer) (*Key, error) {
	switch priv.(type) {
	case *ecdsa.PrivateKey:
		return &Key{typ: EC256, priv: priv}, nil
	case ed25519.PrivateKey:
		return &Key{typ: Ed25519, priv: priv}, nil
	case *rsa.PrivateKey:
		return &Key{typ: RS256, priv: priv}, nil
	default:
		return nil, fmt.Errorf("acmekey: unsupported private key type %T", priv)
	}
}

// Type returns the key's algorithm tag.
func (k *Key) Type() Type { return k.typ }

// Kid returns the account URL bound to this key, or "" if none is bound.
func (k *Key) Kid() string { return k.kid }

// WithKid returns a copy of k with Kid set to kid. It never mutates k.
func (k *Key) WithKid(kid string) *Key {
	return &Key{typ: k.typ, priv: k.priv, kid: kid}
}

// Public returns the key's public counterpart.
func (k *Key) Public() crypto.PublicKey { return k.priv.Public() }

func (k *Key) algorithm() (jose.SignatureAlgorithm, error) {
	switch k.typ {
	case EC256:
		return jose.ES256, nil
	case Ed25519:
		return jose.EdDSA, nil
	case RS256:
		return jose.RS256, nil
	default:
		return "", fmt.Errorf("acmekey: unsupported key type %q", k.typ)
	}
}

// Thumbprint computes the RFC 7638 JWK thumbprint of the key's public form:
// SHA-256 of the canonical JWK JSON, base64url-encoded without padding.
func (k *Key) Thumbprint() (string, error) {
	jwk := jose.JSONWebKey{Key: k.priv.Public()}
	sum, err := jwk.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("acmekey: thumbprint: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(sum), nil
}

// ToPublic returns the canonical public JWK for this key.
func (k *Key) ToPublic() *jose.JSONWebKey {
	return &jose.JSONWebKey{Key: k.priv.Public()}
}

// Sign builds a flattened JWS over payload's bytes. The protected header is
// extraHeaders plus alg, and exactly one of {kid} (if k.Kid is set) or
// {jwk} (otherwise, the public form of k is embedded). extraHeaders
// supplies the request-specific fields (nonce, url); the key supplies
// alg and kid/jwk. The returned string is the JWS's full (flattened JSON)
// serialization, ready to be used as an ACME request body.
func (k *Key) Sign(payload []byte, extraHeaders map[string]interface{}) (string, error) {
	alg, err := k.algorithm()
	if err != nil {
		return "", err
	}

	headers := make(map[jose.HeaderKey]interface{}, len(extraHeaders)+1)
	for hk, v := range extraHeaders {
		headers[jose.HeaderKey(hk)] = v
	}

	opts := &jose.SignerOptions{ExtraHeaders: headers}
	if k.kid != "" {
		headers["kid"] = k.kid
	} else {
		opts.EmbedJWK = true
	}

	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: alg, Key: k.priv}, opts)
	if err != nil {
		return "", fmt.Errorf("acmekey: create signer: %w", err)
	}

	sig, err := signer.Sign(payload)
	if err != nil {
		return "", fmt.Errorf("acmekey: sign: %w", err)
	}

	return sig.FullSerialize(), nil
}

type keyJSON struct {
	Key  json.RawMessage `json:"key"`
	Kid  *string         `json:"kid"`
	Type Type            `json:"type"`
}

// MarshalJSON implements the round-trippable serialization of §4.4:
// {"key": <JWK map>, "kid": <string|null>, "type": <"ec256"|"ed25519"|"rs256">}.
func (k *Key) MarshalJSON() ([]byte, error) {
	jwk := jose.JSONWebKey{Key: k.priv}
	raw, err := jwk.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("acmekey: marshal private jwk: %w", err)
	}

	var kid *string
	if k.kid != "" {
		kid = &k.kid
	}

	return json.Marshal(keyJSON{Key: raw, Kid: kid, Type: k.typ})
}

// UnmarshalJSON restores a Key from the form produced by MarshalJSON.
func (k *Key) UnmarshalJSON(data []byte) error {
	var kj keyJSON
	if err := json.Unmarshal(data, &kj); err != nil {
		return fmt.Errorf("acmekey: unmarshal: %w", err)
	}

	var jwk jose.JSONWebKey
	if err := jwk.UnmarshalJSON(kj.Key); err != nil {
		return fmt.Errorf("acmekey: unmarshal jwk: %w", err)
	}

	signer, ok := jwk.Key.(crypto.Signer)
	if !ok {
		return fmt.Errorf("acmekey: decoded key of type %T is not a private signing key", jwk.Key)
	}

	k.priv = signer
	k.typ = kj.Type
	k.kid = ""
	if kj.Kid != nil {
		k.kid = *kj.Kid
	}

	return nil
}
