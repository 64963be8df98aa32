package acmeclient

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/tlscore/acmeclient/acmekey"
)

func TestOrderBuilderNoIdentifiers(t *testing.T) {
	_, err := NewOrderBuilder().toWire()
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Reason != ReasonNoIdentifiers {
		t.Fatalf("expected NoIdentifiers validation error, got %v", err)
	}
}

func TestOrderBuilderDuplicateIdentifiersPreserved(t *testing.T) {
	ob := NewOrderBuilder()
	if _, err := ob.AddDNSIdentifier("example.com"); err != nil {
		t.Fatalf("add identifier: %v", err)
	}
	if _, err := ob.AddDNSIdentifier("example.com"); err != nil {
		t.Fatalf("add identifier: %v", err)
	}

	w, err := ob.toWire()
	if err != nil {
		t.Fatalf("toWire: %v", err)
	}
	if len(w.Identifiers) != 2 {
		t.Fatalf("expected duplicate identifiers to be preserved, got %d entries", len(w.Identifiers))
	}
}

func TestOrderBuilderNormalizesIdentifiers(t *testing.T) {
	ob := NewOrderBuilder()
	if _, err := ob.AddDNSIdentifier("Example.com."); err != nil {
		t.Fatalf("add identifier: %v", err)
	}
	w, err := ob.toWire()
	if err != nil {
		t.Fatalf("toWire: %v", err)
	}
	if w.Identifiers[0].Value != "example.com" {
		t.Fatalf("expected normalized hostname, got %q", w.Identifiers[0].Value)
	}
}

func TestOrderBuilderRejectsInvalidHostname(t *testing.T) {
	if _, err := NewOrderBuilder().AddDNSIdentifier("not a hostname"); err == nil {
		t.Fatal("expected an error for an invalid hostname")
	}
}

func TestRegistrationBuilderAgreeToTermsIsIdempotent(t *testing.T) {
	rb := NewRegistrationBuilder().AgreeToTermsOfService().AgreeToTermsOfService()

	key, err := acmekey.Generate(acmekey.EC256)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	w, err := rb.toWire("https://example.com/acme/new-account", key)
	if err != nil {
		t.Fatalf("toWire: %v", err)
	}
	if !w.TermsOfServiceAgreed {
		t.Fatal("expected termsOfServiceAgreed to be true")
	}
}

func TestRegistrationBuilderExternalAccountBinding(t *testing.T) {
	key, err := acmekey.Generate(acmekey.EC256)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	macKey, err := base64.RawURLEncoding.DecodeString("zWNDZM6eQGHXhmM3Yz1nhQ")
	if err != nil {
		t.Fatalf("decode mac key: %v", err)
	}

	rb := NewRegistrationBuilder().
		Contact("mailto:admin@example.com").
		AgreeToTermsOfService().
		ExternalAccountBinding("kid-123", macKey)

	w, err := rb.toWire("https://example.com/acme/new-account", key)
	if err != nil {
		t.Fatalf("toWire: %v", err)
	}
	if len(w.ExternalAccountBinding) == 0 {
		t.Fatal("expected externalAccountBinding to be populated")
	}

	var flat struct {
		Protected string `json:"protected"`
		Payload   string `json:"payload"`
	}
	if err := json.Unmarshal(w.ExternalAccountBinding, &flat); err != nil {
		t.Fatalf("eab jws did not parse as flattened JWS: %v", err)
	}

	rawProtected, err := base64.RawURLEncoding.DecodeString(flat.Protected)
	if err != nil {
		t.Fatalf("decode protected header: %v", err)
	}
	var protected map[string]interface{}
	if err := json.Unmarshal(rawProtected, &protected); err != nil {
		t.Fatalf("unmarshal protected header: %v", err)
	}
	if protected["alg"] != "HS256" {
		t.Fatalf("expected HS256 alg, got %v", protected["alg"])
	}
	if protected["kid"] != "kid-123" {
		t.Fatalf("expected kid-123, got %v", protected["kid"])
	}
	if protected["url"] != "https://example.com/acme/new-account" {
		t.Fatalf("unexpected url: %v", protected["url"])
	}
	if _, ok := protected["jwk"]; ok {
		t.Fatal("eab protected header must not embed a jwk")
	}

	rawPayload, err := base64.RawURLEncoding.DecodeString(flat.Payload)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	var payloadJWK map[string]interface{}
	if err := json.Unmarshal(rawPayload, &payloadJWK); err != nil {
		t.Fatalf("eab payload was not the account's public jwk: %v", err)
	}
	if _, ok := payloadJWK["d"]; ok {
		t.Fatal("eab payload leaked the private key")
	}
}

func TestRegistrationBuilderRejectsEmptyMacKey(t *testing.T) {
	key, err := acmekey.Generate(acmekey.EC256)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	rb := NewRegistrationBuilder().ExternalAccountBinding("kid-123", nil)
	if _, err := rb.toWire("https://example.com/acme/new-account", key); err == nil {
		t.Fatal("expected an error for an empty mac key")
	}
}

func TestRevocationBuilderRequiresCertificate(t *testing.T) {
	_, err := NewRevocationBuilder().toWire()
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Reason != ReasonNoCertificate {
		t.Fatalf("expected NoCertificate validation error, got %v", err)
	}
}

func TestRevocationBuilderPEM(t *testing.T) {
	der := selfSignedCertDER(t)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	b, err := NewRevocationBuilder().PEM(pemBytes)
	if err != nil {
		t.Fatalf("PEM: %v", err)
	}
	w, err := b.toWire()
	if err != nil {
		t.Fatalf("toWire: %v", err)
	}
	if !bytes.Equal(w.Certificate, der) {
		t.Fatal("PEM ingest did not produce the expected DER bytes")
	}
}

func TestRevocationBuilderPEMRejectsMalformedInput(t *testing.T) {
	_, err := NewRevocationBuilder().PEM([]byte("not a pem block"))
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Reason != ReasonInvalidPem {
		t.Fatalf("expected InvalidPem validation error, got %v", err)
	}
}

func TestRevocationBuilderCertificate(t *testing.T) {
	der := selfSignedCertDER(t)
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}

	w, err := NewRevocationBuilder().Certificate(cert).toWire()
	if err != nil {
		t.Fatalf("toWire: %v", err)
	}
	if !bytes.Equal(w.Certificate, der) {
		t.Fatal("Certificate ingest did not produce the expected DER bytes")
	}
}

// selfSignedCertDER builds a throwaway self-signed certificate for tests
// that need a real DER/PEM certificate to ingest.
func selfSignedCertDER(t *testing.T) []byte {
	t.Helper()

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate cert key: %v", err)
	}

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "example.com"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	return der
}

func TestRevocationBuilderReasonRoundTrip(t *testing.T) {
	w, err := NewRevocationBuilder().DER([]byte{0x01, 0x02, 0x03}).Reason(ReasonKeyCompromise).toWire()
	if err != nil {
		t.Fatalf("toWire: %v", err)
	}
	if w.Reason == nil || *w.Reason != int(ReasonKeyCompromise) {
		t.Fatalf("expected reason %d, got %v", ReasonKeyCompromise, w.Reason)
	}

	data, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded struct {
		Certificate string `json:"certificate"`
		Reason      int    `json:"reason"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Reason != int(ReasonKeyCompromise) {
		t.Fatalf("unexpected wire reason: %d", decoded.Reason)
	}
}

func TestRevocationBuilderRejectsInvalidReason(t *testing.T) {
	_, err := NewRevocationBuilder().DER([]byte{0x01}).Reason(RevocationReason(99)).toWire()
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Reason != ReasonInvalidReasonCode {
		t.Fatalf("expected InvalidReasonCode validation error, got %v", err)
	}
}
