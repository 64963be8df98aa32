package acmeclient

import (
	"crypto/x509"
	"encoding/json"
	"fmt"
	"time"

	denet "github.com/hlandau/goutils/net"
	"github.com/tlscore/acmeclient/acmeutils"
	"gopkg.in/square/go-jose.v2"
)

// OrderBuilder accumulates the fields of a new-order request before
// submission, validating as it goes so submission-time failures are
// confined to server-side problems.
type OrderBuilder struct {
	identifiers []Identifier
	profile     string
	notBefore   time.Time
	notAfter    time.Time
}

// NewOrderBuilder returns an empty OrderBuilder.
func NewOrderBuilder() *OrderBuilder { return &OrderBuilder{} }

// AddDNSIdentifier adds a DNS identifier, normalizing it first (lowercasing,
// IDNA-encoding, trailing-dot stripping; see acmeutils.NormalizeHostname).
func (b *OrderBuilder) AddDNSIdentifier(hostname string) (*OrderBuilder, error) {
	norm, err := acmeutils.NormalizeHostname(hostname)
	if err != nil {
		return b, fmt.Errorf("acmeclient: add dns identifier: %w", err)
	}
	b.identifiers = append(b.identifiers, Identifier{Type: IdentifierTypeDNS, Value: norm})
	return b, nil
}

// Profile sets the requested certificate profile name (draft-aaron-acme-profiles).
func (b *OrderBuilder) Profile(name string) *OrderBuilder {
	b.profile = name
	return b
}

// NotBefore constrains the issued certificate's validity start.
func (b *OrderBuilder) NotBefore(t time.Time) *OrderBuilder {
	b.notBefore = t
	return b
}

// NotAfter constrains the issued certificate's validity end.
func (b *OrderBuilder) NotAfter(t time.Time) *OrderBuilder {
	b.notAfter = t
	return b
}

type wireOrder struct {
	Identifiers []Identifier `json:"identifiers,omitempty"`
	Profile     string       `json:"profile,omitempty"`
	NotBefore   *time.Time   `json:"notBefore,omitempty"`
	NotAfter    *time.Time   `json:"notAfter,omitempty"`
}

func (b *OrderBuilder) toWire() (*wireOrder, error) {
	if len(b.identifiers) == 0 {
		return nil, &ValidationError{Reason: ReasonNoIdentifiers}
	}

	w := &wireOrder{Identifiers: b.identifiers, Profile: b.profile}
	if !b.notBefore.IsZero() {
		w.NotBefore = &b.notBefore
	}
	if !b.notAfter.IsZero() {
		w.NotAfter = &b.notAfter
	}
	return w, nil
}

// ---------------------------------------------------------------------------------------------------------

// RegistrationBuilder accumulates the fields of a new-account request.
type RegistrationBuilder struct {
	contacts           []string
	tosAgreed          bool
	onlyReturnExisting bool
	eabKID             string
	eabKey             []byte
}

// NewRegistrationBuilder returns an empty RegistrationBuilder.
func NewRegistrationBuilder() *RegistrationBuilder { return &RegistrationBuilder{} }

// Contact sets the account's contact URIs, e.g. "mailto:admin@example.com".
func (b *RegistrationBuilder) Contact(uris ...string) *RegistrationBuilder {
	b.contacts = uris
	return b
}

// AgreeToTermsOfService records assent to the realm's terms of service.
func (b *RegistrationBuilder) AgreeToTermsOfService() *RegistrationBuilder {
	b.tosAgreed = true
	return b
}

// OnlyReturnExisting requests account lookup by key rather than creation;
// the server errors if no matching account exists.
func (b *RegistrationBuilder) OnlyReturnExisting() *RegistrationBuilder {
	b.onlyReturnExisting = true
	return b
}

// ExternalAccountBinding attaches an external account binding using the CA
// operator-issued kid and MAC key (RFC 8555 §7.3.4).
func (b *RegistrationBuilder) ExternalAccountBinding(kid string, macKey []byte) *RegistrationBuilder {
	b.eabKID = kid
	b.eabKey = macKey
	return b
}

type wireAccount struct {
	Contact                []string        `json:"contact,omitempty"`
	TermsOfServiceAgreed   bool            `json:"termsOfServiceAgreed,omitempty"`
	OnlyReturnExisting     bool            `json:"onlyReturnExisting,omitempty"`
	ExternalAccountBinding json.RawMessage `json:"externalAccountBinding,omitempty"`
}

func (b *RegistrationBuilder) toWire(newAccountURL string, key publicJWKer) (*wireAccount, error) {
	w := &wireAccount{
		Contact:              b.contacts,
		TermsOfServiceAgreed: b.tosAgreed,
		OnlyReturnExisting:   b.onlyReturnExisting,
	}

	if b.eabKID != "" {
		eab, err := signEAB(newAccountURL, b.eabKID, b.eabKey, key)
		if err != nil {
			return nil, err
		}
		w.ExternalAccountBinding = eab
	}

	return w, nil
}

// publicJWKer is the subset of *acmekey.Key that EAB signing needs: the
// account key's own public JWK, embedded as the inner JWS payload.
type publicJWKer interface {
	ToPublic() *jose.JSONWebKey
}

// hmacSigner implements the signer interface (request.go) for the inner EAB
// JWS: an HMAC-SHA256 key, identified by a CA-issued kid, with no embedded
// jwk. This is the only signer variant besides *acmekey.Key the pipeline
// ever needs.
type hmacSigner struct {
	kid string
	key []byte
}

func (s *hmacSigner) Sign(payload []byte, extraHeaders map[string]interface{}) (string, error) {
	headers := make(map[jose.HeaderKey]interface{}, len(extraHeaders)+1)
	for k, v := range extraHeaders {
		headers[jose.HeaderKey(k)] = v
	}
	headers["kid"] = s.kid

	opts := &jose.SignerOptions{ExtraHeaders: headers}
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: s.key}, opts)
	if err != nil {
		return "", fmt.Errorf("acmeclient: create eab signer: %w", err)
	}

	sig, err := signer.Sign(payload)
	if err != nil {
		return "", fmt.Errorf("acmeclient: sign eab content: %w", err)
	}
	return sig.FullSerialize(), nil
}

// signEAB builds the external-account-binding JWS: an inner JWS over the
// account's public JWK, signed with the operator-issued HMAC key, with
// "url" (the newAccount URL) and "kid" (the operator-issued key identifier)
// as protected headers.
func signEAB(newAccountURL, kid string, macKey []byte, key publicJWKer) (json.RawMessage, error) {
	if len(macKey) == 0 {
		return nil, fmt.Errorf("acmeclient: external account binding requires a non-empty mac key")
	}

	jwk := key.ToPublic()
	payload, err := jwk.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("acmeclient: marshal account jwk for eab: %w", err)
	}

	hs := &hmacSigner{kid: kid, key: macKey}
	serialized, err := hs.Sign(payload, map[string]interface{}{"url": newAccountURL})
	if err != nil {
		return nil, err
	}

	return json.RawMessage(serialized), nil
}

// ---------------------------------------------------------------------------------------------------------

// RevocationBuilder accumulates the fields of a revocation request.
type RevocationBuilder struct {
	der    []byte
	reason *int
}

// NewRevocationBuilder returns an empty RevocationBuilder.
func NewRevocationBuilder() *RevocationBuilder { return &RevocationBuilder{} }

// DER sets the certificate to revoke from its DER encoding.
func (b *RevocationBuilder) DER(der []byte) *RevocationBuilder {
	b.der = der
	return b
}

// PEM sets the certificate to revoke by parsing a PEM-encoded certificate
// (or chain, of which the first certificate is used), converting it to DER
// at ingest per spec.md §4.5. A malformed PEM input is reported here, as an
// InvalidPem ValidationError, rather than deferred to toWire.
func (b *RevocationBuilder) PEM(pemData []byte) (*RevocationBuilder, error) {
	ders, err := acmeutils.LoadCertificates(pemData)
	if err != nil {
		return b, &ValidationError{Reason: ReasonInvalidPem}
	}
	b.der = ders[0]
	return b, nil
}

// Certificate sets the certificate to revoke from an already-parsed
// in-memory certificate.
func (b *RevocationBuilder) Certificate(cert *x509.Certificate) *RevocationBuilder {
	b.der = cert.Raw
	return b
}

// Reason sets the CRL reason code (RFC 5280 §5.3.1).
func (b *RevocationBuilder) Reason(reason RevocationReason) *RevocationBuilder {
	r := int(reason)
	b.reason = &r
	return b
}

// RevocationReason is a CRL reason code understood by RFC 8555 revocation.
type RevocationReason int

const (
	ReasonUnspecified          RevocationReason = 0
	ReasonKeyCompromise        RevocationReason = 1
	ReasonCACompromise         RevocationReason = 2
	ReasonAffiliationChanged   RevocationReason = 3
	ReasonSuperseded           RevocationReason = 4
	ReasonCessationOfOperation RevocationReason = 5
	ReasonCertificateHold      RevocationReason = 6
	ReasonRemoveFromCRL        RevocationReason = 8
	ReasonPrivilegeWithdrawn   RevocationReason = 9
	ReasonAACompromise         RevocationReason = 10
)

func validRevocationReason(r int) bool {
	switch RevocationReason(r) {
	case ReasonUnspecified, ReasonKeyCompromise, ReasonCACompromise,
		ReasonAffiliationChanged, ReasonSuperseded, ReasonCessationOfOperation,
		ReasonCertificateHold, ReasonRemoveFromCRL, ReasonPrivilegeWithdrawn,
		ReasonAACompromise:
		return true
	default:
		return false
	}
}

type wireRevocation struct {
	Certificate denet.Base64up `json:"certificate"`
	Reason      *int           `json:"reason,omitempty"`
}

func (b *RevocationBuilder) toWire() (*wireRevocation, error) {
	if len(b.der) == 0 {
		return nil, &ValidationError{Reason: ReasonNoCertificate}
	}
	if b.reason != nil && !validRevocationReason(*b.reason) {
		return nil, &ValidationError{Reason: ReasonInvalidReasonCode}
	}

	return &wireRevocation{
		Certificate: b.der,
		Reason:      b.reason,
	}, nil
}
