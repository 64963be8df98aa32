package acmeclient

import (
	"crypto"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
)

// CreateCSR builds a DER-encoded PKCS#10 certificate signing request for the
// given identifiers, suitable for Client.FinalizeOrder. The first identifier's
// value becomes the CSR's CommonName; every identifier's value becomes a
// DNSNames SAN entry. key signs the CSR and should be the certificate's own
// private key (distinct from the account key used to sign ACME requests).
func CreateCSR(key crypto.Signer, identifiers []Identifier) ([]byte, error) {
	if len(identifiers) == 0 {
		return nil, &ValidationError{Reason: ReasonNoIdentifiers}
	}

	names := make([]string, 0, len(identifiers))
	for _, id := range identifiers {
		if id.Type != IdentifierTypeDNS {
			return nil, fmt.Errorf("acmeclient: CSR construction only supports dns identifiers, got %q", id.Type)
		}
		names = append(names, id.Value)
	}

	tmpl := &x509.CertificateRequest{
		Subject:  pkix.Name{CommonName: names[0]},
		DNSNames: names,
	}

	der, err := x509.CreateCertificateRequest(rand.Reader, tmpl, key)
	if err != nil {
		return nil, fmt.Errorf("acmeclient: create csr: %w", err)
	}
	return der, nil
}
