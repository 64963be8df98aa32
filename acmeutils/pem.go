package acmeutils

import (
	"encoding/pem"
	"fmt"
)

// LoadCertificates parses a PEM-encoded certificate chain (as returned by an
// ACME certificate resource) into its constituent DER-encoded certificates,
// end-entity certificate first.
func LoadCertificates(pemData []byte) ([][]byte, error) {
	var ders [][]byte

	rest := pemData
	for len(rest) > 0 {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		ders = append(ders, block.Bytes)
	}

	if len(ders) == 0 {
		return nil, fmt.Errorf("acmeutils: no certificates found in PEM data")
	}

	return ders, nil
}
