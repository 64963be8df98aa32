package acmeclient

import (
	"context"
	"fmt"
)

// RevokeCertificate requests revocation of a certificate. s may be the
// issuing account's bound key, or a raw (unbound) key wrapping the
// certificate's own private key — RFC 8555 §7.6 permits either as proof of
// authorization, and both satisfy the signer interface identically, so no
// separate code path is needed for the two cases.
func (c *Client) RevokeCertificate(ctx context.Context, s signer, rb *RevocationBuilder) error {
	if c.dir.RevokeCert == "" {
		return fmt.Errorf("acmeclient: realm does not support certificate revocation")
	}

	w, err := rb.toWire()
	if err != nil {
		return err
	}

	_, err = c.send(ctx, c.dir.RevokeCert, w, s, nil)
	return err
}
