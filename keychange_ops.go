package acmeclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tlscore/acmeclient/acmekey"
)

// ChangeKey rotates the account's signing key (RFC 8555 §7.3.5). It builds
// the inner JWS — {account: <accountURL>, oldKey: <old public JWK>} signed
// by newKey with an embedded jwk — then sends it as the payload of an outer
// JWS signed by the current (old, kid-bound) key, POSTed to the realm's
// keyChange endpoint. The teacher's client left this as a stub
// (panic("not yet implemented")); this library implements it.
//
// On success it returns a copy of newKey bound to the account URL; the
// caller must use this returned key, not oldKey, for every subsequent call.
func (c *Client) ChangeKey(ctx context.Context, oldKey, newKey *acmekey.Key) (*acmekey.Key, error) {
	if oldKey.Kid() == "" {
		return nil, fmt.Errorf("acmeclient: change key: old key is not bound to an account")
	}
	if c.dir.KeyChange == "" {
		return nil, fmt.Errorf("acmeclient: realm does not support key change")
	}

	oldKeyJSON, err := oldKey.ToPublic().MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("acmeclient: change key: marshal old public key: %w", err)
	}

	payload, err := json.Marshal(struct {
		Account string          `json:"account"`
		OldKey  json.RawMessage `json:"oldKey"`
	}{
		Account: oldKey.Kid(),
		OldKey:  oldKeyJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("acmeclient: change key: marshal inner payload: %w", err)
	}

	// newKey signs the inner JWS with an embedded jwk (it has no Kid yet),
	// over the keyChange URL, per RFC 8555 §7.3.5.
	innerJWS, err := newKey.Sign(payload, map[string]interface{}{"url": c.dir.KeyChange})
	if err != nil {
		return nil, fmt.Errorf("acmeclient: change key: sign inner jws: %w", err)
	}

	if _, err := c.send(ctx, c.dir.KeyChange, json.RawMessage(innerJWS), oldKey, nil); err != nil {
		return nil, err
	}

	return newKey.WithKid(oldKey.Kid()), nil
}
