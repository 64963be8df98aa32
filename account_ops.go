package acmeclient

import (
	"context"
	"fmt"

	"github.com/tlscore/acmeclient/acmekey"
)

// RegisterAccount creates a new account, signing the request with key's
// embedded public JWK (key must not already carry a Kid). On success it
// returns the populated Account snapshot and a copy of key bound to the new
// account URL (via WithKid) — use the returned key for every later call
// that acts on this account.
func (c *Client) RegisterAccount(ctx context.Context, key *acmekey.Key, rb *RegistrationBuilder) (*Account, *acmekey.Key, error) {
	if key.Kid() != "" {
		return nil, nil, fmt.Errorf("acmeclient: register account: key is already bound to %q", key.Kid())
	}
	if rb == nil {
		rb = NewRegistrationBuilder()
	}

	w, err := rb.toWire(c.dir.NewAccount, key)
	if err != nil {
		return nil, nil, err
	}

	var acct Account
	resp, err := c.send(ctx, c.dir.NewAccount, w, key, &acct)
	if err != nil {
		return nil, nil, err
	}

	loc := resp.Header.Get("Location")
	if loc == "" {
		return nil, nil, fmt.Errorf("acmeclient: register account: response carried no Location header")
	}
	acct.URL = loc

	return &acct, key.WithKid(loc), nil
}

// LocateAccount looks up an existing account by key, without creating one.
// It fails if no account matches. The account's URL is required for its
// result; use it to bind further calls the same way RegisterAccount does.
func (c *Client) LocateAccount(ctx context.Context, key *acmekey.Key) (*Account, *acmekey.Key, error) {
	return c.RegisterAccount(ctx, key, NewRegistrationBuilder().OnlyReturnExisting())
}

// UpdateAccount modifies the contact URIs (and nothing else) of an existing
// account. key must be bound (key.Kid() == account URL).
func (c *Client) UpdateAccount(ctx context.Context, key *acmekey.Key, contacts []string) (*Account, error) {
	if key.Kid() == "" {
		return nil, fmt.Errorf("acmeclient: update account: key is not bound to an account")
	}

	w := &wireAccount{Contact: contacts}
	var acct Account
	if _, err := c.send(ctx, key.Kid(), w, key, &acct); err != nil {
		return nil, err
	}
	acct.URL = key.Kid()
	return &acct, nil
}

// DeactivateAccount requests deactivation of the bound account. This is the
// only client-initiated status transition the protocol allows.
func (c *Client) DeactivateAccount(ctx context.Context, key *acmekey.Key) (*Account, error) {
	if key.Kid() == "" {
		return nil, fmt.Errorf("acmeclient: deactivate account: key is not bound to an account")
	}

	req := struct {
		Status AccountStatus `json:"status"`
	}{Status: AccountDeactivated}

	var acct Account
	if _, err := c.send(ctx, key.Kid(), req, key, &acct); err != nil {
		return nil, err
	}
	acct.URL = key.Kid()
	return &acct, nil
}

// FetchAccount reloads the account snapshot via POST-as-GET. key must be
// bound.
func (c *Client) FetchAccount(ctx context.Context, key *acmekey.Key) (*Account, error) {
	if key.Kid() == "" {
		return nil, fmt.Errorf("acmeclient: fetch account: key is not bound to an account")
	}

	var acct Account
	if _, err := c.send(ctx, key.Kid(), nil, key, &acct); err != nil {
		return nil, err
	}
	acct.URL = key.Kid()
	return &acct, nil
}
