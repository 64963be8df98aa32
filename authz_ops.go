package acmeclient

import (
	"context"
	"fmt"

	"github.com/tlscore/acmeclient/acmekey"
)

// FetchAuthorization loads (or reloads) an authorization by URL via
// POST-as-GET.
func (c *Client) FetchAuthorization(ctx context.Context, key *acmekey.Key, url string) (*Authorization, error) {
	var az Authorization
	if _, err := c.send(ctx, url, nil, key, &az); err != nil {
		return nil, err
	}
	az.URL = url

	if len(az.Challenges) == 0 {
		return nil, fmt.Errorf("acmeclient: authorization %s offered no challenges", url)
	}

	return &az, nil
}

// DeactivateAuthorization voluntarily relinquishes an authorization.
func (c *Client) DeactivateAuthorization(ctx context.Context, key *acmekey.Key, az *Authorization) (*Authorization, error) {
	req := struct {
		Status AuthorizationStatus `json:"status"`
	}{Status: AuthorizationDeactivated}

	var updated Authorization
	if _, err := c.send(ctx, az.URL, req, key, &updated); err != nil {
		return nil, err
	}
	updated.URL = az.URL
	return &updated, nil
}

// WaitAuthorization polls an authorization until it leaves the "pending"
// state, the same way WaitOrder polls an order.
func (c *Client) WaitAuthorization(ctx context.Context, key *acmekey.Key, az *Authorization) (*Authorization, error) {
	cur := az
	for {
		if cur.Status != "" && cur.Status != AuthorizationPending {
			return cur, nil
		}

		var updated Authorization
		resp, err := c.send(ctx, cur.URL, nil, key, &updated)
		if err != nil {
			return nil, err
		}
		updated.URL = cur.URL
		cur = &updated

		if cur.Status != "" && cur.Status != AuthorizationPending {
			return cur, nil
		}

		if err := sleepContext(ctx, pollDelay(resp.Header.Get("Retry-After"))); err != nil {
			return nil, err
		}
	}
}
