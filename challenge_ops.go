package acmeclient

import (
	"context"

	"github.com/tlscore/acmeclient/acmekey"
	"github.com/tlscore/acmeclient/acmeutils"
)

// KeyAuthorization computes the key authorization for a challenge's token
// under key, per RFC 8555 §8.1.
func KeyAuthorization(key *acmekey.Key, token string) (string, error) {
	return acmeutils.KeyAuthorization(key, token)
}

// DNS01Value computes the value to publish in a _acme-challenge TXT record
// for a dns-01 challenge, per RFC 8555 §8.4.
func DNS01Value(key *acmekey.Key, token string) (string, error) {
	return acmeutils.DNS01Value(key, token)
}

// TriggerChallenge tells the server the client believes a challenge's
// preconditions are met, triggering server-side validation. The caller is
// responsible for having already published whatever the challenge type
// requires (a DNS TXT record, an HTTP resource, a TLS certificate).
func (c *Client) TriggerChallenge(ctx context.Context, key *acmekey.Key, ch *Challenge) (*Challenge, error) {
	var updated Challenge
	if _, err := c.send(ctx, ch.URL, struct{}{}, key, &updated); err != nil {
		return nil, err
	}
	if updated.URL == "" {
		updated.URL = ch.URL
	}
	return &updated, nil
}

// WaitChallenge polls a challenge until it leaves the "pending" and
// "processing" states.
func (c *Client) WaitChallenge(ctx context.Context, key *acmekey.Key, ch *Challenge) (*Challenge, error) {
	cur := ch
	for {
		if cur.Status.IsFinal() {
			return cur, nil
		}

		var updated Challenge
		resp, err := c.send(ctx, cur.URL, nil, key, &updated)
		if err != nil {
			return nil, err
		}
		if updated.URL == "" {
			updated.URL = cur.URL
		}
		cur = &updated

		if cur.Status.IsFinal() {
			return cur, nil
		}

		if err := sleepContext(ctx, pollDelay(resp.Header.Get("Retry-After"))); err != nil {
			return nil, err
		}
	}
}
