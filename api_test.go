//go:build integration

package acmeclient

import (
	"context"
	"testing"

	"github.com/tlscore/acmeclient/acmekey"
	"github.com/tlscore/acmeclient/pebbletest"
)

func TestClientAgainstPebble(t *testing.T) {
	ctx := context.Background()

	c, err := New(ctx, Config{
		DirectoryURL: "https://localhost:14000/dir",
		Transport:    NewHTTPTransport(pebbletest.HTTPClient),
	})
	if err != nil {
		t.Fatalf("couldn't instantiate client: %v", err)
	}

	t.Logf("terms of service: %q", c.TermsOfService())

	key, err := acmekey.Generate(acmekey.EC256)
	if err != nil {
		t.Fatalf("couldn't generate account key: %v", err)
	}

	if _, _, err := c.LocateAccount(ctx, key); err == nil {
		t.Fatalf("locate account did NOT fail for an unregistered key")
	} else {
		t.Logf("locate account failed as expected: %v", err)
	}

	acct, boundKey, err := c.RegisterAccount(ctx, key, NewRegistrationBuilder().AgreeToTermsOfService())
	if err != nil {
		t.Fatalf("error while registering account: %v", err)
	}
	if boundKey.Kid() == "" {
		t.Fatalf("registered key was not bound to an account URL")
	}

	if _, _, err := c.LocateAccount(ctx, key); err != nil {
		t.Fatalf("locate account failed for a registered key: %v", err)
	}

	acct, err = c.UpdateAccount(ctx, boundKey, []string{"mailto:foo@example.com"})
	if err != nil {
		t.Fatalf("update account failed: %v", err)
	}
	t.Logf("account: %#v", acct)

	ob := NewOrderBuilder()
	if _, err := ob.AddDNSIdentifier("example.com"); err != nil {
		t.Fatalf("couldn't add identifier: %v", err)
	}

	order, err := c.SubmitOrder(ctx, boundKey, ob)
	if err != nil {
		t.Fatalf("error creating order: %v", err)
	}
	t.Logf("order: %#v", order)

	var authorizations []*Authorization
	for _, authURL := range order.AuthorizationURLs {
		az, err := c.FetchAuthorization(ctx, boundKey, authURL)
		if err != nil {
			t.Fatalf("cannot fetch authorization: %v", err)
		}
		authorizations = append(authorizations, az)
	}
	if len(authorizations) == 0 {
		t.Fatalf("order carried no authorizations")
	}

	reloaded, err := c.FetchOrder(ctx, boundKey, order.URL)
	if err != nil {
		t.Fatalf("cannot fetch order: %v", err)
	}
	if reloaded.URL != order.URL {
		t.Fatalf("fetched order changed URL: %q != %q", reloaded.URL, order.URL)
	}

	ch := &authorizations[0].Challenges[0]
	if _, err := c.TriggerChallenge(ctx, boundKey, ch); err != nil {
		t.Fatalf("failed to trigger challenge: %v", err)
	}

	finalAz, err := c.WaitAuthorization(ctx, boundKey, authorizations[0])
	if err != nil {
		t.Fatalf("failed to wait for authorization: %v", err)
	}

	// We don't care whether validation succeeded, only that the client
	// correctly drove it to a final state.
	if !finalAz.Status.IsFinal() {
		t.Fatalf("authorization did not reach a final state")
	}
}
