package acmeclient

import (
	"context"
	"fmt"
	"time"

	denet "github.com/hlandau/goutils/net"
	"github.com/tlscore/acmeclient/acmekey"
)

const defaultPollInterval = 10 * time.Second

// SubmitOrder creates a new order for the identifiers in ob. key must be
// bound to an account.
func (c *Client) SubmitOrder(ctx context.Context, key *acmekey.Key, ob *OrderBuilder) (*Order, error) {
	if key.Kid() == "" {
		return nil, fmt.Errorf("acmeclient: submit order: key is not bound to an account")
	}

	w, err := ob.toWire()
	if err != nil {
		return nil, err
	}

	var order Order
	resp, err := c.send(ctx, c.dir.NewOrder, w, key, &order)
	if err != nil {
		return nil, err
	}

	loc := resp.Header.Get("Location")
	if loc == "" {
		return nil, fmt.Errorf("acmeclient: submit order: response carried no Location header")
	}
	order.URL = loc

	return &order, nil
}

// FetchOrder reloads an order snapshot via POST-as-GET. The URL field of the
// returned Order is always the URL argument, never a value derived from the
// response (orders have no Location header on GET).
func (c *Client) FetchOrder(ctx context.Context, key *acmekey.Key, url string) (*Order, error) {
	var order Order
	if _, err := c.send(ctx, url, nil, key, &order); err != nil {
		return nil, err
	}
	order.URL = url
	return &order, nil
}

// FinalizeOrder submits a CSR to an order in the "ready" state. The order's
// URL is preserved from the original order value regardless of any Location
// header the finalize response carries, per this library's resolution of
// the ambiguity RFC 8555 leaves here.
func (c *Client) FinalizeOrder(ctx context.Context, key *acmekey.Key, order *Order, csr []byte) (*Order, error) {
	if order.Status != OrderReady {
		return nil, fmt.Errorf("acmeclient: finalize order: order status is %q, want %q", order.Status, OrderReady)
	}

	req := struct {
		CSR denet.Base64up `json:"csr"`
	}{CSR: csr}

	var updated Order
	if _, err := c.send(ctx, order.FinalizeURL, req, key, &updated); err != nil {
		return nil, err
	}
	updated.URL = order.URL
	return &updated, nil
}

// WaitOrder polls an order until it leaves the "processing" state, honoring
// any Retry-After the server sends and otherwise falling back to a fixed
// poll interval. ctx governs the whole wait, including the sleeps between
// polls.
func (c *Client) WaitOrder(ctx context.Context, key *acmekey.Key, order *Order) (*Order, error) {
	cur := order
	for {
		if cur.Status != "" && cur.Status != OrderProcessing {
			return cur, nil
		}

		delay, updated, err := c.pollOrder(ctx, key, cur.URL)
		if err != nil {
			return nil, err
		}
		cur = updated

		if cur.Status != "" && cur.Status != OrderProcessing {
			return cur, nil
		}

		if err := sleepContext(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (c *Client) pollOrder(ctx context.Context, key *acmekey.Key, url string) (time.Duration, *Order, error) {
	var order Order
	resp, err := c.send(ctx, url, nil, key, &order)
	if err != nil {
		return 0, nil, err
	}
	order.URL = url
	return pollDelay(resp.Header.Get("Retry-After")), &order, nil
}

func pollDelay(retryAfter string) time.Duration {
	if retryAfter == "" {
		return defaultPollInterval
	}
	secs, err := parseRetryAfter(retryAfter, time.Now())
	if err != nil {
		return defaultPollInterval
	}
	return time.Duration(secs) * time.Second
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
