package acmeclient

import (
	"bytes"
	"context"
	"net/http"

	"golang.org/x/net/context/ctxhttp"
)

// Transport is the HTTP collaborator the client consumes. Connection
// pooling, TLS, and transport-level retries are the implementation's
// responsibility, not this library's (spec.md §1).
type Transport interface {
	Get(ctx context.Context, url string) (*http.Response, error)
	Head(ctx context.Context, url string) (*http.Response, error)
	Post(ctx context.Context, url string, header http.Header, body []byte) (*http.Response, error)
}

// httpTransport is the default Transport, built on net/http and dispatched
// with ctxhttp so cancellation and timeouts come from ctx.
type httpTransport struct {
	client *http.Client
}

// NewHTTPTransport adapts an *http.Client into a Transport. If client is
// nil, http.DefaultClient is used.
func NewHTTPTransport(client *http.Client) Transport {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpTransport{client: client}
}

func (t *httpTransport) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return ctxhttp.Do(ctx, t.client, req)
}

func (t *httpTransport) Head(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodHead, url, nil)
	if err != nil {
		return nil, err
	}
	return ctxhttp.Do(ctx, t.client, req)
}

func (t *httpTransport) Post(ctx context.Context, url string, header http.Header, body []byte) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return ctxhttp.Do(ctx, t.client, req)
}
