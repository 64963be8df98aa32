// Package acmeclient implements the ACME (RFC 8555) client transport core:
// a JOSE-signed request pipeline with nonce management, Retry-After
// handling, and the high-level operations that drive the certificate
// issuance state machine (order -> authorization -> challenge -> finalize
// -> certificate).
package acmeclient

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/hlandau/xlog"
	"github.com/tlscore/acmeclient/acmeurls"
)

var log, Log = xlog.NewQuiet("acmeclient")

// libraryVersion is appended to the User-Agent string sent with every
// request.
const libraryVersion = "acmeclient/1"

// Config configures a Client.
type Config struct {
	// DirectoryURL is either a literal HTTPS directory URL or one of the
	// aliases "lets_encrypt", "lets_encrypt_staging", "zerossl".
	DirectoryURL string

	// UserAgent, if set, is prepended to the library's own User-Agent
	// string.
	UserAgent string

	// Transport is the HTTP collaborator. If nil, a default
	// *http.Client-backed Transport is used.
	Transport Transport
}

// Client is a process-wide handle for one ACME server realm: it owns the
// fetched directory (immutable after bootstrap) and the single cached
// replay nonce. A Client is safe for concurrent use by multiple callers.
type Client struct {
	transport Transport
	userAgent string
	dir       *Directory
	nonce     nonceCell
}

// New bootstraps a Client: it resolves DirectoryURL (expanding any alias),
// fetches the directory document, and validates that it carries the
// endpoints every operation depends on. Failure to fetch or parse the
// directory is fatal: no Client is returned.
func New(ctx context.Context, cfg Config) (*Client, error) {
	resolved := acmeurls.Resolve(cfg.DirectoryURL)
	if !acmeurls.Valid(resolved) {
		return nil, fmt.Errorf("acmeclient: not a valid directory URL: %q", cfg.DirectoryURL)
	}

	transport := cfg.Transport
	if transport == nil {
		transport = NewHTTPTransport(nil)
	}

	c := &Client{
		transport: transport,
		userAgent: cfg.UserAgent,
	}

	dir, err := c.fetchDirectory(ctx, resolved)
	if err != nil {
		return nil, fmt.Errorf("acmeclient: fetch directory: %w", err)
	}
	c.dir = dir

	return c, nil
}

func (c *Client) fetchDirectory(ctx context.Context, url string) (*Directory, error) {
	resp, err := c.transport.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, ct, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if ct != "application/json" {
		return nil, fmt.Errorf("acmeclient: directory response had content type %q, want application/json", ct)
	}

	var dir Directory
	if err := json.Unmarshal(body, &dir); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if !dir.valid() {
		return nil, fmt.Errorf("acmeclient: directory does not provide required endpoints")
	}

	return &dir, nil
}

// Directory returns the realm's directory document, fetched once at
// bootstrap and immutable thereafter (spec.md §4.1's directory() accessor).
func (c *Client) Directory() *Directory { return c.dir }

// TermsOfService returns the realm's terms-of-service URL, or "" if the
// realm has none.
func (c *Client) TermsOfService() string { return c.dir.Meta.TermsOfService }

// Profiles returns the realm's advertised certificate profiles, keyed by
// opaque profile name. The client does not validate profile names.
func (c *Client) Profiles() map[string]string { return c.dir.Meta.Profiles }

// ExternalAccountRequired reports whether the realm requires external
// account binding on registration.
func (c *Client) ExternalAccountRequired() bool { return c.dir.Meta.ExternalAccountRequired }

// currentNonce returns one previously-unused nonce, removing it from the
// cache (consume-on-read). If none is cached, it synchronously HEADs the
// directory's newNonce URL.
func (c *Client) currentNonce(ctx context.Context) (string, error) {
	if v, ok := c.nonce.take(); ok {
		return v, nil
	}

	resp, err := c.transport.Head(ctx, c.dir.NewNonce)
	if err != nil {
		log.Debugf("failed to obtain nonce: %v", err)
		return "", ErrNonceUnavailable
	}
	defer resp.Body.Close()

	n := resp.Header.Get("Replay-Nonce")
	if n == "" {
		return "", ErrNonceUnavailable
	}
	return n, nil
}

func (c *Client) agentString() string {
	ua := libraryVersion
	if c.userAgent != "" {
		ua = c.userAgent + " " + ua
	}
	return fmt.Sprintf("%s %s/%s", ua, runtime.GOOS, runtime.GOARCH)
}
