package acmeclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"mime"
	"net/http"
	"time"

	denet "github.com/hlandau/goutils/net"
)

const maxResponseBody = 1 * 1024 * 1024

// signer is the variant spec.md §9 design note 4 asks for: a signing key
// that is either a raw JWK (*acmekey.Key with no Kid) or a kid-bound
// account key (*acmekey.Key with a Kid), or an HMAC key for external
// account binding. *acmekey.Key already satisfies this by branching on its
// own Kid field; hmacSigner (builders.go) implements it for EAB.
type signer interface {
	Sign(payload []byte, extraHeaders map[string]interface{}) (string, error)
}

// apiResponse is the pipeline's successful result: the decoded body plus
// response metadata, mirroring spec.md §4.3 step 8's "otherwise: return
// {body, headers}".
type apiResponse struct {
	StatusCode  int
	Header      http.Header
	Body        []byte
	ContentType string
}

// send performs one signed ACME request: it acquires a nonce, signs an
// envelope (url, payload) with s, POSTs it, refreshes the nonce from the
// response, and classifies the result. payload == nil means POST-as-GET
// (the empty-string payload sentinel); a non-nil payload is JSON-encoded.
// If out is non-nil and the response decodes as JSON, it is unmarshaled
// into out.
func (c *Client) send(ctx context.Context, url string, payload interface{}, s signer, out interface{}) (*apiResponse, error) {
	return c.sendAccept(ctx, url, payload, s, "", out)
}

// sendAccept is send with an explicit Accept header override, used by
// certificate fetches that must ask for application/pem-certificate-chain.
func (c *Client) sendAccept(ctx context.Context, url string, payload interface{}, s signer, accept string, out interface{}) (*apiResponse, error) {
	return c.sendRetry(ctx, url, payload, s, accept, out, false)
}

func (c *Client) sendRetry(ctx context.Context, url string, payload interface{}, s signer, accept string, out interface{}, retried bool) (*apiResponse, error) {
	nonce, err := c.currentNonce(ctx)
	if err != nil {
		return nil, err
	}

	var payloadBytes []byte
	if payload != nil {
		payloadBytes, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("acmeclient: marshal request payload: %w", err)
		}
	}

	jws, err := s.Sign(payloadBytes, map[string]interface{}{
		"nonce": nonce,
		"url":   url,
	})
	if err != nil {
		return nil, fmt.Errorf("acmeclient: sign request: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/jose+json")
	header.Set("User-Agent", c.agentString())
	if accept != "" {
		header.Set("Accept", accept)
	}

	resp, err := c.transport.Post(ctx, url, header, []byte(jws))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if n := resp.Header.Get("Replay-Nonce"); n != "" {
		c.nonce.store(n)
	}

	body, ct, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	if cerr := classify(resp, body, ct); cerr != nil {
		if !retried && IsBadNonce(cerr) {
			log.Debugf("retrying after bad nonce: %v", cerr)
			return c.sendRetry(ctx, url, payload, s, accept, out, true)
		}
		return &apiResponse{StatusCode: resp.StatusCode, Header: resp.Header, Body: body, ContentType: ct}, cerr
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return nil, &DecodeError{Err: err}
		}
	}

	return &apiResponse{StatusCode: resp.StatusCode, Header: resp.Header, Body: body, ContentType: ct}, nil
}

// classify implements spec.md §4.3 step 8's response classification.
func classify(resp *http.Response, body []byte, contentType string) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var problem *Problem
	if contentType == "application/problem+json" {
		var p Problem
		if json.Unmarshal(body, &p) == nil {
			problem = &p
		}
	}

	if problem != nil && problem.Type == badNonceType {
		return &ProtocolError{Problem: problem, Raw: json.RawMessage(body)}
	}

	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := parseRetryAfter(ra, time.Now()); err == nil {
			return &RetryAfterError{Seconds: secs}
		}
	}

	if len(body) > 0 {
		return &ProtocolError{Problem: problem, Raw: json.RawMessage(body)}
	}

	return &HTTPError{StatusCode: resp.StatusCode}
}

// readBody reads and classifies a response body by Content-Type, per
// spec.md §4.3 step 7: application/json and application/problem+json are
// read as-is for the caller to unmarshal; application/pem-certificate-chain
// and anything else are read as raw bytes. The read is bounded so a
// misbehaving server can't exhaust memory.
func readBody(resp *http.Response) ([]byte, string, error) {
	ct := resp.Header.Get("Content-Type")
	mimeType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		mimeType = ct
	}

	body, err := ioutil.ReadAll(denet.LimitReader(resp.Body, maxResponseBody))
	if err != nil && err != io.EOF {
		return nil, "", fmt.Errorf("acmeclient: read response body: %w", err)
	}

	return body, mimeType, nil
}
