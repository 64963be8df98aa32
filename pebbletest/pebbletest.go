// Package pebbletest provides facilities for using Pebble during testing.
package pebbletest

import (
	"crypto/tls"
	"net/http"
)

// HTTP client which can be used to talk to Pebble. Disables certificate
// checks, etc. as necessary. It is set up by the package's init function,
// so it is ready to use as soon as the package is imported.
var HTTPClient *http.Client

func init() {
	httpTransport := *http.DefaultTransport.(*http.Transport)
	httpTransport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: true,
	}
	HTTPClient = &http.Client{
		Transport: &httpTransport,
	}
}
