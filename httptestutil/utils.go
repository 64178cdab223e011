// Package httptestutil contains utilities for HTTP tests, particularly ones
// using httptest.Server.
//
// Inspect() intercepts and captures the traffic to and from a test server, and
// Client() returns an APIClient pre-configured to call it.
package httptestutil

import (
	"net/http/httptest"

	"github.com/ThalesGroup/apiclient"
)

// Client returns an APIClient pre-configured to send requests to the test
// server: its base URL is the server's URL, and requests are sent with the
// server's own http.Client, so TLS servers are trusted.
func Client(ts *httptest.Server, opts ...apiclient.Option) *apiclient.APIClient {
	return apiclient.MustNew(append([]apiclient.Option{
		apiclient.URL(ts.URL),
		apiclient.WithDoer(ts.Client()),
	}, opts...)...)
}

// Inspect installs and returns an Inspector capturing exchanges with the test
// server.
//
// Inspect wraps and replaces the server's Handler, so it should be called after
// the real Handler has been installed.
func Inspect(ts *httptest.Server) *Inspector {
	i := NewInspector(0)
	ts.Config.Handler = i.Wrap(ts.Config.Handler)
	return i
}
