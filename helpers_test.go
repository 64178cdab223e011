package apiclient_test

import (
	"context"
	"net/http"

	. "github.com/ThalesGroup/apiclient"
)

// receive makes a data call, returning the response, the body, and the error.
func receive(ctx context.Context, c *APIClient, opts ...Option) (*http.Response, string, error) {
	var i Inspector
	body, err := Call(ctx, c.MustWith(append(opts, &i)...), HTTP[string](), String())
	return i.Response, body, err
}
