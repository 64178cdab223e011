package apiclient

import (
	"context"
)

// DefaultClient is the base client used by the package-level Receive and Send
// functions.
var DefaultClient = &APIClient{}

// Receive decodes the response of a data call described by opts into a V, using
// the DefaultClient as the base.
//
//     user, err := apiclient.Receive[User](ctx, apiclient.Get("https://api.example.com/users/1"), apiclient.ExpectSuccessCode())
func Receive[V any](ctx context.Context, opts ...Option) (V, error) {
	c, err := DefaultClient.With(opts...)
	if err != nil {
		var zero V
		return zero, err
	}
	return dispatch(ctx, c, HTTP[V](), Decodable[V](), callerLocation(1))
}

// Send makes a data call described by opts, using the DefaultClient as the
// base, and discards the response body.
func Send(ctx context.Context, opts ...Option) error {
	c, err := DefaultClient.With(opts...)
	if err != nil {
		return err
	}
	_, err = dispatch(ctx, c, HTTP[struct{}](), Void(), callerLocation(1))
	return err
}
