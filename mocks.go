package apiclient

import (
	"context"
	"io"
	"net/http"
	"strconv"
)

// mockKey indexes the mock registry in Configs.  Instances for different value
// types are different types, so a mock for User never matches a call for Order.
type mockKey[V any] struct {
	serializer string
}

// MockFor registers value as the result of calls producing a V with the
// serializer named serializerID.  Such calls return value without any network
// activity.
func MockFor[V any](serializerID string, value V) Option {
	return OptionFunc(func(c *APIClient) error {
		c.configs = c.configs.with(mockKey[V]{serializer: serializerID}, value)
		return nil
	})
}

// Mock registers value as the result of calls producing a V, whatever the
// serializer.  A mock registered with MockFor for the exact serializer wins.
func Mock[V any](value V) Option {
	return MockFor("", value)
}

// lookupMock finds the mock for V, first for the exact serializer, then for any.
func lookupMock[V any](c Configs, serializerID string) (V, bool) {
	for _, key := range []mockKey[V]{{serializer: serializerID}, {}} {
		if v, ok := c.lookup(key); ok {
			return v.(V), true
		}
	}
	var zero V
	return zero, false
}

// These are tools for writing tests.

// MockDoer creates a Doer which returns a mocked response, for writing tests.
// By default, the mocked response will contain the status code,
// and typical default values for some standard response fields, like
// the ProtoXXX fields.
//
// Options can be passed in, which are used to construct a template
// http.Request.  The fields of the template request are copied into
// the mocked responses (http.Request and http.Response share most fields,
// so we're leveraging the rich set of Options to build the response).
func MockDoer(statusCode int, options ...Option) DoerFunc {
	return func(req *http.Request) (*http.Response, error) {
		resp := MockResponse(statusCode, options...)
		resp.Request = req
		return resp, nil
	}
}

// ChannelDoer returns a DoerFunc and a channel.  The DoerFunc will return the responses
// send on the channel.
func ChannelDoer() (chan<- *http.Response, DoerFunc) {
	input := make(chan *http.Response, 1)

	return input, func(req *http.Request) (*http.Response, error) {
		resp := <-input
		resp.Request = req
		return resp, nil
	}
}

// mockRequest builds the *http.Request described by the options, body included.
func mockRequest(ctx context.Context, options ...Option) (*http.Request, error) {
	c, err := New(options...)
	if err != nil {
		return nil, err
	}
	req := c.request.Clone()
	body, err := buildBody(req, c.configs)
	if err != nil {
		return nil, err
	}
	return req.HTTPRequest(ctx, body)
}

// MockResponse creates an *http.Response from the Options.  Requests and Responses share most of the
// same fields, so we use the options to build a Request, then copy the values as appropriate
// into a Response.  Useful for created mocked responses for tests.
func MockResponse(statusCode int, options ...Option) *http.Response {
	r, err := mockRequest(context.Background(), options...)
	if err != nil {
		panic(err)
	}

	body := r.Body
	if body == nil {
		body = http.NoBody
	}

	return &http.Response{
		Status:        strconv.Itoa(statusCode) + " " + http.StatusText(statusCode),
		StatusCode:    statusCode,
		Proto:         r.Proto,
		ProtoMajor:    r.ProtoMajor,
		ProtoMinor:    r.ProtoMinor,
		Header:        r.Header,
		Body:          body,
		ContentLength: r.ContentLength,
		Trailer:       r.Trailer,
	}
}

// MockHandler returns an http.Handler which returns responses built from the args.
// The Option arguments are used to build an http.Request, then the header and body
// of the request are copied into an http.Response object.
func MockHandler(statusCode int, options ...Option) http.Handler {
	// fail fast on bad options
	if _, err := New(options...); err != nil {
		panic(err)
	}

	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		req, err := mockRequest(request.Context(), options...)
		if err != nil {
			panic(err)
		}

		h := writer.Header()
		for key, value := range req.Header {
			h[key] = value
		}

		writer.WriteHeader(statusCode)

		if req.Body != nil {
			_, _ = io.Copy(writer, req.Body)
		}
	})
}

// ChannelHandler returns an http.Handler and an input channel.  The Handler returns the http.Responses sent to
// the channel.
func ChannelHandler() (chan<- *http.Response, http.Handler) {
	input := make(chan *http.Response, 1)

	return input, http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		resp := <-input

		h := writer.Header()
		for key, value := range resp.Header {
			h[key] = value
		}

		writer.WriteHeader(resp.StatusCode)

		_, _ = io.Copy(writer, resp.Body)
	})
}
