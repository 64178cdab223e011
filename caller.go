package apiclient

import (
	"context"
	"net/http"
	"time"

	"github.com/ansel1/merry"
	"github.com/google/uuid"
)

// SerializeFunc is handed to a Caller by the dispatcher.  The caller passes it the
// raw response, the configs to decode it with, and a validate func which checks
// that response; SerializeFunc runs the validation, then converts the response
// into a Value.
type SerializeFunc[Response, Value any] func(response Response, configs Configs, validate func() error) (Value, error)

// Caller turns a call into a concrete network operation, and shapes its result.
//
// Response is the raw transport payload, Value is the domain value the serializer
// produces, and Result is what the call returns, often Value itself.
type Caller[Response, Value, Result any] interface {
	// Call performs the operation and feeds the raw response through serialize.
	Call(ctx context.Context, id uuid.UUID, req *Request, body *RequestBody, configs Configs, serialize SerializeFunc[Response, Value]) (Result, error)

	// MockResult converts a mocked Value into a Result without any network activity.
	MockResult(value Value) (Result, error)
}

// CallFunc is the signature of Caller.Call.
type CallFunc[Response, Value, Result any] func(ctx context.Context, id uuid.UUID, req *Request, body *RequestBody, configs Configs, serialize SerializeFunc[Response, Value]) (Result, error)

// MockFunc is the signature of Caller.MockResult.
type MockFunc[Value, Result any] func(value Value) (Result, error)

type funcCaller[Response, Value, Result any] struct {
	call CallFunc[Response, Value, Result]
	mock MockFunc[Value, Result]
}

// NewCaller builds a Caller from its two functions.
func NewCaller[Response, Value, Result any](call CallFunc[Response, Value, Result], mock MockFunc[Value, Result]) Caller[Response, Value, Result] {
	return funcCaller[Response, Value, Result]{call: call, mock: mock}
}

func (c funcCaller[Response, Value, Result]) Call(ctx context.Context, id uuid.UUID, req *Request, body *RequestBody, configs Configs, serialize SerializeFunc[Response, Value]) (Result, error) {
	return c.call(ctx, id, req, body, configs, serialize)
}

func (c funcCaller[Response, Value, Result]) MockResult(value Value) (Result, error) {
	return c.mock(value)
}

type mappedCaller[Response, Value, A, B any] struct {
	base Caller[Response, Value, A]
	f    func(A) (B, error)
}

// Map returns a Caller whose results are those of c passed through f.  f is
// applied once per call, to real and mocked results alike, and its errors are
// returned unchanged.
func Map[Response, Value, A, B any](c Caller[Response, Value, A], f func(A) (B, error)) Caller[Response, Value, B] {
	return mappedCaller[Response, Value, A, B]{base: c, f: f}
}

func (m mappedCaller[Response, Value, A, B]) Call(ctx context.Context, id uuid.UUID, req *Request, body *RequestBody, configs Configs, serialize SerializeFunc[Response, Value]) (B, error) {
	a, err := m.base.Call(ctx, id, req, body, configs, serialize)
	if err != nil {
		var zero B
		return zero, err
	}
	return m.f(a)
}

func (m mappedCaller[Response, Value, A, B]) MockResult(value Value) (B, error) {
	a, err := m.base.MockResult(value)
	if err != nil {
		var zero B
		return zero, err
	}
	return m.f(a)
}

// MockCaller returns a Caller which never touches the network: Call serializes
// response with a validation step that always passes, and MockResult returns the
// mocked value as-is.  It's meant for tests and fixtures.
func MockCaller[Response, Value any](response Response) Caller[Response, Value, Value] {
	return NewCaller(
		func(_ context.Context, _ uuid.UUID, _ *Request, _ *RequestBody, configs Configs, serialize SerializeFunc[Response, Value]) (Value, error) {
			return serialize(response, configs, func() error { return nil })
		},
		identityResult[Value],
	)
}

func identityResult[Value any](v Value) (Value, error) {
	return v, nil
}

// TransportFunc sends an *http.Request and returns the raw payload.
type TransportFunc[Response any] func(ctx context.Context, req *http.Request, configs Configs) (Response, *http.Response, error)

// ValidateFunc checks a raw payload and its response.
type ValidateFunc[Response any] func(response Response, resp *http.Response, configs Configs) error

// DataFunc extracts the body bytes of a raw payload for logging, or nil.
type DataFunc[Response any] func(response Response) []byte

// HTTPCaller builds a Caller which sends the call through the configured
// middleware chain, and then through transport.  The response is validated with
// validate, and logged with data when LogResponse is selected.  Serializers see
// the response's Content-Type through Configs.ResponseContentType().
func HTTPCaller[Response, Value any](transport TransportFunc[Response], validate ValidateFunc[Response], data DataFunc[Response]) Caller[Response, Value, Value] {
	return NewCaller(
		func(ctx context.Context, id uuid.UUID, req *Request, body *RequestBody, configs Configs, serialize SerializeFunc[Response, Value]) (Value, error) {
			var zero Value
			start := time.Now()

			payload, resp, err := configs.Middleware().Execute(ctx, req, body, configs,
				func(ctx context.Context, req *Request, body *RequestBody, configs Configs) (any, *http.Response, error) {
					httpReq, err := req.HTTPRequest(ctx, body)
					if err != nil {
						return nil, nil, err
					}
					return transport(ctx, httpReq, configs)
				})
			if err != nil {
				return zero, err
			}

			response, ok := payload.(Response)
			if !ok {
				return zero, merry.Appendf(ErrUnexpectedPayload, "expected %T, got %T", response, payload)
			}

			if components := configs.LoggingComponents(); components.Has(LogResponse) {
				logAt(configs.Logger(), configs.LogLevel(), "api response",
					components.responseFields(resp, data(response), time.Since(start), id))
			}

			if resp != nil {
				configs = Set(configs, responseContentTypeKey, resp.Header.Get(HeaderContentType))
			}
			return serialize(response, configs, func() error {
				return validate(response, resp, configs)
			})
		},
		identityResult[Value],
	)
}

// HTTP returns the Caller for data calls: the body is fetched with the configured
// HTTPClient and checked with the configured ResponseValidator.
func HTTP[Value any]() Caller[[]byte, Value, Value] {
	return HTTPCaller[[]byte, Value](
		func(ctx context.Context, req *http.Request, configs Configs) ([]byte, *http.Response, error) {
			return configs.HTTPClient().Data(ctx, req, configs)
		},
		func(data []byte, resp *http.Response, configs Configs) error {
			return configs.ResponseValidator()(resp, data, configs)
		},
		func(data []byte) []byte { return data },
	)
}

// HTTPDownload returns the Caller for downloads.  Its response is the path of
// the downloaded file.  There is no validation, and nothing is decoded: the file
// location itself is the result.
func HTTPDownload() Caller[string, string, string] {
	return HTTPCaller[string, string](
		func(ctx context.Context, req *http.Request, configs Configs) (string, *http.Response, error) {
			return configs.HTTPDownloadClient().Download(ctx, req, configs)
		},
		func(string, *http.Response, Configs) error { return nil },
		func(string) []byte { return nil },
	)
}
