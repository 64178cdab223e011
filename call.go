package apiclient

import (
	"context"

	"github.com/google/uuid"
)

// BeforeCallFunc edits the per-call copy of the request right before dispatch.
// Returning an error aborts the call.
type BeforeCallFunc func(req *Request, configs Configs) error

func noBeforeCall(*Request, Configs) error {
	return nil
}

var beforeCallKey = NewKey("beforeCall", func() BeforeCallFunc { return noBeforeCall })

// BeforeCall returns the composed before-call hook.  Never nil.
func (c Configs) BeforeCall() BeforeCallFunc {
	if f := GetConfig(c, beforeCallKey); f != nil {
		return f
	}
	return noBeforeCall
}

// Call sends a call described by client, using caller to perform it and
// serializer to turn the raw response into a Value.  It blocks until the call
// completes or ctx is done.
//
//     user, err := apiclient.Call(ctx, client, apiclient.HTTP[User](), apiclient.Decodable[User]())
//
// If a mock is registered for Value and the serializer, it is returned through
// caller.MockResult and nothing is sent.  Otherwise the response is validated,
// then serialized; a rejected []byte response is first offered to the
// configured ErrorDecoder, and a decoded error replaces the validation error.
//
// A single attempt is made.  Every error is logged once, at error level, with
// the call's correlation id, and returned unchanged.
func Call[Response, Value, Result any](ctx context.Context, client *APIClient, caller Caller[Response, Value, Result], serializer Serializer[Response, Value]) (Result, error) {
	return dispatch(ctx, client, caller, serializer, callerLocation(1))
}

// Future is the pending result of CallAsync.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Done is closed when the call completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the call completes or ctx is done.  Canceling ctx stops the
// wait, not the call: cancel the context passed to CallAsync for that.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// CallAsync is like Call, but runs the call in a new goroutine and returns
// immediately.
func CallAsync[Response, Value, Result any](ctx context.Context, client *APIClient, caller Caller[Response, Value, Result], serializer Serializer[Response, Value]) *Future[Result] {
	loc := callerLocation(1)
	f := &Future[Result]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.value, f.err = dispatch(ctx, client, caller, serializer, loc)
	}()
	return f
}

// Decode makes a data call and decodes the response body into a V.
func Decode[V any](ctx context.Context, client *APIClient) (V, error) {
	return dispatch(ctx, client, HTTP[V](), Decodable[V](), callerLocation(1))
}

// Exec makes a data call and discards the response body.
func Exec(ctx context.Context, client *APIClient) error {
	_, err := dispatch(ctx, client, HTTP[struct{}](), Void(), callerLocation(1))
	return err
}

// Download makes a download call and returns the path of the downloaded file.
func Download(ctx context.Context, client *APIClient) (string, error) {
	return dispatch(ctx, client, HTTPDownload(), Identity[string](), callerLocation(1))
}

// dispatch is the single implementation behind every call function.
func dispatch[Response, Value, Result any](ctx context.Context, client *APIClient, caller Caller[Response, Value, Result], serializer Serializer[Response, Value], site FileIDLine) (result Result, err error) {
	id := uuid.New()
	configs := client.configs
	components := configs.LoggingComponents()

	loc := site
	if pinned := configs.FileIDLine(); pinned != nil {
		loc = *pinned
	}

	defer func() {
		if err != nil && !components.IsEmpty() {
			configs.Logger().Error("api request failed", components.errorFields(id, err, loc)...)
		}
	}()

	req := client.request.Clone()
	if err = configs.BeforeCall()(req, configs); err != nil {
		return result, err
	}

	body, err := buildBody(req, configs)
	if err != nil {
		return result, err
	}

	if !components.IsEmpty() {
		logAt(configs.Logger(), configs.LogLevel(), "api request", components.requestFields(req, body, id, loc))
	}

	if mock, ok := lookupMock[Value](configs, serializer.ID); ok {
		return caller.MockResult(mock)
	}

	return caller.Call(ctx, id, req, body, configs, func(response Response, configs Configs, validate func() error) (Value, error) {
		if verr := validate(); verr != nil {
			if data, ok := any(response).([]byte); ok {
				if decoded := configs.ErrorDecoder()(data, configs); decoded != nil {
					var zero Value
					return zero, decoded
				}
			}
			var zero Value
			return zero, verr
		}
		return serializer.Serialize(response, configs)
	})
}
