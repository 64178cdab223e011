package apiclient

import (
	"context"
	"net/http"

	"github.com/ansel1/merry"
	"golang.org/x/time/rate"
)

// Handler is the continuation passed to Middleware: it performs the rest of the
// call, down to the transport, and returns the transport's payload along with
// the HTTP response.
//
// The payload is a []byte for data calls and a string (the path of the
// downloaded file) for download calls.
type Handler func(ctx context.Context, req *Request, body *RequestBody, configs Configs) (any, *http.Response, error)

// Middleware intercepts calls:
//
//     logging := apiclient.MiddlewareFunc(func(ctx context.Context, req *apiclient.Request, body *apiclient.RequestBody,
//         configs apiclient.Configs, next apiclient.Handler) (any, *http.Response, error) {
//         log.Println(req.EffectiveMethod(), req.FullURL())
//         return next(ctx, req, body, configs)
//     })
//
// Middleware is installed with the Use() option.  It may change the request, body,
// or configs it passes along, and may change what it returns.
//
// Execute must call next at most once.  Not calling it short-circuits the call.
// Calling it more than once is not supported: bodies and callers assume a
// single attempt.  Retries belong at the transport level, see Retry().
//
// Errors returned by next, including context cancellation, must be passed up
// rather than swallowed.
type Middleware interface {
	Execute(ctx context.Context, req *Request, body *RequestBody, configs Configs, next Handler) (any, *http.Response, error)
}

// MiddlewareFunc adapts a function to the Middleware interface.
type MiddlewareFunc func(ctx context.Context, req *Request, body *RequestBody, configs Configs, next Handler) (any, *http.Response, error)

// Execute implements Middleware.
func (f MiddlewareFunc) Execute(ctx context.Context, req *Request, body *RequestBody, configs Configs, next Handler) (any, *http.Response, error) {
	return f(ctx, req, body, configs, next)
}

// Apply implements Option, appending the middleware to the client's chain.
func (f MiddlewareFunc) Apply(c *APIClient) error {
	return Use(f).Apply(c)
}

// Chain is an ordered list of Middleware, and is itself a Middleware.  The first
// element is the outermost: it sees the request first and the response last.
type Chain []Middleware

var middlewareKey = NewKey[Chain]("middleware", nil)

// Middleware returns the client's middleware chain.  Never nil.
func (c Configs) Middleware() Middleware {
	return GetConfig(c, middlewareKey)
}

// Then composes the chain around next, returning a single Handler.
func (ch Chain) Then(next Handler) Handler {
	h := next
	for i := len(ch) - 1; i >= 0; i-- {
		m, inner := ch[i], h
		h = func(ctx context.Context, req *Request, body *RequestBody, configs Configs) (any, *http.Response, error) {
			return m.Execute(ctx, req, body, configs, inner)
		}
	}
	return h
}

// Execute implements Middleware.
func (ch Chain) Execute(ctx context.Context, req *Request, body *RequestBody, configs Configs, next Handler) (any, *http.Response, error) {
	return ch.Then(next)(ctx, req, body, configs)
}

// RequestValidator checks a request before it is sent.
type RequestValidator func(req *Request, configs Configs) error

// AlwaysValid is a RequestValidator which accepts every request.
func AlwaysValid(*Request, Configs) error {
	return nil
}

func requestValidatorMiddleware(v RequestValidator) Middleware {
	return MiddlewareFunc(func(ctx context.Context, req *Request, body *RequestBody, configs Configs, next Handler) (any, *http.Response, error) {
		if err := v(req, configs); err != nil {
			return nil, nil, merry.Prepend(err, "invalid request")
		}
		return next(ctx, req, body, configs)
	})
}

// RateLimitMiddleware waits for a token from limiter before passing the call on.
// The wait is cut short if the context is canceled.
func RateLimitMiddleware(limiter *rate.Limiter) Middleware {
	return MiddlewareFunc(func(ctx context.Context, req *Request, body *RequestBody, configs Configs, next Handler) (any, *http.Response, error) {
		if err := limiter.Wait(ctx); err != nil {
			return nil, nil, merry.Prepend(err, "waiting for rate limiter")
		}
		return next(ctx, req, body, configs)
	})
}
