package apiclient

import (
	"context"
	"net/http"
	"sync"
)

// Inspector is an Option which captures the exchanges of a client.  It's
// useful for inspecting calls in tests:
//
//     var i apiclient.Inspector
//     c := base.MustWith(&i)
//     _, _ = apiclient.Decode[User](ctx, c)
//     fmt.Println(i.Request.FullURL(), i.Response.StatusCode)
//
// It holds on to requests and payloads longer than their intended lifespan, so
// it should not be used in production code or benchmarks.
type Inspector struct {
	mu sync.Mutex

	// The last request sent by the client, after before-call hooks ran.
	Request *Request

	// The last request body, or nil.
	RequestBody *RequestBody

	// The last response received by the client.
	Response *http.Response

	// The last payload: the body bytes of data calls, or the file path of downloads.
	Payload any

	// The last error returned by the rest of the chain.
	Err error
}

// Clear clears the inspector's fields.
func (i *Inspector) Clear() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Request = nil
	i.RequestBody = nil
	i.Response = nil
	i.Payload = nil
	i.Err = nil
}

// Apply implements Option.
func (i *Inspector) Apply(c *APIClient) error {
	return Use(i).Apply(c)
}

// Execute implements Middleware.
func (i *Inspector) Execute(ctx context.Context, req *Request, body *RequestBody, configs Configs, next Handler) (any, *http.Response, error) {
	i.mu.Lock()
	i.Request = req.Clone()
	i.RequestBody = body
	i.mu.Unlock()

	payload, resp, err := next(ctx, req, body, configs)

	i.mu.Lock()
	i.Response = resp
	i.Payload = payload
	i.Err = err
	i.mu.Unlock()
	return payload, resp, err
}

// Data returns the last payload as bytes.  It returns nil after downloads.
func (i *Inspector) Data() []byte {
	i.mu.Lock()
	defer i.mu.Unlock()
	b, _ := i.Payload.([]byte)
	return b
}
