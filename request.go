package apiclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/ansel1/merry"
)

// Request describes the HTTP request an APIClient will send.  It is a template:
// Options edit it while a client is being configured, and before-call hooks edit
// a per-call copy of it right before dispatch.
//
// A Request is turned into an *http.Request only at the bottom of the middleware
// chain, by HTTPRequest().
type Request struct {
	// Method defaults to "GET".
	Method string
	URL    *url.URL

	// Header supplies the request headers.  If the Content-Type header
	// is explicitly set here, it will override the Content-Type header
	// supplied by the body provider.
	Header http.Header

	// QueryParams are added to the request, in addition to any
	// query params already encoded in the URL
	QueryParams url.Values

	// Host overrides the Host header, if set.
	Host string
}

func cloneURL(u *url.URL) *url.URL {
	if u == nil {
		return nil
	}
	urlCopy := *u
	if u.User != nil {
		user := *u.User
		urlCopy.User = &user
	}
	return &urlCopy
}

func cloneValues(v url.Values) url.Values {
	if v == nil {
		return nil
	}
	v2 := make(url.Values, len(v))
	for key, value := range v {
		v2[key] = append([]string(nil), value...)
	}
	return v2
}

// Clone returns a deep copy of the Request.
func (r *Request) Clone() *Request {
	r2 := *r
	r2.URL = cloneURL(r.URL)
	if r.Header != nil {
		r2.Header = r.Header.Clone()
	}
	r2.QueryParams = cloneValues(r.QueryParams)
	return &r2
}

// Headers returns the Header, initializing it if necessary.  Never returns nil.
func (r *Request) Headers() http.Header {
	if r.Header == nil {
		r.Header = http.Header{}
	}
	return r.Header
}

// Params returns the QueryParams, initializing them if necessary.  Never returns nil.
func (r *Request) Params() url.Values {
	if r.QueryParams == nil {
		r.QueryParams = url.Values{}
	}
	return r.QueryParams
}

// EffectiveMethod returns the method, defaulting to GET.
func (r *Request) EffectiveMethod() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}

// FullURL returns the URL with QueryParams merged into the query string.
func (r *Request) FullURL() *url.URL {
	u := cloneURL(r.URL)
	if u == nil {
		u = &url.URL{}
	}
	if len(r.QueryParams) == 0 {
		return u
	}
	if u.RawQuery == "" {
		u.RawQuery = r.QueryParams.Encode()
		return u
	}
	existing := u.Query()
	for key, values := range r.QueryParams {
		for _, v := range values {
			existing.Add(key, v)
		}
	}
	u.RawQuery = existing.Encode()
	return u
}

// HTTPRequest builds the *http.Request for this descriptor, attaching body if
// it isn't nil.  File bodies are opened here, and GetBody is set so the request
// can be replayed by transport-level retries.
func (r *Request) HTTPRequest(ctx context.Context, body *RequestBody) (*http.Request, error) {
	var reader io.Reader
	var length int64
	switch {
	case body == nil:
	case body.IsFile():
		rc, n, err := body.Open()
		if err != nil {
			return nil, err
		}
		reader, length = rc, n
	default:
		// a *bytes.Reader lets net/http set ContentLength and GetBody
		reader = bytes.NewReader(body.Data())
	}

	req, err := http.NewRequestWithContext(ctx, r.EffectiveMethod(), r.FullURL().String(), reader)
	if err != nil {
		if c, ok := reader.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, merry.Prepend(err, "building http request")
	}

	if body != nil && body.IsFile() {
		req.ContentLength = length
		req.GetBody = func() (io.ReadCloser, error) {
			rc, _, err := body.Open()
			return rc, err
		}
	}

	if r.Host != "" {
		req.Host = r.Host
	}

	for k, v := range r.Header {
		req.Header[k] = append([]string(nil), v...)
	}

	return req, nil
}
