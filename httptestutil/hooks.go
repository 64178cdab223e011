package httptestutil

import (
	"bytes"
	"io"
	"net/http"

	"github.com/felixge/httpsnoop"
)

// hooks returns httpsnoop hooks which record the status, headers and body the
// handler writes into ex.
func hooks(w http.ResponseWriter, ex *Exchange) httpsnoop.Hooks {
	if ex.ResponseBody == nil {
		ex.ResponseBody = &bytes.Buffer{}
	}
	recordHeader := func(code int) {
		if ex.StatusCode != 0 {
			return
		}
		ex.StatusCode = code
		ex.Header = w.Header().Clone()
	}
	return httpsnoop.Hooks{
		Write: func(next httpsnoop.WriteFunc) httpsnoop.WriteFunc {
			return func(b []byte) (int, error) {
				recordHeader(http.StatusOK)
				ex.ResponseBody.Write(b)
				return next(b)
			}
		},
		WriteHeader: func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
			return func(code int) {
				recordHeader(code)
				next(code)
			}
		},
		ReadFrom: func(next httpsnoop.ReadFromFunc) httpsnoop.ReadFromFunc {
			return func(src io.Reader) (int64, error) {
				recordHeader(http.StatusOK)
				start := ex.ResponseBody.Len()
				if _, err := ex.ResponseBody.ReadFrom(src); err != nil {
					return 0, err
				}
				return next(bytes.NewReader(ex.ResponseBody.Bytes()[start:]))
			}
		},
	}
}

// captureRequestBody reads the request body into a buffer and replaces it with
// a reader over the captured bytes.  Returns nil if there's no body.
func captureRequestBody(r *http.Request) *bytes.Buffer {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	buf := &bytes.Buffer{}
	if _, err := buf.ReadFrom(r.Body); err != nil {
		panic(err)
	}
	if err := r.Body.Close(); err != nil {
		panic(err)
	}
	r.Body = io.NopCloser(bytes.NewReader(buf.Bytes()))
	return buf
}

// serve calls handler, or http.NotFound if it's nil, like http.Server does.
func serve(handler http.Handler, w http.ResponseWriter, r *http.Request) {
	if handler == nil {
		handler = http.DefaultServeMux
	}
	handler.ServeHTTP(w, r)
}
