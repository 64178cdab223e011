package httptestutil

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/http/httputil"
	"os"

	"github.com/felixge/httpsnoop"
)

// DumpTo wraps an http.Handler, dumping requests and responses to writer with
// httputil.DumpRequest and httputil.DumpResponse.
func DumpTo(handler http.Handler, writer io.Writer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dump, err := httputil.DumpRequest(r, true)
		if err != nil {
			_, _ = fmt.Fprintf(writer, "error dumping request: %#v", err)
		} else {
			_, _ = writer.Write(append(dump, "\r\n"...))
		}

		ex := Exchange{}
		serve(handler, httpsnoop.Wrap(w, hooks(w, &ex)), r)

		resp := http.Response{
			Proto:         r.Proto,
			ProtoMajor:    r.ProtoMajor,
			ProtoMinor:    r.ProtoMinor,
			StatusCode:    ex.StatusCode,
			Header:        ex.Header,
			Body:          io.NopCloser(bytes.NewReader(ex.ResponseBody.Bytes())),
			ContentLength: int64(ex.ResponseBody.Len()),
		}

		d, err := httputil.DumpResponse(&resp, true)
		if err != nil {
			_, _ = fmt.Fprintf(writer, "error dumping response: %#v", err)
		} else {
			_, _ = writer.Write(append(d, "\r\n"...))
		}
	})
}

// Dump installs DumpTo around the test server's handler.
func Dump(ts *httptest.Server, w io.Writer) {
	ts.Config.Handler = DumpTo(ts.Config.Handler, w)
}

// DumpToStdout dumps the test server's traffic to os.Stdout.
func DumpToStdout(ts *httptest.Server) {
	Dump(ts, os.Stdout)
}

type logFunc func(a ...interface{})

func (f logFunc) Write(p []byte) (n int, err error) {
	f(string(p))
	return len(p), nil
}

// DumpToLog dumps the test server's traffic to a logging function, like t.Log.
// Each request and response is a single call.
func DumpToLog(ts *httptest.Server, logf func(a ...interface{})) {
	Dump(ts, logFunc(logf))
}
