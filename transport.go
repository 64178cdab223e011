package apiclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/ansel1/merry"
)

// HTTPClient is the transport used by data calls.  It sends req and returns the
// whole response body along with the response.  Like http.Client, it may return
// a response together with an error.
type HTTPClient interface {
	Data(ctx context.Context, req *http.Request, configs Configs) ([]byte, *http.Response, error)
}

// HTTPClientFunc adapts a function to the HTTPClient interface.
type HTTPClientFunc func(ctx context.Context, req *http.Request, configs Configs) ([]byte, *http.Response, error)

// Data implements HTTPClient.
func (f HTTPClientFunc) Data(ctx context.Context, req *http.Request, configs Configs) ([]byte, *http.Response, error) {
	return f(ctx, req, configs)
}

// HTTPDownloadClient is the transport used by download calls.  It sends req,
// stores the response body somewhere, and returns the location of the stored
// content.
type HTTPDownloadClient interface {
	Download(ctx context.Context, req *http.Request, configs Configs) (string, *http.Response, error)
}

// HTTPDownloadClientFunc adapts a function to the HTTPDownloadClient interface.
type HTTPDownloadClientFunc func(ctx context.Context, req *http.Request, configs Configs) (string, *http.Response, error)

// Download implements HTTPDownloadClient.
func (f HTTPDownloadClientFunc) Download(ctx context.Context, req *http.Request, configs Configs) (string, *http.Response, error) {
	return f(ctx, req, configs)
}

var (
	httpClientKey         = NewKey("httpClient", func() HTTPClient { return NewHTTPClient(nil) })
	httpDownloadClientKey = NewKey("httpDownloadClient", func() HTTPDownloadClient { return NewDownloadClient(nil, "") })
)

// HTTPClient returns the transport for data calls.
func (c Configs) HTTPClient() HTTPClient {
	if t := GetConfig(c, httpClientKey); t != nil {
		return t
	}
	return httpClientKey.Default()
}

// HTTPDownloadClient returns the transport for download calls.
func (c Configs) HTTPDownloadClient() HTTPDownloadClient {
	if t := GetConfig(c, httpDownloadClientKey); t != nil {
		return t
	}
	return httpDownloadClientKey.Default()
}

func doerOrDefault(d Doer) Doer {
	if d == nil {
		return http.DefaultClient
	}
	return d
}

// NewHTTPClient returns an HTTPClient which sends requests with d, wrapped in m.
// If d is nil, http.DefaultClient is used.
func NewHTTPClient(d Doer, m ...DoerMiddleware) HTTPClient {
	doer := Wrap(doerOrDefault(d), m...)
	return HTTPClientFunc(func(_ context.Context, req *http.Request, _ Configs) ([]byte, *http.Response, error) {
		resp, err := doer.Do(req)

		// Due to middleware, there are cases where both a response *and* and error
		// are returned.  We need to make sure we handle the body, if present, even when
		// an error was returned.
		body, bodyReadError := readBody(resp)

		if err != nil {
			return body, resp, err
		}
		if resp == nil {
			return nil, nil, merry.Wrap(ErrNoResponse)
		}
		return body, resp, bodyReadError
	})
}

// NewDownloadClient returns an HTTPDownloadClient which sends requests with d,
// wrapped in m, and streams response bodies into new temp files in dir.  If dir
// is "", os.TempDir() is used.  The caller owns the returned file.
func NewDownloadClient(d Doer, dir string, m ...DoerMiddleware) HTTPDownloadClient {
	doer := Wrap(doerOrDefault(d), m...)
	return HTTPDownloadClientFunc(func(_ context.Context, req *http.Request, _ Configs) (string, *http.Response, error) {
		resp, err := doer.Do(req)
		if err != nil {
			drain(respBody(resp))
			return "", resp, err
		}
		if resp == nil {
			return "", nil, merry.Wrap(ErrNoResponse)
		}
		defer resp.Body.Close()

		f, err := os.CreateTemp(dir, "apiclient-download-*")
		if err != nil {
			return "", resp, merry.Prepend(err, "creating download file")
		}
		if _, err := io.Copy(f, resp.Body); err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
			return "", resp, merry.Prepend(err, "writing download file")
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(f.Name())
			return "", resp, merry.Prepend(err, "closing download file")
		}
		return f.Name(), resp, nil
	})
}

func respBody(resp *http.Response) io.ReadCloser {
	if resp == nil {
		return nil
	}
	return resp.Body
}

func readBody(resp *http.Response) ([]byte, error) {

	if resp == nil || resp.Body == nil {
		return nil, nil
	}

	defer resp.Body.Close()

	// check if we have a content length hint.  Pre-sizing
	// the buffer saves time
	cls := resp.Header.Get("Content-Length")
	var cl int64

	if cls != "" {
		cl, _ = strconv.ParseInt(cls, 10, 0)
	}

	if cl <= 0 {
		body, err := io.ReadAll(resp.Body)
		return body, merry.Prepend(err, "reading response body")
	}

	buf := bytes.Buffer{}
	buf.Grow(int(cl))
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, merry.Prepend(err, "reading response body")
	}
	return buf.Bytes(), nil
}
