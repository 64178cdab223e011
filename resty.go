package apiclient

import (
	"context"
	"net/http"

	"github.com/ansel1/merry"
	"github.com/go-resty/resty/v2"
)

// RestyClient returns an HTTPClient which sends requests with a resty client.
// Requests are sent as built by the call pipeline; resty's own request
// middleware still applies.  If rc is nil, resty.New() is used.
func RestyClient(rc *resty.Client) HTTPClient {
	if rc == nil {
		rc = resty.New()
	}
	return HTTPClientFunc(func(ctx context.Context, req *http.Request, _ Configs) ([]byte, *http.Response, error) {
		r := rc.R().SetContext(ctx)
		r.Header = req.Header.Clone()
		if req.Host != "" {
			r.Header.Set("Host", req.Host)
		}
		if req.Body != nil && req.Body != http.NoBody {
			defer req.Body.Close()
			r.SetBody(req.Body)
		}

		resp, err := r.Execute(req.Method, req.URL.String())
		if err != nil {
			if resp != nil && resp.RawResponse != nil {
				return resp.Body(), resp.RawResponse, merry.Prepend(err, "resty")
			}
			return nil, nil, merry.Prepend(err, "resty")
		}
		if resp.RawResponse == nil {
			return nil, nil, merry.Wrap(ErrNoResponse)
		}
		return resp.Body(), resp.RawResponse, nil
	})
}
