package httpclient

import (
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/ansel1/merry"
)

// NoRedirects configures the client to not follow redirects.  The redirect
// response itself is returned.
func NoRedirects() Option {
	return OptionFunc(func(client *http.Client) error {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
		return nil
	})
}

// MaxRedirects configures the max number of redirects the client follows before
// giving up.
func MaxRedirects(maxRedirects int) Option {
	return OptionFunc(func(client *http.Client) error {
		client.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return merry.Errorf("stopped after max %d requests", len(via))
			}
			return nil
		}
		return nil
	})
}

// CookieJar installs a cookie jar into the client.  opts may be nil.
func CookieJar(opts *cookiejar.Options) Option {
	return OptionFunc(func(client *http.Client) error {
		jar, err := cookiejar.New(opts)
		if err != nil {
			return merry.Prepend(err, "creating cookie jar")
		}
		client.Jar = jar
		return nil
	})
}

// ProxyURL routes all calls through a single proxy.
func ProxyURL(proxyURL string) Option {
	return TransportOption(func(t *http.Transport) error {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return merry.Prepend(err, "invalid proxy url")
		}
		t.Proxy = http.ProxyURL(u)
		return nil
	})
}

// ProxyFunc configures the transport's proxy function.
func ProxyFunc(f func(request *http.Request) (*url.URL, error)) Option {
	return TransportOption(func(t *http.Transport) error {
		t.Proxy = f
		return nil
	})
}

// Timeout sets the client's overall request timeout.  Zero means no timeout.
func Timeout(d time.Duration) Option {
	return OptionFunc(func(client *http.Client) error {
		client.Timeout = d
		return nil
	})
}

// MaxIdleConnsPerHost sets how many idle connections are kept per host.
func MaxIdleConnsPerHost(n int) Option {
	return TransportOption(func(t *http.Transport) error {
		t.MaxIdleConnsPerHost = n
		return nil
	})
}

// SkipVerify sets the TLS config's InsecureSkipVerify flag.
func SkipVerify(skip bool) Option {
	return TLSOption(func(c *tls.Config) error {
		c.InsecureSkipVerify = skip
		return nil
	})
}

// RootCAs trusts the PEM encoded certificates in pem, instead of the system pool.
func RootCAs(pem []byte) Option {
	return TLSOption(func(c *tls.Config) error {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return merry.New("no certificates found in PEM data")
		}
		c.RootCAs = pool
		return nil
	})
}

// RoundTripper wraps the client's transport.  wrap receives the current
// transport, or a clone of http.DefaultTransport if there's none yet.
func RoundTripper(wrap func(http.RoundTripper) http.RoundTripper) Option {
	return OptionFunc(func(client *http.Client) error {
		rt := client.Transport
		if rt == nil {
			rt = defaultTransport()
		}
		client.Transport = wrap(rt)
		return nil
	})
}
