// Package httpclient builds and configures instances of http.Client.
//
// Clients are created with New(), which takes Options implementing common
// configuration recipes, like request timeouts, skipping server TLS
// verification, or routing calls through a proxy:
//
//     c, err := httpclient.New(httpclient.SkipVerify(true), httpclient.Timeout(10 * time.Second))
//
// The result can be handed to apiclient.WithDoer(), or built directly with the
// apiclient.Client() option.
package httpclient

import (
	"crypto/tls"
	"net/http"

	"github.com/ansel1/merry"
)

// New builds a new *http.Client.  With no arguments, the client behaves like
// http.DefaultClient, but owns a clone of http.DefaultTransport, so options can
// change it without a global effect.
func New(opts ...Option) (*http.Client, error) {
	c := &http.Client{}
	if err := Apply(c, opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// Apply applies options to an existing client.
func Apply(c *http.Client, opts ...Option) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.Apply(c); err != nil {
			return merry.Prepend(err, "configuring http client")
		}
	}
	return nil
}

func defaultTransport() *http.Transport {
	if t, ok := http.DefaultTransport.(*http.Transport); ok {
		return t.Clone()
	}
	return &http.Transport{Proxy: http.ProxyFromEnvironment}
}

// Option configures an http.Client.
type Option interface {

	// Apply makes some configuration change to the client, which is never nil.
	Apply(*http.Client) error
}

// OptionFunc adapts a function to the Option interface.
type OptionFunc func(*http.Client) error

// Apply implements Option.
func (f OptionFunc) Apply(c *http.Client) error {
	return f(c)
}

// A TransportOption configures the client's transport.
//
// The argument is never nil: a clone of http.DefaultTransport is installed if
// the client has no transport yet.  If the client's transport is not a
// *http.Transport, an error is returned.
type TransportOption func(transport *http.Transport) error

// Apply implements Option.
func (f TransportOption) Apply(c *http.Client) error {
	var transport *http.Transport
	switch t := c.Transport.(type) {
	case nil:
		transport = defaultTransport()
		c.Transport = transport
	case *http.Transport:
		transport = t
	default:
		return merry.Errorf("client.Transport is not a *http.Transport.  It's a %T", c.Transport)
	}
	return f(transport)
}

// A TLSOption configures the TLS settings of the client's transport.
//
// The argument is never nil: an empty config is created if necessary.
type TLSOption func(c *tls.Config) error

// Apply implements Option.
func (f TLSOption) Apply(c *http.Client) error {
	return TransportOption(func(t *http.Transport) error {
		if t.TLSClientConfig == nil {
			t.TLSClientConfig = &tls.Config{}
		}
		return f(t.TLSClientConfig)
	}).Apply(c)
}
