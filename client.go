package apiclient

import (
	"github.com/ansel1/merry"
)

// APIClient is a declarative, reusable description of a network call: a Request
// template plus the Configs which control how the call is dispatched.
//
// An APIClient is built by applying Options:
//
//     base, err := apiclient.New(
//         apiclient.URL("https://api.example.com"),
//         apiclient.JSON(false),
//         apiclient.BearerAuth(token),
//     )
//
// Clients have value semantics.  With() returns a configured copy, and never
// changes the receiver, so a base client can be shared by concurrent calls:
//
//     users := base.MustWith(apiclient.RelativeURL("users/"))
//     bob, err := apiclient.Decode[User](ctx, users.MustWith(apiclient.RelativeURL("bob")))
//
// The calls themselves are made with the package-level generic functions
// Call(), CallAsync(), Decode(), Exec() and Download().
type APIClient struct {
	request Request
	configs Configs
}

// New returns a new APIClient, applying all options.
func New(options ...Option) (*APIClient, error) {
	c := &APIClient{}
	err := c.Apply(options...)
	if err != nil {
		return nil, merry.Wrap(err)
	}
	return c, nil
}

// MustNew creates a new APIClient, applying all options.  If
// an error occurs applying options, this will panic.
func MustNew(options ...Option) *APIClient {
	c := &APIClient{}
	c.MustApply(options...)
	return c
}

// Clone returns a deep copy of the client.  Configs are copy-on-write, so the
// copy shares them until either side is reconfigured.
func (c *APIClient) Clone() *APIClient {
	return &APIClient{
		request: *c.request.Clone(),
		configs: c.configs,
	}
}

// With clones the client, then applies the options to the clone.
func (c *APIClient) With(opts ...Option) (*APIClient, error) {
	c2 := c.Clone()
	err := c2.Apply(opts...)
	if err != nil {
		return nil, err
	}
	return c2, nil
}

// MustWith is like With, but panics if an option returns an error.
func (c *APIClient) MustWith(opts ...Option) *APIClient {
	c2, err := c.With(opts...)
	if err != nil {
		panic(err)
	}
	return c2
}

// Apply applies the options to the receiver.  Most code should prefer With,
// which leaves the receiver untouched.
func (c *APIClient) Apply(opts ...Option) error {
	for _, o := range opts {
		if o == nil {
			continue
		}
		err := o.Apply(c)
		if err != nil {
			return merry.Prepend(err, "applying options")
		}
	}
	return nil
}

// MustApply applies the options, and panics on error.
func (c *APIClient) MustApply(opts ...Option) {
	err := c.Apply(opts...)
	if err != nil {
		panic(err)
	}
}

// Request returns the client's request template.  Options use it to edit the
// template in place; callers holding a shared client should use With instead.
func (c *APIClient) Request() *Request {
	return &c.request
}

// Configs returns the client's configuration.
func (c *APIClient) Configs() Configs {
	return c.configs
}

// SetConfig stores v in the client's configs.  It's meant for use in custom
// Options.
func SetConfig[V any](c *APIClient, k *Key[V], v V) {
	c.configs = Set(c.configs, k, v)
}

// updateConfig replaces the value of k with f applied to its current value.
func updateConfig[V any](c *APIClient, k *Key[V], f func(V) V) {
	SetConfig(c, k, f(GetConfig(c.configs, k)))
}
