package apiclient

import (
	"encoding/base64"
	"net/http"
	"net/url"
	"slices"

	"github.com/ThalesGroup/apiclient/httpclient"
	"github.com/ansel1/merry"
	goquery "github.com/google/go-querystring/query"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
)

// HTTP constants.
const (
	HeaderAccept        = "Accept"
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"

	MediaTypeJSON      = "application/json"
	MediaTypeXML       = "application/xml"
	MediaTypeForm      = "application/x-www-form-urlencoded"
	MediaTypeTextPlain = "text/plain"
)

// Option applies some setting to an APIClient.  Options are passed to New() and
// With().
type Option interface {

	// Apply modifies the APIClient argument.  The pointer will never be nil.
	// Returning an error will stop applying the rest of the Options, and the error
	// will float up to the original caller.
	Apply(*APIClient) error
}

// OptionFunc adapts a function to the Option interface.
type OptionFunc func(*APIClient) error

// Apply implements Option.
func (f OptionFunc) Apply(c *APIClient) error {
	return f(c)
}

func joinOpts(opts ...Option) Option {
	return OptionFunc(func(c *APIClient) error {
		for _, opt := range opts {
			err := opt.Apply(c)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// WithConfig sets an arbitrary configuration slot.
func WithConfig[V any](k *Key[V], v V) Option {
	return OptionFunc(func(c *APIClient) error {
		SetConfig(c, k, v)
		return nil
	})
}

//////////////////////////////////////////////////////////////
//
//  Request template options
//
//////////////////////////////////////////////////////////////

// Method sets the HTTP method (e.g. GET/DELETE/etc).
// If path arguments are passed, they will be applied
// via the RelativeURL option.
func Method(m string, paths ...string) Option {
	return OptionFunc(func(c *APIClient) error {
		c.request.Method = m
		if len(paths) > 0 {
			return RelativeURL(paths...).Apply(c)
		}
		return nil
	})
}

// Head sets the HTTP method to "HEAD".  Optional path arguments
// will be applied via the RelativeURL option.
func Head(paths ...string) Option {
	return Method(http.MethodHead, paths...)
}

// Get sets the HTTP method to "GET".  Optional path arguments
// will be applied via the RelativeURL option.
func Get(paths ...string) Option {
	return Method(http.MethodGet, paths...)
}

// Post sets the HTTP method to "POST".  Optional path arguments
// will be applied via the RelativeURL option.
func Post(paths ...string) Option {
	return Method(http.MethodPost, paths...)
}

// Put sets the HTTP method to "PUT".  Optional path arguments
// will be applied via the RelativeURL option.
func Put(paths ...string) Option {
	return Method(http.MethodPut, paths...)
}

// Patch sets the HTTP method to "PATCH".  Optional path arguments
// will be applied via the RelativeURL option.
func Patch(paths ...string) Option {
	return Method(http.MethodPatch, paths...)
}

// Delete sets the HTTP method to "DELETE".  Optional path arguments
// will be applied via the RelativeURL option.
func Delete(paths ...string) Option {
	return Method(http.MethodDelete, paths...)
}

// AddHeader adds a header value, using Header.Add()
func AddHeader(key, value string) Option {
	return OptionFunc(func(c *APIClient) error {
		c.request.Headers().Add(key, value)
		return nil
	})
}

// Header sets a header value, using Header.Set()
func Header(key, value string) Option {
	return OptionFunc(func(c *APIClient) error {
		c.request.Headers().Set(key, value)
		return nil
	})
}

// DeleteHeader deletes a header key, using Header.Del()
func DeleteHeader(key string) Option {
	return OptionFunc(func(c *APIClient) error {
		c.request.Header.Del(key)
		return nil
	})
}

// BasicAuth sets the Authorization header to "Basic <encoded username and password>".
// If username and password are empty, it deletes the Authorization header.
func BasicAuth(username, password string) Option {
	if username == "" && password == "" {
		return DeleteHeader(HeaderAuthorization)
	}
	auth := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return Header(HeaderAuthorization, "Basic "+auth)
}

// BearerAuth sets the Authorization header to "Bearer <token>".
// If the token is empty, it deletes the Authorization header.
func BearerAuth(token string) Option {
	if token == "" {
		return DeleteHeader(HeaderAuthorization)
	}
	return Header(HeaderAuthorization, "Bearer "+token)
}

// Accept sets the Accept header.
func Accept(accept string) Option {
	return Header(HeaderAccept, accept)
}

// ContentType sets the Content-Type header.
func ContentType(contentType string) Option {
	return Header(HeaderContentType, contentType)
}

// Host sets Request.Host
func Host(host string) Option {
	return OptionFunc(func(c *APIClient) error {
		c.request.Host = host
		return nil
	})
}

// URL sets the request URL.  Returns an error if arg is not
// a valid URL.
func URL(rawurl string) Option {
	return OptionFunc(func(c *APIClient) error {
		u, err := url.Parse(rawurl)
		if err != nil {
			return merry.Prepend(err, "invalid url")
		}
		c.request.URL = u
		return nil
	})
}

// RelativeURL resolves the arg as a relative URL references against
// the current URL, using the standard lib's url.URL.ResolveReference() method.
//
//     c, _ := apiclient.New(Get("http://test.com/"), RelativeURL("red"))
//     fmt.Println(c.Request().URL.String())  // http://test.com/red
//
// Multiple arguments will be resolved in order.
func RelativeURL(paths ...string) Option {
	return OptionFunc(func(c *APIClient) error {
		for _, p := range paths {
			u, err := url.Parse(p)
			if err != nil {
				return merry.Prepend(err, "invalid url")
			}
			if c.request.URL == nil {
				c.request.URL = u
			} else {
				c.request.URL = c.request.URL.ResolveReference(u)
			}
		}
		return nil
	})
}

// QueryParams adds params to the Request.QueryParams member.
// The arguments may be either map[string][]string, map[string]string, url.Values, or a struct.
// The argument values are merged into Request.QueryParams.
//
// If the arg is a struct, the struct is marshaled into a url.Values object using
// the github.com/google/go-querystring/query package.  Structs should tag
// their members with the "url" tag, e.g.:
//
//     type ReqParams struct {
//         Color string `url:"color"`
//     }
//
// An error will be returned if marshaling the struct fails.
func QueryParams(queryStructs ...interface{}) Option {
	return OptionFunc(func(c *APIClient) error {
		params := c.request.Params()
		for _, queryStruct := range queryStructs {
			var values url.Values
			switch t := queryStruct.(type) {
			case nil:
			case map[string][]string:
				values = t
			case url.Values:
				values = t
			case map[string]string:
				values = url.Values{}
				for key, value := range t {
					values.Set(key, value)
				}
			default:
				var err error
				values, err = goquery.Values(queryStruct)
				if err != nil {
					return merry.Prepend(err, "invalid query struct")
				}
			}

			for key, vs := range values {
				for _, v := range vs {
					params.Add(key, v)
				}
			}
		}
		return nil
	})
}

// QueryParam adds a single query parameter.
func QueryParam(key, value string) Option {
	return OptionFunc(func(c *APIClient) error {
		c.request.Params().Add(key, value)
		return nil
	})
}

//////////////////////////////////////////////////////////////
//
//  Body options
//
//////////////////////////////////////////////////////////////

// Body sets the request body.  A string, []byte or io.Reader is sent as-is; any
// other value is marshaled with the configured Marshaler, which also supplies the
// Content-Type.  The value is encoded at dispatch time.  A reader can only be
// consumed once, so clients using a reader body should only be called once.
func Body(body interface{}) Option {
	if body == nil {
		return BodyFunc(nil)
	}
	return BodyFunc(func(configs Configs) ([]byte, string, error) {
		return encodeBody(body, configs)
	})
}

// BodyFunc installs a body provider.  Passing nil removes the data body.
func BodyFunc(provider BodyProvider) Option {
	return WithConfig(bodyKey, provider)
}

// File streams the file at path as the request body, unless a data body is also
// configured, which takes precedence.
func File(path string) Option {
	return FileFunc(func(Configs) string { return path })
}

// FileFunc installs a file provider.
func FileFunc(provider FileProvider) Option {
	return WithConfig(fileKey, provider)
}

// Marshaler installs the Marshaler used to encode Body() values.
func Marshaler(m BodyMarshaler) Option {
	return WithConfig(marshalerKey, m)
}

// Unmarshaler installs the Unmarshaler used by the Decodable serializer.
func Unmarshaler(m BodyUnmarshaler) Option {
	return WithConfig(unmarshalerKey, m)
}

// JSON sets the Marshaler and Unmarshaler to the JSONMarshaler,
// and sets the Content-Type and Accept headers.
// If the arg is true, the generated JSON will be indented.
func JSON(indent bool) Option {
	m := &JSONMarshaler{Indent: indent}
	return joinOpts(
		Marshaler(m),
		Unmarshaler(m),
		ContentType(MediaTypeJSON),
		Accept(MediaTypeJSON),
	)
}

// XML sets the Marshaler and Unmarshaler to the XMLMarshaler,
// and sets the Content-Type and Accept headers.
// If the arg is true, the generated XML will be indented.
func XML(indent bool) Option {
	m := &XMLMarshaler{Indent: indent}
	return joinOpts(
		Marshaler(m),
		Unmarshaler(m),
		ContentType(MediaTypeXML),
		Accept(MediaTypeXML),
	)
}

// Form sets the Marshaler to the FormMarshaler,
// which marshals the body into form-urlencoded.
func Form() Option {
	return Marshaler(&FormMarshaler{})
}

//////////////////////////////////////////////////////////////
//
//  Dispatch options
//
//////////////////////////////////////////////////////////////

// BeforeCall appends a hook which runs right before each call.  Hooks run in the
// order they were added, and each sees the edits made by the previous ones.
func BeforeCall(hook BeforeCallFunc) Option {
	return OptionFunc(func(c *APIClient) error {
		updateConfig(c, beforeCallKey, func(prev BeforeCallFunc) BeforeCallFunc {
			return func(req *Request, configs Configs) error {
				if err := prev(req, configs); err != nil {
					return err
				}
				return hook(req, configs)
			}
		})
		return nil
	})
}

// Use appends middleware to the client's chain.  Middleware
// is invoked in the order added: the first one added is the outermost.
func Use(m ...Middleware) Option {
	return OptionFunc(func(c *APIClient) error {
		updateConfig(c, middlewareKey, func(chain Chain) Chain {
			return append(slices.Clip(chain), m...)
		})
		return nil
	})
}

// ValidateRequest installs middleware which checks each request before it is sent.
func ValidateRequest(v RequestValidator) Option {
	return Use(requestValidatorMiddleware(v))
}

// RateLimit installs middleware which waits on limiter before each call.
func RateLimit(limiter *rate.Limiter) Option {
	return Use(RateLimitMiddleware(limiter))
}

// ValidateResponse installs the validator which decides whether a response is
// acceptable.
func ValidateResponse(v ResponseValidator) Option {
	return WithConfig(responseValidatorKey, v)
}

// ExpectCode rejects responses whose status code is not one of codes.
func ExpectCode(codes ...int) Option {
	return ValidateResponse(StatusCodes(codes...))
}

// ExpectSuccessCode rejects responses whose status code is not between 200 and 299.
func ExpectSuccessCode() Option {
	return ValidateResponse(SuccessCodes())
}

// DecodeErrors installs the decoder used to turn rejected response bodies into
// structured errors.
func DecodeErrors(d ErrorDecoder) Option {
	return WithConfig(errorDecoderKey, d)
}

// Transport replaces the HTTPClient used for data calls.  If nil, the
// client reverts to the default, which uses http.DefaultClient.
func Transport(t HTTPClient) Option {
	return WithConfig(httpClientKey, t)
}

// DownloadTransport replaces the HTTPDownloadClient used by download calls.
func DownloadTransport(t HTTPDownloadClient) Option {
	return WithConfig(httpDownloadClientKey, t)
}

// WithDoer sets both transports to send requests through d, wrapped in the
// optional Doer middleware.  If d is nil, http.DefaultClient is used.
func WithDoer(d Doer, m ...DoerMiddleware) Option {
	return joinOpts(
		Transport(NewHTTPClient(d, m...)),
		DownloadTransport(NewDownloadClient(d, "", m...)),
	)
}

// Client sends requests through an *http.Client built and configured with the
// httpclient package.
func Client(opts ...httpclient.Option) Option {
	return OptionFunc(func(c *APIClient) error {
		hc, err := httpclient.New(opts...)
		if err != nil {
			return err
		}
		return WithDoer(hc).Apply(c)
	})
}

// Location pins the source location reported in log messages.  By default
// the location of the Call() site is used.
func Location(file string, line int) Option {
	return WithConfig(fileIDLineKey, &FileIDLine{File: file, Line: line})
}

//////////////////////////////////////////////////////////////
//
//  Logging options
//
//////////////////////////////////////////////////////////////

// Logger sets the logger receiving request and error messages.
func Logger(l *zap.Logger) Option {
	return WithConfig(loggerKey, l)
}

// LogLevel sets the level of request and response messages.  Error messages
// are always logged at error level.
func LogLevel(level zapcore.Level) Option {
	return WithConfig(logLevelKey, level)
}

// LogComponents selects what request and error messages include.  LogNone
// disables them entirely.
func LogComponents(components LoggingComponents) Option {
	return WithConfig(loggingComponentsKey, components)
}
