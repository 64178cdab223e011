/*
Package apiclient is a Go library for building API clients.  A client is declared once, by
composing `Option`s, and typed calls are then made with it:

```go
base, err := apiclient.New(
    apiclient.URL("https://api.example.com"),
    apiclient.JSON(false),
    apiclient.BearerAuth(token),
    apiclient.ExpectSuccessCode(),
)
if err != nil { return err }

user, err := apiclient.Decode[User](ctx, base.MustWith(apiclient.Get("users/1")))
```

# APIClient

An `APIClient` holds a `Request` template (method, URL, headers, query params) and
`Configs`, the settings controlling how calls are dispatched: logger, body provider,
validators, error decoder, before-call hooks, middleware, transports and mocks.

Clients have value semantics.  `With(...Option)` returns a configured copy and never
changes the receiver, so a base client can be shared and specialized freely:

```go
users := base.MustWith(apiclient.RelativeURL("users/"))
bob := users.MustWith(apiclient.RelativeURL("bob"))
```

# Calls

Every call goes through the same pipeline:

1. a correlation id (a UUID) is assigned to the call
2. before-call hooks edit a copy of the request template, in the order they were added
3. the body is built: a data body from `Body()` wins over a file body from `File()`
4. an "api request" message is logged
5. if a mock is registered for the call's value type, it is returned, and nothing is sent
6. otherwise the call runs through the middleware chain to the transport, and the response
is validated, then serialized
7. any error is logged once, as "api request failed", with the same correlation id, and
returned unchanged

`Call()` exposes the whole pipeline.  It takes a `Caller`, which performs the network
operation, and a `Serializer`, which turns the raw response into a value:

```go
user, err := apiclient.Call(ctx, c, apiclient.HTTP[User](), apiclient.Decodable[User]())
```

`Decode()`, `Exec()` and `Download()` cover the common cases, and `CallAsync()` runs a call
in the background, returning a `Future`.

Callers can be adapted with `Map()`:

```go
names := apiclient.Map(apiclient.HTTP[[]User](), func(users []User) ([]string, error) {
    ...
})
```

# Validation and errors

A `ResponseValidator` decides whether a response is acceptable.  The default accepts
everything; `ExpectSuccessCode()` and `ExpectCode(...)` check the status code.

When a data response is rejected, the `ErrorDecoder` installed with `DecodeErrors()` gets a
chance to turn the body into a structured error, which then replaces the validation error:

```go
c := base.MustWith(apiclient.DecodeErrors(apiclient.UnmarshalError[APIError](nil)))
```

Download responses are never decoded: their payload is a file, not a body.

# Middleware

Call-level `Middleware` wraps the rest of the pipeline.  The first middleware added is the
outermost: it sees the request first and the response last.  Middleware must call `next`
at most once.

Transport-level `DoerMiddleware` wraps the `Doer` which sends raw `*http.Request`s, and may
send them more than once.  That's where `Retry()` lives:

```go
c := base.MustWith(apiclient.WithDoer(http.DefaultClient, apiclient.Retry(nil)))
```

# Mocks

`Mock()` registers a canned value for calls producing a type.  Such calls return the value
without any network activity:

```go
c := base.MustWith(apiclient.Mock(User{ID: 1}))
user, _ := apiclient.Decode[User](ctx, c)   // User{ID: 1}
```

# Logging

Messages are written to a `*zap.Logger`, `zap.L()` by default.  `LogLevel()` sets the level of
request and response messages, and `LogComponents()` selects their fields.  Errors are always
logged at error level.

# Sub-packages

- httpclient builds and configures `*http.Client`s
- logging builds zap loggers
- config loads client settings from files and the environment
- metrics and tracing are middleware for Prometheus and OpenTelemetry
- httptestutil and clientserver are tools for tests
*/
package apiclient
