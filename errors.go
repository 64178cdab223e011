package apiclient

import (
	"github.com/ansel1/merry"
)

// Errors returned by this package.  Test for them with merry.Is().
var (
	// ErrUnexpectedStatus is returned by the status code validators.  The error
	// carries the status code, which can be read with merry.HTTPCode().
	ErrUnexpectedStatus = merry.New("server returned an unexpected status code")

	// ErrNoResponse is returned when a transport returns neither a response nor an error.
	ErrNoResponse = merry.New("transport returned no response")

	// ErrUnexpectedPayload is returned when middleware hands back a payload of
	// the wrong type for the caller.
	ErrUnexpectedPayload = merry.New("unexpected payload type")
)

// ErrorDecoder tries to recover a structured error from the body of a rejected
// response.  It returns nil if the body doesn't hold one, in which case the
// validation error is reported instead.
type ErrorDecoder func(data []byte, configs Configs) error

// NoErrorDecoder never decodes anything.  It's the default.
func NoErrorDecoder([]byte, Configs) error {
	return nil
}

var errorDecoderKey = NewKey("errorDecoder", func() ErrorDecoder { return NoErrorDecoder })

// ErrorDecoder returns the configured ErrorDecoder.
func (c Configs) ErrorDecoder() ErrorDecoder {
	if d := GetConfig(c, errorDecoderKey); d != nil {
		return d
	}
	return NoErrorDecoder
}

// UnmarshalError returns an ErrorDecoder which unmarshals the body into a new T
// with the configured Unmarshaler.  If the body is empty, doesn't unmarshal, or
// valid is given and returns false, nothing is decoded.
//
//     type APIError struct {
//         Code    string `json:"code"`
//         Message string `json:"message"`
//     }
//
//     func (e *APIError) Error() string { return e.Code + ": " + e.Message }
//
//     c, _ := apiclient.New(apiclient.DecodeErrors(apiclient.UnmarshalError[APIError](func(e *APIError) bool {
//         return e.Code != ""
//     })))
func UnmarshalError[T any, PT interface {
	*T
	error
}](valid func(PT) bool) ErrorDecoder {
	return func(data []byte, configs Configs) error {
		if len(data) == 0 {
			return nil
		}
		e := PT(new(T))
		if err := configs.Unmarshaler().Unmarshal(data, configs.ResponseContentType(), e); err != nil {
			return nil
		}
		if valid != nil && !valid(e) {
			return nil
		}
		return e
	}
}
