package apiclient

import (
	"net/http"

	"github.com/ansel1/merry"
)

// ResponseValidator decides whether a response is acceptable.  data is the
// response body.  Returning an error rejects the response: the error decoder
// then gets a chance to replace the error with a structured one, and the body is
// not serialized.
type ResponseValidator func(resp *http.Response, data []byte, configs Configs) error

// AlwaysSuccess accepts every response.  It's the default validator.
func AlwaysSuccess(*http.Response, []byte, Configs) error {
	return nil
}

var responseValidatorKey = NewKey("responseValidator", func() ResponseValidator { return AlwaysSuccess })

// ResponseValidator returns the configured validator.
func (c Configs) ResponseValidator() ResponseValidator {
	if v := GetConfig(c, responseValidatorKey); v != nil {
		return v
	}
	return AlwaysSuccess
}

// StatusCodes returns a validator which rejects responses whose status code is
// not one of codes.
func StatusCodes(codes ...int) ResponseValidator {
	return func(resp *http.Response, _ []byte, _ Configs) error {
		if resp == nil {
			return merry.Wrap(ErrNoResponse)
		}
		for _, code := range codes {
			if resp.StatusCode == code {
				return nil
			}
		}
		return merry.WithHTTPCode(
			merry.Appendf(ErrUnexpectedStatus, "expected: %v, received: %d", codes, resp.StatusCode),
			resp.StatusCode,
		)
	}
}

// SuccessCodes returns a validator which rejects responses whose status code is
// not between 200 and 299.
func SuccessCodes() ResponseValidator {
	return func(resp *http.Response, _ []byte, _ Configs) error {
		if resp == nil {
			return merry.Wrap(ErrNoResponse)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return merry.WithHTTPCode(
				merry.Appendf(ErrUnexpectedStatus, "received: %d", resp.StatusCode),
				resp.StatusCode,
			)
		}
		return nil
	}
}
