package apiclient

import (
	"encoding/json"
	"encoding/xml"
	"net/url"
	"strings"

	"github.com/ansel1/merry"
	goquery "github.com/google/go-querystring/query"
)

// Clients encode Body() values into request bodies, and decode response bodies
// into values, using instances of the BodyMarshaler and BodyUnmarshaler
// interfaces.  Implementations can be installed with the Marshaler() and
// Unmarshaler() Options, or with the JSON(), XML(), and Form() shortcuts.
//
// If not set, clients fall back on DefaultMarshaler, which speaks JSON, and
// DefaultUnmarshaler, which picks JSON or XML from the response's Content-Type.

// DefaultMarshaler is used if no Marshaler is configured.
// nolint:gochecknoglobals
var DefaultMarshaler BodyMarshaler = &JSONMarshaler{}

// DefaultUnmarshaler is used if no Unmarshaler is configured.
// nolint:gochecknoglobals
var DefaultUnmarshaler BodyUnmarshaler = &MultiUnmarshaler{}

const (
	contentTypeForm = MediaTypeForm + "; charset=UTF-8"
	contentTypeXML  = MediaTypeXML + "; charset=UTF-8"
	contentTypeJSON = MediaTypeJSON + "; charset=UTF-8"
)

var (
	marshalerKey           = NewKey("marshaler", func() BodyMarshaler { return DefaultMarshaler })
	unmarshalerKey         = NewKey("unmarshaler", func() BodyUnmarshaler { return DefaultUnmarshaler })
	responseContentTypeKey = NewKey[string]("responseContentType", nil)
)

// Marshaler returns the configured BodyMarshaler.
func (c Configs) Marshaler() BodyMarshaler {
	if m := GetConfig(c, marshalerKey); m != nil {
		return m
	}
	return DefaultMarshaler
}

// Unmarshaler returns the configured BodyUnmarshaler.
func (c Configs) Unmarshaler() BodyUnmarshaler {
	if m := GetConfig(c, unmarshalerKey); m != nil {
		return m
	}
	return DefaultUnmarshaler
}

// ResponseContentType returns the Content-Type of the response being decoded, or ""
// outside of a call or when the response had none.
func (c Configs) ResponseContentType() string {
	return GetConfig(c, responseContentTypeKey)
}

// BodyMarshaler marshals values into a []byte.
//
// If the content type returned is not empty, it
// will be used in the request's Content-Type header.
type BodyMarshaler interface {
	Marshal(v interface{}) (data []byte, contentType string, err error)
}

// BodyUnmarshaler unmarshals a []byte response body into a value.  contentType
// may be empty when the caller doesn't know it.
type BodyUnmarshaler interface {
	Unmarshal(data []byte, contentType string, v interface{}) error
}

// MarshalFunc adapts a function to the BodyMarshaler interface.
type MarshalFunc func(v interface{}) ([]byte, string, error)

// Apply implements Option.  MarshalFunc can be applied as a client option, which
// installs itself as the Marshaler.
func (f MarshalFunc) Apply(c *APIClient) error {
	return Marshaler(f).Apply(c)
}

// Marshal implements BodyMarshaler.
func (f MarshalFunc) Marshal(v interface{}) ([]byte, string, error) {
	return f(v)
}

// UnmarshalFunc adapts a function to the BodyUnmarshaler interface.
type UnmarshalFunc func(data []byte, contentType string, v interface{}) error

// Apply implements Option.  UnmarshalFunc can be applied as a client option, which
// installs itself as the Unmarshaler.
func (f UnmarshalFunc) Apply(c *APIClient) error {
	return Unmarshaler(f).Apply(c)
}

// Unmarshal implements BodyUnmarshaler.
func (f UnmarshalFunc) Unmarshal(data []byte, contentType string, v interface{}) error {
	return f(data, contentType, v)
}

// JSONMarshaler implements BodyMarshaler and BodyUnmarshaler.  It marshals values to and
// from JSON.  If Indent is true, marshaled JSON will be indented.
type JSONMarshaler struct {
	Indent bool
}

// Unmarshal implements BodyUnmarshaler.
func (m *JSONMarshaler) Unmarshal(data []byte, _ string, v interface{}) error {
	return merry.Wrap(json.Unmarshal(data, v))
}

// Marshal implements BodyMarshaler.
func (m *JSONMarshaler) Marshal(v interface{}) (data []byte, contentType string, err error) {
	if m.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	return data, contentTypeJSON, merry.Wrap(err)
}

// XMLMarshaler implements BodyMarshaler and BodyUnmarshaler.  It marshals values to
// and from XML.  If Indent is true, marshaled XML will be indented.
type XMLMarshaler struct {
	Indent bool
}

// Unmarshal implements BodyUnmarshaler.
func (*XMLMarshaler) Unmarshal(data []byte, _ string, v interface{}) error {
	return merry.Wrap(xml.Unmarshal(data, v))
}

// Marshal implements BodyMarshaler.
func (m *XMLMarshaler) Marshal(v interface{}) (data []byte, contentType string, err error) {
	if m.Indent {
		data, err = xml.MarshalIndent(v, "", "  ")
	} else {
		data, err = xml.Marshal(v)
	}
	return data, contentTypeXML, merry.Wrap(err)
}

// FormMarshaler implements BodyMarshaler.  It marshals values into URL-Encoded form data.
//
// The value can be either a map[string][]string, map[string]string, url.Values, or a struct with `url` tags.
type FormMarshaler struct{}

// Marshal implements BodyMarshaler.
func (*FormMarshaler) Marshal(v interface{}) (data []byte, contentType string, err error) {
	switch t := v.(type) {
	case map[string][]string:
		return []byte(url.Values(t).Encode()), contentTypeForm, nil
	case map[string]string:
		urlV := url.Values{}
		for key, value := range t {
			urlV.Set(key, value)
		}
		return []byte(urlV.Encode()), contentTypeForm, nil
	case url.Values:
		return []byte(t.Encode()), contentTypeForm, nil
	default:
		values, err := goquery.Values(v)
		if err != nil {
			return nil, "", merry.Prepend(err, "invalid form struct")
		}
		return []byte(values.Encode()), contentTypeForm, nil
	}
}

// MultiUnmarshaler implements BodyUnmarshaler.  It uses the content type to choose
// between the JSON and XML unmarshalers.  XML types, including "text/xml" and
// "+xml" suffixes, go to XML.  JSON types go to JSON, and so do an empty content
// type and "text/plain", which is what servers send for unlabeled bodies.  Any
// other content type is an error.
//
// MultiUnmarshaler is the default BodyUnmarshaler.
type MultiUnmarshaler struct {
	jsonMar JSONMarshaler
	xmlMar  XMLMarshaler
}

// Unmarshal implements BodyUnmarshaler.
func (m *MultiUnmarshaler) Unmarshal(data []byte, contentType string, v interface{}) error {
	mediaType := contentType
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))

	switch {
	case mediaType == MediaTypeXML, mediaType == "text/xml", strings.HasSuffix(mediaType, "+xml"):
		return m.xmlMar.Unmarshal(data, contentType, v)
	case mediaType == "", mediaType == MediaTypeJSON, mediaType == MediaTypeTextPlain, strings.HasSuffix(mediaType, "+json"):
		return m.jsonMar.Unmarshal(data, contentType, v)
	}
	return merry.Errorf("unsupported content type: %s", contentType)
}
