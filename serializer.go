package apiclient

import (
	"github.com/ansel1/merry"
)

// Serializer converts the raw response of a caller into a domain value.  The ID
// names the conversion; mocks are registered per (value type, serializer ID).
type Serializer[Response, Value any] struct {
	ID        string
	Serialize func(response Response, configs Configs) (Value, error)
}

// NewSerializer returns a Serializer with the given id.
func NewSerializer[Response, Value any](id string, f func(Response, Configs) (Value, error)) Serializer[Response, Value] {
	return Serializer[Response, Value]{ID: id, Serialize: f}
}

// Serializer IDs of the built-in serializers.
const (
	SerializerDecodable = "decodable"
	SerializerVoid      = "void"
	SerializerIdentity  = "identity"
	SerializerString    = "string"
)

// Decodable decodes the response body into a V with the configured Unmarshaler,
// which is told the response's Content-Type.
func Decodable[V any]() Serializer[[]byte, V] {
	return NewSerializer(SerializerDecodable, func(data []byte, configs Configs) (V, error) {
		var v V
		if err := configs.Unmarshaler().Unmarshal(data, configs.ResponseContentType(), &v); err != nil {
			return v, merry.Prepend(err, "decoding response body")
		}
		return v, nil
	})
}

// Void discards the response body.
func Void() Serializer[[]byte, struct{}] {
	return NewSerializer(SerializerVoid, func([]byte, Configs) (struct{}, error) {
		return struct{}{}, nil
	})
}

// Identity passes the response through unchanged.
func Identity[T any]() Serializer[T, T] {
	return NewSerializer(SerializerIdentity, func(response T, _ Configs) (T, error) {
		return response, nil
	})
}

// String returns the response body as a string.
func String() Serializer[[]byte, string] {
	return NewSerializer(SerializerString, func(data []byte, _ Configs) (string, error) {
		return string(data), nil
	})
}
