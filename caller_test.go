package apiclient_test

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"

	. "github.com/ThalesGroup/apiclient"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockCaller(t *testing.T) {
	c := MustNew()
	caller := MockCaller[[]byte, testUser]([]byte(`{"id":4}`))

	u, err := Call(context.Background(), c, caller, Decodable[testUser]())
	require.NoError(t, err)
	assert.Equal(t, testUser{ID: 4}, u)

	u, err = caller.MockResult(testUser{ID: 5})
	require.NoError(t, err)
	assert.Equal(t, testUser{ID: 5}, u)
}

func TestMap(t *testing.T) {
	var calls int
	toString := func(u testUser) (string, error) {
		calls++
		return strconv.Itoa(u.ID), nil
	}
	identity := func(s string) (string, error) { return s, nil }

	base := MockCaller[[]byte, testUser]([]byte(`{"id":4}`))
	c := MustNew()

	s, err := Call(context.Background(), c, Map(base, toString), Decodable[testUser]())
	require.NoError(t, err)
	assert.Equal(t, "4", s)
	assert.Equal(t, 1, calls)

	// mapping with the identity changes nothing
	s2, err := Call(context.Background(), c, Map(Map(base, toString), identity), Decodable[testUser]())
	require.NoError(t, err)
	assert.Equal(t, s, s2)

	// mocked results go through the map too
	calls = 0
	s, err = Call(context.Background(), c.MustWith(Mock(testUser{ID: 9})), Map(base, toString), Decodable[testUser]())
	require.NoError(t, err)
	assert.Equal(t, "9", s)
	assert.Equal(t, 1, calls)
}

func TestMap_errors(t *testing.T) {
	boom := errors.New("boom")
	var mapped bool
	failing := NewCaller[[]byte, string, string](
		func(context.Context, uuid.UUID, *Request, *RequestBody, Configs, SerializeFunc[[]byte, string]) (string, error) {
			return "", boom
		},
		func(string) (string, error) { return "", boom },
	)
	m := Map(failing, func(s string) (int, error) {
		mapped = true
		return len(s), nil
	})

	_, err := Call(context.Background(), MustNew(), m, String())
	assert.Same(t, boom, err)
	assert.False(t, mapped)

	_, err = m.MockResult("x")
	assert.Same(t, boom, err)
	assert.False(t, mapped)

	// errors from f are returned unchanged
	fErr := errors.New("bad value")
	m2 := Map(MockCaller[[]byte, string]([]byte("x")), func(string) (int, error) { return 0, fErr })
	_, err = Call(context.Background(), MustNew(), m2, String())
	assert.Same(t, fErr, err)
}

func TestHTTPCaller_validation(t *testing.T) {
	var validated bool
	caller := HTTPCaller[[]byte, string](
		func(context.Context, *http.Request, Configs) ([]byte, *http.Response, error) {
			return []byte("raw"), &http.Response{StatusCode: 200}, nil
		},
		func(data []byte, resp *http.Response, _ Configs) error {
			validated = true
			assert.Equal(t, "raw", string(data))
			assert.Equal(t, 200, resp.StatusCode)
			return nil
		},
		func(data []byte) []byte { return data },
	)

	s, err := Call(context.Background(), MustNew(), caller, String())
	require.NoError(t, err)
	assert.True(t, validated)
	assert.Equal(t, "raw", s)
}
