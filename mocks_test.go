package apiclient_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/ThalesGroup/apiclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockHandler(t *testing.T) {
	h := MockHandler(201,
		JSON(false),
		Body(map[string]interface{}{"color": "blue"}),
	)

	ts := httptest.NewServer(h)
	defer ts.Close()

	resp, body, err := receive(context.Background(), MustNew(Get(ts.URL)))
	require.NoError(t, err)

	assert.Equal(t, 201, resp.StatusCode)
	assert.JSONEq(t, `{"color":"blue"}`, body)
	assert.Contains(t, resp.Header.Get(HeaderContentType), MediaTypeJSON)
}

func TestChannelHandler(t *testing.T) {
	in, h := ChannelHandler()

	ts := httptest.NewServer(h)
	defer ts.Close()

	in <- MockResponse(201, JSON(false),
		Body(map[string]interface{}{"color": "blue"}))

	resp, body, err := receive(context.Background(), MustNew(Get(ts.URL)))
	require.NoError(t, err)

	assert.Equal(t, 201, resp.StatusCode)
	assert.JSONEq(t, `{"color":"blue"}`, body)
	assert.Contains(t, resp.Header.Get(HeaderContentType), MediaTypeJSON)
}

func TestMockResponse(t *testing.T) {
	resp := MockResponse(201,
		JSON(false),
		Body(map[string]interface{}{"color": "red"}),
	)

	require.NotNil(t, resp)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "201 Created", resp.Status)
	assert.Contains(t, resp.Header.Get(HeaderContentType), MediaTypeJSON)

	b, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"color":"red"}`, string(b))

	resp = MockResponse(500)
	assert.NotNil(t, resp.Body)
}

func TestMockDoer(t *testing.T) {
	d := MockDoer(201,
		JSON(false),
		Body(map[string]interface{}{"color": "blue"}),
	)

	req, err := http.NewRequest(http.MethodGet, "/profile", nil)
	require.NoError(t, err)

	resp, err := d.Do(req)
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.Equal(t, req, resp.Request)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(HeaderContentType), MediaTypeJSON)

	b, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"color":"blue"}`, string(b))
}

func TestChannelDoer(t *testing.T) {
	in, d := ChannelDoer()

	in <- MockResponse(201,
		JSON(false),
		Body(map[string]interface{}{"color": "blue"}),
	)

	req, err := http.NewRequest(http.MethodGet, "/profile", nil)
	require.NoError(t, err)

	resp, err := d.Do(req)
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.Equal(t, req, resp.Request)
	assert.Equal(t, 201, resp.StatusCode)

	b, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"color":"blue"}`, string(b))
}

type user struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type order struct {
	ID int `json:"id"`
}

func TestMock(t *testing.T) {
	var transportCalls int
	c := MustNew(
		URL("https://example.com"),
		WithDoer(DoerFunc(func(*http.Request) (*http.Response, error) {
			transportCalls++
			return MockResponse(200, Body(`{"id":2}`)), nil
		})),
		Mock(user{ID: 1}),
	)

	u, err := Decode[user](context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, user{ID: 1}, u)
	assert.Zero(t, transportCalls)

	// mocks are per value type
	o, err := Decode[order](context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, order{ID: 2}, o)
	assert.Equal(t, 1, transportCalls)
}

func TestMockFor(t *testing.T) {
	var transportCalls int
	c := MustNew(
		WithDoer(DoerFunc(func(*http.Request) (*http.Response, error) {
			transportCalls++
			return MockResponse(200, Body("real")), nil
		})),
		MockFor(SerializerString, "for string"),
	)

	s, err := Call(context.Background(), c, HTTP[string](), String())
	require.NoError(t, err)
	assert.Equal(t, "for string", s)
	assert.Zero(t, transportCalls)

	// a different serializer for the same type isn't mocked
	s, err = Call(context.Background(), c, HTTP[string](), Decodable[string]())
	require.Error(t, err, "real isn't valid JSON")
	assert.Empty(t, s)
	assert.Equal(t, 1, transportCalls)

	// the exact serializer wins over the wildcard
	c = c.MustWith(Mock("any"))
	s, err = Call(context.Background(), c, HTTP[string](), String())
	require.NoError(t, err)
	assert.Equal(t, "for string", s)

	s, err = Call(context.Background(), c, HTTP[string](), Decodable[string]())
	require.NoError(t, err)
	assert.Equal(t, "any", s)
	assert.Equal(t, 1, transportCalls)
}

func TestMock_mapped(t *testing.T) {
	c := MustNew(Mock(user{ID: 1, Name: "bob"}))

	var mapped int
	caller := Map(HTTP[user](), func(u user) (string, error) {
		mapped++
		return u.Name, nil
	})

	name, err := Call(context.Background(), c, caller, Decodable[user]())
	require.NoError(t, err)
	assert.Equal(t, "bob", name)
	assert.Equal(t, 1, mapped)
}

func ExampleMockDoer() {
	d := MockDoer(201,
		JSON(false),
		Body(map[string]interface{}{"color": "blue"}),
	)

	resp, body, _ := receive(context.Background(), MustNew(WithDoer(d)))

	fmt.Println(resp.StatusCode)
	fmt.Println(resp.Header.Get(HeaderContentType))
	fmt.Println(body)

	// Output:
	// 201
	// application/json
	// {"color":"blue"}
}

func ExampleMockHandler() {
	h := MockHandler(201,
		JSON(false),
		Body(map[string]interface{}{"color": "blue"}),
	)

	ts := httptest.NewServer(h)
	defer ts.Close()

	resp, body, _ := receive(context.Background(), MustNew(URL(ts.URL)))

	fmt.Println(resp.StatusCode)
	fmt.Println(resp.Header.Get(HeaderContentType))
	fmt.Println(body)

	// Output:
	// 201
	// application/json
	// {"color":"blue"}
}

func ExampleChannelDoer() {
	in, d := ChannelDoer()

	in <- &http.Response{
		StatusCode: 201,
		Body:       io.NopCloser(strings.NewReader("pong")),
	}

	resp, body, _ := receive(context.Background(), MustNew(WithDoer(d)))

	fmt.Println(resp.StatusCode)
	fmt.Println(body)

	// Output:
	// 201
	// pong
}

func ExampleChannelHandler() {
	in, h := ChannelHandler()

	ts := httptest.NewServer(h)
	defer ts.Close()

	in <- &http.Response{
		StatusCode: 201,
		Body:       io.NopCloser(strings.NewReader("pong")),
	}

	resp, body, _ := receive(context.Background(), MustNew(URL(ts.URL)))

	fmt.Println(resp.StatusCode)
	fmt.Println(body)

	// Output:
	// 201
	// pong
}
