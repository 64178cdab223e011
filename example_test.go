package apiclient_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/ThalesGroup/apiclient"
)

func Example() {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{"color":"red"}`))
	}))
	defer s.Close()

	c := apiclient.MustNew(apiclient.URL(s.URL), apiclient.JSON(false))

	respStruct, _ := apiclient.Decode[struct {
		Color string
	}](context.Background(), c)

	fmt.Println(respStruct.Color)
	// Output: red
}

func ExampleCall() {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	}))
	defer s.Close()

	c := apiclient.MustNew(apiclient.URL(s.URL))

	body, _ := apiclient.Call(context.Background(), c, apiclient.HTTP[string](), apiclient.String())

	fmt.Println(body)
	// Output: pong
}

func ExampleExpectSuccessCode() {
	c := apiclient.MustNew(
		apiclient.Get("/profile"),
		apiclient.WithDoer(apiclient.MockDoer(400, apiclient.Body("bad format"))),
		apiclient.ExpectSuccessCode(),
	)

	var i apiclient.Inspector
	err := apiclient.Exec(context.Background(), c.MustWith(&i))

	fmt.Println(i.Response.StatusCode)
	fmt.Println(string(i.Data()))
	fmt.Println(err.Error())
	// Output:
	// 400
	// bad format
	// server returned an unexpected status code: received: 400
}

func ExampleExpectCode() {
	mock := apiclient.DoerFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: 400,
			Body:       io.NopCloser(strings.NewReader("bad format")),
		}, nil
	})

	c := apiclient.MustNew(
		apiclient.Get("/profile"),
		apiclient.WithDoer(mock),
		apiclient.ExpectCode(201),
	)

	err := apiclient.Exec(context.Background(), c)

	fmt.Println(err.Error())
	// Output:
	// server returned an unexpected status code: expected: [201], received: 400
}

type apiError struct {
	Code string `json:"code"`
}

func (e *apiError) Error() string {
	return "api error: " + e.Code
}

func ExampleDecodeErrors() {
	c := apiclient.MustNew(
		apiclient.Get("/profile"),
		apiclient.WithDoer(apiclient.MockDoer(409, apiclient.Body(`{"code":"conflict"}`))),
		apiclient.ExpectSuccessCode(),
		apiclient.DecodeErrors(apiclient.UnmarshalError[apiError](nil)),
	)

	err := apiclient.Exec(context.Background(), c)

	fmt.Println(err.Error())
	// Output: api error: conflict
}

// Inspector is an Option which captures requests and responses and their bodies.  It's
// a tool for writing tests.
func ExampleInspector() {
	mock := apiclient.DoerFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: 201,
			Body:       io.NopCloser(strings.NewReader("pong")),
		}, nil
	})

	i := apiclient.Inspector{}

	_ = apiclient.Exec(context.Background(), apiclient.MustNew(
		apiclient.WithDoer(mock),
		apiclient.Header(apiclient.HeaderAccept, apiclient.MediaTypeTextPlain),
		apiclient.Body("ping"),
		&i,
	))

	fmt.Println(i.Request.Header.Get(apiclient.HeaderAccept))
	fmt.Println(string(i.RequestBody.Data()))
	fmt.Println(i.Response.StatusCode)
	fmt.Println(string(i.Data()))

	// Output:
	// text/plain
	// ping
	// 201
	// pong
}

func ExampleMap() {
	type user struct {
		Name string `json:"name"`
	}

	c := apiclient.MustNew(
		apiclient.WithDoer(apiclient.MockDoer(200, apiclient.Body(`[{"name":"ann"},{"name":"bob"}]`))),
	)

	names := apiclient.Map(apiclient.HTTP[[]user](), func(users []user) ([]string, error) {
		var names []string
		for _, u := range users {
			names = append(names, u.Name)
		}
		return names, nil
	})

	result, _ := apiclient.Call(context.Background(), c, names, apiclient.Decodable[[]user]())

	fmt.Println(result)
	// Output: [ann bob]
}
