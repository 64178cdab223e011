package httptestutil_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"

	"github.com/ThalesGroup/apiclient"
	"github.com/ThalesGroup/apiclient/httptestutil"
)

func Example() {
	mux := http.NewServeMux()
	mux.Handle("/echo", apiclient.MockHandler(201, apiclient.Body("pong")))

	ts := httptest.NewServer(mux)
	defer ts.Close()

	// inspect server traffic
	is := httptestutil.Inspect(ts)

	// construct a pre-configured client
	c := httptestutil.Client(ts, apiclient.Post("/echo"), apiclient.Body("ping"))
	body, _ := apiclient.Call(context.Background(), c, apiclient.HTTP[string](), apiclient.String())

	ex := is.LastExchange()
	fmt.Println("server received: " + ex.RequestBody.String())
	fmt.Println("server sent: " + strconv.Itoa(ex.StatusCode))
	fmt.Println("server sent: " + ex.ResponseBody.String())
	fmt.Println("client received: " + body)

	// Output:
	// server received: ping
	// server sent: 201
	// server sent: pong
	// client received: pong
}
