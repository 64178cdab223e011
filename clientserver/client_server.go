// Package clientserver is a utility for writing HTTP tests.
//
// A ClientServer embeds an httptest.Server and an apiclient.APIClient which is
// preconfigured to call it.  Both sides of every exchange are captured.
package clientserver

import (
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/ThalesGroup/apiclient"
	"github.com/ThalesGroup/apiclient/httptestutil"
)

// A ClientServer is an http server and an APIClient preconfigured to talk to
// it.  It should be closed at the end of the test.
type ClientServer struct {
	*httptest.Server

	// Handler serves the requests.  It can be replaced at any time.
	Handler http.Handler

	client *apiclient.APIClient

	mu            sync.Mutex
	lastSrvReq    *http.Request
	srvInspector  *httptestutil.Inspector
	clientCapture apiclient.Inspector
}

// New creates a new ClientServer around s, or around a new server with no
// handler if s is nil.  The options are applied to the client.
//
// Panics if the options cause an error.
func New(s *httptest.Server, options ...apiclient.Option) *ClientServer {
	if s == nil {
		s = httptest.NewServer(nil)
	}
	cs := &ClientServer{
		Server:  s,
		Handler: s.Config.Handler,
	}

	// insert ourselves in the handler chain before the real handler
	s.Config.Handler = http.HandlerFunc(cs.serveHTTP)

	opts := append([]apiclient.Option{
		apiclient.URL(s.URL),
		apiclient.WithDoer(s.Client()),
		&cs.clientCapture,
	}, options...)
	cs.client = apiclient.MustNew(opts...)

	return cs
}

// Client returns the preconfigured client, with opts applied to a copy.
func (cs *ClientServer) Client(opts ...apiclient.Option) *apiclient.APIClient {
	return cs.client.MustWith(opts...)
}

// Clear clears the captured exchange.
func (cs *ClientServer) Clear() {
	cs.mu.Lock()
	cs.lastSrvReq = nil
	cs.mu.Unlock()
	cs.clientCapture.Clear()
	cs.srvInspector.Clear()
}

// LastServerRequest returns the last request handled by the server.
func (cs *ClientServer) LastServerRequest() *http.Request {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.lastSrvReq
}

// InspectClient returns the inspector capturing the client side of exchanges.
func (cs *ClientServer) InspectClient() *apiclient.Inspector {
	return &cs.clientCapture
}

// InspectServer starts capturing the server side of exchanges, and returns the
// inspector.  Exchanges made before the first call aren't captured.
func (cs *ClientServer) InspectServer() *httptestutil.Inspector {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.srvInspector == nil {
		cs.srvInspector = httptestutil.NewInspector(0)
	}
	return cs.srvInspector
}

func (cs *ClientServer) serveHTTP(w http.ResponseWriter, req *http.Request) {
	cs.mu.Lock()
	cs.lastSrvReq = req
	handler, inspector := cs.Handler, cs.srvInspector
	cs.mu.Unlock()

	if handler == nil {
		handler = http.NotFoundHandler()
	}
	if inspector != nil {
		handler = inspector.Wrap(handler)
	}
	handler.ServeHTTP(w, req)
}

// Mux returns the handler if it's a ServeMux.  Otherwise, a new ServeMux is
// installed as the handler and returned.
func (cs *ClientServer) Mux() *http.ServeMux {
	if m, ok := cs.Handler.(*http.ServeMux); ok {
		return m
	}
	m := http.NewServeMux()
	cs.Handler = m
	return m
}

// HandlerFunc installs hf as the handler.
func (cs *ClientServer) HandlerFunc(hf http.HandlerFunc) {
	cs.Handler = hf
}
