package httptestutil

import (
	"bytes"
	"net/http"

	"github.com/felixge/httpsnoop"
)

// Exchange is a snapshot of one request/response exchange with the server.
type Exchange struct {
	Request     *http.Request
	RequestBody *bytes.Buffer

	StatusCode   int
	Header       http.Header
	ResponseBody *bytes.Buffer
}

// Inspector is server-side middleware which captures exchanges in a buffered
// channel.  If the buffer fills, further exchanges are dropped.
//
// Exchanges can be received from the channel directly, or with NextExchange(),
// LastExchange() and Drain().
type Inspector struct {
	Exchanges chan Exchange
}

// NewInspector creates a new Inspector with the given channel buffer size.  If
// 0, the size defaults to 50.
func NewInspector(size int) *Inspector {
	if size == 0 {
		size = 50
	}
	return &Inspector{
		Exchanges: make(chan Exchange, size),
	}
}

// NextExchange receives the next exchange from the channel, or returns nil if
// none is ready.  It doesn't block.
func (b *Inspector) NextExchange() *Exchange {
	select {
	case e := <-b.Exchanges:
		return &e
	default:
		return nil
	}
}

// LastExchange returns the most recent exchange, draining the channel.  It
// returns nil if no exchange is ready, and doesn't block.
func (b *Inspector) LastExchange() *Exchange {
	var e *Exchange
	for {
		select {
		case ex := <-b.Exchanges:
			e = &ex
		default:
			return e
		}
	}
}

// Drain returns all the buffered exchanges, oldest first.
func (b *Inspector) Drain() []*Exchange {
	var exchanges []*Exchange
	for {
		ex := b.NextExchange()
		if ex == nil {
			return exchanges
		}
		exchanges = append(exchanges, ex)
	}
}

// Clear drains the channel.
func (b *Inspector) Clear() {
	if b == nil {
		return
	}
	b.Drain()
}

// Wrap installs the inspector around handler.  A nil handler means
// http.DefaultServeMux.
func (b *Inspector) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ex := Exchange{
			Request:     r,
			RequestBody: captureRequestBody(r),
		}

		serve(next, httpsnoop.Wrap(w, hooks(w, &ex)), r)

		select {
		case b.Exchanges <- ex:
		default:
			// channel is full, drop
		}
	})
}
