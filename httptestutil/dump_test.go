package httptestutil

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/ThalesGroup/apiclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pingPong(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	c := Client(ts, apiclient.Post("/test"), apiclient.Body("ping"), apiclient.ExpectCode(201))
	body, err := apiclient.Call(context.Background(), c, apiclient.HTTP[string](), apiclient.String())
	require.NoError(t, err)
	return body
}

func TestDump(t *testing.T) {
	ts := httptest.NewServer(apiclient.MockHandler(201,
		apiclient.Body("pong"),
		apiclient.JSON(true),
	))
	defer ts.Close()

	buf := bytes.NewBuffer(nil)
	Dump(ts, buf)

	assert.Equal(t, "pong", pingPong(t, ts))
	require.NotEmpty(t, buf.Bytes())
	assert.Contains(t, buf.String(), "ping")
	assert.Contains(t, buf.String(), "pong")
	assert.Contains(t, buf.String(), "201")
}

func TestDumpToLog(t *testing.T) {
	ts := httptest.NewServer(apiclient.MockHandler(201, apiclient.Body("pong")))
	defer ts.Close()

	var logged []string
	DumpToLog(ts, func(a ...interface{}) {
		for _, v := range a {
			logged = append(logged, v.(string))
		}
	})

	assert.Equal(t, "pong", pingPong(t, ts))
	require.Len(t, logged, 2)
	assert.Contains(t, logged[0], "ping")
	assert.Contains(t, logged[1], "pong")
}

func TestDump_withInspect(t *testing.T) {
	tests := []struct {
		name string
		f    func(*httptest.Server) (*bytes.Buffer, *Inspector)
	}{
		{"dumptheninspect", func(ts *httptest.Server) (*bytes.Buffer, *Inspector) {
			buf := bytes.Buffer{}
			Dump(ts, &buf)
			return &buf, Inspect(ts)
		}},
		{"inspectthendump", func(ts *httptest.Server) (*bytes.Buffer, *Inspector) {
			buf := bytes.Buffer{}
			i := Inspect(ts)
			Dump(ts, &buf)
			return &buf, i
		}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ts := httptest.NewServer(apiclient.MockHandler(201,
				apiclient.Body("pong"),
				apiclient.JSON(true),
			))
			defer ts.Close()

			buf, i := test.f(ts)

			assert.Equal(t, "pong", pingPong(t, ts))
			assert.Contains(t, buf.String(), "ping")
			assert.Contains(t, buf.String(), "pong")

			ex := i.LastExchange()
			require.NotNil(t, ex)
			assert.Equal(t, 201, ex.StatusCode)
			assert.Equal(t, "ping", ex.RequestBody.String())
			assert.Equal(t, "pong", ex.ResponseBody.String())
		})
	}
}

func TestDumpTo_nilhandler(t *testing.T) {
	ts := httptest.NewServer(nil)
	defer ts.Close()

	var buf bytes.Buffer
	ts.Config.Handler = DumpTo(ts.Config.Handler, &buf)

	err := apiclient.Exec(context.Background(), Client(ts))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "404")
}
