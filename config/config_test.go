package config

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThalesGroup/apiclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_defaults(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, s.Timeout)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, "json", s.LogFormat)
	assert.Equal(t, 1, s.RetryAttempts)
	assert.Zero(t, s.RateLimit)
	assert.False(t, s.SkipVerify)
}

func TestLoad_file(t *testing.T) {
	path := writeFile(t, "client.yaml", `
base_url: https://api.example.com/v1/
timeout: 5s
retry_attempts: 4
rate_limit: 2.5
rate_burst: 3
headers:
  X-Tenant: acme
`)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/v1/", s.BaseURL)
	assert.Equal(t, 5*time.Second, s.Timeout)
	assert.Equal(t, 4, s.RetryAttempts)
	assert.InDelta(t, 2.5, s.RateLimit, 0.001)
	assert.Equal(t, 3, s.RateBurst)
	// viper lowercases keys
	assert.Equal(t, map[string]string{"x-tenant": "acme"}, s.Headers)
}

func TestLoad_env(t *testing.T) {
	path := writeFile(t, "client.yaml", "timeout: 5s\nlog_level: warn\n")
	t.Setenv("APICLIENT_TIMEOUT", "2s")
	t.Setenv("APICLIENT_SKIP_VERIFY", "true")

	envFile := writeFile(t, ".env", "APICLIENT_RETRY_ATTEMPTS=6\n")
	t.Cleanup(func() { _ = os.Unsetenv("APICLIENT_RETRY_ATTEMPTS") })

	s, err := Load(path, envFile)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, s.Timeout)
	assert.True(t, s.SkipVerify)
	assert.Equal(t, "warn", s.LogLevel)
	assert.Equal(t, 6, s.RetryAttempts)
}

func TestLoad_errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load("", filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "client.yaml", "retry_attempts: 0\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "client.yaml", "log_level: loud\n"))
	assert.Error(t, err)
}

func TestSettings_Validate(t *testing.T) {
	valid := Settings{RetryAttempts: 1, LogLevel: "info"}
	require.NoError(t, valid.Validate())

	tests := map[string]func(s *Settings){
		"negative timeout":    func(s *Settings) { s.Timeout = -1 },
		"no attempts":         func(s *Settings) { s.RetryAttempts = 0 },
		"negative backoff":    func(s *Settings) { s.RetryBackoff = -1 },
		"negative rate limit": func(s *Settings) { s.RateLimit = -1 },
		"no burst":            func(s *Settings) { s.RateLimit, s.RateBurst = 1, 0 },
		"bad level":           func(s *Settings) { s.LogLevel = "loud" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			s := valid
			mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestSettings_Client(t *testing.T) {
	var attempts int32
	var tenant string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant = r.Header.Get("X-Tenant")
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"path":"` + r.URL.Path + `"}`))
	}))
	defer ts.Close()

	s := &Settings{
		BaseURL:       ts.URL + "/v1/",
		Timeout:       time.Second,
		LogLevel:      "error",
		RetryAttempts: 2,
		RetryBackoff:  10 * time.Millisecond,
		RateLimit:     100,
		RateBurst:     1,
		Headers:       map[string]string{"x-tenant": "acme"},
	}

	c, err := s.Client(apiclient.RelativeURL("users"), apiclient.ExpectSuccessCode())
	require.NoError(t, err)

	v, err := apiclient.Decode[map[string]string](context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "/v1/users", v["path"])
	assert.Equal(t, "acme", tenant)
	assert.EqualValues(t, 2, atomic.LoadInt32(&attempts))
}

func TestSettings_Options_badLogFormat(t *testing.T) {
	s := &Settings{RetryAttempts: 1, LogFormat: "xml"}
	_, err := s.Options()
	assert.Error(t, err)
}
