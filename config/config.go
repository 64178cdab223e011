// Package config loads client settings from a config file, .env files and
// APICLIENT_* environment variables, and turns them into apiclient Options.
package config

import (
	"time"

	"github.com/ThalesGroup/apiclient"
	"github.com/ThalesGroup/apiclient/httpclient"
	"github.com/ThalesGroup/apiclient/logging"
	"github.com/ansel1/merry"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

// EnvPrefix prefixes the environment variables read by Load, e.g.
// APICLIENT_BASE_URL.
const EnvPrefix = "APICLIENT"

// Settings holds the configuration of a client.
type Settings struct {
	BaseURL       string            `mapstructure:"base_url"`
	Timeout       time.Duration     `mapstructure:"timeout"`
	LogLevel      string            `mapstructure:"log_level"`
	LogFormat     string            `mapstructure:"log_format"`
	RetryAttempts int               `mapstructure:"retry_attempts"`
	RetryBackoff  time.Duration     `mapstructure:"retry_backoff"`
	RateLimit     float64           `mapstructure:"rate_limit"`
	RateBurst     int               `mapstructure:"rate_burst"`
	Headers       map[string]string `mapstructure:"headers"`
	SkipVerify    bool              `mapstructure:"skip_verify"`
}

// Load reads Settings.  envFiles are loaded into the environment first; they
// don't override variables which are already set.  configFile is optional;
// its type is taken from its extension.  Environment variables override the
// file, which overrides the defaults.
func Load(configFile string, envFiles ...string) (*Settings, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, merry.Prepend(err, "loading env files")
		}
	}

	v := viper.New()

	v.SetDefault("base_url", "")
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", logging.FormatJSON)
	v.SetDefault("retry_attempts", 1)
	v.SetDefault("retry_backoff", 0)
	v.SetDefault("rate_limit", 0)
	v.SetDefault("rate_burst", 1)
	v.SetDefault("headers", map[string]string{})
	v.SetDefault("skip_verify", false)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, merry.Prependf(err, "reading config file %s", configFile)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, merry.Prepend(err, "unmarshal config")
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the settings for values which can't be used.
func (s *Settings) Validate() error {
	if s.Timeout < 0 {
		return merry.New("invalid timeout (must not be negative)")
	}
	if s.RetryAttempts < 1 {
		return merry.New("invalid retry_attempts (must be at least 1)")
	}
	if s.RetryBackoff < 0 {
		return merry.New("invalid retry_backoff (must not be negative)")
	}
	if s.RateLimit < 0 {
		return merry.New("invalid rate_limit (must not be negative)")
	}
	if s.RateLimit > 0 && s.RateBurst < 1 {
		return merry.New("invalid rate_burst (must be at least 1)")
	}
	if _, err := logging.ParseLevel(s.LogLevel); err != nil {
		return err
	}
	return nil
}

// Options converts the settings into client options: the base URL, headers, a
// logger, an http.Client with the timeout and TLS settings, retries, and rate
// limiting.  m wraps the http.Client inside the retries, so it sees every
// attempt.
func (s *Settings) Options(m ...apiclient.DoerMiddleware) ([]apiclient.Option, error) {
	var opts []apiclient.Option

	if s.BaseURL != "" {
		opts = append(opts, apiclient.URL(s.BaseURL))
	}
	for name, value := range s.Headers {
		opts = append(opts, apiclient.Header(name, value))
	}

	logger, err := logging.New(logging.Config{Level: s.LogLevel, Format: s.LogFormat})
	if err != nil {
		return nil, err
	}
	opts = append(opts, apiclient.Logger(logger))

	hc, err := httpclient.New(httpclient.Timeout(s.Timeout), httpclient.SkipVerify(s.SkipVerify))
	if err != nil {
		return nil, err
	}
	var doerMiddleware []apiclient.DoerMiddleware
	if s.RetryAttempts > 1 {
		rc := &apiclient.RetryConfig{
			MaxAttempts: s.RetryAttempts,
			Logger:      logger,
		}
		if s.RetryBackoff > 0 {
			backoff := apiclient.DefaultBackoff
			backoff.BaseDelay = s.RetryBackoff
			rc.Backoff = &backoff
		}
		doerMiddleware = append(doerMiddleware, apiclient.Retry(rc))
	}
	opts = append(opts, apiclient.WithDoer(hc, append(doerMiddleware, m...)...))

	if s.RateLimit > 0 {
		opts = append(opts, apiclient.RateLimit(rate.NewLimiter(rate.Limit(s.RateLimit), s.RateBurst)))
	}

	return opts, nil
}

// Client builds a client from the settings, with extra options applied last.
func (s *Settings) Client(extra ...apiclient.Option) (*apiclient.APIClient, error) {
	opts, err := s.Options()
	if err != nil {
		return nil, err
	}
	return apiclient.New(append(opts, extra...)...)
}
