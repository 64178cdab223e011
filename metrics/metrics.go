// Package metrics records Prometheus metrics for apiclient calls.
//
//     reg := prometheus.NewRegistry()
//     c, err := apiclient.New(metrics.NewCollector(reg, "billing"))
//
// A Collector is both an apiclient.Option and an apiclient.Middleware.  Install
// it first, so the metrics cover the rest of the middleware chain.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ThalesGroup/apiclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector records call counts, durations, in-flight calls and errors.  It is
// safe for concurrent use.
type Collector struct {
	client string

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec
	errorsTotal      *prometheus.CounterVec
}

// NewCollector registers the metrics with registry.  client labels every
// sample, so several clients can share a registry.  Panics if the metrics are
// already registered.
func NewCollector(registry prometheus.Registerer, client string) *Collector {
	return &Collector{
		client: client,
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "apiclient_requests_total",
				Help: "Total number of API calls which got a response",
			},
			[]string{"client", "method", "host", "status_code"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "apiclient_request_duration_seconds",
				Help:    "Duration of API calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"client", "method", "host"},
		),
		requestsInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "apiclient_requests_in_flight",
				Help: "Number of API calls currently in flight",
			},
			[]string{"client", "method", "host"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "apiclient_errors_total",
				Help: "Total number of API calls which failed in transit",
			},
			[]string{"client", "method", "host"},
		),
	}
}

// Apply implements apiclient.Option.
func (c *Collector) Apply(client *apiclient.APIClient) error {
	return apiclient.Use(c).Apply(client)
}

// Execute implements apiclient.Middleware.
func (c *Collector) Execute(ctx context.Context, req *apiclient.Request, body *apiclient.RequestBody, configs apiclient.Configs, next apiclient.Handler) (any, *http.Response, error) {
	method, host := req.EffectiveMethod(), req.FullURL().Host

	inFlight := c.requestsInFlight.WithLabelValues(c.client, method, host)
	inFlight.Inc()
	defer inFlight.Dec()

	start := time.Now()
	payload, resp, err := next(ctx, req, body, configs)
	c.requestDuration.WithLabelValues(c.client, method, host).Observe(time.Since(start).Seconds())

	if err != nil {
		c.errorsTotal.WithLabelValues(c.client, method, host).Inc()
	}
	if resp != nil {
		c.requestsTotal.WithLabelValues(c.client, method, host, strconv.Itoa(resp.StatusCode)).Inc()
	}
	return payload, resp, err
}
