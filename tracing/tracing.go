// Package tracing traces apiclient calls with OpenTelemetry, and propagates
// the trace context to the server in W3C Trace Context headers.
package tracing

import (
	"context"
	"net/http"

	"github.com/ThalesGroup/apiclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName names the tracer which records call spans.
const InstrumentationName = "github.com/ThalesGroup/apiclient/tracing"

// W3CPropagator returns a TextMapPropagator that implements W3C Trace Context
// and Baggage.
func W3CPropagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}

// Tracing is an apiclient.Option and apiclient.Middleware which wraps each call
// in a client span.
//
//     c, err := apiclient.New(&tracing.Tracing{})
type Tracing struct {
	// Provider creates the tracer.  Defaults to otel.GetTracerProvider().
	Provider trace.TracerProvider

	// Propagator injects the span context into request headers.  Defaults to
	// otel.GetTextMapPropagator().
	Propagator propagation.TextMapPropagator
}

// Apply implements apiclient.Option.
func (t *Tracing) Apply(c *apiclient.APIClient) error {
	return apiclient.Use(t).Apply(c)
}

// Execute implements apiclient.Middleware.
func (t *Tracing) Execute(ctx context.Context, req *apiclient.Request, body *apiclient.RequestBody, configs apiclient.Configs, next apiclient.Handler) (any, *http.Response, error) {
	provider := t.Provider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	propagator := t.Propagator
	if propagator == nil {
		propagator = otel.GetTextMapPropagator()
	}

	method, u := req.EffectiveMethod(), req.FullURL()
	ctx, span := provider.Tracer(InstrumentationName).Start(ctx, "HTTP "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", u.Redacted()),
			attribute.String("server.address", u.Hostname()),
		),
	)
	defer span.End()

	propagator.Inject(ctx, propagation.HeaderCarrier(req.Headers()))

	payload, resp, err := next(ctx, req, body, configs)

	if resp != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		if resp.StatusCode >= 400 {
			span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return payload, resp, err
}
