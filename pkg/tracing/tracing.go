// Package tracing wires the process-wide opentracing tracer.
package tracing

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
)

type Config struct {
	Enabled      bool
	ServiceName  string
	SamplingRate float64
	CollectorURL string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Init installs a jaeger tracer as the global opentracing tracer. When
// tracing is disabled the global noop tracer is left in place.
func Init(cfg Config, logger *slog.Logger) (io.Closer, error) {
	if !cfg.Enabled {
		return nopCloser{}, nil
	}

	jcfg := jaegercfg.Configuration{
		ServiceName: cfg.ServiceName,
		Sampler: &jaegercfg.SamplerConfig{
			Type:  jaeger.SamplerTypeProbabilistic,
			Param: cfg.SamplingRate,
		},
		Reporter: &jaegercfg.ReporterConfig{
			CollectorEndpoint: cfg.CollectorURL,
		},
	}

	tracer, closer, err := jcfg.NewTracer()
	if err != nil {
		return nil, fmt.Errorf("init jaeger tracer: %w", err)
	}
	opentracing.SetGlobalTracer(tracer)

	logger.Info("tracing enabled",
		"service_name", cfg.ServiceName,
		"sampling_rate", cfg.SamplingRate,
		"collector", cfg.CollectorURL)

	return closer, nil
}

// StartSpan starts a child span of whatever span ctx carries.
func StartSpan(ctx context.Context, operation string) (opentracing.Span, context.Context) {
	return opentracing.StartSpanFromContext(ctx, operation)
}

// Finish marks the span as failed when err is non-nil and finishes it.
func Finish(span opentracing.Span, err error) {
	if err != nil {
		ext.Error.Set(span, true)
		span.SetTag("error.message", err.Error())
	}
	span.Finish()
}
