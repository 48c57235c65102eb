// Package telemetry exports simulation runs as OpenTelemetry traces, metrics
// and logs. Everything goes to one writer through the stdout exporters.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const instrumentationName = "schedsim/internal/telemetry"

// Telemetry owns the SDK providers of one process.
type Telemetry struct {
	// Logger writes through the otelslog bridge into the log exporter.
	Logger   *slog.Logger
	Recorder *Recorder

	shutdown []func(context.Context) error
}

// Setup builds tracer, meter and logger providers that export to w. Metrics
// are pushed on Shutdown at the latest, so the caller must always call it.
func Setup(ctx context.Context, w io.Writer) (*Telemetry, error) {
	w = &syncWriter{w: w}
	t := &Telemetry{}

	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", "schedsim"),
	))
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}

	traceExp, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExp), sdktrace.WithResource(res))
	t.shutdown = append(t.shutdown, tp.Shutdown)

	metricExp, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("metric exporter: %w", err), t.Shutdown(ctx))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
		sdkmetric.WithResource(res),
	)
	t.shutdown = append(t.shutdown, mp.Shutdown)

	logExp, err := stdoutlog.New(stdoutlog.WithWriter(w))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("log exporter: %w", err), t.Shutdown(ctx))
	}
	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExp)),
		sdklog.WithResource(res),
	)
	t.shutdown = append(t.shutdown, lp.Shutdown)

	t.Logger = otelslog.NewLogger(instrumentationName, otelslog.WithLoggerProvider(lp))
	t.Recorder, err = NewRecorder(tp, mp)
	if err != nil {
		return nil, errors.Join(err, t.Shutdown(ctx))
	}
	return t, nil
}

// Shutdown flushes and stops every provider. Errors are joined.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var err error
	for _, fn := range t.shutdown {
		err = errors.Join(err, fn(ctx))
	}
	t.shutdown = nil
	return err
}

// syncWriter serialises the exporters, which write from their own goroutines.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
