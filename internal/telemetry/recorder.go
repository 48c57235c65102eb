package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"schedsim/internal/sched"
)

// Recorder turns simulation runs into spans and metric points.
type Recorder struct {
	tracer trace.Tracer

	runs        metric.Int64Counter
	preemptions metric.Int64Counter
	misses      metric.Int64Counter
	completed   metric.Int64Counter
	utilization metric.Float64Histogram
}

// NewRecorder creates the run instruments on the given providers.
func NewRecorder(tp trace.TracerProvider, mp metric.MeterProvider) (*Recorder, error) {
	meter := mp.Meter(instrumentationName)
	r := &Recorder{tracer: tp.Tracer(instrumentationName)}

	var err error
	if r.runs, err = meter.Int64Counter("schedsim_runs_total",
		metric.WithDescription("Number of completed simulation runs"),
		metric.WithUnit("{run}")); err != nil {
		return nil, fmt.Errorf("failed to create metric: %w", err)
	}
	if r.preemptions, err = meter.Int64Counter("schedsim_preemptions_total",
		metric.WithDescription("Preemptions across all runs"),
		metric.WithUnit("{preemption}")); err != nil {
		return nil, fmt.Errorf("failed to create metric: %w", err)
	}
	if r.misses, err = meter.Int64Counter("schedsim_deadline_misses_total",
		metric.WithDescription("Deadline misses of periodic task instances"),
		metric.WithUnit("{miss}")); err != nil {
		return nil, fmt.Errorf("failed to create metric: %w", err)
	}
	if r.completed, err = meter.Int64Counter("schedsim_completed_tasks_total",
		metric.WithDescription("Completed tasks or periodic instances"),
		metric.WithUnit("{task}")); err != nil {
		return nil, fmt.Errorf("failed to create metric: %w", err)
	}
	if r.utilization, err = meter.Float64Histogram("schedsim_cpu_utilization",
		metric.WithDescription("CPU utilization of a run"),
		metric.WithUnit("%")); err != nil {
		return nil, fmt.Errorf("failed to create metric: %w", err)
	}
	return r, nil
}

// Run is one traced simulation. It is a sched.Observer that adds span events
// for deadline misses and queue migrations.
type Run struct {
	rec    *Recorder
	ctx    context.Context
	span   trace.Span
	policy sched.Policy
}

// StartRun opens the span of one simulation.
func (r *Recorder) StartRun(ctx context.Context, runID, workload string, policy sched.Policy, tasks int) (context.Context, *Run) {
	ctx, span := r.tracer.Start(ctx, "simulate", trace.WithAttributes(
		attribute.String("schedsim.run_id", runID),
		attribute.String("schedsim.workload", workload),
		attribute.String("schedsim.policy", policy.String()),
		attribute.Int("schedsim.tasks", tasks),
	))
	return ctx, &Run{rec: r, ctx: ctx, span: span, policy: policy}
}

// Observe implements sched.Observer.
func (run *Run) Observe(ev sched.Event) {
	var name string
	switch ev.Kind {
	case sched.EventDeadlineMiss:
		name = "deadline_miss"
	case sched.EventDemote:
		name = "demote"
	case sched.EventPromote:
		name = "promote"
	default:
		return
	}
	run.span.AddEvent(name, trace.WithAttributes(
		attribute.Int64("schedsim.tick", ev.Tick),
		attribute.Int("schedsim.task_id", int(ev.TaskID)),
		attribute.Int("schedsim.level", ev.Level),
		attribute.Int64("schedsim.deadline", ev.Deadline),
	))
}

// End records the outcome of the run and closes its span.
func (run *Run) End(res *sched.Result) {
	m := res.Metrics
	attrs := metric.WithAttributes(attribute.String("policy", run.policy.String()))

	run.rec.runs.Add(run.ctx, 1, attrs)
	run.rec.preemptions.Add(run.ctx, int64(m.Preemptions), attrs)
	run.rec.misses.Add(run.ctx, int64(m.DeadlineMisses), attrs)
	run.rec.completed.Add(run.ctx, int64(m.Completed), attrs)
	run.rec.utilization.Record(run.ctx, m.Utilization, attrs)

	run.span.SetAttributes(
		attribute.Int64("schedsim.horizon", res.Horizon),
		attribute.Bool("schedsim.partial", res.Partial),
		attribute.Int64("schedsim.makespan", m.Makespan),
		attribute.Float64("schedsim.utilization", m.Utilization),
		attribute.Int("schedsim.preemptions", m.Preemptions),
		attribute.Int("schedsim.deadline_misses", m.DeadlineMisses),
	)
	if res.Analysis != nil {
		run.span.SetAttributes(attribute.String("schedsim.verdict", res.Analysis.Verdict.String()))
	}
	run.span.End()
}

// Fail closes the span of a run that could not start.
func (run *Run) Fail(err error) {
	run.span.RecordError(err)
	run.span.SetStatus(codes.Error, err.Error())
	run.span.End()
}
