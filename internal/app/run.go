package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"schedsim/internal/ctxlog"
	"schedsim/internal/job"
	"schedsim/internal/report"
	"schedsim/internal/sched"
	"schedsim/internal/telemetry"
)

// Run executes one simulation based on the app's configuration.
func (a *App) Run(ctx context.Context) (err error) {
	logger := a.logger

	var tel *telemetry.Telemetry
	if a.config.TelemetryPath != "" {
		var stop func() error
		if tel, stop, err = a.startTelemetry(ctx); err != nil {
			return err
		}
		defer func() { err = errors.Join(err, stop()) }()
		logger = tel.Logger
	}
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("App.Run method started.")

	w, err := a.loadWorkload(ctx)
	if err != nil {
		return fmt.Errorf("failed to load workload: %w", err)
	}
	cfg, err := a.engineConfig(ctx, w)
	if err != nil {
		return fmt.Errorf("failed to resolve engine config: %w", err)
	}
	tasks, err := w.Build()
	if err != nil {
		return err
	}
	policy, err := sched.ParsePolicy(cfg.Policy)
	if err != nil {
		return err
	}

	runID := a.newRunID()
	opts := []sched.Option{sched.WithLogger(logger.With("run_id", runID))}
	if a.config.TickLimit > 0 {
		opts = append(opts, sched.WithTickLimit(a.config.TickLimit))
	}

	var sink *report.CSVSink
	if a.config.EventsCSV != "" {
		f, err := os.Create(a.config.EventsCSV)
		if err != nil {
			return fmt.Errorf("failed to create event log: %w", err)
		}
		defer f.Close()
		sink = report.NewCSVSink(f)
		opts = append(opts, sched.WithObserver(sink))
	}

	var run *telemetry.Run
	if tel != nil {
		_, run = tel.Recorder.StartRun(ctx, runID, w.Name, policy, len(tasks))
		opts = append(opts, sched.WithObserver(run))
	}

	s, err := sched.New(cfg, tasks, opts...)
	if err != nil {
		if run != nil {
			run.Fail(err)
		}
		return fmt.Errorf("failed to set up simulation: %w", err)
	}
	res := s.Run()
	if run != nil {
		run.End(res)
	}

	if sink != nil {
		if err := sink.Flush(); err != nil {
			return fmt.Errorf("failed to write event log: %w", err)
		}
	}
	if a.config.TraceCSV != "" {
		if err := writeTraceFile(a.config.TraceCSV, res); err != nil {
			return err
		}
	}

	rep := &report.Report{RunID: runID, Workload: w.Name, Result: res}
	if err := report.Write(a.outW, report.Format(a.config.Format), rep); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	logger.Debug("App.Run method finished.")
	return nil
}

func (a *App) loadWorkload(ctx context.Context) (*job.Workload, error) {
	switch {
	case a.config.Preset != "":
		return job.Preset(a.config.Preset)
	case a.config.RandomTasks > 0:
		return job.Random(a.config.Seed, a.config.RandomTasks), nil
	default:
		return job.Load(ctx, a.config.WorkloadPath)
	}
}

// engineConfig resolves the engine config. Later sources win: config file,
// then the workload's embedded config, then command-line overrides.
func (a *App) engineConfig(ctx context.Context, w *job.Workload) (sched.Config, error) {
	logger := ctxlog.FromContext(ctx)

	cfg, err := sched.LoadStrict(a.config.ConfigPath)
	if err != nil {
		return sched.Config{}, err
	}
	if w.Config != nil {
		logger.Debug("Using the workload's embedded config.", "workload", w.Name)
		cfg = *w.Config
	}
	if a.config.Policy != "" {
		cfg.Policy = a.config.Policy
	}
	if a.config.Quantum > 0 {
		cfg.Quantum = a.config.Quantum
	}
	if a.config.Truncate {
		cfg.TruncateHorizon = true
	}
	cfg = cfg.Normalize()
	logger.Debug("Engine config resolved.", "policy", cfg.Policy, "quantum", cfg.Quantum)
	return cfg, cfg.Validate()
}

// startTelemetry sets up the exporters. stop flushes them and closes the output.
func (a *App) startTelemetry(ctx context.Context) (*telemetry.Telemetry, func() error, error) {
	w, closeW, err := a.openOutput(a.config.TelemetryPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open telemetry output: %w", err)
	}
	tel, err := telemetry.Setup(ctx, w)
	if err != nil {
		return nil, nil, errors.Join(fmt.Errorf("failed to set up telemetry: %w", err), closeW())
	}
	stop := func() error {
		return errors.Join(tel.Shutdown(context.WithoutCancel(ctx)), closeW())
	}
	return tel, stop, nil
}

// openOutput opens path for writing; "-" is the app's log writer.
func (a *App) openOutput(path string) (io.Writer, func() error, error) {
	if path == "-" {
		return a.logW, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func writeTraceFile(path string, res *sched.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create trace file: %w", err)
	}
	if err := report.WriteTraceCSV(f, res); err != nil {
		f.Close()
		return fmt.Errorf("failed to write trace file: %w", err)
	}
	return f.Close()
}
