package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"schedsim/internal/app"
	"schedsim/internal/job"
	"schedsim/internal/report"
	"schedsim/internal/sched"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments with defaults from the process
// environment. It returns a populated app.Config, a boolean indicating if the
// program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	return ParseEnv(args, output, os.Getenv)
}

// ParseEnv is Parse with an explicit environment lookup.
func ParseEnv(args []string, output io.Writer, getenv func(string) string) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("schedsim", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprintf(output, `
schedsim - A deterministic CPU scheduling and real-time simulator.

Usage:
  schedsim [options] [TASK_FILE]

Arguments:
  TASK_FILE
    Path to a .yaml, .yml or .hcl task file.

Policies: %s
Presets:  %s

Every option can also be set through SCHEDSIM_<OPTION> (e.g. SCHEDSIM_POLICY),
read from the environment or a .env file.

Options:
`, policyNames(), strings.Join(job.Presets(), ", "))
		flagSet.PrintDefaults()
	}

	env := &envReader{getenv: getenv}

	workloadFlag := flagSet.String("workload", env.str("WORKLOAD", ""), "Path to the task file.")
	wFlag := flagSet.String("w", "", "Path to the task file (shorthand).")
	presetFlag := flagSet.String("preset", env.str("PRESET", ""), "Built-in workload to run instead of a task file.")
	randomFlag := flagSet.Int("random", env.integer("RANDOM", 0), "Generate this many random one-shot tasks.")
	seedFlag := flagSet.Int64("seed", int64(env.integer("SEED", 1)), "Seed for -random.")
	configFlag := flagSet.String("config", env.str("CONFIG", ""), "Path to the engine config file (config.yml).")
	policyFlag := flagSet.String("policy", env.str("POLICY", ""), "Scheduling policy; overrides the config file.")
	quantumFlag := flagSet.Int("quantum", env.integer("QUANTUM", 0), "Round-robin quantum; 0 keeps the configured one.")
	truncateFlag := flagSet.Bool("truncate", env.str("TRUNCATE", "") == "true", "Truncate a hyperperiod above the cap instead of failing.")
	tickLimitFlag := flagSet.Int64("tick-limit", int64(env.integer("TICK_LIMIT", 0)), "Refuse workloads that may run longer than this. 0 is unlimited.")
	formatFlag := flagSet.String("format", env.str("FORMAT", "text"), "Report format. Options: "+formatNames()+".")
	traceFlag := flagSet.String("trace-csv", env.str("TRACE_CSV", ""), "Also write the execution trace as CSV to this file.")
	eventsFlag := flagSet.String("events-csv", env.str("EVENTS_CSV", ""), "Write every scheduler event as CSV to this file.")
	telemetryFlag := flagSet.String("telemetry", env.str("TELEMETRY", ""), "Export OpenTelemetry data to this file, or '-' for stderr.")
	logFormatFlag := flagSet.String("log-format", env.str("LOG_FORMAT", "text"), "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", env.str("LOG_LEVEL", "warn"), "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if env.err != nil {
		return nil, false, &ExitError{Code: 2, Message: env.err.Error()}
	}
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *workloadFlag != "" {
		path = *workloadFlag
	} else if *wFlag != "" {
		path = *wFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Workload determined.", "path", path, "preset", *presetFlag, "random", *randomFlag)

	if path == "" && *presetFlag == "" && *randomFlag == 0 {
		slog.Debug("No workload provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		WorkloadPath:  path,
		Preset:        *presetFlag,
		RandomTasks:   *randomFlag,
		Seed:          *seedFlag,
		ConfigPath:    *configFlag,
		Policy:        *policyFlag,
		Quantum:       *quantumFlag,
		Truncate:      *truncateFlag,
		TickLimit:     *tickLimitFlag,
		Format:        *formatFlag,
		TraceCSV:      *traceFlag,
		EventsCSV:     *eventsFlag,
		TelemetryPath: *telemetryFlag,
		LogFormat:     logFormat,
		LogLevel:      logLevel,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// envReader looks up SCHEDSIM_* defaults and keeps the first parse error.
type envReader struct {
	getenv func(string) string
	err    error
}

func (e *envReader) str(name, def string) string {
	if v := e.getenv("SCHEDSIM_" + name); v != "" {
		return v
	}
	return def
}

func (e *envReader) integer(name string, def int) int {
	raw := e.getenv("SCHEDSIM_" + name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		if e.err == nil {
			e.err = fmt.Errorf("invalid SCHEDSIM_%s: %q is not an integer", name, raw)
		}
		return def
	}
	return n
}

func policyNames() string {
	names := make([]string, 0, len(sched.Policies()))
	for _, p := range sched.Policies() {
		names = append(names, p.String())
	}
	return strings.Join(names, ", ")
}

func formatNames() string {
	names := make([]string, 0, len(report.Formats()))
	for _, f := range report.Formats() {
		names = append(names, "'"+string(f)+"'")
	}
	return strings.Join(names, ", ")
}
