package app

import (
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// App encapsulates the driver's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer // report
	logW   io.Writer // logs and telemetry
	logger *slog.Logger
	config *Config

	newRunID func() string
}

// NewApp is the constructor for the application. The report goes to outW and
// the logs to logW, so machine-readable formats stay clean.
func NewApp(outW, logW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:     outW,
		logW:     logW,
		logger:   logger,
		config:   cfg,
		newRunID: uuid.NewString,
	}
}
