// Package cli implements the sankorender command-line interface.
//
// The same binary runs the HTTP rendering service and renders single
// assets from the terminal. Commands are built with cobra and log through
// charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - serve: Run the HTTP rendering service
//   - render: Render one LaTeX, Mermaid, TikZ, DOT, code or citation asset
//   - doctor: Report which external tools were discovered
//   - themes: List diagram and code themes, or pick one interactively
//   - cache: Inspect and clear the render cache
//   - config: Print the effective configuration
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Without it,
// the level and format come from the [logging] section of the config file.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Kevin-nav/sankosides-sub000/internal/config"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// configureLogger applies the [logging] section. The level is left alone
// when keepLevel is set so that --verbose wins over the file.
func configureLogger(l *log.Logger, cfg config.LoggingConfig, keepLevel bool) error {
	if !keepLevel {
		level, err := cfg.ParseLevel()
		if err != nil {
			return err
		}
		l.SetLevel(level)
	}
	if cfg.Format == "json" {
		l.SetFormatter(log.JSONFormatter)
		l.SetTimeFormat(time.RFC3339)
	}
	return nil
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, rounded to the millisecond.
// Example output: "Rendered latex (123ms)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
