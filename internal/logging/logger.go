// Package logging builds the zap logger shared by the commands.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects where log output goes
type Options struct {
	// Verbose lowers the level to debug and mirrors output to stderr.
	Verbose bool
	// File receives JSON log lines when set.
	File string
	// Quiet drops the stderr mirror even when Verbose is set; the chat TUI
	// owns the terminal.
	Quiet bool
}

// New builds a logger from opts. Without a file and without verbose stderr
// output it returns a no-op logger.
func New(opts Options) (*zap.Logger, error) {
	var outputs []string
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		outputs = append(outputs, opts.File)
	}
	if opts.Verbose && !opts.Quiet {
		outputs = append(outputs, "stderr")
	}
	if len(outputs) == 0 {
		return zap.NewNop(), nil
	}

	config := zap.NewProductionConfig()
	config.OutputPaths = outputs
	config.ErrorOutputPaths = []string{"stderr"}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Sampling = nil
	if opts.Verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.Named("projectbrain"), nil
}
