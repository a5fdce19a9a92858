// Package logging builds the process-wide zap logger. Logs go to stderr so
// command results on stdout stay machine-parseable.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a logger at the given level. Verbose switches to the console
// encoder with debug level for interactive troubleshooting.
func New(verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	encoding := "json"
	if verbose {
		level = zapcore.DebugLevel
		encoding = "console"
	}

	cfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Encoding:          encoding,
		EncoderConfig:     encoderConfig(verbose),
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     true,
		DisableStacktrace: !verbose,
	}

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func encoderConfig(verbose bool) zapcore.EncoderConfig {
	if verbose {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return ec
	}
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	return ec
}
