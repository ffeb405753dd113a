// Package logging builds the service logger: an ectologger front backed by
// a zap core for output.
package logging

import (
	"fmt"

	"github.com/Gobusters/ectologger"
	"go.uber.org/zap"
)

// New creates the service logger. Pretty enables human-readable console
// output for local development; otherwise output is JSON.
func New(appName, level string, pretty bool) (ectologger.Logger, error) {
	var cfg zap.Config
	if pretty {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg.Level = lvl

	zl, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	sugar := zl.Sugar().With("app", appName)

	return ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) {
		sugar.Infof("%+v", msg)
	}), nil
}

// NewNoop returns a logger that discards everything. Used in tests.
func NewNoop() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}
