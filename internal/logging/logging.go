// Package logging builds the zap logger used by the CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger writing to stderr at the given level ("debug", "info",
// "warn", "error"). json selects the JSON encoder instead of the console one.
func New(level string, json bool) (*zap.Logger, zap.AtomicLevel, error) {
	return NewWithWriter(os.Stderr, level, json)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level string, json bool) (*zap.Logger, zap.AtomicLevel, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	atom := zap.NewAtomicLevelAt(lvl)

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC1123Z)
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	if json {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), atom)
	return zap.New(core), atom, nil
}
