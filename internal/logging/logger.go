package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BUntulis/filesync/internal/errors"
)

// Mode selects where log output goes.
type Mode string

const (
	ModeNone    Mode = "none"
	ModeConsole Mode = "console"
	ModeFile    Mode = "file"
	ModeBoth    Mode = "both"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNone, ModeConsole, ModeFile, ModeBoth:
		return Mode(s), nil
	}
	return "", errors.ValidationError("invalid log type %q: must be one of none, console, file, both", s)
}

type Logger struct {
	*zap.Logger
}

// NewLogger builds a logger for the given sink mode. File sinks append to
// logFile, creating it if needed. ModeNone returns a no-op logger so callers
// never have to nil-check.
func NewLogger(mode Mode, logFile string) (*Logger, error) {
	if mode == ModeNone {
		return &Logger{zap.NewNop()}, nil
	}

	var cores []zapcore.Core

	if mode == ModeConsole || mode == ModeBoth {
		encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zapcore.InfoLevel))
	}

	if mode == ModeFile || mode == ModeBoth {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file %s: %w", logFile, err)
		}
		encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(f), zapcore.InfoLevel))
	}

	return &Logger{zap.New(zapcore.NewTee(cores...))}, nil
}
