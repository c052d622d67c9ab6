package main

import (
	"io"
	"os"

	"github.com/thediveo/enumflag/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/componentize-go/component"
	"github.com/wippyai/componentize-go/pipeline"
	"github.com/wippyai/componentize-go/process"
)

// LogFormat selects the log encoder.
type LogFormat enumflag.Flag

const (
	LogConsole LogFormat = iota
	LogJSON
)

var logFormatIDs = map[LogFormat][]string{
	LogConsole: {"console"},
	LogJSON:    {"json"},
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newLogger(format LogFormat, level zapcore.Level, w io.Writer) *zap.Logger {
	var enc zapcore.Encoder
	switch format {
	case LogJSON:
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	default:
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.TimeKey = ""
		cfg.CallerKey = ""
		if isTerminal(w) {
			cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		enc = zapcore.NewConsoleEncoder(cfg)
	}
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), level))
}

// installLogger routes every package logger to l.
func installLogger(l *zap.Logger) {
	process.SetLogger(l.Named("process"))
	pipeline.SetLogger(l.Named("pipeline"))
	component.SetLogger(l.Named("component"))
}
