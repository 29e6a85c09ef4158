// Package logging provides the file-backed zap logger for DocVest.
// A TUI owns the terminal, so all diagnostics go to a rotating log
// file; nothing is ever written to stdout or stderr after startup.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu   sync.RWMutex
	base = zap.NewNop()
	sink *lumberjack.Logger
)

// Init routes all logging to the given file with rotation. Call once
// at startup, before the TUI takes over the terminal.
func Init(path string, debug bool) {
	mu.Lock()
	defer mu.Unlock()

	sink = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	}

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.AddSync(sink),
		level,
	)
	base = zap.New(core)
}

// L returns a named logger for a subsystem ("api", "poll", "inbox",
// "ui"). Safe to call before Init; it is a no-op logger until then.
func L(name string) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.Named(name)
}

// Sync flushes buffered entries and closes the sink. Call at shutdown.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	_ = base.Sync()
	if sink != nil {
		_ = sink.Close()
		sink = nil
	}
	base = zap.NewNop()
}
