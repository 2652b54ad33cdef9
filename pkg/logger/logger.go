package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/lmittmann/tint"
)

var base atomic.Pointer[slog.Logger]

func init() {
	Setup(os.Getenv("ENVIRONMENT"), os.Stdout)
}

// Setup installs the process logger. Development gets coloured tint output with
// debug enabled, every other environment gets JSON at info level.
func Setup(environment string, w io.Writer) *slog.Logger {
	var handler slog.Handler
	if environment == "" || environment == "development" {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.RFC3339,
			AddSource:  true,
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: true,
		})
	}

	l := slog.New(handler)
	base.Store(l)
	slog.SetDefault(l)
	return l
}

func L() *slog.Logger {
	return base.Load()
}

func Info(msg string, args ...any) {
	log(context.Background(), slog.LevelInfo, msg, args...)
}

func Warn(msg string, args ...any) {
	log(context.Background(), slog.LevelWarn, msg, args...)
}

func Error(msg string, args ...any) {
	log(context.Background(), slog.LevelError, msg, args...)
}

func Debug(msg string, args ...any) {
	log(context.Background(), slog.LevelDebug, msg, args...)
}

// With returns a child logger carrying the given attributes, e.g. a request id.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}

// LogStoreError records a failed store call that is not surfaced to the caller.
func LogStoreError(ctx context.Context, action, path string, err error) {
	log(ctx, slog.LevelWarn, "store call failed", "action", action, "path", path, "error", err)
}

// log records the caller of the exported wrapper as the source, not this file.
func log(ctx context.Context, level slog.Level, msg string, args ...any) {
	l := L()
	if !l.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:]) // runtime.Callers, log, wrapper
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = l.Handler().Handle(ctx, r)
}
