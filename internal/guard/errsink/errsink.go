// Copyright 2025 The syncguard Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errsink holds the process-wide destination for failures that
// surface during primitive teardown, where no caller exists to receive
// an error. The sink is a single swappable zap logger: last writer wins,
// and it must not be reconfigured concurrently with active teardown.
//
// The default sink writes console-encoded records to standard error and
// is constructed lazily on first use.
package errsink

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger atomic.Pointer[zap.Logger]

// exit is overridable so tests can observe the terminate path without
// killing the test process.
var exit atomic.Pointer[func(code int)]

func init() {
	f := os.Exit
	exit.Store(&f)
}

// Logger returns the current sink, constructing the stderr default if
// none has been set.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	l := defaultLogger()
	// Another goroutine may race the first use; keep whichever won.
	if logger.CompareAndSwap(nil, l) {
		return l
	}
	return logger.Load()
}

// SetLogger replaces the sink. Passing nil restores the stderr default
// on next use.
func SetLogger(l *zap.Logger) { logger.Store(l) }

func defaultLogger() *zap.Logger {
	cfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		zapcore.Lock(os.Stderr),
		zapcore.ErrorLevel,
	)
	return zap.New(core)
}

// Report records a teardown failure that is swallowed rather than
// propagated, per the library's teardown policy.
func Report(msg string, fields ...zap.Field) {
	Logger().Error(msg, fields...)
}

// Fatal records an unrecoverable teardown failure and terminates the
// process. A synchronization primitive whose teardown fails is no longer
// trustworthy; continuing risks silent corruption.
func Fatal(msg string, fields ...zap.Field) {
	l := Logger()
	l.Error(msg, fields...)
	_ = l.Sync()
	(*exit.Load())(1)
}

// SetExitFunc overrides the process-termination function used by Fatal.
// It returns the previous function. Tests only.
func SetExitFunc(f func(code int)) func(code int) {
	prev := exit.Swap(&f)
	return *prev
}
