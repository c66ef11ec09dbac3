// Copyright 2025 The syncguard Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package guard

import (
	"errors"
	"fmt"
)

// UsageError reports a programming mistake at a call site: an operation
// that correct calling code would never perform, such as locking a mutex
// the caller already holds. Usage errors are raised synchronously at the
// point of misuse and are never retried.
//
// All usage errors are sentinel values; match them with errors.Is, or
// match the whole class with errors.As:
//
//	var ue *guard.UsageError
//	if errors.As(err, &ue) { ... }
type UsageError struct {
	reason string
}

func (e *UsageError) Error() string { return e.reason }

// Sentinel usage errors. Each corresponds to exactly one misuse pattern.
var (
	// ErrDoubleLock: Lock/TryLock/TimedLock on a mutex the calling
	// goroutine already holds. Checked before the native acquire, which
	// would otherwise deadlock the goroutine against itself.
	ErrDoubleLock = &UsageError{"guard: lock already held by calling goroutine"}

	// ErrNotLocked: Unlock of a mutex or rwlock nobody holds.
	ErrNotLocked = &UsageError{"guard: unlock of unlocked primitive"}

	// ErrWrongThread: Unlock by a goroutine that is not the owner.
	ErrWrongThread = &UsageError{"guard: unlock by non-owning goroutine"}

	// ErrDoubleAcquire: semaphore Wait while the calling goroutine
	// already holds a permit from the same instance.
	ErrDoubleAcquire = &UsageError{"guard: permit already held by calling goroutine"}

	// ErrReleaseWithoutHold: semaphore Post by a goroutine holding no
	// permit from this instance.
	ErrReleaseWithoutHold = &UsageError{"guard: release of permit never acquired"}

	// ErrAlreadyStarted: Thread.Start on a handle that was started.
	ErrAlreadyStarted = &UsageError{"guard: thread already started"}

	// ErrAlreadyDetached: Thread.Detach on a detached handle.
	ErrAlreadyDetached = &UsageError{"guard: thread already detached"}

	// ErrDetachedJoin: any join variant on a detached handle.
	ErrDetachedJoin = &UsageError{"guard: join of detached thread"}

	// ErrNotRunning: join, detach, cancel, or signal on a handle whose
	// thread is not running.
	ErrNotRunning = &UsageError{"guard: thread not running"}

	// ErrClosed: any operation on a closed (or moved-from) instance.
	ErrClosed = &UsageError{"guard: use of closed primitive"}
)

// ArgumentError reports a malformed argument: an invalid relative
// duration, or a semaphore constructed with a non-positive maximum.
// Raised before any native call is attempted.
type ArgumentError struct {
	reason string
}

func (e *ArgumentError) Error() string { return e.reason }

func argErrorf(format string, args ...any) *ArgumentError {
	return &ArgumentError{reason: "guard: " + fmt.Sprintf(format, args...)}
}

// SystemError reports an unexpected failure from the underlying
// platform, distinct from expected timeout/contention results (which
// are returned as false, never as errors). It usually indicates a
// corrupted process rather than a recoverable condition.
type SystemError struct {
	// Op names the operation that observed the failure.
	Op string
	// Err is the underlying platform error.
	Err error
}

func (e *SystemError) Error() string { return "guard: " + e.Op + ": " + e.Err.Error() }

func (e *SystemError) Unwrap() error { return e.Err }

func sysError(op string, err error) *SystemError {
	return &SystemError{Op: op, Err: err}
}

// Teardown failure causes. These surface through the error sink, and as
// the SystemError cause when the terminate path is intercepted in tests.
var (
	errTeardownHeld    = errors.New("lock still held at teardown")
	errTeardownWaiters = errors.New("waiters still blocked at teardown")
)

// IsUsage reports whether err is (or wraps) a UsageError.
func IsUsage(err error) bool {
	var ue *UsageError
	return errors.As(err, &ue)
}

// IsArgument reports whether err is (or wraps) an ArgumentError.
func IsArgument(err error) bool {
	var ae *ArgumentError
	return errors.As(err, &ae)
}
