// Copyright 2025 The syncguard Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package guard

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kolkov/syncguard/internal/guard/errsink"
)

// RWMutex is a shared/exclusive lock: any number of readers, or exactly
// one writer, never both. Unlock dispatches to whichever mode is active
// and fails with ErrNotLocked when neither is.
//
// The lock is built from two token channels. The write token is held by
// the writer, or collectively by the reader group (the first reader in
// takes it, the last reader out returns it). The reader gate serializes
// reader-count transitions so that "first" and "last" are well defined.
// While a blocked write acquisition holds no token, a first reader
// waiting for the write token holds the gate, which also holds back new
// readers until the writer releases; this keeps a waiting writer from
// starving behind a stream of new readers.
type RWMutex struct {
	wtok chan struct{} // write token
	gate chan struct{} // reader gate

	mu      sync.Mutex // guards the fields below
	readers int
	writer  bool
	closed  bool
}

// NewRWMutex returns an RWMutex held by nobody.
func NewRWMutex() *RWMutex {
	return &RWMutex{
		wtok: make(chan struct{}, 1),
		gate: make(chan struct{}, 1),
	}
}

func (l *RWMutex) check() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	return nil
}

func (l *RWMutex) addReader() {
	l.mu.Lock()
	l.readers++
	l.mu.Unlock()
}

// RLock acquires the lock in shared mode, blocking while a writer holds
// it.
func (l *RWMutex) RLock() error {
	if err := l.check(); err != nil {
		return err
	}
	acquire(l.gate)
	if l.Readers() == 0 {
		acquire(l.wtok)
	}
	l.addReader()
	release(l.gate)
	return nil
}

// TryRLock acquires shared mode iff it is immediately available.
func (l *RWMutex) TryRLock() (bool, error) {
	if err := l.check(); err != nil {
		return false, err
	}
	if !tryAcquire(l.gate) {
		return false, nil
	}
	if l.Readers() == 0 && !tryAcquire(l.wtok) {
		release(l.gate)
		return false, nil
	}
	l.addReader()
	release(l.gate)
	return true, nil
}

// TimedRLock acquires shared mode, blocking up to the deadline computed
// from d, returning false, nil on timeout.
func (l *RWMutex) TimedRLock(d Duration) (bool, error) {
	if err := l.check(); err != nil {
		return false, err
	}
	timer, err := d.timer(time.Now())
	if err != nil {
		return false, err
	}
	defer timer.Stop()
	if !acquireUntil(l.gate, timer.C) {
		return false, nil
	}
	if l.Readers() == 0 && !acquireUntil(l.wtok, timer.C) {
		// Deadline hit while the write side was held; restore the gate
		// so other readers and the writer's eventual release proceed.
		release(l.gate)
		return false, nil
	}
	l.addReader()
	release(l.gate)
	return true, nil
}

// WLock acquires the lock in exclusive mode, blocking while readers or
// another writer hold it.
func (l *RWMutex) WLock() error {
	if err := l.check(); err != nil {
		return err
	}
	acquire(l.wtok)
	l.mu.Lock()
	l.writer = true
	l.mu.Unlock()
	return nil
}

// TryWLock acquires exclusive mode iff it is immediately available.
func (l *RWMutex) TryWLock() (bool, error) {
	if err := l.check(); err != nil {
		return false, err
	}
	if !tryAcquire(l.wtok) {
		return false, nil
	}
	l.mu.Lock()
	l.writer = true
	l.mu.Unlock()
	return true, nil
}

// TimedWLock acquires exclusive mode, blocking up to the deadline
// computed from d, returning false, nil on timeout.
func (l *RWMutex) TimedWLock(d Duration) (bool, error) {
	if err := l.check(); err != nil {
		return false, err
	}
	timer, err := d.timer(time.Now())
	if err != nil {
		return false, err
	}
	defer timer.Stop()
	if !acquireUntil(l.wtok, timer.C) {
		return false, nil
	}
	l.mu.Lock()
	l.writer = true
	l.mu.Unlock()
	return true, nil
}

// Unlock releases whichever mode is currently held, preferring the
// writer if both were ever observed (which the invariant rules out).
// The mode bookkeeping is updated before the native release.
func (l *RWMutex) Unlock() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	if l.writer {
		l.writer = false
		l.mu.Unlock()
		release(l.wtok)
		return nil
	}
	if l.readers > 0 {
		l.mu.Unlock()
		// The gate is never held for long while readers exist: a first
		// reader blocks on the write token only when the count is zero.
		acquire(l.gate)
		l.mu.Lock()
		l.readers--
		last := l.readers == 0
		l.mu.Unlock()
		if last {
			release(l.wtok)
		}
		release(l.gate)
		return nil
	}
	l.mu.Unlock()
	return ErrNotLocked
}

// Readers reports the number of goroutines currently holding the lock
// in shared mode.
func (l *RWMutex) Readers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readers
}

// WriterHeld reports whether the lock is held in exclusive mode.
func (l *RWMutex) WriterHeld() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writer
}

// Close invalidates the lock. Closing while either mode is held cannot
// be completed safely; the failure is reported to the error sink and the
// process is terminated.
func (l *RWMutex) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	if l.writer || l.readers > 0 {
		readers, writer := l.readers, l.writer
		l.closed = true
		l.mu.Unlock()
		errsink.Fatal("rwmutex teardown failed",
			zap.Error(errTeardownHeld),
			zap.Int("readers", readers), zap.Bool("writer", writer))
		return sysError("rwmutex close", errTeardownHeld)
	}
	l.closed = true
	l.mu.Unlock()
	return nil
}
