// Copyright 2025 The syncguard Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package guard

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kolkov/syncguard/internal/guard/errsink"
	"github.com/kolkov/syncguard/internal/guard/goid"
)

// Mutex is an exclusive lock that tracks its owning goroutine and turns
// double-locking and wrong-owner unlocking into explicit errors instead
// of deadlocks or corruption.
//
// A Mutex must be created with NewMutex and is shared by reference among
// the goroutines using it. It is not reentrant: a second Lock from the
// owner fails with ErrDoubleLock rather than deadlocking the goroutine
// against itself.
type Mutex struct {
	lock chan struct{} // native exclusive lock; see token.go

	mu     sync.Mutex // guards the fields below
	owner  int64      // meaningful only while locked
	locked bool
	closed bool
}

// NewMutex returns an unlocked Mutex.
func NewMutex() *Mutex {
	return &Mutex{lock: make(chan struct{}, 1)}
}

// precheckLocked validates an acquisition attempt by gid. Caller holds
// m.mu.
func (m *Mutex) precheckLocked(gid int64) error {
	if m.closed {
		return ErrClosed
	}
	if m.locked && m.owner == gid {
		return ErrDoubleLock
	}
	return nil
}

func (m *Mutex) precheck(gid int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.precheckLocked(gid)
}

func (m *Mutex) setOwner(gid int64) {
	m.mu.Lock()
	m.locked = true
	m.owner = gid
	m.mu.Unlock()
}

// Lock blocks until the mutex is acquired, then records the calling
// goroutine as owner. Fails with ErrDoubleLock if the caller already
// owns the mutex and ErrClosed if the mutex was closed.
func (m *Mutex) Lock() error {
	gid := goid.Current()
	if err := m.precheck(gid); err != nil {
		return err
	}
	acquire(m.lock)
	m.setOwner(gid)
	return nil
}

// TryLock acquires the mutex iff it is immediately available. It returns
// false, nil when the mutex is busy; contention is an expected result,
// not an error.
func (m *Mutex) TryLock() (bool, error) {
	gid := goid.Current()
	if err := m.precheck(gid); err != nil {
		return false, err
	}
	if !tryAcquire(m.lock) {
		return false, nil
	}
	m.setOwner(gid)
	return true, nil
}

// TimedLock blocks until the mutex is acquired or the deadline computed
// from d elapses, returning false, nil on timeout.
func (m *Mutex) TimedLock(d Duration) (bool, error) {
	gid := goid.Current()
	if err := m.precheck(gid); err != nil {
		return false, err
	}
	timer, err := d.timer(time.Now())
	if err != nil {
		return false, err
	}
	defer timer.Stop()
	if !acquireUntil(m.lock, timer.C) {
		return false, nil
	}
	m.setOwner(gid)
	return true, nil
}

// Unlock releases the mutex. Fails with ErrNotLocked if nobody holds it
// and ErrWrongThread if the caller is not the owner; in both cases the
// owner/locked state is left untouched for the goroutine that does hold
// the lock.
//
// The bookkeeping is cleared before the native release so a goroutine
// that acquires the lock immediately afterwards never observes a stale
// owner.
func (m *Mutex) Unlock() error {
	gid := goid.Current()
	m.mu.Lock()
	switch {
	case m.closed:
		m.mu.Unlock()
		return ErrClosed
	case !m.locked:
		m.mu.Unlock()
		return ErrNotLocked
	case m.owner != gid:
		m.mu.Unlock()
		return ErrWrongThread
	}
	m.locked = false
	m.owner = 0
	m.mu.Unlock()
	release(m.lock)
	return nil
}

// Held reports the current owner and whether the mutex is locked. The
// owner value is meaningful only while locked is true.
func (m *Mutex) Held() (owner int64, locked bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.owner, m.locked
}

// Close invalidates the mutex; all later operations fail with ErrClosed.
// Closing while the caller holds the lock performs an internal unlock
// first and reports it to the error sink. Closing while another
// goroutine holds the lock cannot be completed safely: the usage error
// is reported to the error sink and the process is terminated, because
// the mutex state is no longer trustworthy.
//
// Close must not race with in-flight operations on the same instance.
func (m *Mutex) Close() error {
	gid := goid.Current()
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.locked {
		if m.owner != gid {
			owner := m.owner
			m.closed = true
			m.mu.Unlock()
			errsink.Report("mutex closed while locked by another goroutine",
				zap.Int64("owner", owner), zap.Int64("caller", gid))
			errsink.Fatal("mutex teardown failed",
				zap.Error(errTeardownHeld))
			return sysError("mutex close", errTeardownHeld)
		}
		m.locked = false
		m.owner = 0
		m.closed = true
		m.mu.Unlock()
		release(m.lock)
		errsink.Report("mutex closed while locked by caller; unlocked during teardown",
			zap.Int64("caller", gid))
		return nil
	}
	m.closed = true
	m.mu.Unlock()
	return nil
}
