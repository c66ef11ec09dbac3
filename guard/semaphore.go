// Copyright 2025 The syncguard Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package guard

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/kolkov/syncguard/internal/guard/errsink"
	"github.com/kolkov/syncguard/internal/guard/goid"
)

// Semaphore is a bounded counting semaphore that tracks which goroutine
// holds a permit.
//
// A plain counting semaphore does not know who holds what: with more
// than one permit, a goroutine could acquire twice, or release a permit
// it never took, and nothing would notice. The per-goroutine hold map
// turns both into detectable errors specific to this instance, while
// still allowing distinct goroutines to hold distinct permits up to the
// maximum concurrently. A goroutine may hold at most one permit at a
// time from a given Semaphore.
type Semaphore struct {
	sem *semaphore.Weighted // native counting primitive
	max int64               // fixed at construction, > 0

	mu     sync.Mutex
	holds  map[int64]bool // goroutine ID -> holds one permit; entries created lazily
	held   int64          // permits currently held through this instance
	queued int64          // goroutines blocked in Wait/TimedWait
	closed bool
}

// NewSemaphore returns a semaphore with max permits available. max must
// be positive.
func NewSemaphore(max int64) (*Semaphore, error) {
	if max <= 0 {
		return nil, argErrorf("semaphore maximum permits must be positive, got %d", max)
	}
	return &Semaphore{
		sem:   semaphore.NewWeighted(max),
		max:   max,
		holds: make(map[int64]bool),
	}, nil
}

// precheckLocked validates an acquisition attempt by gid. Caller holds
// s.mu.
func (s *Semaphore) precheckLocked(gid int64) error {
	if s.closed {
		return ErrClosed
	}
	if s.holds[gid] {
		return ErrDoubleAcquire
	}
	return nil
}

// Wait acquires one permit, blocking until one is available. Fails with
// ErrDoubleAcquire if the calling goroutine already holds a permit from
// this instance.
func (s *Semaphore) Wait() error {
	gid := goid.Current()
	s.mu.Lock()
	if err := s.precheckLocked(gid); err != nil {
		s.mu.Unlock()
		return err
	}
	s.queued++
	s.mu.Unlock()

	err := s.sem.Acquire(context.Background(), 1)

	s.mu.Lock()
	s.queued--
	if err != nil {
		// Background context cannot expire; any error here is a
		// platform-level surprise.
		s.mu.Unlock()
		return sysError("semaphore wait", err)
	}
	s.held++
	s.holds[gid] = true
	s.mu.Unlock()
	return nil
}

// TryWait acquires one permit iff one is immediately available,
// returning false, nil otherwise.
func (s *Semaphore) TryWait() (bool, error) {
	gid := goid.Current()
	s.mu.Lock()
	if err := s.precheckLocked(gid); err != nil {
		s.mu.Unlock()
		return false, err
	}
	if !s.sem.TryAcquire(1) {
		s.mu.Unlock()
		return false, nil
	}
	s.held++
	s.holds[gid] = true
	s.mu.Unlock()
	return true, nil
}

// TimedWait acquires one permit, blocking up to the deadline computed
// from d, returning false, nil on timeout.
func (s *Semaphore) TimedWait(d Duration) (bool, error) {
	gid := goid.Current()
	s.mu.Lock()
	if err := s.precheckLocked(gid); err != nil {
		s.mu.Unlock()
		return false, err
	}
	dl, err := d.Deadline(time.Now())
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.queued++
	s.mu.Unlock()

	ctx, cancel := context.WithDeadline(context.Background(), dl)
	err = s.sem.Acquire(ctx, 1)
	cancel()

	s.mu.Lock()
	s.queued--
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, context.DeadlineExceeded) {
			return false, nil
		}
		return false, sysError("semaphore timed wait", err)
	}
	s.held++
	s.holds[gid] = true
	s.mu.Unlock()
	return true, nil
}

// Post releases the permit held by the calling goroutine. Fails with
// ErrReleaseWithoutHold if the caller holds none. The hold bookkeeping
// is cleared before the native release.
func (s *Semaphore) Post() error {
	gid := goid.Current()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if !s.holds[gid] {
		s.mu.Unlock()
		return ErrReleaseWithoutHold
	}
	delete(s.holds, gid)
	s.held--
	s.mu.Unlock()
	s.sem.Release(1)
	return nil
}

// Max returns the fixed maximum number of permits.
func (s *Semaphore) Max() int64 { return s.max }

// Held reports the number of permits currently held through this
// instance. Always in [0, Max()].
func (s *Semaphore) Held() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.held
}

// QueueDepth reports the number of goroutines currently blocked waiting
// to acquire.
func (s *Semaphore) QueueDepth() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queued
}

// Close invalidates the semaphore. Closing while goroutines are blocked
// in Wait cannot be completed safely; the failure is reported to the
// error sink and the process is terminated. Permits still held at close
// are reported and forgotten.
func (s *Semaphore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.queued > 0 {
		n := s.queued
		s.closed = true
		s.mu.Unlock()
		errsink.Fatal("semaphore teardown failed",
			zap.Error(errTeardownWaiters), zap.Int64("queued", n))
		return sysError("semaphore close", errTeardownWaiters)
	}
	if s.held > 0 {
		errsink.Report("semaphore closed with permits still held",
			zap.Int64("held", s.held))
	}
	s.closed = true
	s.mu.Unlock()
	return nil
}
