// Copyright 2025 The syncguard Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package guard

import (
	"context"
	"runtime"
	"sync"
	"syscall"
	"time"
)

// Thread is a lifecycle handle over one spawned goroutine pinned to an
// OS thread: start, join (blocking, try, timed), detach, cooperative
// cancellation, and signal delivery to the underlying kernel thread.
//
// The entry function runs locked to its OS thread for its whole life
// (runtime.LockOSThread), so the thread identity recorded at start and
// used by Signal stays valid until the function returns. The handle
// moves Created -> Running -> one of Joined, Detached, Cancelled; it
// cannot be restarted.
//
// Thread has no structural dependency on the other primitives in this
// package; it creates the workers that use them.
type Thread struct {
	fn func(ctx context.Context) any

	done     chan struct{} // closed when the entry function returns
	tidReady chan struct{} // closed once the OS thread ID is recorded

	mu       sync.Mutex
	started  bool
	running  bool
	detached bool
	result   any
	tid      int
	cancel   context.CancelFunc
}

// NewThread returns a handle in the Created state. fn is the entry
// function; its return value is yielded by a successful join. The
// context passed to fn is cancelled by Cancel.
func NewThread(fn func(ctx context.Context) any) *Thread {
	return &Thread{
		fn:       fn,
		done:     make(chan struct{}),
		tidReady: make(chan struct{}),
	}
}

// Start spawns the thread and transitions the handle to Running. Fails
// with ErrAlreadyStarted if the handle was ever started, including after
// a join or cancel.
func (t *Thread) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.started = true
	t.running = true
	t.cancel = cancel
	go t.run(ctx)
	return nil
}

func (t *Thread) run(ctx context.Context) {
	// Pin to one kernel thread so the recorded tid stays valid for the
	// entry function's whole life. The thread is discarded with the
	// goroutine rather than returned to the pool, which keeps a
	// delivered signal from landing on an unrelated goroutine later.
	runtime.LockOSThread()
	t.mu.Lock()
	t.tid = threadID()
	t.mu.Unlock()
	close(t.tidReady)

	res := t.fn(ctx)

	t.mu.Lock()
	t.result = res
	t.mu.Unlock()
	close(t.done)
}

// joinable validates a join attempt in the current state.
func (t *Thread) joinable() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.detached {
		return ErrDetachedJoin
	}
	if !t.running {
		return ErrNotRunning
	}
	return nil
}

// reap consumes the thread's completion. The first joiner wins; a
// concurrent second join observes ErrNotRunning.
func (t *Thread) reap() (any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return nil, ErrNotRunning
	}
	t.running = false
	return t.result, nil
}

// Join blocks until the thread finishes and yields its return value.
// Fails with ErrDetachedJoin on a detached handle and ErrNotRunning if
// the thread is not running.
func (t *Thread) Join() (any, error) {
	if err := t.joinable(); err != nil {
		return nil, err
	}
	<-t.done
	return t.reap()
}

// TryJoin joins iff the thread has already finished, returning
// false, nil otherwise.
func (t *Thread) TryJoin() (any, bool, error) {
	if err := t.joinable(); err != nil {
		return nil, false, err
	}
	select {
	case <-t.done:
	default:
		return nil, false, nil
	}
	res, err := t.reap()
	if err != nil {
		return nil, false, err
	}
	return res, true, nil
}

// TimedJoin joins, blocking up to the deadline computed from d, and
// returns false, nil if the thread has not finished by then.
func (t *Thread) TimedJoin(d Duration) (any, bool, error) {
	if err := t.joinable(); err != nil {
		return nil, false, err
	}
	timer, err := d.timer(time.Now())
	if err != nil {
		return nil, false, err
	}
	defer timer.Stop()
	select {
	case <-t.done:
	case <-timer.C:
		return nil, false, nil
	}
	res, err := t.reap()
	if err != nil {
		return nil, false, err
	}
	return res, true, nil
}

// Detach gives up the ability to observe the thread's completion. The
// thread itself keeps executing. Fails with ErrAlreadyDetached on a
// second detach and ErrNotRunning if the thread is not running.
func (t *Thread) Detach() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.detached {
		return ErrAlreadyDetached
	}
	if !t.running {
		return ErrNotRunning
	}
	t.detached = true
	return nil
}

// Cancel requests termination by cancelling the entry function's context
// and marks the handle not running. Cancellation is cooperative: the
// entry function must honor ctx.Done(). A cancelled computation may have
// been mid-way through establishing invariants on shared state; Cancel
// is a last resort.
func (t *Thread) Cancel() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return ErrNotRunning
	}
	t.cancel()
	t.running = false
	return nil
}

// Signal delivers sig to the thread's underlying kernel thread. Fails
// with ErrNotRunning if the thread is not running. Only supported on
// Linux; elsewhere it returns a SystemError wrapping
// errors.ErrUnsupported.
func (t *Thread) Signal(sig syscall.Signal) error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return ErrNotRunning
	}
	t.mu.Unlock()
	<-t.tidReady
	t.mu.Lock()
	tid := t.tid
	t.mu.Unlock()
	return signalThread(tid, sig)
}

// Running reports whether the handle is in the Running state. False
// before Start and after a successful join or cancel; detaching does
// not change it.
func (t *Thread) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}
