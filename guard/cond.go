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

// Cond is a condition variable with an explicit signal-pending flag.
//
// The flag closes the classic lost-wakeup race: a signal sent after a
// waiter has decided to wait but before it has actually blocked is
// recorded as a persistent event the waiter observes on arrival, rather
// than requiring the signal and the wait to overlap exactly in time.
//
// A Cond records only that a wake event occurred. It is not a predicate;
// callers re-check their own condition around Wait as usual. Spurious
// wakeups from the wait machinery never escape: the wait loop blocks
// again until the signal-pending flag is observed true.
type Cond struct {
	mu sync.Mutex // internal mutex; never exposed to callers

	wake  chan struct{} // capacity 1: at most one undelivered signal token
	bcast chan struct{} // closed on broadcast, then replaced for the next generation

	pending     bool // a wake event occurred and has not been fully observed
	broadcasted bool // the pending event was a broadcast
	waiting     int  // goroutines currently blocked in Wait/TimedWait
	closed      bool
}

// NewCond returns a condition variable with no pending event.
func NewCond() *Cond {
	return &Cond{
		wake:  make(chan struct{}, 1),
		bcast: make(chan struct{}),
	}
}

// consumeLocked applies the flag-clearing rule after a wake observation.
// A signal is consumed by the single waiter it wakes. A broadcast stays
// observable until the last waiter present at the moment of the
// broadcast has seen it. Caller holds c.mu.
func (c *Cond) consumeLocked() {
	c.waiting--
	if !c.broadcasted {
		c.pending = false
		return
	}
	if c.waiting == 0 {
		c.pending = false
		c.broadcasted = false
	}
}

// Wait blocks until a wake event is observed. It always succeeds; there
// is no timeout. ErrClosed is the only failure.
func (c *Cond) Wait() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.waiting++
	for !c.pending {
		bc := c.bcast
		c.mu.Unlock()
		select {
		case <-c.wake:
		case <-bc:
		}
		c.mu.Lock()
	}
	c.consumeLocked()
	c.mu.Unlock()
	return nil
}

// TimedWait is Wait with a deadline computed once from d at call entry.
// It returns false, nil if the deadline elapses before a wake event is
// observed, without consuming any signal.
func (c *Cond) TimedWait(d Duration) (bool, error) {
	timer, err := d.timer(time.Now())
	if err != nil {
		return false, err
	}
	defer timer.Stop()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, ErrClosed
	}
	c.waiting++
	for !c.pending {
		bc := c.bcast
		c.mu.Unlock()
		select {
		case <-c.wake:
		case <-bc:
		case <-timer.C:
			c.mu.Lock()
			c.waiting--
			c.mu.Unlock()
			return false, nil
		}
		c.mu.Lock()
	}
	c.consumeLocked()
	c.mu.Unlock()
	return true, nil
}

// Signal wakes at most one blocked waiter and reports whether any
// goroutine was waiting at the time of the call. A signal with nobody
// listening records nothing: it must not stick for a future waiter.
func (c *Cond) Signal() (bool, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, ErrClosed
	}
	had := c.waiting != 0
	c.pending = had
	c.broadcasted = false
	if had {
		// Hand over one token; a full channel means an earlier signal
		// is still undelivered and the events collapse into one.
		select {
		case c.wake <- struct{}{}:
		default:
		}
	}
	c.mu.Unlock()
	return had, nil
}

// Broadcast wakes every goroutine blocked at the moment of the call and
// reports whether any was waiting. Each of them observes the pending
// event before it is cleared.
func (c *Cond) Broadcast() (bool, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, ErrClosed
	}
	had := c.waiting != 0
	c.pending = had
	c.broadcasted = had
	if had {
		close(c.bcast)
		c.bcast = make(chan struct{})
	}
	c.mu.Unlock()
	return had, nil
}

// Waiters reports the number of goroutines currently blocked in Wait or
// TimedWait.
func (c *Cond) Waiters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiting
}

// Close invalidates the condition variable. Closing while goroutines are
// blocked in Wait cannot be completed safely; the failure is reported to
// the error sink and the process is terminated.
func (c *Cond) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.waiting > 0 {
		n := c.waiting
		c.closed = true
		c.mu.Unlock()
		errsink.Fatal("condition teardown failed",
			zap.Error(errTeardownWaiters), zap.Int("waiters", n))
		return sysError("cond close", errTeardownWaiters)
	}
	c.closed = true
	c.mu.Unlock()
	return nil
}
