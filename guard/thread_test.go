// Copyright 2025 The syncguard Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package guard

import (
	"context"
	"errors"
	"runtime"
	"syscall"
	"testing"
	"time"
)

func TestThreadStartJoin(t *testing.T) {
	th := NewThread(func(ctx context.Context) any { return 42 })
	if th.Running() {
		t.Fatal("Running() = true before Start")
	}
	if err := th.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	res, err := th.Join()
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if res != 42 {
		t.Fatalf("Join() result = %v, want 42", res)
	}
	if th.Running() {
		t.Fatal("Running() = true after Join")
	}
}

func TestThreadJoinBeforeStart(t *testing.T) {
	th := NewThread(func(ctx context.Context) any { return nil })
	if _, err := th.Join(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("Join() before Start error = %v, want ErrNotRunning", err)
	}
}

func TestThreadDoubleStart(t *testing.T) {
	block := make(chan struct{})
	th := NewThread(func(ctx context.Context) any { <-block; return nil })
	if err := th.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := th.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second Start() error = %v, want ErrAlreadyStarted", err)
	}
	close(block)
	if _, err := th.Join(); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	// No restart after the handle left Running through join.
	if err := th.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("Start() after Join error = %v, want ErrAlreadyStarted", err)
	}
}

func TestThreadDetachedJoin(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	th := NewThread(func(ctx context.Context) any { <-block; return nil })
	if err := th.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := th.Detach(); err != nil {
		t.Fatalf("Detach() error = %v", err)
	}
	if _, err := th.Join(); !errors.Is(err, ErrDetachedJoin) {
		t.Errorf("Join() after Detach error = %v, want ErrDetachedJoin", err)
	}
	if _, _, err := th.TryJoin(); !errors.Is(err, ErrDetachedJoin) {
		t.Errorf("TryJoin() after Detach error = %v, want ErrDetachedJoin", err)
	}
	if _, _, err := th.TimedJoin(Duration{0, 1_000_000}); !errors.Is(err, ErrDetachedJoin) {
		t.Errorf("TimedJoin() after Detach error = %v, want ErrDetachedJoin", err)
	}
	if err := th.Detach(); !errors.Is(err, ErrAlreadyDetached) {
		t.Errorf("second Detach() error = %v, want ErrAlreadyDetached", err)
	}
}

func TestThreadDetachBeforeStart(t *testing.T) {
	th := NewThread(func(ctx context.Context) any { return nil })
	if err := th.Detach(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("Detach() before Start error = %v, want ErrNotRunning", err)
	}
}

func TestThreadTryJoin(t *testing.T) {
	block := make(chan struct{})
	th := NewThread(func(ctx context.Context) any { <-block; return "done" })
	if err := th.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, ok, err := th.TryJoin(); err != nil || ok {
		t.Fatalf("TryJoin() on running thread = (ok=%v, err=%v), want (false, nil)", ok, err)
	}
	close(block)

	// The thread finishes shortly; poll TryJoin until it reaps it.
	deadline := time.Now().Add(2 * time.Second)
	for {
		res, ok, err := th.TryJoin()
		if err != nil {
			t.Fatalf("TryJoin() error = %v", err)
		}
		if ok {
			if res != "done" {
				t.Fatalf("TryJoin() result = %v, want %q", res, "done")
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("TryJoin() never reaped a finished thread")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestThreadTimedJoin(t *testing.T) {
	block := make(chan struct{})
	th := NewThread(func(ctx context.Context) any { <-block; return 7 })
	if err := th.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Deadline expires first.
	if _, ok, err := th.TimedJoin(Duration{0, 50_000_000}); err != nil || ok {
		t.Fatalf("TimedJoin() on running thread = (ok=%v, err=%v), want (false, nil)", ok, err)
	}
	if !th.Running() {
		t.Fatal("Running() = false after a timed-out join")
	}

	// Thread finishes first.
	close(block)
	res, ok, err := th.TimedJoin(Duration{2, 0})
	if err != nil || !ok {
		t.Fatalf("TimedJoin() = (ok=%v, err=%v), want (true, nil)", ok, err)
	}
	if res != 7 {
		t.Fatalf("TimedJoin() result = %v, want 7", res)
	}
	if th.Running() {
		t.Fatal("Running() = true after a successful join")
	}
}

func TestThreadCancel(t *testing.T) {
	started := make(chan struct{})
	stopped := make(chan struct{})
	th := NewThread(func(ctx context.Context) any {
		close(started)
		<-ctx.Done()
		close(stopped)
		return nil
	})
	if err := th.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	<-started
	if err := th.Cancel(); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if th.Running() {
		t.Fatal("Running() = true after Cancel")
	}
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("entry function did not observe cancellation")
	}
	// Cancelled is terminal from the handle's perspective.
	if _, err := th.Join(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("Join() after Cancel error = %v, want ErrNotRunning", err)
	}
	if err := th.Cancel(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("second Cancel() error = %v, want ErrNotRunning", err)
	}
}

func TestThreadSignal(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	th := NewThread(func(ctx context.Context) any { <-block; return nil })

	if err := th.Signal(syscall.SIGURG); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("Signal() before Start error = %v, want ErrNotRunning", err)
	}
	if err := th.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// SIGURG is ignored by default and already used by the runtime for
	// preemption, so delivery is side-effect free.
	err := th.Signal(syscall.SIGURG)
	if runtime.GOOS == "linux" {
		if err != nil {
			t.Fatalf("Signal() error = %v", err)
		}
	} else {
		var se *SystemError
		if !errors.As(err, &se) || !errors.Is(err, errors.ErrUnsupported) {
			t.Fatalf("Signal() error = %v, want SystemError wrapping ErrUnsupported", err)
		}
	}
}
