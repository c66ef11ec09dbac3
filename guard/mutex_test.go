// Copyright 2025 The syncguard Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package guard

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// onOtherGoroutine runs f on a different goroutine and waits for it.
func onOtherGoroutine(f func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		f()
	}()
	<-done
}

func TestMutexLockUnlock(t *testing.T) {
	mu := NewMutex()
	if err := mu.Lock(); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if owner, locked := mu.Held(); !locked || owner == 0 {
		t.Fatalf("Held() = (%d, %v), want locked with non-zero owner", owner, locked)
	}
	if err := mu.Unlock(); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if _, locked := mu.Held(); locked {
		t.Fatal("Held() reports locked after Unlock")
	}
}

func TestMutexDoubleLock(t *testing.T) {
	mu := NewMutex()
	if err := mu.Lock(); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if err := mu.Lock(); !errors.Is(err, ErrDoubleLock) {
		t.Fatalf("second Lock() error = %v, want ErrDoubleLock", err)
	}
	// The try and timed variants run the same check.
	if _, err := mu.TryLock(); !errors.Is(err, ErrDoubleLock) {
		t.Errorf("TryLock() error = %v, want ErrDoubleLock", err)
	}
	if _, err := mu.TimedLock(Duration{0, 1_000_000}); !errors.Is(err, ErrDoubleLock) {
		t.Errorf("TimedLock() error = %v, want ErrDoubleLock", err)
	}
	if err := mu.Unlock(); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
}

func TestMutexUnlockNotLocked(t *testing.T) {
	mu := NewMutex()
	if err := mu.Unlock(); !errors.Is(err, ErrNotLocked) {
		t.Fatalf("Unlock() error = %v, want ErrNotLocked", err)
	}
	// Misuse must not corrupt state for a future correct caller.
	if err := mu.Lock(); err != nil {
		t.Fatalf("Lock() after misuse error = %v", err)
	}
	if err := mu.Unlock(); err != nil {
		t.Fatalf("Unlock() after misuse error = %v", err)
	}
}

func TestMutexUnlockWrongThread(t *testing.T) {
	mu := NewMutex()
	if err := mu.Lock(); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	ownerBefore, _ := mu.Held()

	var err error
	onOtherGoroutine(func() { err = mu.Unlock() })
	if !errors.Is(err, ErrWrongThread) {
		t.Fatalf("Unlock() from other goroutine error = %v, want ErrWrongThread", err)
	}

	// Still locked and still owned by the original goroutine.
	owner, locked := mu.Held()
	if !locked || owner != ownerBefore {
		t.Fatalf("Held() = (%d, %v) after misuse, want (%d, true)", owner, locked, ownerBefore)
	}
	if err := mu.Unlock(); err != nil {
		t.Fatalf("Unlock() by owner error = %v", err)
	}
}

func TestMutexTryLock(t *testing.T) {
	mu := NewMutex()
	ok, err := mu.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock() = (%v, %v), want (true, nil)", ok, err)
	}

	var busyOK bool
	var busyErr error
	onOtherGoroutine(func() { busyOK, busyErr = mu.TryLock() })
	if busyErr != nil || busyOK {
		t.Fatalf("TryLock() on busy mutex = (%v, %v), want (false, nil)", busyOK, busyErr)
	}
	if err := mu.Unlock(); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
}

func TestMutexTimedLock(t *testing.T) {
	mu := NewMutex()
	if err := mu.Lock(); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}

	// Deadline expires first.
	var ok bool
	var err error
	onOtherGoroutine(func() { ok, err = mu.TimedLock(Duration{0, 50_000_000}) })
	if err != nil || ok {
		t.Fatalf("TimedLock() on held mutex = (%v, %v), want (false, nil)", ok, err)
	}

	// Lock becomes available first.
	acquired := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		got, terr := mu.TimedLock(Duration{2, 0})
		if terr != nil || !got {
			t.Errorf("TimedLock() = (%v, %v), want (true, nil)", got, terr)
			return
		}
		close(acquired)
		if uerr := mu.Unlock(); uerr != nil {
			t.Errorf("Unlock() error = %v", uerr)
		}
	}()
	time.Sleep(50 * time.Millisecond)
	if err := mu.Unlock(); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("TimedLock() did not acquire after the holder released")
	}
	wg.Wait()
}

func TestMutexTimedLockInvalidDuration(t *testing.T) {
	mu := NewMutex()
	if _, err := mu.TimedLock(Duration{-1, 0}); !IsArgument(err) {
		t.Fatalf("TimedLock() error = %v, want ArgumentError", err)
	}
}

func TestMutexMutualExclusion(t *testing.T) {
	mu := NewMutex()
	var counter, active int
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if err := mu.Lock(); err != nil {
					t.Errorf("Lock() error = %v", err)
					return
				}
				active++
				if active != 1 {
					t.Errorf("critical section entered by %d goroutines", active)
				}
				counter++
				active--
				if err := mu.Unlock(); err != nil {
					t.Errorf("Unlock() error = %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
	if counter != 8*200 {
		t.Fatalf("counter = %d, want %d", counter, 8*200)
	}
}

func TestMutexClose(t *testing.T) {
	mu := NewMutex()
	if err := mu.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := mu.Lock(); !errors.Is(err, ErrClosed) {
		t.Errorf("Lock() on closed mutex error = %v, want ErrClosed", err)
	}
	if err := mu.Unlock(); !errors.Is(err, ErrClosed) {
		t.Errorf("Unlock() on closed mutex error = %v, want ErrClosed", err)
	}
	if err := mu.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close() error = %v, want ErrClosed", err)
	}
}

func TestMutexCloseWhileSelfLocked(t *testing.T) {
	mu := NewMutex()
	if err := mu.Lock(); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	// Close by the owner performs the internal unlock and succeeds.
	if err := mu.Close(); err != nil {
		t.Fatalf("Close() while holding the lock error = %v", err)
	}
	if _, locked := mu.Held(); locked {
		t.Error("Held() reports locked after teardown unlock")
	}
}
