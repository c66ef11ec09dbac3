// Package guard provides misuse-detecting synchronization primitives:
// a mutual-exclusion lock, a condition variable, a counting semaphore,
// a reader/writer lock, and a thread handle, layered over goroutines
// pinned to OS threads.
//
// Each primitive adds detection the underlying machinery does not have:
// double-locking from the owning goroutine, unlocking a lock the caller
// does not hold, releasing a semaphore permit the caller never acquired,
// joining a detached thread, and similar programming errors become
// explicit, synchronous, typed failures instead of deadlocks or silent
// corruption.
//
// # Quick Start
//
//	mu := guard.NewMutex()
//	if err := mu.Lock(); err != nil { ... }
//	defer mu.Unlock()
//
//	sem, err := guard.NewSemaphore(2)
//	if err != nil { ... }
//	if err := sem.Wait(); err != nil { ... }   // ErrDoubleAcquire on a second Wait
//	defer sem.Post()
//
// # Errors and timeouts
//
// Expected contention and timeouts never produce errors: try and timed
// variants return a boolean success indicator instead. Everything else
// surfaces as one of three kinds:
//
//   - [UsageError]: a programming mistake at the call site (for example
//     [ErrDoubleLock], [ErrWrongThread], [ErrDetachedJoin]).
//   - [ArgumentError]: a malformed relative [Duration] or an invalid
//     semaphore maximum, rejected before anything blocks.
//   - [SystemError]: an unexpected platform failure.
//
// Timed operations take a relative [Duration] (seconds + nanoseconds,
// validated bit-exactly) and convert it to one absolute deadline at call
// entry.
//
// # Teardown
//
// Close invalidates an instance; all later operations fail with
// [ErrClosed]. Failures during teardown cannot be returned to anyone,
// so they go to a process-wide error sink (a zap logger, stderr by
// default, see [SetErrorLog]). Unrecoverable teardown, such as closing
// a primitive that other goroutines still hold or wait on, terminates
// the process: the primitive's state is no longer trustworthy.
package guard
