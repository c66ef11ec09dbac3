// Copyright 2025 The syncguard Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package guard

import "time"

// Token-channel locks.
//
// The "native" exclusive locks in this package are capacity-1 channels:
// an empty channel is a free lock, a buffered element is a held lock.
// Unlike sync.Mutex, a channel lock composes with select, which is what
// gives every primitive here uniform try and deadline-bounded acquisition.
// Channel operations cannot fail, so the rollback paths the original
// native layer needed for failed unlocks never arise.

// acquire blocks until the token is taken.
func acquire(tok chan struct{}) {
	tok <- struct{}{}
}

// tryAcquire takes the token iff it is immediately available.
func tryAcquire(tok chan struct{}) bool {
	select {
	case tok <- struct{}{}:
		return true
	default:
		return false
	}
}

// acquireUntil takes the token unless the deadline channel fires first.
func acquireUntil(tok chan struct{}, deadline <-chan time.Time) bool {
	select {
	case tok <- struct{}{}:
		return true
	case <-deadline:
		return false
	}
}

// release returns a held token. Must only be called by a holder.
func release(tok chan struct{}) {
	<-tok
}
