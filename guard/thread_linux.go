// Copyright 2025 The syncguard Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package guard

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// threadID returns the kernel thread ID of the calling thread. Must be
// called from a goroutine locked to its OS thread.
func threadID() int { return unix.Gettid() }

// signalThread delivers sig to one specific thread of this process via
// tgkill, not to the process as a whole.
func signalThread(tid int, sig syscall.Signal) error {
	if err := unix.Tgkill(unix.Getpid(), tid, sig); err != nil {
		return sysError("thread signal", err)
	}
	return nil
}
