// Copyright 2025 The syncguard Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package guard

import (
	"errors"
	"syscall"
)

// Directed per-thread signal delivery needs tgkill, which only Linux
// exposes. Other platforms keep the rest of the Thread surface and
// report Signal as unsupported.

func threadID() int { return 0 }

func signalThread(_ int, _ syscall.Signal) error {
	return sysError("thread signal", errors.ErrUnsupported)
}
