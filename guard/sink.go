// Copyright 2025 The syncguard Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package guard

import (
	"go.uber.org/zap"

	"github.com/kolkov/syncguard/internal/guard/errsink"
)

// SetErrorLog replaces the process-wide sink used to report failures
// that occur during primitive teardown, where no caller exists to
// receive an error. The default sink writes to standard error.
//
// This is a global assignment: last writer wins, and it is not safe to
// reconfigure concurrently with active teardown. Passing nil restores
// the default.
func SetErrorLog(l *zap.Logger) { errsink.SetLogger(l) }

// ErrorLog returns the current teardown error sink.
func ErrorLog() *zap.Logger { return errsink.Logger() }
