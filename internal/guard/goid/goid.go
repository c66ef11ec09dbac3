// Copyright 2025 The syncguard Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package goid

import "runtime"

// Current returns the ID of the calling goroutine.
//
// The ID is unique for the lifetime of the goroutine and is never 0 for
// a live goroutine. A return value of 0 means the stack header could not
// be parsed, which indicates a runtime format change rather than a
// recoverable condition.
func Current() int64 {
	// Only the first line is needed: "goroutine 123 [running]:\n...".
	// 64 bytes always covers it; runtime.Stack truncates the rest.
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parseGID(buf[:n])
}

// parseGID extracts the numeric goroutine ID from stack trace bytes.
//
// Expected format: "goroutine 123 [running]:...". Returns 0 if the
// buffer does not start with the expected prefix. Direct byte parsing,
// no regex, no allocations.
func parseGID(buf []byte) int64 {
	const prefix = "goroutine "
	if len(buf) < len(prefix) || string(buf[:len(prefix)]) != prefix {
		return 0
	}
	var gid int64
	for i := len(prefix); i < len(buf); i++ {
		c := buf[i]
		if c < '0' || c > '9' {
			// Non-digit terminates the ID (space before "[running]").
			break
		}
		gid = gid*10 + int64(c-'0')
	}
	return gid
}
