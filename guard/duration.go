// Copyright 2025 The syncguard Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package guard

import "time"

// nanosPerSecond is the normalization boundary for the Nsec field.
const nanosPerSecond = 1_000_000_000

// Duration is the relative timeout accepted by every timed operation in
// this package, expressed as a seconds + sub-second nanoseconds pair.
//
// A Duration is valid iff Sec >= 0 and 0 <= Nsec < 1e9. Timed operations
// validate their Duration and compute the absolute deadline exactly once
// at call entry, so wall-clock adjustments during the wait do not stretch
// or shrink the intended budget.
type Duration struct {
	// Sec is the whole-seconds part. Must be non-negative.
	Sec int64
	// Nsec is the sub-second part in nanoseconds. Must be in [0, 1e9).
	Nsec int64
}

// DurationOf converts a time.Duration into the normalized pair form.
// Negative inputs yield an invalid Duration that fails Validate.
func DurationOf(d time.Duration) Duration {
	return Duration{Sec: int64(d / time.Second), Nsec: int64(d % time.Second)}
}

// Validate checks the field constraints and returns an ArgumentError on
// violation.
func (d Duration) Validate() error {
	if d.Sec < 0 {
		return argErrorf("duration seconds must be non-negative, got %d", d.Sec)
	}
	if d.Nsec < 0 || d.Nsec >= nanosPerSecond {
		return argErrorf("duration nanoseconds must be in [0, 1e9), got %d", d.Nsec)
	}
	return nil
}

// Deadline converts the relative duration into an absolute point in time
// by adding it to now component-wise, carrying one second when the summed
// nanoseconds reach 1e9. Pure; no side effects.
func (d Duration) Deadline(now time.Time) (time.Time, error) {
	if err := d.Validate(); err != nil {
		return time.Time{}, err
	}
	sec := now.Unix() + d.Sec
	nsec := int64(now.Nanosecond()) + d.Nsec
	if nsec >= nanosPerSecond {
		sec++
		nsec -= nanosPerSecond
	}
	return time.Unix(sec, nsec), nil
}

// timer validates d and returns a timer that fires at the computed
// deadline. Shared by every timed operation in the package. The caller
// owns the timer and must stop it.
func (d Duration) timer(now time.Time) (*time.Timer, error) {
	dl, err := d.Deadline(now)
	if err != nil {
		return nil, err
	}
	return time.NewTimer(dl.Sub(now)), nil
}
