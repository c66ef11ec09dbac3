// Copyright 2025 The syncguard Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package guard

// Version information for the syncguard library.
const (
	// Version is the current library version.
	Version = "0.1.0"

	// VersionMajor is the major version number.
	VersionMajor = 0

	// VersionMinor is the minor version number.
	VersionMinor = 1

	// VersionPatch is the patch version number.
	VersionPatch = 0
)

// Info provides runtime information about the library.
type Info struct {
	// Version is the library version string.
	Version string

	// ThreadIdentity is the mechanism used to identify the calling
	// goroutine in ownership checks.
	ThreadIdentity string
}

// GetInfo returns information about the library build.
//
// Example:
//
//	info := guard.GetInfo()
//	fmt.Printf("syncguard %s (identity: %s)\n", info.Version, info.ThreadIdentity)
func GetInfo() Info {
	return Info{
		Version:        Version,
		ThreadIdentity: "runtime.Stack goroutine ID",
	}
}
