// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version describes the running build.
package version

import "fmt"

// Info is filled from ldflags at build time.
type Info struct {
	Version   string
	GitCommit string
	BuildTime string
}

// String formats the build for -version output.
func (i Info) String() string {
	v, commit, built := i.Version, i.GitCommit, i.BuildTime
	if v == "" {
		v = "dev"
	}
	if commit == "" {
		commit = "unknown"
	}
	if built == "" {
		built = "unknown"
	}
	return fmt.Sprintf("brainswarm %s (commit: %s, built: %s)", v, commit, built)
}
