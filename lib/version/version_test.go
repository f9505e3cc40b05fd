// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	original := [...]string{GitCommit, GitDirty, BuildTime}
	t.Cleanup(func() { GitCommit, GitDirty, BuildTime = original[0], original[1], original[2] })

	GitCommit, GitDirty, BuildTime = "abc1234", "true", "2026-10-16T00:00:00Z"
	if got, want := Info(), Version+" (abc1234-dirty, 2026-10-16T00:00:00Z)"; got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}

	GitDirty = "false"
	if strings.Contains(Info(), "-dirty") {
		t.Errorf("Info() = %q, should not be marked dirty", Info())
	}
}

func TestFull(t *testing.T) {
	full := Full()
	for _, fragment := range []string{Info(), "Go: ", "Platform: ", "Snapshot format: 1"} {
		if !strings.Contains(full, fragment) {
			t.Errorf("Full() = %q, missing %q", full, fragment)
		}
	}
}
