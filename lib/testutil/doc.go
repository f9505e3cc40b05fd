// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [SocketDir] creates a temporary directory in /tmp suitable for Unix
// domain sockets, whose paths are limited to 108 bytes. The directory
// is automatically removed when the test completes.
//
// [WriteTree] lays out a directory of configuration files (capability
// files, plugin permission directories, aclctl.yaml) in one call.
//
// [RequireReceive] and [RequireClosed] bound channel waits in server
// and watcher tests with a timeout, so a hung goroutine fails the test
// instead of stalling it.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation, such as capability identifiers registered at runtime
// by concurrent tests.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no dependencies on other packages of this module.
package testutil
