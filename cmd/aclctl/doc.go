// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

// aclctl resolves, inspects, and exercises command access control
// configuration. See the commands package for the command tree.
package main
