// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for aclctl.
//
// Configuration is loaded from a single file specified by either the
// ACLCTL_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. The same file always produces the same
// resolved table.
//
// The configuration file supports environment-specific sections
// (development, production) that override base values when
// [Config].Environment matches. Production defaults are stricter: the
// default-permission fallback is disabled, so every grant must come
// from a capability file.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${ACLCTL_ROOT}, and ${VAR:-default} patterns are expanded.
// No other environment variables override config values.
//
// This package depends on no other packages of this module.
package config
