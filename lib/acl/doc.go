// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

// Package acl defines the static vocabulary of host command access
// control: identifiers, permissions, permission sets, capabilities,
// execution contexts, and plugin manifests.
//
// Web content reaches host commands across a trust boundary. Whether a
// given invocation is permitted is decided by capabilities authored by
// the application:
//
//   - A Permission is a named allow/deny command list plus an opaque
//     allow/deny scope value that only the command implementation
//     interprets.
//   - A PermissionSet groups permission references (including
//     references into other plugins) to reduce repetition.
//   - A Capability grants a list of permission references to a set of
//     window (and webview) label patterns under an execution context:
//     the application's own origin, remote origins matching a URL
//     pattern list, or both.
//   - A Manifest holds one plugin's default permission, permission
//     table, and permission-set table. App-local permissions live in
//     their own manifest under [AppManifestKey].
//
// Everything in this package is parsed once from static files and is
// immutable afterwards. Expansion of capabilities into concrete
// command grants lives in lib/resolve; the per-call decision lives in
// lib/authority.
//
// # Identifiers
//
// Permission references are "plugin:name" or a bare "name" (app-local).
// "core:window" addresses a built-in plugin named "window". Identifiers
// are lowercase ASCII with interior hyphens and at most one colon;
// see [ParseIdentifier].
//
// # Patterns
//
// Window labels, webview labels, and remote URLs are matched with
// [MatchPattern]: "*" matches within one "/"-separated segment, "**"
// matches any number of segments, "?" matches one non-slash character.
// A malformed pattern never matches.
//
// # File formats
//
// Permission files may be TOML, JSON, JSONC, or YAML; capability files
// may be JSON, JSONC, or YAML. The format is chosen by file extension.
// Decoding is strict: unknown fields are configuration errors, so a
// misspelled "deny" key can never be silently dropped.
package acl
