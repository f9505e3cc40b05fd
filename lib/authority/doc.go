// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

// Package authority answers, at invocation time, whether a command may
// run for a given window, webview, and origin. It is built from a
// resolved table (see package resolve) and is the only component the
// command dispatcher consults before invoking a handler.
//
// # Decisions
//
// Every check is total and deny-by-default:
//
//  1. If any denied entry for the command has a context matching the
//     origin, the command is denied. Denials are window-independent.
//  2. Otherwise the allowed entries for the command are scanned in
//     table order. The first whose context matches the origin and whose
//     window or webview patterns match the caller's labels allows the
//     command.
//  3. Anything else is denied.
//
// Local and remote contexts are disjoint: a capability granted to local
// content is never satisfied by a remote origin. The origin is supplied
// by the caller (the webview layer), never inferred here.
//
// Window and webview labels are glob-matched on every call, so windows
// created after the authority was built are covered by patterns such
// as "editor-*".
//
// # Runtime registration
//
// AddCapability and AllowCommand extend a running authority. Both
// resolve their input with the same resolver and merge the result
// through resolve.Combine, the same two-pass merge the offline
// resolver uses, so a command denied anywhere stays denied. The merged
// state is built outside the lock and swapped in under the write lock:
// readers observe either the old state or the new one, never a
// partially merged table.
//
// # Scopes
//
// CommandScope and GlobalScope decode the opaque scope values attached
// to a grant into a caller-supplied type. Decoded values are cached per
// state and per type, and the cache is discarded whenever runtime
// registration installs a new state.
package authority
