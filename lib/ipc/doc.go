// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

// Package ipc dispatches command invocations from web content to host
// handlers, gated by the runtime authority.
//
// An invocation names the command ("greet" or "plugin:fs|read_file"),
// the caller's window and webview labels, the caller's origin ("local"
// or the URL of the loaded content), and an opaque CBOR payload. The
// webview layer fills in the labels and the origin; content never
// chooses them.
//
// The Dispatcher refuses every invocation until an authority has been
// installed with SetAuthority. It then checks each invocation before
// looking up its handler, so a caller cannot distinguish a command that
// does not exist from one it may not call. A denied caller receives
// ErrNotAllowed and nothing more; the reason, with the capabilities and
// permissions involved, goes to the host log only.
//
// Server exposes a Dispatcher on a Unix socket with a CBOR
// request-response protocol: each connection carries exactly one
// Request and one Response, then closes. Client is the matching caller.
package ipc
