// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"github.com/tauri-apps/tauri-sub008/lib/codec"
)

// Request is the wire form of an invocation.
type Request struct {
	Command string           `cbor:"cmd"`
	Window  string           `cbor:"window"`
	Webview string           `cbor:"webview,omitempty"`
	Origin  string           `cbor:"origin"`
	Payload codec.RawMessage `cbor:"payload,omitempty"`
}

// Response is the wire-format envelope for every reply. Handlers return
// a result value (or nil) and an error; the server wraps these into a
// Response before encoding.
type Response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}
