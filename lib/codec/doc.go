// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the shared CBOR encoding configuration.
//
// Two serialization formats are in use, with a clear boundary:
//
//   - JSON for anything a person reads or authors: capability and
//     permission files, aclctl --json output.
//   - CBOR for machine-to-machine data: the invoke protocol spoken
//     over the dispatcher socket, resolved-table snapshots, and the
//     canonical bytes behind table fingerprints and scope keys.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. The
// same resolved table always produces identical bytes, which is what
// makes a fingerprint meaningful.
//
// For buffer-oriented operations (snapshots, fingerprints):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (sockets):
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// # Struct tags
//
// A `cbor` tag marks a type that is only ever CBOR (the socket
// envelope). A `json` tag marks a type that is both: fxamacker/cbor
// falls back to `json` tags when `cbor` tags are absent, so the
// resolved table carries only `json` tags and encodes the same field
// names in both formats. Never put both tags on one field.
package codec
