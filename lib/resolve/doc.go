// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

// Package resolve expands capabilities into the resolved table: the
// flat list of (command, execution context) grants the runtime
// authority consults on every invocation.
//
// Resolution runs once, at build time or startup, and fails loudly.
// An unknown plugin, an unknown permission, a permission-set cycle, or
// a capability with no execution context aborts the whole resolution
// with a typed error naming the offending capability; there is no
// partial table.
//
// The typical flow:
//
//	manifests, _ := acl.Aggregate(...)
//	table, err := resolve.Resolve(manifests, capabilities, resolve.Options{ApplyDefaults: true})
//
// Every capability's permission references are expanded depth-first
// through permission sets (across plugins when a set names
// "other:permission"). Each expanded permission contributes grants:
// one per allowed or denied command per execution context of the
// capability, carrying the capability's window and webview patterns
// and the merged scope. [Merge] folds the grants into the table:
// every deny is collected first, then every allow, and any allowed
// key that was also denied is dropped.
//
// Permissions with no commands contribute only to their plugin's
// global scope.
//
// The table is deterministic. Entries are sorted, lists are
// deduplicated, and scope keys are content hashes, so resolving the
// same input twice yields byte-identical CBOR and the same
// [Table.Fingerprint].
package resolve
