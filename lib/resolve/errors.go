// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"fmt"
	"strings"

	"github.com/tauri-apps/tauri-sub008/lib/acl"
)

// UnknownManifestError reports a permission reference whose prefix
// names no registered manifest.
type UnknownManifestError struct {
	Key       string
	Available []string
}

func (e *UnknownManifestError) Error() string {
	return fmt.Sprintf("unknown manifest %s (available: %s)", acl.DisplayKey(e.Key), strings.Join(e.Available, ", "))
}

// UnknownPermissionError reports a permission reference naming neither
// a permission nor a set of its manifest.
type UnknownPermissionError struct {
	Key        string
	Permission string
}

func (e *UnknownPermissionError) Error() string {
	return fmt.Sprintf("unknown permission %q in %s", e.Permission, acl.DisplayKey(e.Key))
}

// SetPermissionNotFoundError reports a permission set member that does
// not resolve.
type SetPermissionNotFoundError struct {
	Set        string
	Permission string
}

func (e *SetPermissionNotFoundError) Error() string {
	return fmt.Sprintf("permission %q referenced by set %q not found", e.Permission, e.Set)
}

// PermissionSetCycleError reports a permission set that includes
// itself, directly or transitively. Path lists the sets along the
// cycle as "manifest:set", starting and ending with the same set.
type PermissionSetCycleError struct {
	Path []string
}

func (e *PermissionSetCycleError) Error() string {
	return "permission set cycle: " + strings.Join(e.Path, " -> ")
}

// EmptyContextError reports a capability that is neither local nor
// remote. It would grant nothing, which is never what its author meant.
type EmptyContextError struct {
	Capability string
}

func (e *EmptyContextError) Error() string {
	return fmt.Sprintf("capability %q has no execution context: set local or remote.urls", e.Capability)
}

// CapabilityError attributes a resolution failure to the capability
// being resolved. Use errors.As to reach the underlying typed error.
type CapabilityError struct {
	Capability string
	Err        error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability %q: %v", e.Capability, e.Err)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}
