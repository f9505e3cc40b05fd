// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package authority

import (
	"github.com/tauri-apps/tauri-sub008/lib/acl"
	"github.com/tauri-apps/tauri-sub008/lib/resolve"
)

// Decision is the outcome of an access check.
type Decision int

const (
	// Deny means the command must not run.
	Deny Decision = iota

	// Allow means the command may run.
	Allow
)

// String returns "allow" or "deny".
func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// DenyReason describes why a check was denied.
type DenyReason int

const (
	// ReasonNoGrant means no allowed entry exists for the command.
	ReasonNoGrant DenyReason = iota

	// ReasonDenied means a denied entry matched the origin.
	ReasonDenied

	// ReasonWindowNotGranted means an entry matched the origin but
	// none of its window or webview patterns matched the caller.
	ReasonWindowNotGranted

	// ReasonOriginNotGranted means entries exist for the command but
	// none under a context matching the origin.
	ReasonOriginNotGranted

	// ReasonNotReady means the authority has not been constructed.
	ReasonNotReady
)

// String returns a human-readable reason.
func (r DenyReason) String() string {
	switch r {
	case ReasonNoGrant:
		return "no matching grant"
	case ReasonDenied:
		return "explicit denial"
	case ReasonWindowNotGranted:
		return "window not granted"
	case ReasonOriginNotGranted:
		return "origin not granted"
	case ReasonNotReady:
		return "authority not ready"
	default:
		return "unknown"
	}
}

// Result describes the outcome of a check. The matched entries point
// into the authority's current state and must not be modified.
type Result struct {
	// Decision is Allow or Deny.
	Decision Decision

	// Reason describes why the check was denied. Only meaningful when
	// Decision is Deny.
	Reason DenyReason

	// MatchedGrant is the allowed entry that granted the command. Set
	// only when Decision is Allow.
	MatchedGrant *resolve.Entry

	// MatchedDenial is the denied entry that fired. Set only when
	// Reason is ReasonDenied.
	MatchedDenial *resolve.Entry
}

// Allowed reports whether the decision is Allow.
func (r Result) Allowed() bool {
	return r.Decision == Allow
}

// ScopeKeys returns the command scope keys attached to the matched
// grant, for CommandScope.
func (r Result) ScopeKeys() []string {
	if r.MatchedGrant == nil {
		return nil
	}
	return r.MatchedGrant.Command.Scopes
}

// evaluate applies the decision procedure to one state.
func (s *state) evaluate(command, window, webview string, origin acl.Origin) Result {
	for _, entry := range s.denied[command] {
		if origin.Matches(entry.Key.Context) {
			return Result{Decision: Deny, Reason: ReasonDenied, MatchedDenial: entry}
		}
	}

	candidates := s.allowed[command]
	if len(candidates) == 0 {
		return Result{Decision: Deny, Reason: ReasonNoGrant}
	}
	originMatched := false
	for _, entry := range candidates {
		if !origin.Matches(entry.Key.Context) {
			continue
		}
		originMatched = true
		if entry.Command.AppliesTo(window, webview) {
			return Result{Decision: Allow, MatchedGrant: entry}
		}
	}
	if originMatched {
		return Result{Decision: Deny, Reason: ReasonWindowNotGranted}
	}
	return Result{Decision: Deny, Reason: ReasonOriginNotGranted}
}
