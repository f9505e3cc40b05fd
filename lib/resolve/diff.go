// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"reflect"
	"slices"
)

// Diff describes how the entries of one table differ from another.
// aclctl watch and aclctl resolve report it when configuration changes
// so the effect of an edit is visible without reading the whole table.
type Diff struct {
	// Granted lists keys allowed in the new table but not the old.
	Granted []CommandKey

	// Revoked lists keys allowed in the old table but not the new,
	// whether they were dropped or became denied.
	Revoked []CommandKey

	// Denied lists keys denied in the new table but not the old.
	Denied []CommandKey

	// Undenied lists keys denied in the old table but not the new.
	Undenied []CommandKey

	// Changed lists keys allowed in both tables whose windows,
	// webviews, or scopes differ. References are diagnostics only and
	// are not compared.
	Changed []CommandKey

	// ScopesChanged is true when the global scopes differ.
	ScopesChanged bool
}

// Empty reports whether the two tables grant and deny exactly the
// same things.
func (d *Diff) Empty() bool {
	return len(d.Granted) == 0 && len(d.Revoked) == 0 &&
		len(d.Denied) == 0 && len(d.Undenied) == 0 &&
		len(d.Changed) == 0 && !d.ScopesChanged
}

// Compare computes the difference from old to new. A nil old table is
// treated as empty, so every entry of new is reported as added.
func Compare(old, new *Table) *Diff {
	if old == nil {
		old = &Table{}
	}
	diff := &Diff{}

	diff.Granted, diff.Revoked = entryDelta(old.Allowed, new.Allowed)
	diff.Denied, diff.Undenied = entryDelta(old.Denied, new.Denied)

	for _, entry := range new.Allowed {
		previous := findEntry(old.Allowed, entry.Key)
		if previous == nil {
			continue
		}
		if !sameGrant(previous.Command, entry.Command) {
			diff.Changed = append(diff.Changed, entry.Key)
		}
	}

	diff.ScopesChanged = !reflect.DeepEqual(normalizeScopes(old.GlobalScopes), normalizeScopes(new.GlobalScopes))
	return diff
}

// entryDelta returns the keys present only in b (added) and only in a
// (removed). Both lists are sorted, so the result is sorted.
func entryDelta(a, b []Entry) (added, removed []CommandKey) {
	for _, entry := range b {
		if findEntry(a, entry.Key) == nil {
			added = append(added, entry.Key)
		}
	}
	for _, entry := range a {
		if findEntry(b, entry.Key) == nil {
			removed = append(removed, entry.Key)
		}
	}
	return added, removed
}

func sameGrant(a, b Command) bool {
	return slices.Equal(a.Windows, b.Windows) &&
		slices.Equal(a.Webviews, b.Webviews) &&
		slices.Equal(a.Scopes, b.Scopes)
}

// normalizeScopes drops empty scopes so that a nil map and a map of
// empty scopes compare equal.
func normalizeScopes(scopes map[string]Scope) map[string]Scope {
	result := make(map[string]Scope, len(scopes))
	for key, scope := range scopes {
		if len(scope.Allow) == 0 && len(scope.Deny) == 0 {
			continue
		}
		result[key] = scope
	}
	return result
}
