// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"reflect"
	"testing"

	"github.com/tauri-apps/tauri-sub008/lib/acl"
)

func keyNames(keys []CommandKey) []string {
	names := []string{}
	for _, key := range keys {
		names = append(names, key.Name)
	}
	return names
}

func TestCompare(t *testing.T) {
	allowed, denied := Merge([]Grant{
		grant("read", false, "main"),
		grant("list", false, "main"),
		grant("write", false, "main"),
		grant("delete", true, "main"),
	})
	old := newTable(acl.PlatformLinux, allowed, denied, nil, nil)

	allowed, denied = Merge([]Grant{
		grant("read", false, "main"),
		grant("list", false, "main", "settings"),
		grant("exec", false, "main"),
		grant("write", true, "main"),
	})
	updated := newTable(acl.PlatformLinux, allowed, denied, nil, nil)

	diff := Compare(old, updated)

	tests := []struct {
		name string
		got  []CommandKey
		want []string
	}{
		{"granted", diff.Granted, []string{"exec"}},
		{"revoked", diff.Revoked, []string{"write"}},
		{"denied", diff.Denied, []string{"write"}},
		{"undenied", diff.Undenied, []string{"delete"}},
		{"changed", diff.Changed, []string{"list"}},
	}
	for _, test := range tests {
		if got := keyNames(test.got); !reflect.DeepEqual(got, test.want) {
			t.Errorf("%s = %v, want %v", test.name, got, test.want)
		}
	}
	if diff.Empty() {
		t.Error("Empty() = true for differing tables")
	}
}

func TestCompareIdentical(t *testing.T) {
	allowed, denied := Merge([]Grant{grant("read", false, "main"), grant("list", true, "main")})
	table := newTable(acl.PlatformLinux, allowed, denied, nil, map[string]Scope{"fs": {}})

	// Only references differ.
	allowed, denied = Merge([]Grant{grant("read", false, "main"), grant("list", true, "main")})
	allowed[0].Command.ReferencedBy = []Reference{{Capability: "other", Permission: "read"}}
	other := newTable(acl.PlatformLinux, allowed, denied, nil, nil)

	if diff := Compare(table, other); !diff.Empty() {
		t.Errorf("Compare of equivalent tables = %+v, want empty", diff)
	}
}

func TestCompareNilOld(t *testing.T) {
	allowed, denied := Merge([]Grant{grant("read", false, "main")})
	table := newTable(acl.PlatformLinux, allowed, denied, nil, map[string]Scope{"fs": {Allow: []acl.Value{"x"}}})

	diff := Compare(nil, table)
	if got := keyNames(diff.Granted); !reflect.DeepEqual(got, []string{"read"}) {
		t.Errorf("granted = %v", got)
	}
	if !diff.ScopesChanged {
		t.Error("ScopesChanged = false, want true")
	}
}
