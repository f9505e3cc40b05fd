// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package authority

import (
	"strings"
	"testing"

	"github.com/tauri-apps/tauri-sub008/lib/acl"
)

func TestExplain(t *testing.T) {
	authority := newAuthority(t,
		capability("cap", []string{"main"}, "fs:list", "fs:deny-list"),
		acl.Capability{
			Identifier:  "remote",
			Remote:      &acl.RemoteConfig{URLs: []string{"https://example.com"}},
			Windows:     []string{"main"},
			Permissions: []acl.PermissionEntry{{Identifier: "fs:write"}},
		},
	)

	tests := []struct {
		name    string
		command string
		window  string
		origin  acl.Origin
		want    []string
	}{
		{
			name:    "allowed",
			command: readFile,
			window:  "main",
			origin:  acl.LocalOrigin(),
			want:    []string{"allowed"},
		},
		{
			name:    "denied",
			command: listDir,
			window:  "main",
			origin:  acl.LocalOrigin(),
			want: []string{
				"fs.list_dir denied on origin local",
				"capability: cap, permission: fs:deny-list",
			},
		},
		{
			name:    "wrong window",
			command: readFile,
			window:  "settings",
			origin:  acl.LocalOrigin(),
			want: []string{
				"fs.read_file not allowed on window settings",
				"allowed windows: main",
				"referenced by capability: cap, permission: fs:list",
			},
		},
		{
			name:    "wrong origin",
			command: writeFile,
			window:  "main",
			origin:  acl.LocalOrigin(),
			want: []string{
				"fs.write_file not allowed on origin [local]",
				"- context: [remote: https://example.com], referenced by: capability: remote, permission: fs:write",
				"Permissions associated with this command: fs:write",
			},
		},
		{
			name:    "never granted",
			command: readFile,
			window:  "main",
			origin:  acl.RemoteOrigin("https://example.com"),
			want: []string{
				"fs.read_file not allowed on origin [remote: https://example.com]",
			},
		},
		{
			name:    "unknown plugin",
			command: "plugin:shell|execute",
			window:  "main",
			origin:  acl.LocalOrigin(),
			want:    []string{"shell.execute not allowed. Plugin did not define its manifest"},
		},
		{
			name:    "app command",
			command: "greet",
			window:  "main",
			origin:  acl.LocalOrigin(),
			want:    []string{"greet not allowed. Permissions associated with this command: greet"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			message := authority.Explain(test.command, test.window, "", test.origin)
			for _, fragment := range test.want {
				if !strings.Contains(message, fragment) {
					t.Errorf("Explain = %q, missing %q", message, fragment)
				}
			}
		})
	}
}

func TestExplainListsSetsAndDefault(t *testing.T) {
	authority := newAuthority(t, capability("cap", []string{"main"}, "greet"))

	message := authority.Explain(readFile, "main", "", acl.LocalOrigin())
	want := "fs.read_file not allowed. Permissions associated with this command: fs:default, fs:list, fs:read, fs:read-all, fs:read-tmp"
	if message != want {
		t.Errorf("Explain =\n  %q\nwant\n  %q", message, want)
	}
}

func TestExplainNilAuthority(t *testing.T) {
	var authority *Authority
	if got := authority.Explain(readFile, "main", "", acl.LocalOrigin()); got != "authority not ready" {
		t.Errorf("Explain on nil authority = %q", got)
	}
}
