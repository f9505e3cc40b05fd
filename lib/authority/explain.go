// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package authority

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tauri-apps/tauri-sub008/lib/acl"
	"github.com/tauri-apps/tauri-sub008/lib/resolve"
)

// Explain describes, for the host log and for aclctl explain, why
// command is or is not allowed for the caller. The message names
// capabilities and permissions and must never be returned to web
// content. Returns "allowed" when Check would allow.
func (a *Authority) Explain(command, window, webview string, origin acl.Origin) string {
	if a == nil {
		return "authority not ready"
	}
	s := a.current()

	plugin, name := acl.SplitCommand(command)
	pretty := name
	if plugin != "" {
		pretty = plugin + "." + name
	}

	for _, entry := range s.denied[command] {
		if origin.Matches(entry.Key.Context) {
			return fmt.Sprintf("%s denied on origin %s, referenced by: %s",
				pretty, origin, formatReferences(entry.Command.ReferencedBy))
		}
	}

	candidates := s.allowed[command]
	var firstOriginMatch *resolve.Entry
	for _, entry := range candidates {
		if !origin.Matches(entry.Key.Context) {
			continue
		}
		if entry.Command.AppliesTo(window, webview) {
			return "allowed"
		}
		if firstOriginMatch == nil {
			firstOriginMatch = entry
		}
	}
	if firstOriginMatch != nil {
		return fmt.Sprintf("%s not allowed on window %s, webview %s, allowed windows: %s, allowed webviews: %s, referenced by %s",
			pretty, window, webview,
			strings.Join(firstOriginMatch.Command.Windows, ", "),
			strings.Join(firstOriginMatch.Command.Webviews, ", "),
			formatReferences(firstOriginMatch.Command.ReferencedBy))
	}

	detail := a.permissionDetail(plugin, name)
	if len(candidates) == 0 {
		return fmt.Sprintf("%s not allowed. %s", pretty, detail)
	}

	var matches []string
	for _, entry := range candidates {
		context := "[local]"
		if entry.Key.Context.Kind == acl.ContextRemote {
			context = "[remote: " + entry.Key.Context.URL + "]"
		}
		matches = append(matches, fmt.Sprintf("- context: %s, referenced by: %s",
			context, formatReferences(entry.Command.ReferencedBy)))
	}
	return fmt.Sprintf("%s not allowed on origin [%s]. Please create a capability that has this origin on the context field.\n\nFound matches for: %s\n\n%s",
		pretty, origin, strings.Join(matches, "\n"), detail)
}

func formatReferences(references []resolve.Reference) string {
	parts := make([]string, len(references))
	for i, reference := range references {
		parts[i] = "capability: " + reference.Capability + ", permission: " + reference.Permission
	}
	return strings.Join(parts, " || ")
}

// permissionDetail lists the permissions of the command's manifest that
// would allow it.
func (a *Authority) permissionDetail(plugin, command string) string {
	manifest := a.manifestFor(plugin)
	if manifest == nil {
		return "Plugin did not define its manifest"
	}

	var names []string
	for _, name := range manifest.PermissionNames() {
		if permissionAllows(manifest, name, command, nil) {
			if manifest.Key == acl.AppManifestKey {
				names = append(names, name)
			} else {
				names = append(names, manifest.Key+":"+name)
			}
		}
	}
	return "Permissions associated with this command: " + strings.Join(names, ", ")
}

// manifestFor finds the manifest whose command namespace is plugin, or
// the app manifest when plugin is empty.
func (a *Authority) manifestFor(plugin string) *acl.Manifest {
	if plugin == "" {
		return a.manifests[acl.AppManifestKey]
	}
	for _, manifest := range a.manifests {
		if manifest.Key != acl.AppManifestKey && manifest.CommandNamespace() == plugin {
			return manifest
		}
	}
	return nil
}

// permissionAllows reports whether the named default, set, or
// permission of manifest allows command, following set members within
// the same manifest. visiting guards against set cycles, which the
// resolver rejects but Explain may still be asked about.
func permissionAllows(manifest *acl.Manifest, name, command string, visiting []string) bool {
	if slices.Contains(visiting, name) {
		return false
	}
	var set *acl.PermissionSet
	switch {
	case name == acl.DefaultPermissionName:
		set = manifest.Default
	default:
		if permission, ok := manifest.Permissions[name]; ok {
			return slices.Contains(permission.Commands.Allow, command)
		}
		if s, ok := manifest.Sets[name]; ok {
			set = &s
		}
	}
	if set == nil {
		return false
	}
	visiting = append(visiting, name)
	for _, member := range set.Permissions {
		if strings.Contains(member, ":") {
			continue
		}
		if permissionAllows(manifest, member, command, visiting) {
			return true
		}
	}
	return false
}
