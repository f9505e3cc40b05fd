// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"maps"
	"slices"

	"github.com/tauri-apps/tauri-sub008/lib/acl"
)

// Grant is a single contribution to the table before merging: one
// command under one context, allowed or denied, from one permission of
// one capability.
type Grant struct {
	Key     CommandKey
	Deny    bool
	Command Command
}

// Merge folds grants into sorted allowed and denied entries. It runs in
// two passes: the first unions every deny, the second unions every
// allow whose key was not denied. The result is the union of allows
// minus the union of denies, whatever order the grants arrive in.
//
// Merge is pure. The offline resolver and runtime registration in the
// authority both go through it, so there is exactly one precedence rule.
func Merge(grants []Grant) (allowed, denied []Entry) {
	deniedCommands := make(map[CommandKey]*Command)
	for _, grant := range grants {
		if !grant.Deny {
			continue
		}
		accumulate(deniedCommands, grant)
	}

	allowedCommands := make(map[CommandKey]*Command)
	for _, grant := range grants {
		if grant.Deny {
			continue
		}
		if _, isDenied := deniedCommands[grant.Key]; isDenied {
			continue
		}
		accumulate(allowedCommands, grant)
	}

	return sortedEntries(allowedCommands), sortedEntries(deniedCommands)
}

func accumulate(commands map[CommandKey]*Command, grant Grant) {
	command, exists := commands[grant.Key]
	if !exists {
		command = &Command{}
		commands[grant.Key] = command
	}
	command.merge(grant.Command)
}

func sortedEntries(commands map[CommandKey]*Command) []Entry {
	var entries []Entry
	for _, key := range slices.SortedFunc(maps.Keys(commands), CommandKey.Compare) {
		entries = append(entries, Entry{Key: key, Command: *commands[key]})
	}
	return entries
}

// Grants converts a table back into grants, so that it can be merged
// with new grants by Merge.
func (t *Table) Grants() []Grant {
	grants := make([]Grant, 0, len(t.Allowed)+len(t.Denied))
	for _, entry := range t.Denied {
		grants = append(grants, Grant{Key: entry.Key, Deny: true, Command: entry.Command})
	}
	for _, entry := range t.Allowed {
		grants = append(grants, Grant{Key: entry.Key, Command: entry.Command})
	}
	return grants
}

// Combine merges two tables through Merge. Command scopes are unioned
// (scope keys are content hashes, so equal keys carry equal scopes),
// global scopes are appended base first, and members are recomputed.
// Neither input is modified.
func Combine(base, addition *Table) *Table {
	allowed, denied := Merge(append(base.Grants(), addition.Grants()...))

	commandScopes := make(map[string]Scope, len(base.CommandScopes)+len(addition.CommandScopes))
	maps.Copy(commandScopes, base.CommandScopes)
	maps.Copy(commandScopes, addition.CommandScopes)

	globalScopes := make(map[string]Scope, len(base.GlobalScopes)+len(addition.GlobalScopes))
	maps.Copy(globalScopes, base.GlobalScopes)
	for key, scope := range addition.GlobalScopes {
		globalScopes[key] = appendScope(globalScopes[key], scope)
	}

	return newTable(base.Platform, allowed, denied, commandScopes, globalScopes)
}

func appendScope(scope, other Scope) Scope {
	return Scope{
		Allow: slices.Concat(scope.Allow, other.Allow),
		Deny:  slices.Concat(scope.Deny, other.Deny),
	}
}

// newTable assembles a table, deriving member resolutions from the
// entries and collapsing empty maps to nil so that encoding is stable.
func newTable(platform acl.Platform, allowed, denied []Entry, commandScopes, globalScopes map[string]Scope) *Table {
	table := &Table{
		Platform: platform,
		Allowed:  allowed,
		Denied:   denied,
		Members:  buildMembers(allowed, denied),
	}
	if len(commandScopes) > 0 {
		table.CommandScopes = commandScopes
	}
	if len(globalScopes) > 0 {
		table.GlobalScopes = globalScopes
	}
	return table
}

// MemberKey returns the member a qualified command belongs to: the
// plugin name for "plugin:<name>|<command>", or the app manifest key.
func MemberKey(command string) string {
	plugin, _ := acl.SplitCommand(command)
	if plugin == "" {
		return acl.AppManifestKey
	}
	return plugin
}

// buildMembers groups entries by member. Features are the permissions
// that produced a member's grants or denials.
func buildMembers(allowed, denied []Entry) map[string]Member {
	members := make(map[string]*Member)
	member := func(command string) *Member {
		key := MemberKey(command)
		if members[key] == nil {
			members[key] = &Member{}
		}
		return members[key]
	}
	for _, entry := range allowed {
		m := member(entry.Key.Name)
		m.Allowed = append(m.Allowed, entry.Key.Name)
		for _, reference := range entry.Command.ReferencedBy {
			m.Features = append(m.Features, reference.Permission)
		}
	}
	for _, entry := range denied {
		m := member(entry.Key.Name)
		m.Denied = append(m.Denied, entry.Key.Name)
		for _, reference := range entry.Command.ReferencedBy {
			m.Features = append(m.Features, reference.Permission)
		}
	}

	if len(members) == 0 {
		return nil
	}
	result := make(map[string]Member, len(members))
	for key, m := range members {
		result[key] = Member{
			Allowed:  sortedUnion(m.Allowed, nil),
			Denied:   sortedUnion(m.Denied, nil),
			Features: sortedUnion(m.Features, nil),
		}
	}
	return result
}
