// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"cmp"
	"encoding/hex"
	"fmt"
	"slices"

	"github.com/zeebo/blake3"

	"github.com/tauri-apps/tauri-sub008/lib/acl"
	"github.com/tauri-apps/tauri-sub008/lib/codec"
)

// CommandKey identifies a grant: a qualified command name under one
// execution context.
type CommandKey struct {
	Name    string               `json:"name"`
	Context acl.ExecutionContext `json:"context"`
}

// Compare orders keys by name, then context.
func (k CommandKey) Compare(other CommandKey) int {
	if c := cmp.Compare(k.Name, other.Name); c != 0 {
		return c
	}
	return k.Context.Compare(other.Context)
}

func (k CommandKey) String() string {
	return k.Name + " (" + k.Context.String() + ")"
}

// Reference records which capability and permission produced a grant.
// Used only for host-side diagnostics.
type Reference struct {
	Capability string `json:"capability"`
	Permission string `json:"permission"`
}

func compareReferences(a, b Reference) int {
	if c := cmp.Compare(a.Capability, b.Capability); c != 0 {
		return c
	}
	return cmp.Compare(a.Permission, b.Permission)
}

// Command is a resolved grant or denial for one CommandKey: the window
// and webview label patterns it applies to, the keys of the command
// scopes attached to it, and the references that produced it.
type Command struct {
	Windows      []string    `json:"windows,omitempty"`
	Webviews     []string    `json:"webviews,omitempty"`
	Scopes       []string    `json:"scopes,omitempty"`
	ReferencedBy []Reference `json:"referenced_by,omitempty"`
}

// AppliesTo reports whether the window label or the webview label
// matches one of the command's patterns. Labels are matched on every
// call, so windows created after resolution are covered by patterns
// like "editor-*".
func (c *Command) AppliesTo(window, webview string) bool {
	return acl.MatchAnyPattern(c.Windows, window) || (webview != "" && acl.MatchAnyPattern(c.Webviews, webview))
}

// merge folds other into c, keeping every list sorted and unique.
func (c *Command) merge(other Command) {
	c.Windows = sortedUnion(c.Windows, other.Windows)
	c.Webviews = sortedUnion(c.Webviews, other.Webviews)
	c.Scopes = sortedUnion(c.Scopes, other.Scopes)
	c.ReferencedBy = append(c.ReferencedBy, other.ReferencedBy...)
	slices.SortFunc(c.ReferencedBy, compareReferences)
	c.ReferencedBy = slices.Compact(c.ReferencedBy)
}

// Entry pairs a CommandKey with its resolved command. The table stores
// entries as sorted slices rather than maps so that the JSON form has
// no struct-typed map keys.
type Entry struct {
	Key     CommandKey `json:"key"`
	Command Command    `json:"command"`
}

// Scope is a merged allow/deny scope.
type Scope struct {
	Allow []acl.Value `json:"allow,omitempty"`
	Deny  []acl.Value `json:"deny,omitempty"`
}

// Member is the resolution of one manifest: which of its commands
// ended up allowed or denied, and which of its permissions
// contributed. Used to isolate plugins that share one process.
type Member struct {
	Allowed  []string `json:"allowed,omitempty"`
	Denied   []string `json:"denied,omitempty"`
	Features []string `json:"features,omitempty"`
}

// Table is the resolved access control table.
type Table struct {
	// Platform is the platform the table was resolved for.
	Platform acl.Platform `json:"platform"`

	Allowed []Entry `json:"allowed"`
	Denied  []Entry `json:"denied"`

	// CommandScopes maps scope keys (referenced from Command.Scopes)
	// to scope values.
	CommandScopes map[string]Scope `json:"command_scopes,omitempty"`

	// GlobalScopes maps manifest keys to the merged scope of every
	// command-less permission granted from that manifest.
	GlobalScopes map[string]Scope `json:"global_scopes,omitempty"`

	// Members maps manifest keys to their member resolution.
	Members map[string]Member `json:"members,omitempty"`
}

// Lookup returns the allowed and denied entries for key.
func (t *Table) Lookup(key CommandKey) (allowed, denied *Entry) {
	return findEntry(t.Allowed, key), findEntry(t.Denied, key)
}

func findEntry(entries []Entry, key CommandKey) *Entry {
	index, found := slices.BinarySearchFunc(entries, key, func(entry Entry, target CommandKey) int {
		return entry.Key.Compare(target)
	})
	if !found {
		return nil
	}
	return &entries[index]
}

// Encode returns the canonical CBOR encoding of the table.
func (t *Table) Encode() ([]byte, error) {
	return codec.Marshal(t)
}

// Decode parses a table from its CBOR encoding and checks that it is
// well formed.
func Decode(data []byte) (*Table, error) {
	var table Table
	if err := codec.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("decoding resolved table: %w", err)
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &table, nil
}

// Validate checks the structural invariants a resolver always produces:
// sorted unique entries, no key both allowed and denied, valid patterns
// and contexts, and no dangling scope keys. A table that fails
// validation must not be loaded into an authority.
func (t *Table) Validate() error {
	for _, list := range []struct {
		name    string
		entries []Entry
	}{{"allowed", t.Allowed}, {"denied", t.Denied}} {
		for i, entry := range list.entries {
			if i > 0 && list.entries[i-1].Key.Compare(entry.Key) >= 0 {
				return fmt.Errorf("resolved table: %s entries not strictly sorted at %s", list.name, entry.Key)
			}
			if entry.Key.Name == "" {
				return fmt.Errorf("resolved table: %s entry with empty command name", list.name)
			}
			if err := entry.Key.Context.Validate(); err != nil {
				return fmt.Errorf("resolved table: %s %s: %w", list.name, entry.Key, err)
			}
			for _, pattern := range slices.Concat(entry.Command.Windows, entry.Command.Webviews) {
				if err := acl.ValidatePattern(pattern); err != nil {
					return fmt.Errorf("resolved table: %s %s: %w", list.name, entry.Key, err)
				}
			}
			for _, scopeKey := range entry.Command.Scopes {
				if _, ok := t.CommandScopes[scopeKey]; !ok {
					return fmt.Errorf("resolved table: %s %s references unknown scope %s", list.name, entry.Key, scopeKey)
				}
			}
		}
	}
	for _, entry := range t.Allowed {
		if findEntry(t.Denied, entry.Key) != nil {
			return fmt.Errorf("resolved table: %s is both allowed and denied", entry.Key)
		}
	}
	return nil
}

// Fingerprint returns the hex BLAKE3 digest of the table's canonical
// encoding. Identical resolution input yields identical fingerprints.
func (t *Table) Fingerprint() (string, error) {
	data, err := t.Encode()
	if err != nil {
		return "", fmt.Errorf("encoding resolved table: %w", err)
	}
	digest := TableDigest(data)
	return hex.EncodeToString(digest[:]), nil
}

// Digest is a 32-byte BLAKE3 keyed digest.
type Digest [32]byte

// domainKey separates the hash domains of table digests and scope
// keys: the same bytes hash differently in each.
type domainKey [32]byte

var (
	tableDomainKey = domainKey{
		'a', 'c', 'l', '.', 'r', 'e', 's', 'o', 'l', 'v', 'e', '.', 't', 'a', 'b', 'l',
		'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
	scopeDomainKey = domainKey{
		'a', 'c', 'l', '.', 'r', 'e', 's', 'o', 'l', 'v', 'e', '.', 's', 'c', 'o', 'p',
		'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// TableDigest hashes an encoded table in the table domain.
func TableDigest(data []byte) Digest {
	return keyedHash(tableDomainKey, data)
}

// scopeKey derives the key of a command scope from its canonical
// encoding. The first 16 bytes of the digest are plenty to keep
// distinct scopes apart within one table.
func scopeKey(scope Scope) (string, error) {
	data, err := codec.Marshal(scope)
	if err != nil {
		return "", fmt.Errorf("encoding scope: %w", err)
	}
	digest := keyedHash(scopeDomainKey, data)
	return hex.EncodeToString(digest[:16]), nil
}

func keyedHash(key domainKey, data []byte) Digest {
	// NewKeyed only fails for a key that is not 32 bytes.
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("resolve: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// sortedUnion returns the sorted, deduplicated union of a and b. Nil
// when both are empty.
func sortedUnion(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	result := slices.Concat(a, b)
	slices.Sort(result)
	return slices.Compact(result)
}
