// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"slices"

	"github.com/tauri-apps/tauri-sub008/lib/acl"
)

// expanded is one permission reached from a capability reference.
type expanded struct {
	// key is the manifest that owns the permission.
	key        string
	name       string
	permission *acl.Permission
}

// identifier returns the permission's fully qualified identifier, as a
// capability would write it.
func (e expanded) identifier() string {
	if e.key == acl.AppManifestKey {
		return e.name
	}
	return e.key + ":" + e.name
}

// expander resolves permission references against the aggregated
// manifests. It tracks the chain of sets being expanded so that a set
// reaching itself is reported as a cycle instead of recursing forever.
type expander struct {
	manifests acl.Manifests

	// visiting is the stack of "manifest:set" nodes currently being
	// expanded.
	visiting []string
}

// expand resolves a capability-level reference. The prefix selects the
// manifest (the app manifest when bare); the base selects the default
// permission, a set, or a permission, in that order.
func (x *expander) expand(reference string) ([]expanded, error) {
	identifier, err := acl.ParseIdentifier(reference)
	if err != nil {
		return nil, err
	}
	key := identifier.ManifestKey()
	manifest, ok := x.manifests[key]
	if !ok {
		return nil, &UnknownManifestError{Key: key, Available: x.manifests.Keys()}
	}

	name := identifier.Base()
	if name == acl.DefaultPermissionName {
		if manifest.Default == nil {
			return nil, &UnknownPermissionError{Key: key, Permission: name}
		}
		return x.expandSet(manifest, manifest.Default)
	}
	if set, ok := manifest.Sets[name]; ok {
		return x.expandSet(manifest, &set)
	}
	if permission, ok := manifest.Permissions[name]; ok {
		return []expanded{{key: key, name: name, permission: &permission}}, nil
	}
	return nil, &UnknownPermissionError{Key: key, Permission: name}
}

// expandSet flattens a set depth-first. Members without a prefix
// resolve in the set's own manifest; "other:name" members resolve in
// the named manifest. The same permission reached twice along
// different paths (a diamond) is returned twice; the merge removes the
// duplicate grants.
func (x *expander) expandSet(manifest *acl.Manifest, set *acl.PermissionSet) ([]expanded, error) {
	node := manifest.Key + ":" + set.Identifier
	if start := slices.Index(x.visiting, node); start >= 0 {
		path := append(slices.Clone(x.visiting[start:]), node)
		return nil, &PermissionSetCycleError{Path: path}
	}
	x.visiting = append(x.visiting, node)
	defer func() { x.visiting = x.visiting[:len(x.visiting)-1] }()

	var result []expanded
	for _, member := range set.Permissions {
		identifier, err := acl.ParseIdentifier(member)
		if err != nil {
			return nil, err
		}
		target := manifest
		if prefix, prefixed := identifier.Prefix(); prefixed {
			other, exists := x.manifests[prefix]
			if !exists {
				return nil, &SetPermissionNotFoundError{Set: node, Permission: member}
			}
			target = other
		}

		name := identifier.Base()
		switch {
		case name == acl.DefaultPermissionName:
			if target.Default == nil {
				return nil, &SetPermissionNotFoundError{Set: node, Permission: member}
			}
			nested, err := x.expandSet(target, target.Default)
			if err != nil {
				return nil, err
			}
			result = append(result, nested...)
		default:
			if permission, ok := target.Permissions[name]; ok {
				result = append(result, expanded{key: target.Key, name: name, permission: &permission})
				continue
			}
			nestedSet, ok := target.Sets[name]
			if !ok {
				return nil, &SetPermissionNotFoundError{Set: node, Permission: member}
			}
			nested, err := x.expandSet(target, &nestedSet)
			if err != nil {
				return nil, err
			}
			result = append(result, nested...)
		}
	}
	return result, nil
}
