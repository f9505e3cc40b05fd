// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package authority

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/tauri-apps/tauri-sub008/lib/acl"
	"github.com/tauri-apps/tauri-sub008/lib/codec"
	"github.com/tauri-apps/tauri-sub008/lib/resolve"
)

// ScopeValue is a scope decoded into the caller's type. The slices are
// shared with the cache and must not be modified.
type ScopeValue[T any] struct {
	Allow []T
	Deny  []T
}

type scopeKind uint8

const (
	commandScopeKind scopeKind = iota
	globalScopeKind
)

type scopeCacheKey struct {
	kind      scopeKind
	key       string
	valueType reflect.Type
}

// CommandScope decodes the command scopes named by keys (normally
// Result.ScopeKeys of an allowed check) into T and concatenates them.
// An unknown key is an error: the table references only scopes it
// carries, so it means the key came from a different authority.
func CommandScope[T any](a *Authority, keys ...string) (ScopeValue[T], error) {
	if a == nil {
		return ScopeValue[T]{}, fmt.Errorf("authority: not ready")
	}
	s := a.current()
	var result ScopeValue[T]
	for _, key := range keys {
		scope, ok := s.table.CommandScopes[key]
		if !ok {
			return ScopeValue[T]{}, fmt.Errorf("authority: unknown command scope %s", key)
		}
		value, err := decodeScope[T](s, commandScopeKind, key, scope)
		if err != nil {
			return ScopeValue[T]{}, err
		}
		if len(keys) == 1 {
			return value, nil
		}
		result.Allow = append(result.Allow, value.Allow...)
		result.Deny = append(result.Deny, value.Deny...)
	}
	return result, nil
}

// GlobalScope decodes the global scope of the manifest key (a plugin
// key such as "fs" or "core:event", or acl.AppManifestKey) into T. A
// manifest without command-less grants has an empty global scope.
func GlobalScope[T any](a *Authority, key string) (ScopeValue[T], error) {
	if a == nil {
		return ScopeValue[T]{}, fmt.Errorf("authority: not ready")
	}
	s := a.current()
	scope, ok := s.table.GlobalScopes[key]
	if !ok {
		return ScopeValue[T]{}, nil
	}
	return decodeScope[T](s, globalScopeKind, key, scope)
}

func decodeScope[T any](s *state, kind scopeKind, key string, scope resolve.Scope) (ScopeValue[T], error) {
	cacheKey := scopeCacheKey{kind: kind, key: key, valueType: reflect.TypeFor[T]()}
	if cached, ok := s.scopes.Load(cacheKey); ok {
		return cached.(ScopeValue[T]), nil
	}

	allow, err := decodeValues[T](scope.Allow)
	if err != nil {
		return ScopeValue[T]{}, fmt.Errorf("authority: decoding allow scope %s: %w", key, err)
	}
	deny, err := decodeValues[T](scope.Deny)
	if err != nil {
		return ScopeValue[T]{}, fmt.Errorf("authority: decoding deny scope %s: %w", key, err)
	}
	value := ScopeValue[T]{Allow: allow, Deny: deny}

	// Two readers may race to decode the same scope; both produce the
	// same value, and the first stored wins.
	actual, _ := s.scopes.LoadOrStore(cacheKey, value)
	return actual.(ScopeValue[T]), nil
}

func decodeValues[T any](values []acl.Value) ([]T, error) {
	if len(values) == 0 {
		return nil, nil
	}
	decoded := make([]T, 0, len(values))
	for i, value := range values {
		var typed T
		if err := codec.Convert(value, &typed); err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		decoded = append(decoded, typed)
	}
	return slices.Clip(decoded), nil
}
