// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package acl

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrEmptyPattern is returned by ValidatePattern for "".
var ErrEmptyPattern = errors.New("pattern cannot be empty")

// MatchPattern checks whether subject matches a glob pattern. Patterns
// are split on "/" and matched segment by segment:
//
//   - Exact: "main" matches only "main"
//   - Single-segment wildcard: "editor-*" matches "editor-1"; "*" never
//     crosses "/", so "https://*.example.com" matches
//     "https://app.example.com" but not "https://evil.com/.example.com"
//   - Recursive wildcard: a "**" segment matches zero or more non-empty
//     segments, so "https://example.com/**" matches every page below it
//   - Universal: "**" matches anything
//   - Character wildcards: "?" matches one non-slash character
//
// Returns false for malformed patterns (unmatched brackets, etc.) rather
// than propagating errors. A malformed pattern never grants access.
func MatchPattern(pattern, subject string) bool {
	if pattern == "**" {
		return true
	}
	if !strings.Contains(pattern, "**") {
		matched, err := path.Match(pattern, subject)
		return err == nil && matched
	}
	return matchSegments(strings.Split(pattern, "/"), strings.Split(subject, "/"))
}

// matchSegments matches pattern segments against subject segments,
// expanding each "**" over every possible run of subject segments.
func matchSegments(pattern, subject []string) bool {
	for len(pattern) > 0 {
		head := pattern[0]
		if head == "**" {
			rest := pattern[1:]
			for consumed := 0; consumed <= len(subject); consumed++ {
				if consumed > 0 && subject[consumed-1] == "" {
					// "**" consumes whole segments only; reject
					// doubled slashes inside the consumed run.
					return false
				}
				if matchSegments(rest, subject[consumed:]) {
					return true
				}
			}
			return false
		}
		if len(subject) == 0 {
			return false
		}
		matched, err := path.Match(head, subject[0])
		if err != nil || !matched {
			return false
		}
		pattern, subject = pattern[1:], subject[1:]
	}
	return len(subject) == 0
}

// MatchAnyPattern checks whether subject matches any of the given
// patterns. Returns false if patterns is empty (default-deny).
func MatchAnyPattern(patterns []string, subject string) bool {
	for _, pattern := range patterns {
		if MatchPattern(pattern, subject) {
			return true
		}
	}
	return false
}

// ValidatePattern reports a syntax error in pattern. The resolver
// rejects malformed patterns up front so they surface as configuration
// errors instead of silently never matching.
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return ErrEmptyPattern
	}
	for _, segment := range strings.Split(pattern, "/") {
		if segment == "**" {
			continue
		}
		if strings.Contains(segment, "**") {
			return fmt.Errorf("pattern %q: \"**\" must be a whole path segment", pattern)
		}
		if _, err := path.Match(segment, ""); err != nil {
			return fmt.Errorf("pattern %q: %w", pattern, err)
		}
	}
	return nil
}
