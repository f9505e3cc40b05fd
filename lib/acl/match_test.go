// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package acl

import (
	"errors"
	"testing"
)

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		subject string
		want    bool
	}{
		// Window labels.
		{"exact label", "main", "main", true},
		{"exact label mismatch", "main", "settings", false},
		{"label wildcard", "win-*", "win-1", true},
		{"label wildcard mismatch", "win-*", "main", false},
		{"star matches any label", "*", "settings", true},
		{"question mark", "editor-?", "editor-7", true},
		{"question mark too long", "editor-?", "editor-12", false},
		{"character class", "tab-[0-9]", "tab-4", true},

		// Remote origins.
		{"origin wildcard", "https://*.example.com", "https://app.example.com", true},
		{"origin wildcard does not cross slash", "https://*.example.com", "https://evil.com/.example.com", false},
		{"origin scheme mismatch", "https://*.example.com", "http://app.example.com", false},
		{"origin subtree", "https://example.com/**", "https://example.com/a/b", true},
		{"origin subtree root", "https://example.com/**", "https://example.com", true},
		{"origin subtree other host", "https://example.com/**", "https://example.org/a", false},

		// Recursive wildcards.
		{"universal", "**", "anything/at/all", true},
		{"interior recursive", "a/**/c", "a/b/b/c", true},
		{"interior recursive zero", "a/**/c", "a/c", true},
		{"multiple recursive", "a/**/b/**/c", "a/x/b/y/z/c", true},
		{"recursive rejects empty segment", "a/**/b", "a//b", false},
		{"leading recursive", "**/c", "a/b/c", true},

		// Malformed patterns never match.
		{"unclosed class", "[", "[", false},
		{"unclosed class in segment", "a/**/[", "a/[", false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := MatchPattern(test.pattern, test.subject); got != test.want {
				t.Errorf("MatchPattern(%q, %q) = %v, want %v", test.pattern, test.subject, got, test.want)
			}
		})
	}
}

func TestMatchAnyPattern(t *testing.T) {
	if MatchAnyPattern(nil, "main") {
		t.Error("empty pattern list should deny")
	}
	if !MatchAnyPattern([]string{"settings", "ma*"}, "main") {
		t.Error("second pattern should match")
	}
	if MatchAnyPattern([]string{"settings", "win-*"}, "main") {
		t.Error("no pattern should match")
	}
}

func TestValidatePattern(t *testing.T) {
	valid := []string{"main", "win-*", "**", "https://*.example.com", "https://example.com/**", "tab-[0-9]"}
	for _, pattern := range valid {
		if err := ValidatePattern(pattern); err != nil {
			t.Errorf("ValidatePattern(%q) = %v, want nil", pattern, err)
		}
	}

	if err := ValidatePattern(""); !errors.Is(err, ErrEmptyPattern) {
		t.Errorf("ValidatePattern(\"\") = %v, want ErrEmptyPattern", err)
	}
	invalid := []string{"[", "win-[", "a**b", "https://example.com/x**"}
	for _, pattern := range invalid {
		if err := ValidatePattern(pattern); err == nil {
			t.Errorf("ValidatePattern(%q) = nil, want error", pattern)
		}
	}
}
