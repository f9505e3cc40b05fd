// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package acl

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// ContextKind distinguishes app-origin content from remote content.
type ContextKind string

const (
	// ContextLocal is content loaded from the application's own origin.
	ContextLocal ContextKind = "local"

	// ContextRemote is content loaded from an external origin.
	ContextRemote ContextKind = "remote"
)

// ExecutionContext is the resolver-side context of a grant: local, or
// remote qualified by a URL pattern. It is comparable and used as part
// of map keys.
type ExecutionContext struct {
	Kind ContextKind `json:"kind"`

	// URL is the remote origin pattern. Empty for local contexts.
	URL string `json:"url,omitempty"`
}

// LocalContext returns the local execution context.
func LocalContext() ExecutionContext {
	return ExecutionContext{Kind: ContextLocal}
}

// RemoteContext returns a remote execution context for a URL pattern.
func RemoteContext(urlPattern string) ExecutionContext {
	return ExecutionContext{Kind: ContextRemote, URL: urlPattern}
}

// String returns "local" or "remote:<pattern>".
func (c ExecutionContext) String() string {
	if c.Kind == ContextRemote {
		return "remote:" + c.URL
	}
	return string(c.Kind)
}

// Compare orders contexts: local before remote, remote by pattern.
func (c ExecutionContext) Compare(other ExecutionContext) int {
	if c.Kind != other.Kind {
		if c.Kind == ContextLocal {
			return -1
		}
		return 1
	}
	switch {
	case c.URL < other.URL:
		return -1
	case c.URL > other.URL:
		return 1
	}
	return 0
}

// Validate checks that the kind is known and that remote contexts
// carry a well-formed pattern.
func (c ExecutionContext) Validate() error {
	switch c.Kind {
	case ContextLocal:
		if c.URL != "" {
			return fmt.Errorf("local context must not carry a URL (got %q)", c.URL)
		}
		return nil
	case ContextRemote:
		if c.URL == "" {
			return fmt.Errorf("remote context requires a URL pattern")
		}
		return ValidatePattern(c.URL)
	default:
		return fmt.Errorf("unknown execution context kind %q", c.Kind)
	}
}

// Origin is the caller-side context of an invocation, determined by the
// webview layer from the currently loaded content. The authority never
// infers it.
type Origin struct {
	// Remote is false for app-origin content.
	Remote bool

	// URL is the remote content URL. Ignored when Remote is false.
	URL string
}

// LocalOrigin is the origin of app-authored content.
func LocalOrigin() Origin {
	return Origin{}
}

// RemoteOrigin is the origin of content loaded from url.
func RemoteOrigin(url string) Origin {
	return Origin{Remote: true, URL: url}
}

// ParseOrigin maps the wire form ("local" or a URL) to an Origin. An
// empty string is rejected rather than defaulted to local.
func ParseOrigin(s string) (Origin, error) {
	switch s {
	case "":
		return Origin{}, fmt.Errorf("origin is required")
	case string(ContextLocal):
		return LocalOrigin(), nil
	default:
		return RemoteOrigin(s), nil
	}
}

// String returns "local" or "remote: <url>".
func (o Origin) String() string {
	if o.Remote {
		return "remote: " + o.URL
	}
	return string(ContextLocal)
}

// Wire returns the wire form accepted by ParseOrigin.
func (o Origin) Wire() string {
	if o.Remote {
		return o.URL
	}
	return string(ContextLocal)
}

// Matches reports whether the origin satisfies a grant context. Local
// and remote are disjoint: a remote origin never satisfies a local
// context, whatever its URL.
func (o Origin) Matches(context ExecutionContext) bool {
	switch {
	case !o.Remote && context.Kind == ContextLocal:
		return true
	case o.Remote && context.Kind == ContextRemote:
		return matchRemote(context.URL, o.URL)
	default:
		return false
	}
}

// matchRemote matches a remote content URL against a context pattern.
// A pattern without a path names whole origins and is matched against
// the URL's scheme and host alone, so "https://*.example.com" admits
// "https://app.example.com/page". A pattern with a path is matched
// against scheme, host, and path; query and fragment never take part.
// User info is dropped before matching: "https://example.com@evil.com"
// has host evil.com. A URL that does not parse as absolute is matched
// as given.
func matchRemote(pattern, raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return MatchPattern(pattern, raw)
	}
	origin := parsed.Scheme + "://" + parsed.Host
	if !patternHasPath(pattern) {
		return MatchPattern(pattern, origin)
	}
	urlPath := parsed.EscapedPath()
	if urlPath == "" {
		urlPath = "/"
	}
	return MatchPattern(pattern, origin+urlPath)
}

// patternHasPath reports whether a remote pattern continues past its
// host.
func patternHasPath(pattern string) bool {
	if _, rest, found := strings.Cut(pattern, "://"); found {
		pattern = rest
	}
	return strings.Contains(pattern, "/")
}

// MarshalJSON encodes the origin in its wire form.
func (o Origin) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Wire())
}

// UnmarshalJSON decodes the wire form.
func (o *Origin) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseOrigin(s)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
