// Package scmref decomposes and re-serializes the version-control URLs and
// module coordinates DistroBaker passes between its components.
package scmref

import (
	"strings"
)

// DefaultRef is the ref assumed when a URL carries no "#ref" fragment.
const DefaultRef = "master"

// DefaultStream is the stream assumed when a ModuleCoord carries no
// ":stream" suffix.
const DefaultStream = "master"

// Ref is a version-control URL decomposed into link, ref, and the
// namespace/component pair implied by its last two path segments.
//
// Parsed from strings of the form "link#ref"; Namespace and Component are
// only meaningful when Link matches ".../<namespace>/<component>" and are
// left empty otherwise.
type Ref struct {
	Link      string
	Ref       string
	Namespace string
	Component string
}

// Parse decomposes scmurl as "<link>#<ref>". If ref is absent, Ref
// defaults to DefaultRef. Namespace/Component are taken from the last two
// '/'-separated segments of link, stripped of a trailing ".git".
func Parse(scmurl string) Ref {
	link := scmurl
	ref := ""
	if i := strings.LastIndex(scmurl, "#"); i >= 0 {
		link, ref = scmurl[:i], scmurl[i+1:]
	}
	if ref == "" {
		ref = DefaultRef
	}

	namespace, component := "", ""
	trimmed := strings.TrimSuffix(link, ".git")
	segments := strings.Split(strings.Trim(trimmed, "/"), "/")
	if len(segments) >= 2 {
		namespace = segments[len(segments)-2]
		component = segments[len(segments)-1]
	}

	return Ref{Link: link, Ref: ref, Namespace: namespace, Component: component}
}

// String serializes r back to "<link>#<ref>". An empty Ref omits the
// fragment entirely, so a bare link round-trips as a bare link.
func (r Ref) String() string {
	if r.Ref == "" {
		return r.Link
	}
	return r.Link + "#" + r.Ref
}

// WithRef returns a copy of r with Ref replaced.
func (r Ref) WithRef(ref string) Ref {
	r.Ref = ref
	return r
}

// ModuleCoord is a "name:stream" pair, stream defaulting to DefaultStream
// when the ":stream" suffix is missing or empty.
type ModuleCoord struct {
	Name   string
	Stream string
}

// ParseModuleCoord splits s on the first ':' into name and stream.
func ParseModuleCoord(s string) ModuleCoord {
	name, stream, found := strings.Cut(s, ":")
	if !found || stream == "" {
		stream = DefaultStream
	}
	return ModuleCoord{Name: name, Stream: stream}
}

// String serializes c back to "name:stream".
func (c ModuleCoord) String() string {
	return c.Name + ":" + c.Stream
}
