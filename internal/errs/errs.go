// Package errs defines the error kinds DistroBaker's components report
// (§7), following the teacher's typed-error convention
// (NewXxxError constructors, Unwrap support for errors.Is/As).
package errs

import "fmt"

// Kind identifies one of the ten error kinds named in §7.
type Kind string

const (
	KindConfig          Kind = "config"
	KindRemoteFetch     Kind = "remote_fetch"
	KindMergeConflict   Kind = "merge_conflict"
	KindManifestParse   Kind = "manifest_parse"
	KindCacheReconcile  Kind = "cache_reconcile"
	KindBuildSystem     Kind = "build_system"
	KindAuth            Kind = "auth"
	KindBuildSubmit     Kind = "build_submit"
	KindModuleMetadata  Kind = "module_metadata"
	KindUnsupported     Kind = "unsupported"
)

// Error is the common shape for every DistroBaker error kind: a kind, the
// namespace/component/NVR the failure occurred against (when known), and
// the wrapped cause.
type Error struct {
	Kind      Kind
	Namespace string
	Component string
	NVR       string
	Op        string
	Err       error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s: %s", e.Kind, e.Op)
	if e.Namespace != "" {
		s += fmt.Sprintf(" namespace=%s", e.Namespace)
	}
	if e.Component != "" {
		s += fmt.Sprintf(" component=%s", e.Component)
	}
	if e.NVR != "" {
		s += fmt.Sprintf(" nvr=%s", e.NVR)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an *Error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithComponent returns a copy of e annotated with namespace/component/NVR,
// for call sites that only learn these after the error occurred.
func (e *Error) WithComponent(namespace, component, nvr string) *Error {
	c := *e
	c.Namespace = namespace
	c.Component = component
	c.NVR = nvr
	return &c
}

func Config(op string, err error) *Error         { return New(KindConfig, op, err) }
func RemoteFetch(op string, err error) *Error     { return New(KindRemoteFetch, op, err) }
func MergeConflict(op string, err error) *Error   { return New(KindMergeConflict, op, err) }
func ManifestParse(op string, err error) *Error   { return New(KindManifestParse, op, err) }
func CacheReconcile(op string, err error) *Error  { return New(KindCacheReconcile, op, err) }
func BuildSystem(op string, err error) *Error     { return New(KindBuildSystem, op, err) }
func Auth(op string, err error) *Error            { return New(KindAuth, op, err) }
func BuildSubmit(op string, err error) *Error     { return New(KindBuildSubmit, op, err) }
func ModuleMetadata(op string, err error) *Error  { return New(KindModuleMetadata, op, err) }
func Unsupported(op string, err error) *Error     { return New(KindUnsupported, op, err) }

// Is reports whether err is an *Error of the given kind, so call sites can
// branch without importing the concrete type everywhere.
func Is(err error, kind Kind) bool {
	var e *Error
	if ae, ok := err.(*Error); ok {
		e = ae
	} else {
		return false
	}
	return e.Kind == kind
}
