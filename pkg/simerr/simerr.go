// Package simerr defines the tagged error kinds returned by the AGV fleet
// simulation's command interface. Arbitration and kinematics are infallible
// on well-formed state; only the core API (spawn, setTarget, removeAgv,
// updateConfig) and map generation can fail, and they always fail through
// one of these kinds rather than a panic.
package simerr

import "fmt"

// Kind tags the category of a simulation error.
type Kind int

const (
	// KindInvalidAgvID means the caller referenced an AGV id the engine does
	// not know about.
	KindInvalidAgvID Kind = iota
	// KindInvalidNodeID means the caller referenced a node id absent from
	// the active map.
	KindInvalidNodeID
	// KindEmptyMap means an operation that requires at least one node (e.g.
	// spawn) was attempted against a map with zero nodes.
	KindEmptyMap
	// KindNoPath means setTarget could not find a route to the requested
	// node. This is not fatal: the AGV remains IDLE.
	KindNoPath
	// KindInvalidConfigValue means a configuration value fell outside its
	// allowed range.
	KindInvalidConfigValue
)

func (k Kind) String() string {
	switch k {
	case KindInvalidAgvID:
		return "InvalidAgvId"
	case KindInvalidNodeID:
		return "InvalidNodeId"
	case KindEmptyMap:
		return "EmptyMap"
	case KindNoPath:
		return "NoPath"
	case KindInvalidConfigValue:
		return "InvalidConfigValue"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned across the simulation's command
// interface. It carries a Kind for programmatic dispatch (errors.Is against
// the package-level sentinels) and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	// Wrapped, if non-nil, is the underlying cause.
	Wrapped error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap lets errors.Is/errors.As see through to a wrapped cause.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is supports errors.Is(err, simerr.ErrNoPath) style sentinel comparisons by
// matching on Kind rather than identity.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an Error of the given kind around a lower-level cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Wrapped: cause}
}

// Sentinels for errors.Is comparisons against a bare kind, with no message.
var (
	ErrInvalidAgvID       = &Error{Kind: KindInvalidAgvID}
	ErrInvalidNodeID      = &Error{Kind: KindInvalidNodeID}
	ErrEmptyMap           = &Error{Kind: KindEmptyMap}
	ErrNoPath             = &Error{Kind: KindNoPath}
	ErrInvalidConfigValue = &Error{Kind: KindInvalidConfigValue}
)
