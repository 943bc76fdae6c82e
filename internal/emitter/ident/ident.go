package ident

import (
	"errors"
	"strconv"
	"strings"
)

// Separator divides the event name from the namespace.
const Separator = "."

// ErrInvalidIdentifier is returned when an identifier does not follow the
// identifier grammar.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// Error describes a rejected identifier.
type Error struct {
	// Input is the identifier as supplied by the caller.
	Input string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return "invalid identifier " + strconv.Quote(e.Input) +
		": must be non-empty alphanumeric, with at most one dot in the middle"
}

// Is allows errors.Is to match Error with ErrInvalidIdentifier.
func (e *Error) Is(target error) bool {
	return target == ErrInvalidIdentifier
}

// ID is a parsed identifier. An empty Namespace means no namespace; an
// empty Event only occurs for namespace-only selectors.
type ID struct {
	Event     string
	Namespace string
}

// String returns the identifier in its textual form.
func (id ID) String() string {
	if id.Namespace == "" {
		return id.Event
	}
	return id.Event + Separator + id.Namespace
}

// HasNamespace returns true if the identifier carries a namespace.
func (id ID) HasNamespace() bool {
	return id.Namespace != ""
}

// IsNamespaceOnly returns true for selectors of the form ".namespace".
func (id ID) IsNamespaceOnly() bool {
	return id.Event == "" && id.Namespace != ""
}

// Parse parses an identifier of the form "name" or "name.namespace".
// Namespace-only selectors are rejected.
func Parse(s string) (ID, error) {
	name, ns, found := strings.Cut(s, Separator)
	if !IsName(name) {
		return ID{}, &Error{Input: s}
	}
	if !found {
		return ID{Event: name}, nil
	}
	if !IsName(ns) {
		return ID{}, &Error{Input: s}
	}
	return ID{Event: name, Namespace: ns}, nil
}

// ParseSelector parses an identifier used to select registrations for
// removal. In addition to the forms accepted by Parse it accepts
// ".namespace", which selects the namespace under every event name.
func ParseSelector(s string) (ID, error) {
	if ns, ok := strings.CutPrefix(s, Separator); ok {
		if !IsName(ns) {
			return ID{}, &Error{Input: s}
		}
		return ID{Namespace: ns}, nil
	}
	return Parse(s)
}

// IsName returns true if s is a valid event name or namespace: one or more
// ASCII letters or digits.
func IsName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
