// Package ident parses and validates emitter identifiers.
//
// # Identifier Format
//
// An identifier names an event and, optionally, a namespace:
//
//	PlayerCreated              - event name only
//	PlayerStateChange.player1  - event name and namespace
//	.player1                   - namespace only (removal selectors only)
//
// Event names and namespaces consist of one or more ASCII letters or
// digits. At most one dot may appear, and never at either end. The
// namespace-only form is accepted by ParseSelector alone; dispatch and
// registration always need a concrete event name.
package ident
