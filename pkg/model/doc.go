// Package model holds the structured device model of an entity: the
// descriptor store addressed by (type, index) keys, and the static
// identity record advertised on the network.
//
// Descriptors are stored as opaque wire-serialized byte records; the
// store does no semantic validation (that is the command processor's
// job). All store operations are internally serialized so concurrent
// callers observe a consistent snapshot per call.
package model
