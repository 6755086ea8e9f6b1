// Package aecp implements the enumeration/control command processor
// and the controller-side command correlation machinery.
//
// The Handler decodes one inbound command, applies it against the
// descriptor store and the access control ledger, and produces exactly
// one response. Every dispatch branch terminates in a wire.Status;
// unexpected internal faults are contained at the dispatch boundary
// and reduced to STATUS ENTITY_MISBEHAVING rather than propagating.
//
// The Tracker correlates outbound commands issued by this node in its
// controller role with their eventual responses via
// (sequence ID, controller ID) pairs. Responses that match no pending
// command are treated as stale and dropped.
//
// Vendor and profile command sets are registered as handler functions
// over command-type ranges rather than modeled through type
// hierarchies.
package aecp
