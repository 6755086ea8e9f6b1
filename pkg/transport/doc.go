// Package transport defines the collaborator interfaces the protocol
// engine consumes: frame transmission and network time.
//
// The engine treats every payload as an opaque octet sequence it
// serializes and deserializes itself; framing, VLAN tagging and QoS
// are the transport implementation's concern, not the engine's.
//
// Two adapters ship with the package:
//   - Loopback: an in-process pair of endpoints connected by channels,
//     used by tests and examples.
//   - UDP: a minimal datagram adapter for running entities and
//     controllers on a local network segment.
package transport
