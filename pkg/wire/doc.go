// Package wire defines the binary wire formats for the AVDECC-class
// entity control and discovery protocols.
//
// All multi-byte integer fields are network byte order (big-endian).
// Every decode path is explicit and bounds-checked: buffers are never
// reinterpreted as typed records, and a short buffer always produces
// ErrShortBuffer rather than a partial decode.
//
// # Message Families
//
// Three protocol families share the transport:
//   - Discovery (ADP): fixed 68-octet advertise/discover PDUs.
//   - Control (AECP): a 20-octet command header followed by a
//     command-specific body; responses set the response bit on the
//     command type and carry a 2-octet status after the header.
//   - Connection (ACMP): a peer protocol; this package only tags its
//     frames so they can be routed to the connection collaborator.
//
// # Status Codes
//
// Every control response carries a terminal Status. Faults never cross
// the dispatch boundary as anything other than a status code.
package wire
