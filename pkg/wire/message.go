package wire

import (
	"fmt"
	"time"
)

// Protocol identifies which sub-protocol a frame belongs to, used to
// route inbound frames to the right handler.
type Protocol uint8

const (
	// ProtocolDiscovery tags discovery (advertise/discover) frames.
	ProtocolDiscovery Protocol = 0

	// ProtocolControl tags enumeration/control frames.
	ProtocolControl Protocol = 1

	// ProtocolConnection tags stream connection-management frames,
	// handled by the connection collaborator.
	ProtocolConnection Protocol = 2
)

// String returns the protocol name.
func (p Protocol) String() string {
	switch p {
	case ProtocolDiscovery:
		return "DISCOVERY"
	case ProtocolControl:
		return "CONTROL"
	case ProtocolConnection:
		return "CONNECTION"
	default:
		return "UNKNOWN"
	}
}

// Message is an inbound protocol frame as seen by the engine's message
// loop: a protocol tag, the opaque payload, the sender identity and the
// receipt timestamp. Messages are transient; the loop consumes and
// discards them.
type Message struct {
	// Protocol selects the handler the payload is routed to.
	Protocol Protocol

	// Payload is the raw frame, owned by the message once enqueued.
	Payload []byte

	// Sender is the originating entity, if known (zero otherwise).
	Sender EntityID

	// ReceivedAt is when the frame entered the queue.
	ReceivedAt time.Time
}

// EncodeFrame prefixes payload with its one-octet protocol tag. All
// frames on the transport carry this tag so the message loop can route
// them without inspecting protocol internals.
func EncodeFrame(p Protocol, payload []byte) []byte {
	out := make([]byte, 0, 1+len(payload))
	out = append(out, uint8(p))
	return append(out, payload...)
}

// DecodeFrame splits a tagged frame into its protocol and payload.
// The returned payload aliases data.
func DecodeFrame(data []byte) (Protocol, []byte, error) {
	if len(data) < 1 {
		return 0, nil, fmt.Errorf("%w: empty frame", ErrShortBuffer)
	}
	p := Protocol(data[0])
	if p > ProtocolConnection {
		return 0, nil, fmt.Errorf("wire: unknown protocol tag 0x%02X", data[0])
	}
	return p, data[1:], nil
}
