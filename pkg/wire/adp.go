package wire

import (
	"encoding/binary"
	"fmt"
)

// ADPMessageType identifies a discovery PDU.
type ADPMessageType uint8

const (
	// ADPEntityAvailable announces entity presence.
	ADPEntityAvailable ADPMessageType = 0

	// ADPEntityDeparting announces an orderly departure.
	ADPEntityDeparting ADPMessageType = 1

	// ADPEntityDiscover requests peers to (re-)announce themselves.
	ADPEntityDiscover ADPMessageType = 2
)

// String returns the discovery message type name.
func (t ADPMessageType) String() string {
	switch t {
	case ADPEntityAvailable:
		return "ENTITY_AVAILABLE"
	case ADPEntityDeparting:
		return "ENTITY_DEPARTING"
	case ADPEntityDiscover:
		return "ENTITY_DISCOVER"
	default:
		return "UNKNOWN"
	}
}

// ADPSize is the fixed encoded size of a discovery PDU in octets.
const ADPSize = 68

// ADP is a discovery advertisement PDU.
//
// Wire layout (68 octets):
//
//	message type (1) | valid time (1) | reserved (2) |
//	entity ID (8) | entity model ID (8) | entity capabilities (4) |
//	talker stream sources (2) | talker capabilities (2) |
//	listener stream sinks (2) | listener capabilities (2) |
//	controller capabilities (4) | available index (4) |
//	gPTP grandmaster ID (8) | gPTP domain (1) | reserved (3) |
//	identify control index (2) | interface index (2) |
//	association ID (8) | reserved (4)
//
// For ADPEntityDiscover, EntityID addresses the entity being asked to
// announce; zero addresses all entities.
type ADP struct {
	MessageType          ADPMessageType
	ValidTime            uint8
	EntityID             EntityID
	EntityModelID        uint64
	EntityCapabilities   uint32
	TalkerStreamSources  uint16
	TalkerCapabilities   uint16
	ListenerStreamSinks  uint16
	ListenerCapabilities uint16
	ControllerCaps       uint32
	AvailableIndex       uint32
	GPTPGrandmasterID    [8]byte
	GPTPDomain           uint8
	IdentifyControlIndex uint16
	InterfaceIndex       uint16
	AssociationID        uint64
}

// Encode returns the 68-octet encoded PDU.
func (a *ADP) Encode() []byte {
	out := make([]byte, ADPSize)
	out[0] = uint8(a.MessageType)
	out[1] = a.ValidTime
	binary.BigEndian.PutUint64(out[4:12], uint64(a.EntityID))
	binary.BigEndian.PutUint64(out[12:20], a.EntityModelID)
	binary.BigEndian.PutUint32(out[20:24], a.EntityCapabilities)
	binary.BigEndian.PutUint16(out[24:26], a.TalkerStreamSources)
	binary.BigEndian.PutUint16(out[26:28], a.TalkerCapabilities)
	binary.BigEndian.PutUint16(out[28:30], a.ListenerStreamSinks)
	binary.BigEndian.PutUint16(out[30:32], a.ListenerCapabilities)
	binary.BigEndian.PutUint32(out[32:36], a.ControllerCaps)
	binary.BigEndian.PutUint32(out[36:40], a.AvailableIndex)
	copy(out[40:48], a.GPTPGrandmasterID[:])
	out[48] = a.GPTPDomain
	binary.BigEndian.PutUint16(out[52:54], a.IdentifyControlIndex)
	binary.BigEndian.PutUint16(out[54:56], a.InterfaceIndex)
	binary.BigEndian.PutUint64(out[56:64], a.AssociationID)
	return out
}

// DecodeADP decodes a discovery PDU. Trailing octets beyond the fixed
// size are ignored for forward compatibility.
func DecodeADP(data []byte) (*ADP, error) {
	if len(data) < ADPSize {
		return nil, fmt.Errorf("%w: discovery PDU needs %d octets, have %d",
			ErrShortBuffer, ADPSize, len(data))
	}
	a := &ADP{
		MessageType:          ADPMessageType(data[0]),
		ValidTime:            data[1],
		EntityID:             EntityID(binary.BigEndian.Uint64(data[4:12])),
		EntityModelID:        binary.BigEndian.Uint64(data[12:20]),
		EntityCapabilities:   binary.BigEndian.Uint32(data[20:24]),
		TalkerStreamSources:  binary.BigEndian.Uint16(data[24:26]),
		TalkerCapabilities:   binary.BigEndian.Uint16(data[26:28]),
		ListenerStreamSinks:  binary.BigEndian.Uint16(data[28:30]),
		ListenerCapabilities: binary.BigEndian.Uint16(data[30:32]),
		ControllerCaps:       binary.BigEndian.Uint32(data[32:36]),
		AvailableIndex:       binary.BigEndian.Uint32(data[36:40]),
		GPTPDomain:           data[48],
		IdentifyControlIndex: binary.BigEndian.Uint16(data[52:54]),
		InterfaceIndex:       binary.BigEndian.Uint16(data[54:56]),
		AssociationID:        binary.BigEndian.Uint64(data[56:64]),
	}
	copy(a.GPTPGrandmasterID[:], data[40:48])
	return a, nil
}
