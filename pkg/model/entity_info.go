package model

import "github.com/avdecc-protocol/avdecc-go/pkg/wire"

// Entity capability bits advertised in discovery PDUs.
const (
	// CapAEMSupported indicates the entity implements the
	// enumeration/control model.
	CapAEMSupported uint32 = 0x00000001

	// CapClassASupported indicates class A streaming support.
	CapClassASupported uint32 = 0x00000002

	// CapGPTPSupported indicates the entity participates in network
	// time synchronization.
	CapGPTPSupported uint32 = 0x00000008
)

// Talker/listener capability bits.
const (
	// StreamCapImplemented indicates the role is implemented at all.
	StreamCapImplemented uint16 = 0x0001

	// StreamCapAudioSource indicates audio stream support.
	StreamCapAudioSource uint16 = 0x4000
)

// Controller capability bits.
const (
	// ControllerCapImplemented indicates the entity can act as a
	// controller.
	ControllerCapImplemented uint32 = 0x00000001
)

// EntityInfo is the static identity and capability record of the local
// entity, shared between the discovery module and the command
// processor. It does not change after construction.
type EntityInfo struct {
	// EntityID is the 64-bit entity identifier. Must be non-zero.
	EntityID wire.EntityID

	// EntityModelID identifies the descriptor model revision.
	EntityModelID uint64

	// EntityCapabilities is the capability bitfield (Cap* constants).
	EntityCapabilities uint32

	// TalkerStreamSources is the number of outbound stream sources.
	TalkerStreamSources uint16

	// TalkerCapabilities is the talker capability bitfield.
	TalkerCapabilities uint16

	// ListenerStreamSinks is the number of inbound stream sinks.
	ListenerStreamSinks uint16

	// ListenerCapabilities is the listener capability bitfield.
	ListenerCapabilities uint16

	// ControllerCapabilities is the controller capability bitfield.
	ControllerCapabilities uint32

	// InterfaceIndex is the network interface the entity lives on.
	InterfaceIndex uint16

	// AssociationID groups related entities, zero if unused.
	AssociationID uint64
}

// Valid returns true if the record identifies a usable entity.
func (e *EntityInfo) Valid() bool {
	return e != nil && e.EntityID != 0
}
