package wire

import "fmt"

// EntityID is the 64-bit identifier of a network entity.
// Zero is never a valid entity identifier.
type EntityID uint64

// String formats the entity ID as a 16-digit hex string.
func (id EntityID) String() string {
	return fmt.Sprintf("0x%016X", uint64(id))
}

// DescriptorType identifies the kind of a descriptor record.
type DescriptorType uint16

const (
	// DescriptorEntity is the top-level entity descriptor.
	DescriptorEntity DescriptorType = 0x0000

	// DescriptorConfiguration describes one selectable configuration.
	DescriptorConfiguration DescriptorType = 0x0001

	// DescriptorAudioUnit describes an audio processing unit.
	DescriptorAudioUnit DescriptorType = 0x0002

	// DescriptorStreamInput describes an inbound media stream sink.
	DescriptorStreamInput DescriptorType = 0x0004

	// DescriptorStreamOutput describes an outbound media stream source.
	DescriptorStreamOutput DescriptorType = 0x0005

	// DescriptorControl describes a controllable value.
	DescriptorControl DescriptorType = 0x000C

	// DescriptorInvalid marks an invalid or absent descriptor reference.
	DescriptorInvalid DescriptorType = 0xFFFF
)

// String returns the descriptor type name.
func (t DescriptorType) String() string {
	switch t {
	case DescriptorEntity:
		return "ENTITY"
	case DescriptorConfiguration:
		return "CONFIGURATION"
	case DescriptorAudioUnit:
		return "AUDIO_UNIT"
	case DescriptorStreamInput:
		return "STREAM_INPUT"
	case DescriptorStreamOutput:
		return "STREAM_OUTPUT"
	case DescriptorControl:
		return "CONTROL"
	case DescriptorInvalid:
		return "INVALID"
	default:
		return fmt.Sprintf("0x%04X", uint16(t))
	}
}

// IsStream returns true for stream input/output descriptor types.
func (t DescriptorType) IsStream() bool {
	return t == DescriptorStreamInput || t == DescriptorStreamOutput
}

// DescriptorKey packs a (type, index) descriptor address into a single
// 32-bit key: type in the high 16 bits, index in the low 16 bits.
type DescriptorKey uint32

// MakeDescriptorKey packs a descriptor type and index into a key.
func MakeDescriptorKey(t DescriptorType, index uint16) DescriptorKey {
	return DescriptorKey(uint32(t)<<16 | uint32(index))
}

// Type returns the descriptor type half of the key.
func (k DescriptorKey) Type() DescriptorType {
	return DescriptorType(k >> 16)
}

// Index returns the descriptor index half of the key.
func (k DescriptorKey) Index() uint16 {
	return uint16(k & 0xFFFF)
}

// MaxDescriptorSize bounds the serialized size of a single descriptor,
// and with it the variable part of a ReadDescriptor response.
const MaxDescriptorSize = 508
