package wire

import (
	"encoding/binary"
	"fmt"
)

// AcquireEntity / LockEntity flag bits.
const (
	// AcquireFlagPersistent requests a persistent acquisition.
	AcquireFlagPersistent uint32 = 0x00000001

	// AcquireFlagRelease releases a held acquisition instead of claiming.
	AcquireFlagRelease uint32 = 0x80000000

	// LockFlagUnlock releases a held lock instead of claiming.
	LockFlagUnlock uint32 = 0x00000001
)

// AcquireEntityPayload is the body of AcquireEntity and LockEntity
// commands and responses.
//
// Wire layout (16 octets):
//
//	flags (4) | owner entity ID (8) | descriptor type (2) | descriptor index (2)
//
// On success the response echoes the command body verbatim. On conflict
// OwnerID carries the current holder.
type AcquireEntityPayload struct {
	Flags           uint32
	OwnerID         EntityID
	DescriptorType  DescriptorType
	DescriptorIndex uint16
}

// acquirePayloadSize is the encoded size of an AcquireEntityPayload.
const acquirePayloadSize = 16

// Encode returns the encoded payload.
func (p *AcquireEntityPayload) Encode() []byte {
	out := make([]byte, 0, acquirePayloadSize)
	out = binary.BigEndian.AppendUint32(out, p.Flags)
	out = binary.BigEndian.AppendUint64(out, uint64(p.OwnerID))
	out = binary.BigEndian.AppendUint16(out, uint16(p.DescriptorType))
	out = binary.BigEndian.AppendUint16(out, p.DescriptorIndex)
	return out
}

// DecodeAcquireEntityPayload decodes an acquire/lock body.
func DecodeAcquireEntityPayload(data []byte) (*AcquireEntityPayload, error) {
	if len(data) < acquirePayloadSize {
		return nil, fmt.Errorf("%w: acquire payload needs %d octets, have %d",
			ErrShortBuffer, acquirePayloadSize, len(data))
	}
	return &AcquireEntityPayload{
		Flags:           binary.BigEndian.Uint32(data[0:4]),
		OwnerID:         EntityID(binary.BigEndian.Uint64(data[4:12])),
		DescriptorType:  DescriptorType(binary.BigEndian.Uint16(data[12:14])),
		DescriptorIndex: binary.BigEndian.Uint16(data[14:16]),
	}, nil
}

// ReadDescriptorPayload is the body of a ReadDescriptor command.
//
// Wire layout (6 octets):
//
//	configuration index (2) | descriptor type (2) | descriptor index (2)
type ReadDescriptorPayload struct {
	ConfigurationIndex uint16
	DescriptorType     DescriptorType
	DescriptorIndex    uint16
}

// readDescriptorPayloadSize is the encoded size of a ReadDescriptorPayload.
const readDescriptorPayloadSize = 6

// Encode returns the encoded payload.
func (p *ReadDescriptorPayload) Encode() []byte {
	out := make([]byte, 0, readDescriptorPayloadSize)
	out = binary.BigEndian.AppendUint16(out, p.ConfigurationIndex)
	out = binary.BigEndian.AppendUint16(out, uint16(p.DescriptorType))
	out = binary.BigEndian.AppendUint16(out, p.DescriptorIndex)
	return out
}

// DecodeReadDescriptorPayload decodes a ReadDescriptor command body.
func DecodeReadDescriptorPayload(data []byte) (*ReadDescriptorPayload, error) {
	if len(data) < readDescriptorPayloadSize {
		return nil, fmt.Errorf("%w: read descriptor payload needs %d octets, have %d",
			ErrShortBuffer, readDescriptorPayloadSize, len(data))
	}
	return &ReadDescriptorPayload{
		ConfigurationIndex: binary.BigEndian.Uint16(data[0:2]),
		DescriptorType:     DescriptorType(binary.BigEndian.Uint16(data[2:4])),
		DescriptorIndex:    binary.BigEndian.Uint16(data[4:6]),
	}, nil
}

// ReadDescriptorResponse is the body of a ReadDescriptor response: the
// echoed command fields followed by the raw descriptor bytes.
type ReadDescriptorResponse struct {
	ReadDescriptorPayload
	Descriptor []byte
}

// Encode returns the encoded response body. Descriptor length is
// bounded by MaxDescriptorSize.
func (p *ReadDescriptorResponse) Encode() ([]byte, error) {
	if len(p.Descriptor) > MaxDescriptorSize {
		return nil, fmt.Errorf("%w: descriptor is %d octets, limit %d",
			ErrPayloadTooLarge, len(p.Descriptor), MaxDescriptorSize)
	}
	return append(p.ReadDescriptorPayload.Encode(), p.Descriptor...), nil
}

// DecodeReadDescriptorResponse decodes a ReadDescriptor response body.
func DecodeReadDescriptorResponse(data []byte) (*ReadDescriptorResponse, error) {
	head, err := DecodeReadDescriptorPayload(data)
	if err != nil {
		return nil, err
	}
	rest := data[readDescriptorPayloadSize:]
	desc := make([]byte, len(rest))
	copy(desc, rest)
	return &ReadDescriptorResponse{
		ReadDescriptorPayload: *head,
		Descriptor:            desc,
	}, nil
}

// ConfigurationPayload is the body of Set/GetConfiguration commands and
// responses.
//
// Wire layout (4 octets):
//
//	reserved (2) | configuration index (2)
type ConfigurationPayload struct {
	ConfigurationIndex uint16
}

// configurationPayloadSize is the encoded size of a ConfigurationPayload.
const configurationPayloadSize = 4

// Encode returns the encoded payload.
func (p *ConfigurationPayload) Encode() []byte {
	out := make([]byte, configurationPayloadSize)
	binary.BigEndian.PutUint16(out[2:4], p.ConfigurationIndex)
	return out
}

// DecodeConfigurationPayload decodes a configuration body.
func DecodeConfigurationPayload(data []byte) (*ConfigurationPayload, error) {
	if len(data) < configurationPayloadSize {
		return nil, fmt.Errorf("%w: configuration payload needs %d octets, have %d",
			ErrShortBuffer, configurationPayloadSize, len(data))
	}
	return &ConfigurationPayload{
		ConfigurationIndex: binary.BigEndian.Uint16(data[2:4]),
	}, nil
}

// StreamingPayload is the body of Start/StopStreaming commands and
// responses.
//
// Wire layout (4 octets):
//
//	descriptor type (2) | descriptor index (2)
type StreamingPayload struct {
	DescriptorType  DescriptorType
	DescriptorIndex uint16
}

// streamingPayloadSize is the encoded size of a StreamingPayload.
const streamingPayloadSize = 4

// Encode returns the encoded payload.
func (p *StreamingPayload) Encode() []byte {
	out := make([]byte, 0, streamingPayloadSize)
	out = binary.BigEndian.AppendUint16(out, uint16(p.DescriptorType))
	out = binary.BigEndian.AppendUint16(out, p.DescriptorIndex)
	return out
}

// DecodeStreamingPayload decodes a streaming body.
func DecodeStreamingPayload(data []byte) (*StreamingPayload, error) {
	if len(data) < streamingPayloadSize {
		return nil, fmt.Errorf("%w: streaming payload needs %d octets, have %d",
			ErrShortBuffer, streamingPayloadSize, len(data))
	}
	return &StreamingPayload{
		DescriptorType:  DescriptorType(binary.BigEndian.Uint16(data[0:2])),
		DescriptorIndex: binary.BigEndian.Uint16(data[2:4]),
	}, nil
}

// ControlPayload is the body of Set/GetControl commands and responses.
// Values are opaque to the engine.
//
// Wire layout:
//
//	descriptor type (2) | descriptor index (2) | values (variable)
type ControlPayload struct {
	DescriptorType  DescriptorType
	DescriptorIndex uint16
	Values          []byte
}

// controlPayloadHeadSize is the fixed prefix of a ControlPayload.
const controlPayloadHeadSize = 4

// Encode returns the encoded payload.
func (p *ControlPayload) Encode() ([]byte, error) {
	if len(p.Values) > MaxDescriptorSize {
		return nil, fmt.Errorf("%w: control value is %d octets, limit %d",
			ErrPayloadTooLarge, len(p.Values), MaxDescriptorSize)
	}
	out := make([]byte, 0, controlPayloadHeadSize+len(p.Values))
	out = binary.BigEndian.AppendUint16(out, uint16(p.DescriptorType))
	out = binary.BigEndian.AppendUint16(out, p.DescriptorIndex)
	return append(out, p.Values...), nil
}

// DecodeControlPayload decodes a control body.
func DecodeControlPayload(data []byte) (*ControlPayload, error) {
	if len(data) < controlPayloadHeadSize {
		return nil, fmt.Errorf("%w: control payload needs %d octets, have %d",
			ErrShortBuffer, controlPayloadHeadSize, len(data))
	}
	rest := data[controlPayloadHeadSize:]
	values := make([]byte, len(rest))
	copy(values, rest)
	return &ControlPayload{
		DescriptorType:  DescriptorType(binary.BigEndian.Uint16(data[0:2])),
		DescriptorIndex: binary.BigEndian.Uint16(data[2:4]),
		Values:          values,
	}, nil
}

// DynamicInfoFlagSynchronized is set when the local clock is
// synchronized to the grandmaster.
const DynamicInfoFlagSynchronized uint8 = 0x01

// DynamicInfoPayload is the body of a GetDynamicInfo response, sourced
// from the timing collaborator.
//
// Wire layout (12 octets):
//
//	grandmaster ID (8) | gPTP domain (1) | flags (1) | reserved (2)
type DynamicInfoPayload struct {
	GrandmasterID [8]byte
	GPTPDomain    uint8
	Flags         uint8
}

// dynamicInfoPayloadSize is the encoded size of a DynamicInfoPayload.
const dynamicInfoPayloadSize = 12

// Encode returns the encoded payload.
func (p *DynamicInfoPayload) Encode() []byte {
	out := make([]byte, dynamicInfoPayloadSize)
	copy(out[0:8], p.GrandmasterID[:])
	out[8] = p.GPTPDomain
	out[9] = p.Flags
	return out
}

// DecodeDynamicInfoPayload decodes a dynamic info body.
func DecodeDynamicInfoPayload(data []byte) (*DynamicInfoPayload, error) {
	if len(data) < dynamicInfoPayloadSize {
		return nil, fmt.Errorf("%w: dynamic info payload needs %d octets, have %d",
			ErrShortBuffer, dynamicInfoPayloadSize, len(data))
	}
	p := &DynamicInfoPayload{
		GPTPDomain: data[8],
		Flags:      data[9],
	}
	copy(p.GrandmasterID[:], data[0:8])
	return p, nil
}
