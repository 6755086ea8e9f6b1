package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Codec errors.
var (
	// ErrShortBuffer indicates the input is too short for the claimed record.
	ErrShortBuffer = errors.New("wire: short buffer")

	// ErrPayloadTooLarge indicates a variable payload exceeds its bound.
	ErrPayloadTooLarge = errors.New("wire: payload too large")
)

// CommandType identifies an enumeration/control command.
type CommandType uint16

const (
	// CmdAcquireEntity claims exclusive ownership of an entity.
	CmdAcquireEntity CommandType = 0x0000

	// CmdLockEntity claims the entity lock, independent of acquisition.
	CmdLockEntity CommandType = 0x0001

	// CmdEntityAvailable probes whether the target entity is reachable.
	CmdEntityAvailable CommandType = 0x0002

	// CmdControllerAvailable probes whether a controller is reachable.
	CmdControllerAvailable CommandType = 0x0003

	// CmdReadDescriptor reads one descriptor record.
	CmdReadDescriptor CommandType = 0x0004

	// CmdWriteDescriptor replaces one descriptor record.
	CmdWriteDescriptor CommandType = 0x0005

	// CmdSetConfiguration selects the active configuration.
	CmdSetConfiguration CommandType = 0x0006

	// CmdGetConfiguration reads the active configuration index.
	CmdGetConfiguration CommandType = 0x0007

	// CmdSetControl writes a control value.
	CmdSetControl CommandType = 0x0018

	// CmdGetControl reads a control value.
	CmdGetControl CommandType = 0x0019

	// CmdStartStreaming starts a stream on a stream descriptor.
	CmdStartStreaming CommandType = 0x0022

	// CmdStopStreaming stops a stream on a stream descriptor.
	CmdStopStreaming CommandType = 0x0023

	// CmdGetDynamicInfo reads profile-level dynamic information
	// (grandmaster identity, synchronization domain).
	CmdGetDynamicInfo CommandType = 0x004B
)

// Vendor/profile command handlers may be registered for this range.
const (
	VendorCommandStart CommandType = 0x7F00
	VendorCommandEnd   CommandType = 0x7FFE
)

// ResponseFlag is set on the command type field of a response frame.
const ResponseFlag uint16 = 0x8000

// String returns the command type name.
func (t CommandType) String() string {
	switch t {
	case CmdAcquireEntity:
		return "ACQUIRE_ENTITY"
	case CmdLockEntity:
		return "LOCK_ENTITY"
	case CmdEntityAvailable:
		return "ENTITY_AVAILABLE"
	case CmdControllerAvailable:
		return "CONTROLLER_AVAILABLE"
	case CmdReadDescriptor:
		return "READ_DESCRIPTOR"
	case CmdWriteDescriptor:
		return "WRITE_DESCRIPTOR"
	case CmdSetConfiguration:
		return "SET_CONFIGURATION"
	case CmdGetConfiguration:
		return "GET_CONFIGURATION"
	case CmdSetControl:
		return "SET_CONTROL"
	case CmdGetControl:
		return "GET_CONTROL"
	case CmdStartStreaming:
		return "START_STREAMING"
	case CmdStopStreaming:
		return "STOP_STREAMING"
	case CmdGetDynamicInfo:
		return "GET_DYNAMIC_INFO"
	default:
		return fmt.Sprintf("0x%04X", uint16(t))
	}
}

// IsVendor returns true if the command type falls in the vendor range.
func (t CommandType) IsVendor() bool {
	return t >= VendorCommandStart && t <= VendorCommandEnd
}

// HeaderSize is the encoded size of a command header in octets.
const HeaderSize = 20

// Header is the fixed preamble of every control command and response.
//
// Wire layout (20 octets):
//
//	target entity ID (8) | controller entity ID (8) |
//	sequence ID (2) | command type (2)
type Header struct {
	// TargetID is the entity the command is addressed to.
	TargetID EntityID

	// ControllerID is the controller issuing the command.
	ControllerID EntityID

	// SequenceID correlates a response with its command.
	SequenceID uint16

	// CommandType selects the operation. Responses carry the command
	// type with ResponseFlag set.
	CommandType CommandType
}

// IsResponse returns true if the header's command type carries the
// response flag.
func (h *Header) IsResponse() bool {
	return uint16(h.CommandType)&ResponseFlag != 0
}

// BaseType returns the command type with the response flag cleared.
func (h *Header) BaseType() CommandType {
	return CommandType(uint16(h.CommandType) &^ ResponseFlag)
}

// AppendHeader appends the encoded header to dst and returns the
// extended slice.
func AppendHeader(dst []byte, h *Header) []byte {
	dst = binary.BigEndian.AppendUint64(dst, uint64(h.TargetID))
	dst = binary.BigEndian.AppendUint64(dst, uint64(h.ControllerID))
	dst = binary.BigEndian.AppendUint16(dst, h.SequenceID)
	dst = binary.BigEndian.AppendUint16(dst, uint16(h.CommandType))
	return dst
}

// DecodeHeader decodes a command header and returns the remaining body.
func DecodeHeader(data []byte) (Header, []byte, error) {
	if len(data) < HeaderSize {
		return Header{}, nil, fmt.Errorf("%w: header needs %d octets, have %d",
			ErrShortBuffer, HeaderSize, len(data))
	}
	h := Header{
		TargetID:     EntityID(binary.BigEndian.Uint64(data[0:8])),
		ControllerID: EntityID(binary.BigEndian.Uint64(data[8:16])),
		SequenceID:   binary.BigEndian.Uint16(data[16:18]),
		CommandType:  CommandType(binary.BigEndian.Uint16(data[18:20])),
	}
	return h, data[HeaderSize:], nil
}

// Command is a decoded control command frame: header plus opaque body.
type Command struct {
	Header Header
	Body   []byte
}

// EncodeCommand encodes a command frame.
func EncodeCommand(h *Header, body []byte) []byte {
	out := make([]byte, 0, HeaderSize+len(body))
	out = AppendHeader(out, h)
	return append(out, body...)
}

// DecodeCommand decodes a command frame.
func DecodeCommand(data []byte) (*Command, error) {
	h, body, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}
	return &Command{Header: h, Body: body}, nil
}

// Response is a decoded control response frame.
type Response struct {
	Header Header
	Status Status
	Body   []byte
}

// EncodeResponse encodes a response frame. The response flag is set on
// the command type automatically.
func EncodeResponse(h *Header, status Status, body []byte) []byte {
	rh := *h
	rh.CommandType = CommandType(uint16(h.CommandType) | ResponseFlag)
	out := make([]byte, 0, HeaderSize+2+len(body))
	out = AppendHeader(out, &rh)
	out = binary.BigEndian.AppendUint16(out, uint16(status))
	return append(out, body...)
}

// DecodeResponse decodes a response frame.
func DecodeResponse(data []byte) (*Response, error) {
	h, rest, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}
	if len(rest) < 2 {
		return nil, fmt.Errorf("%w: response status missing", ErrShortBuffer)
	}
	return &Response{
		Header: h,
		Status: Status(binary.BigEndian.Uint16(rest[0:2])),
		Body:   rest[2:],
	}, nil
}
