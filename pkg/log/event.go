package log

import (
	"time"

	"github.com/google/uuid"

	"github.com/avdecc-protocol/avdecc-go/pkg/wire"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID uniquely identifies the engine run (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// LocalRole indicates whether this endpoint is an entity or a
	// controller.
	LocalRole Role `cbor:"6,keyasint,omitempty"`

	// RemoteAddr is the peer address, if the transport knows one.
	RemoteAddr string `cbor:"7,keyasint,omitempty"`

	// EntityID is the local entity identifier.
	EntityID wire.EntityID `cbor:"8,keyasint,omitempty"`

	// ControllerID is the remote controller identifier, when known.
	ControllerID wire.EntityID `cbor:"9,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame         *FrameEvent         `cbor:"10,keyasint,omitempty"` // Transport layer
	Command       *CommandEvent       `cbor:"11,keyasint,omitempty"` // Decoded command/response
	Advertisement *AdvertisementEvent `cbor:"12,keyasint,omitempty"` // Discovery PDU
	StateChange   *StateChangeEvent   `cbor:"13,keyasint,omitempty"` // Lifecycle state
	Error         *ErrorEventData     `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// NewSessionID returns a fresh session identifier for log events.
func NewSessionID() string {
	return uuid.NewString()
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerTransport is the framing layer (raw octets).
	LayerTransport Layer = 0
	// LayerWire is the PDU encoding layer (decoded commands and
	// advertisements).
	LayerWire Layer = 1
	// LayerLifecycle is the entity state machine layer.
	LayerLifecycle Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerLifecycle:
		return "LIFECYCLE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryCommand indicates an enumeration/control command or
	// response.
	CategoryCommand Category = 0
	// CategoryDiscovery indicates a discovery PDU.
	CategoryDiscovery Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryCommand:
		return "COMMAND"
	case CategoryDiscovery:
		return "DISCOVERY"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Role indicates whether the local endpoint is an entity or a controller.
type Role uint8

const (
	// RoleEntity indicates this endpoint serves commands.
	RoleEntity Role = 0
	// RoleController indicates this endpoint issues commands.
	RoleController Role = 1
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleEntity:
		return "ENTITY"
	case RoleController:
		return "CONTROLLER"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw frame data at the transport layer.
type FrameEvent struct {
	// Size is the frame size in octets (including the protocol tag).
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame bytes (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// CommandEvent captures a decoded command or response at the wire layer.
type CommandEvent struct {
	// Kind distinguishes command from response.
	Kind MessageKind `cbor:"1,keyasint"`

	// SequenceID correlates command/response pairs.
	SequenceID uint16 `cbor:"2,keyasint"`

	// CommandType is the base command type (response flag stripped).
	CommandType wire.CommandType `cbor:"3,keyasint"`

	// Status is the result code (responses only).
	Status *wire.Status `cbor:"4,keyasint,omitempty"`

	// ProcessingTime is the duration from command receipt to response
	// send, stored as nanoseconds (responses only).
	ProcessingTime *time.Duration `cbor:"5,keyasint,omitempty"`
}

// MessageKind distinguishes command from response.
type MessageKind uint8

const (
	// MessageKindCommand indicates a command message.
	MessageKindCommand MessageKind = 0
	// MessageKindResponse indicates a response message.
	MessageKindResponse MessageKind = 1
)

// String returns the message kind name.
func (m MessageKind) String() string {
	switch m {
	case MessageKindCommand:
		return "COMMAND"
	case MessageKindResponse:
		return "RESPONSE"
	default:
		return "UNKNOWN"
	}
}

// AdvertisementEvent captures a discovery PDU at the wire layer.
type AdvertisementEvent struct {
	// MessageType distinguishes available/departing/discover.
	MessageType wire.ADPMessageType `cbor:"1,keyasint"`

	// EntityID is the advertised (or requested) entity.
	EntityID wire.EntityID `cbor:"2,keyasint"`

	// AvailableIndex is the advertised available index.
	AvailableIndex uint32 `cbor:"3,keyasint,omitempty"`
}

// StateChangeEvent captures lifecycle state transitions.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (typically the event name).
	Reason string `cbor:"3,keyasint,omitempty"`

	// Transition is the running transition count after this change.
	Transition uint64 `cbor:"4,keyasint,omitempty"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
