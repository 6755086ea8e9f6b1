package wire

// Status represents a control response status code.
type Status uint16

const (
	// StatusSuccess indicates the command completed successfully.
	StatusSuccess Status = 0

	// StatusNotImplemented indicates the command type is not recognized.
	StatusNotImplemented Status = 1

	// StatusNoSuchDescriptor indicates the addressed descriptor does not exist.
	StatusNoSuchDescriptor Status = 2

	// StatusEntityLocked indicates another controller holds the lock.
	StatusEntityLocked Status = 3

	// StatusEntityAcquired indicates another controller has acquired the entity.
	StatusEntityAcquired Status = 4

	// StatusBadArguments indicates a malformed or out-of-domain argument.
	StatusBadArguments Status = 7

	// StatusNoResources indicates the entity cannot allocate the resources.
	StatusNoResources Status = 8

	// StatusInProgress indicates the command is still being processed.
	StatusInProgress Status = 9

	// StatusEntityMisbehaving indicates an unexpected internal fault while
	// processing the command. This is the single catch-all terminal status.
	StatusEntityMisbehaving Status = 10

	// StatusNotSupported indicates a recognized but unsupported command.
	StatusNotSupported Status = 11

	// StatusStreamIsRunning indicates a conflicting start-streaming request.
	StatusStreamIsRunning Status = 12
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusNotImplemented:
		return "NOT_IMPLEMENTED"
	case StatusNoSuchDescriptor:
		return "NO_SUCH_DESCRIPTOR"
	case StatusEntityLocked:
		return "ENTITY_LOCKED"
	case StatusEntityAcquired:
		return "ENTITY_ACQUIRED"
	case StatusBadArguments:
		return "BAD_ARGUMENTS"
	case StatusNoResources:
		return "NO_RESOURCES"
	case StatusInProgress:
		return "IN_PROGRESS"
	case StatusEntityMisbehaving:
		return "ENTITY_MISBEHAVING"
	case StatusNotSupported:
		return "NOT_SUPPORTED"
	case StatusStreamIsRunning:
		return "STREAM_IS_RUNNING"
	default:
		return "UNKNOWN"
	}
}

// IsSuccess returns true if the status indicates success.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

// IsError returns true if the status indicates an error.
func (s Status) IsError() bool {
	return s != StatusSuccess
}
