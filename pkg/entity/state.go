package entity

// State is the lifecycle state of the entity.
type State uint8

const (
	// StateUninitialized is the initial state before anything runs.
	StateUninitialized State = iota

	// StateInitializing indicates the sub-protocols are coming up.
	StateInitializing

	// StateDiscovering indicates the entity is surveying the network.
	StateDiscovering

	// StateAdvertising indicates periodic announcements are starting.
	StateAdvertising

	// StateAvailable indicates the entity serves commands and is open
	// for connections.
	StateAvailable

	// StateConnecting indicates a connection attempt is in progress.
	StateConnecting

	// StateConnected indicates an active stream connection.
	StateConnected

	// StateDisconnecting indicates an orderly connection teardown.
	StateDisconnecting

	// StateError indicates a fault; only re-initialization or
	// shutdown leaves it.
	StateError

	// StateShuttingDown is the terminal state.
	StateShuttingDown
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateInitializing:
		return "INITIALIZING"
	case StateDiscovering:
		return "DISCOVERING"
	case StateAdvertising:
		return "ADVERTISING"
	case StateAvailable:
		return "AVAILABLE"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateDisconnecting:
		return "DISCONNECTING"
	case StateError:
		return "ERROR"
	case StateShuttingDown:
		return "SHUTTING_DOWN"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateShuttingDown
}

// LifecycleEvent drives lifecycle transitions.
type LifecycleEvent uint8

const (
	// EventInitializeRequest asks the entity to come up.
	EventInitializeRequest LifecycleEvent = iota

	// EventInitializationComplete reports all sub-protocols are up.
	EventInitializationComplete

	// EventInitializationFailed reports a sub-protocol failed to come up.
	EventInitializationFailed

	// EventDiscoveryComplete reports the network survey finished.
	EventDiscoveryComplete

	// EventStartAdvertising asks to begin announcements without
	// waiting for the survey.
	EventStartAdvertising

	// EventAdvertisingStarted reports announcements are running.
	EventAdvertisingStarted

	// EventConnectionRequest asks for a stream connection.
	EventConnectionRequest

	// EventConnectionEstablished reports the connection came up.
	EventConnectionEstablished

	// EventConnectionFailed reports the connection attempt failed.
	EventConnectionFailed

	// EventDisconnectionRequest asks for an orderly teardown.
	EventDisconnectionRequest

	// EventDisconnectionComplete reports the teardown finished.
	EventDisconnectionComplete

	// EventErrorOccurred reports a fault from any sub-protocol.
	EventErrorOccurred

	// EventShutdownRequest asks the entity to stop for good.
	EventShutdownRequest
)

// String returns the event name.
func (e LifecycleEvent) String() string {
	switch e {
	case EventInitializeRequest:
		return "InitializeRequest"
	case EventInitializationComplete:
		return "InitializationComplete"
	case EventInitializationFailed:
		return "InitializationFailed"
	case EventDiscoveryComplete:
		return "DiscoveryComplete"
	case EventStartAdvertising:
		return "StartAdvertising"
	case EventAdvertisingStarted:
		return "AdvertisingStarted"
	case EventConnectionRequest:
		return "ConnectionRequest"
	case EventConnectionEstablished:
		return "ConnectionEstablished"
	case EventConnectionFailed:
		return "ConnectionFailed"
	case EventDisconnectionRequest:
		return "DisconnectionRequest"
	case EventDisconnectionComplete:
		return "DisconnectionComplete"
	case EventErrorOccurred:
		return "ErrorOccurred"
	case EventShutdownRequest:
		return "ShutdownRequest"
	default:
		return "Unknown"
	}
}

// transitions lists the state-specific lifecycle transitions.
// ErrorOccurred and ShutdownRequest are handled as wildcards in
// NextState.
var transitions = map[State]map[LifecycleEvent]State{
	StateUninitialized: {
		EventInitializeRequest: StateInitializing,
	},
	StateInitializing: {
		EventInitializationComplete: StateDiscovering,
		EventInitializationFailed:   StateError,
	},
	StateDiscovering: {
		EventDiscoveryComplete: StateAdvertising,
		EventStartAdvertising:  StateAdvertising,
	},
	StateAdvertising: {
		EventAdvertisingStarted: StateAvailable,
	},
	StateAvailable: {
		EventConnectionRequest: StateConnecting,
	},
	StateConnecting: {
		EventConnectionEstablished: StateConnected,
		EventConnectionFailed:      StateAvailable,
	},
	StateConnected: {
		EventDisconnectionRequest: StateDisconnecting,
	},
	StateDisconnecting: {
		EventDisconnectionComplete: StateAvailable,
	},
	StateError: {
		EventInitializeRequest: StateInitializing,
	},
}

// NextState resolves one transition. ok is false when the event does
// not apply in the given state; the caller drops such events.
func NextState(from State, event LifecycleEvent) (State, bool) {
	switch event {
	case EventShutdownRequest:
		if from == StateShuttingDown {
			return from, false
		}
		return StateShuttingDown, true
	case EventErrorOccurred:
		if from.Terminal() || from == StateError {
			return from, false
		}
		return StateError, true
	}
	to, ok := transitions[from][event]
	return to, ok
}
