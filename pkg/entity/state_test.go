package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from  State
		event LifecycleEvent
		to    State
		ok    bool
	}{
		{StateUninitialized, EventInitializeRequest, StateInitializing, true},
		{StateInitializing, EventInitializationComplete, StateDiscovering, true},
		{StateInitializing, EventInitializationFailed, StateError, true},
		{StateDiscovering, EventDiscoveryComplete, StateAdvertising, true},
		{StateDiscovering, EventStartAdvertising, StateAdvertising, true},
		{StateAdvertising, EventAdvertisingStarted, StateAvailable, true},
		{StateAvailable, EventConnectionRequest, StateConnecting, true},
		{StateConnecting, EventConnectionEstablished, StateConnected, true},
		{StateConnecting, EventConnectionFailed, StateAvailable, true},
		{StateConnected, EventDisconnectionRequest, StateDisconnecting, true},
		{StateDisconnecting, EventDisconnectionComplete, StateAvailable, true},
		{StateError, EventInitializeRequest, StateInitializing, true},

		// Events that do not apply are dropped.
		{StateUninitialized, EventAdvertisingStarted, 0, false},
		{StateAvailable, EventInitializationComplete, 0, false},
		{StateConnected, EventConnectionRequest, 0, false},
	}

	for _, tc := range cases {
		to, ok := NextState(tc.from, tc.event)
		assert.Equal(t, tc.ok, ok, "%s + %s", tc.from, tc.event)
		if tc.ok {
			assert.Equal(t, tc.to, to, "%s + %s", tc.from, tc.event)
		}
	}
}

func TestErrorOccurredFromAnyNonTerminalState(t *testing.T) {
	for _, from := range []State{
		StateUninitialized, StateInitializing, StateDiscovering,
		StateAdvertising, StateAvailable, StateConnecting,
		StateConnected, StateDisconnecting,
	} {
		to, ok := NextState(from, EventErrorOccurred)
		assert.True(t, ok, "from %s", from)
		assert.Equal(t, StateError, to, "from %s", from)
	}

	// Already in ERROR or terminal: dropped.
	_, ok := NextState(StateError, EventErrorOccurred)
	assert.False(t, ok)
	_, ok = NextState(StateShuttingDown, EventErrorOccurred)
	assert.False(t, ok)
}

func TestShutdownFromAnyState(t *testing.T) {
	for s := StateUninitialized; s <= StateError; s++ {
		to, ok := NextState(s, EventShutdownRequest)
		assert.True(t, ok, "from %s", s)
		assert.Equal(t, StateShuttingDown, to, "from %s", s)
	}

	// Terminal state stays terminal.
	_, ok := NextState(StateShuttingDown, EventShutdownRequest)
	assert.False(t, ok)
}

func TestStateAndEventStrings(t *testing.T) {
	assert.Equal(t, "AVAILABLE", StateAvailable.String())
	assert.Equal(t, "SHUTTING_DOWN", StateShuttingDown.String())
	assert.Equal(t, "UNKNOWN", State(200).String())
	assert.Equal(t, "InitializeRequest", EventInitializeRequest.String())
	assert.Equal(t, "ShutdownRequest", EventShutdownRequest.String())
	assert.True(t, StateShuttingDown.Terminal())
	assert.False(t, StateError.Terminal())
}
