package aecp

import (
	"errors"
	"sync"
	"time"

	"github.com/avdecc-protocol/avdecc-go/pkg/wire"
)

// Tracker errors.
var (
	// ErrDuplicateSequence indicates the (sequence, controller) pair is
	// already being tracked.
	ErrDuplicateSequence = errors.New("aecp: sequence already pending")
)

// pendingKey correlates a response to its command.
type pendingKey struct {
	sequenceID   uint16
	controllerID wire.EntityID
}

// PendingCommand is one outbound command awaiting its response.
type PendingCommand struct {
	// SequenceID is the command's correlation number.
	SequenceID uint16

	// ControllerID is the issuing controller.
	ControllerID wire.EntityID

	// CommandType is the issued command type.
	CommandType wire.CommandType

	// IssuedAt is when the command was sent.
	IssuedAt time.Time

	ch chan *wire.Response
}

// Tracker correlates outbound commands with their responses. Timeout
// and retry policy is the caller's concern; the tracker only matches,
// delivers and forgets. It is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	pending map[pendingKey]*PendingCommand
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		pending: make(map[pendingKey]*PendingCommand),
	}
}

// Track registers an outbound command and returns the channel its
// response will be delivered on. The channel is buffered; delivery
// never blocks the message loop.
func (t *Tracker) Track(sequenceID uint16, controllerID wire.EntityID, cmdType wire.CommandType) (<-chan *wire.Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := pendingKey{sequenceID: sequenceID, controllerID: controllerID}
	if _, exists := t.pending[key]; exists {
		return nil, ErrDuplicateSequence
	}

	pc := &PendingCommand{
		SequenceID:   sequenceID,
		ControllerID: controllerID,
		CommandType:  cmdType,
		IssuedAt:     time.Now(),
		ch:           make(chan *wire.Response, 1),
	}
	t.pending[key] = pc
	return pc.ch, nil
}

// HandleResponse delivers resp to the pending command matching its
// (sequence ID, controller ID) pair and removes the entry. Responses
// matching nothing are stale or duplicate and are dropped; the return
// value reports whether a match was found.
func (t *Tracker) HandleResponse(resp *wire.Response) bool {
	t.mu.Lock()
	key := pendingKey{
		sequenceID:   resp.Header.SequenceID,
		controllerID: resp.Header.ControllerID,
	}
	pc, ok := t.pending[key]
	if ok {
		delete(t.pending, key)
	}
	t.mu.Unlock()

	if !ok {
		return false
	}
	pc.ch <- resp
	return true
}

// Cancel abandons a pending command, closing its channel. Used by
// callers that give up waiting.
func (t *Tracker) Cancel(sequenceID uint16, controllerID wire.EntityID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := pendingKey{sequenceID: sequenceID, controllerID: controllerID}
	if pc, ok := t.pending[key]; ok {
		delete(t.pending, key)
		close(pc.ch)
	}
}

// Len returns the number of commands awaiting responses.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
