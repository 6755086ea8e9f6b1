package transport

import (
	"errors"
	"time"
)

// Transport errors.
var (
	// ErrTimeout indicates no frame arrived within the receive deadline.
	ErrTimeout = errors.New("transport: receive timeout")

	// ErrClosed indicates the transport has been closed.
	ErrClosed = errors.New("transport: closed")
)

// Transport carries raw protocol frames to and from the network.
// Implementations must be safe for concurrent use.
type Transport interface {
	// Send transmits one frame.
	Send(data []byte) error

	// Receive blocks until a frame arrives, the timeout elapses
	// (ErrTimeout), or the transport is closed (ErrClosed).
	// A timeout of zero blocks indefinitely.
	Receive(timeout time.Duration) ([]byte, error)

	// Close releases the transport. Blocked Receive calls return
	// ErrClosed.
	Close() error
}

// Clock is the network time synchronization collaborator. The engine
// only consults it when answering dynamic info queries.
type Clock interface {
	// SynchronizedTime returns the synchronized network time in
	// nanoseconds.
	SynchronizedTime() uint64

	// IsSynchronized returns true if the local clock is locked to the
	// grandmaster.
	IsSynchronized() bool

	// GrandmasterIdentity returns the 8-octet grandmaster identity.
	GrandmasterIdentity() [8]byte

	// Domain returns the synchronization domain number.
	Domain() uint8
}

// SystemClock is a Clock backed by the local wall clock. It reports
// itself as never synchronized and is meant for entities running
// without a time-sync daemon.
type SystemClock struct{}

// SynchronizedTime returns the local wall clock in nanoseconds.
func (SystemClock) SynchronizedTime() uint64 {
	return uint64(time.Now().UnixNano())
}

// IsSynchronized always returns false.
func (SystemClock) IsSynchronized() bool { return false }

// GrandmasterIdentity returns the zero identity.
func (SystemClock) GrandmasterIdentity() [8]byte { return [8]byte{} }

// Domain returns domain zero.
func (SystemClock) Domain() uint8 { return 0 }

// Compile-time interface satisfaction check.
var _ Clock = SystemClock{}
