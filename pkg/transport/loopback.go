package transport

import (
	"sync"
	"time"
)

// loopbackQueueDepth bounds buffered frames per direction.
const loopbackQueueDepth = 64

// loopbackShared is the state common to both endpoints of a pair.
type loopbackShared struct {
	once   sync.Once
	closed chan struct{}
}

// Loopback is an in-process Transport endpoint. NewLoopbackPair wires
// two endpoints together so that frames sent on one side arrive on the
// other, preserving send order.
type Loopback struct {
	out    chan<- []byte
	in     <-chan []byte
	shared *loopbackShared
}

// NewLoopbackPair creates two connected loopback endpoints. Closing
// either endpoint closes the pair.
func NewLoopbackPair() (*Loopback, *Loopback) {
	ab := make(chan []byte, loopbackQueueDepth)
	ba := make(chan []byte, loopbackQueueDepth)
	shared := &loopbackShared{closed: make(chan struct{})}

	a := &Loopback{out: ab, in: ba, shared: shared}
	b := &Loopback{out: ba, in: ab, shared: shared}
	return a, b
}

// Send transmits one frame to the peer endpoint. The frame is copied
// so the caller may reuse its buffer.
func (l *Loopback) Send(data []byte) error {
	frame := make([]byte, len(data))
	copy(frame, data)

	select {
	case <-l.shared.closed:
		return ErrClosed
	case l.out <- frame:
		return nil
	}
}

// Receive blocks until a frame arrives from the peer, the timeout
// elapses, or the pair is closed. A timeout of zero blocks
// indefinitely.
func (l *Loopback) Receive(timeout time.Duration) ([]byte, error) {
	var expire <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expire = timer.C
	}

	select {
	case <-l.shared.closed:
		return nil, ErrClosed
	case frame := <-l.in:
		return frame, nil
	case <-expire:
		return nil, ErrTimeout
	}
}

// Close shuts down both endpoints of the pair.
func (l *Loopback) Close() error {
	l.shared.once.Do(func() {
		close(l.shared.closed)
	})
	return nil
}

// Compile-time interface satisfaction check.
var _ Transport = (*Loopback)(nil)
