package connection

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Manager errors.
var (
	ErrClosed           = errors.New("connection: manager closed")
	ErrAlreadyConnected = errors.New("connection: already connected")
)

// retryDialTimeout bounds each dial attempt made by the retry loop.
const retryDialTimeout = 15 * time.Second

// State is the stream connection state.
type State uint8

const (
	// StateIdle indicates no connection and no attempt in progress.
	StateIdle State = iota

	// StateDialing indicates a connection attempt is in progress.
	StateDialing

	// StateUp indicates an established stream connection.
	StateUp

	// StateRetrying indicates the manager is waiting out a backoff
	// delay before dialing again.
	StateRetrying

	// StateClosed indicates the manager has shut down.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateDialing:
		return "DIALING"
	case StateUp:
		return "UP"
	case StateRetrying:
		return "RETRYING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// DialFunc establishes one stream connection. What a connection
// actually is stays behind this function.
type DialFunc func(ctx context.Context) error

// Manager tracks one stream connection on behalf of the entity
// lifecycle. Connect and Disconnect map onto the lifecycle's
// CONNECTING and DISCONNECTING entry actions; ConnectionLost feeds the
// retry loop when the link drops without an orderly teardown.
type Manager struct {
	mu      sync.RWMutex
	state   State
	dial    DialFunc
	backoff *Backoff
	retry   bool

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	kickCh  chan struct{}
	started bool

	onStateChange func(from, to State)
	onUp          func()
	onDown        func()
	onRetry       func(attempt int, delay time.Duration)
}

// NewManager returns a Manager that dials with fn. Retry on connection
// loss is enabled by default.
func NewManager(fn DialFunc) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		state:   StateIdle,
		dial:    fn,
		backoff: NewBackoff(BackoffConfig{}),
		retry:   true,
		ctx:     ctx,
		cancel:  cancel,
		kickCh:  make(chan struct{}, 1),
	}
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// SetRetry enables or disables automatic redial on connection loss.
func (m *Manager) SetRetry(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retry = enabled
}

// Connect dials once. It blocks until the dial completes or ctx is
// done.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case StateUp:
		m.mu.Unlock()
		return ErrAlreadyConnected
	case StateClosed:
		m.mu.Unlock()
		return ErrClosed
	}
	m.setStateLocked(StateDialing)
	m.mu.Unlock()

	if err := m.dial(ctx); err != nil {
		m.mu.Lock()
		m.setStateLocked(StateIdle)
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.setStateLocked(StateUp)
	m.backoff.Reset()
	m.mu.Unlock()

	if m.onUp != nil {
		m.onUp()
	}
	return nil
}

// Disconnect tears the connection down in an orderly fashion. No
// redial follows; an orderly teardown is not a loss.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	if m.state != StateUp {
		m.mu.Unlock()
		return
	}
	m.setStateLocked(StateIdle)
	m.mu.Unlock()

	if m.onDown != nil {
		m.onDown()
	}
}

// ConnectionLost reports an unexpected drop of an established
// connection. When retry is enabled the manager redials in the
// background with backoff.
func (m *Manager) ConnectionLost() {
	m.mu.Lock()
	if m.state != StateUp {
		m.mu.Unlock()
		return
	}
	retry := m.retry
	if retry {
		m.setStateLocked(StateRetrying)
		m.startRetryLoopLocked()
	} else {
		m.setStateLocked(StateIdle)
	}
	m.mu.Unlock()

	if m.onDown != nil {
		m.onDown()
	}
	if retry {
		select {
		case m.kickCh <- struct{}{}:
		default:
		}
	}
}

// Close shuts the manager down and waits for the retry loop to exit.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return
	}
	m.setStateLocked(StateClosed)
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
}

// OnStateChange registers a callback fired on every state change.
func (m *Manager) OnStateChange(fn func(from, to State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStateChange = fn
}

// OnUp registers a callback fired when a connection is established.
func (m *Manager) OnUp(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onUp = fn
}

// OnDown registers a callback fired when the connection goes away.
func (m *Manager) OnDown(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDown = fn
}

// OnRetry registers a callback fired before each backoff wait.
func (m *Manager) OnRetry(fn func(attempt int, delay time.Duration)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRetry = fn
}

// setStateLocked changes state and fires the callback. Caller holds
// m.mu; the callback runs under the lock and must not call back in.
func (m *Manager) setStateLocked(to State) {
	from := m.state
	if from == to {
		return
	}
	m.state = to
	if m.onStateChange != nil {
		m.onStateChange(from, to)
	}
}

// startRetryLoopLocked spawns the retry goroutine once. Caller holds
// m.mu.
func (m *Manager) startRetryLoopLocked() {
	if m.started {
		return
	}
	m.started = true
	m.wg.Add(1)
	go m.retryLoop()
}

func (m *Manager) retryLoop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-m.kickCh:
			m.redial()
		}
	}
}

// redial dials until connected, closed, or retry is switched off.
func (m *Manager) redial() {
	for {
		m.mu.RLock()
		state, retry, onRetry := m.state, m.retry, m.onRetry
		m.mu.RUnlock()
		if state != StateRetrying || !retry {
			return
		}

		delay := m.backoff.Next()
		if onRetry != nil {
			onRetry(m.backoff.Attempts(), delay)
		}

		select {
		case <-m.ctx.Done():
			return
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(m.ctx, retryDialTimeout)
		err := m.dial(ctx)
		cancel()
		if err != nil {
			continue
		}

		m.mu.Lock()
		if m.state != StateRetrying {
			m.mu.Unlock()
			return
		}
		m.setStateLocked(StateUp)
		m.backoff.Reset()
		m.mu.Unlock()

		if m.onUp != nil {
			m.onUp()
		}
		return
	}
}
