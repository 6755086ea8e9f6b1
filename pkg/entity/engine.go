package entity

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avdecc-protocol/avdecc-go/pkg/access"
	"github.com/avdecc-protocol/avdecc-go/pkg/adp"
	"github.com/avdecc-protocol/avdecc-go/pkg/aecp"
	"github.com/avdecc-protocol/avdecc-go/pkg/log"
	"github.com/avdecc-protocol/avdecc-go/pkg/model"
	"github.com/avdecc-protocol/avdecc-go/pkg/persistence"
	"github.com/avdecc-protocol/avdecc-go/pkg/transport"
	"github.com/avdecc-protocol/avdecc-go/pkg/wire"
)

// Engine errors.
var (
	ErrMissingTransport  = errors.New("entity: transport is required")
	ErrMissingEntityInfo = errors.New("entity: entity identity is required")
	ErrAlreadyStarted    = errors.New("entity: engine already started")
	ErrNotStarted        = errors.New("entity: engine not started")
)

const (
	// eventQueueSize bounds the lifecycle event queue. Events past
	// the bound block the poster until the loop catches up.
	eventQueueSize = 32

	// receivePollInterval is how often the message loop rechecks the
	// shutdown flag while the transport is idle.
	receivePollInterval = 250 * time.Millisecond

	// defaultDiscoveryWindow is how long the engine surveys the
	// network before announcing itself.
	defaultDiscoveryWindow = 500 * time.Millisecond
)

// Connector is the connection-management collaborator dispatched to
// when the lifecycle enters CONNECTING or DISCONNECTING. Stream
// connection semantics live entirely behind it.
type Connector interface {
	// Connect establishes the stream connection.
	Connect(ctx context.Context) error

	// Disconnect tears the connection down.
	Disconnect()
}

// Config assembles an Engine.
type Config struct {
	// Info is the entity identity. Required.
	Info *model.EntityInfo

	// Transport carries all protocol frames. Required.
	Transport transport.Transport

	// Store holds the descriptor model. An empty store is created
	// when nil.
	Store *model.DescriptorStore

	// Ledger tracks acquire/lock claims. Created when nil.
	Ledger *access.Ledger

	// Clock is the optional timing collaborator.
	Clock transport.Clock

	// Connector is the optional connection-management collaborator.
	// Without one, connection requests fail back to AVAILABLE.
	Connector Connector

	// ConnectionHandler receives inbound connection-protocol frames.
	// Optional; frames are dropped when nil.
	ConnectionHandler func(payload []byte)

	// Logger receives protocol events. Defaults to NoopLogger.
	Logger log.Logger

	// AdvertiseInterval overrides the announcement period.
	AdvertiseInterval time.Duration

	// DiscoveryWindow overrides how long the survey phase lasts.
	DiscoveryWindow time.Duration

	// StateStore persists runtime state across restarts. Optional.
	StateStore *persistence.EntityStateStore
}

// Engine is the lifecycle orchestrator. It owns the authoritative
// lifecycle state, consumes events on one loop and protocol messages
// on another, and routes messages to the command processor and the
// discovery module.
//
// The lifecycle state is written only by the event loop; State is
// safe to call from anywhere.
type Engine struct {
	cfg        Config
	handler    *aecp.Handler
	advertiser *adp.Advertiser
	logger     log.Logger
	sessionID  string

	mu      sync.Mutex
	state   State
	started bool
	lastErr error

	transitions atomic.Uint64

	eventCh chan LifecycleEvent
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewEngine assembles an engine from the config. The engine is inert
// until Start.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Transport == nil {
		return nil, ErrMissingTransport
	}
	if !cfg.Info.Valid() {
		return nil, ErrMissingEntityInfo
	}
	if cfg.Store == nil {
		cfg.Store = model.NewDescriptorStore()
	}
	if cfg.Ledger == nil {
		cfg.Ledger = access.NewLedger()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NoopLogger{}
	}
	if cfg.DiscoveryWindow <= 0 {
		cfg.DiscoveryWindow = defaultDiscoveryWindow
	}

	e := &Engine{
		cfg:       cfg,
		logger:    cfg.Logger,
		sessionID: log.NewSessionID(),
		state:     StateUninitialized,
		eventCh:   make(chan LifecycleEvent, eventQueueSize),
		stopCh:    make(chan struct{}),
	}
	e.handler = aecp.NewHandler(cfg.Info, cfg.Store, cfg.Ledger, cfg.Clock)
	e.advertiser = adp.NewAdvertiser(cfg.Transport.Send)
	e.advertiser.SetEntity(cfg.Info, cfg.Clock)
	return e, nil
}

// Handler returns the command processor, for registering vendor
// command handlers before Start.
func (e *Engine) Handler() *aecp.Handler {
	return e.handler
}

// Registry returns the peer entity registry.
func (e *Engine) Registry() *adp.Registry {
	return e.advertiser.Registry()
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Transitions returns the number of lifecycle transitions taken.
func (e *Engine) Transitions() uint64 {
	return e.transitions.Load()
}

// LastError returns the most recent fault reported to the lifecycle.
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// SessionID returns the log session identifier for this run.
func (e *Engine) SessionID() string {
	return e.sessionID
}

// Start restores persisted state, launches the event and message
// loops, and requests initialization.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return ErrAlreadyStarted
	}
	e.started = true
	e.mu.Unlock()

	if err := e.restoreState(); err != nil {
		// A corrupt state file must not keep the entity down.
		e.logError(log.LayerLifecycle, err, "restore persisted state")
	}

	e.wg.Add(2)
	go e.eventLoop()
	go e.messageLoop()

	return e.Post(EventInitializeRequest)
}

// Post enqueues one lifecycle event. Events are consumed in order by
// the event loop; events that do not apply in the current state are
// dropped there.
func (e *Engine) Post(event LifecycleEvent) error {
	e.mu.Lock()
	started := e.started
	e.mu.Unlock()
	if !started {
		return ErrNotStarted
	}

	select {
	case e.eventCh <- event:
		return nil
	case <-e.stopCh:
		return ErrNotStarted
	}
}

// Shutdown requests termination, waits for both loops to drain, and
// persists runtime state. Safe to call more than once.
func (e *Engine) Shutdown() error {
	if err := e.Post(EventShutdownRequest); err != nil && !errors.Is(err, ErrNotStarted) {
		return err
	}
	e.wg.Wait()
	return e.saveState()
}

// ReportError feeds a sub-protocol fault into the lifecycle.
func (e *Engine) ReportError(err error) {
	e.mu.Lock()
	e.lastErr = err
	e.mu.Unlock()
	_ = e.Post(EventErrorOccurred)
}

// restoreState seeds the store and advertiser from the state file.
func (e *Engine) restoreState() error {
	if e.cfg.StateStore == nil {
		return nil
	}
	state, err := e.cfg.StateStore.Load()
	if err != nil {
		return err
	}
	if state == nil || state.EntityID != e.cfg.Info.EntityID {
		return nil
	}
	if state.ConfigurationIndex != 0 {
		if err := e.cfg.Store.SetConfiguration(state.ConfigurationIndex); err != nil {
			return err
		}
	}
	e.advertiser.SetAvailableIndex(state.AvailableIndex)
	return nil
}

// saveState snapshots runtime state to the state file.
func (e *Engine) saveState() error {
	if e.cfg.StateStore == nil {
		return nil
	}
	return e.cfg.StateStore.Save(&persistence.EntityState{
		EntityID:           e.cfg.Info.EntityID,
		ConfigurationIndex: e.cfg.Store.Configuration(),
		AvailableIndex:     e.advertiser.AvailableIndex(),
	})
}

// eventLoop consumes lifecycle events in order and drives the
// transition table. It is the only writer of the lifecycle state.
func (e *Engine) eventLoop() {
	defer e.wg.Done()

	for event := range e.eventCh {
		if terminal := e.apply(event); terminal {
			return
		}
	}
}

// apply runs one transition. Returns true once the terminal state has
// been entered and cleaned up after.
func (e *Engine) apply(event LifecycleEvent) bool {
	e.mu.Lock()
	from := e.state
	to, ok := NextState(from, event)
	if !ok {
		e.mu.Unlock()
		// Events that do not apply are dropped, not faulted.
		return false
	}
	e.state = to
	e.mu.Unlock()

	count := e.transitions.Add(1)
	e.logger.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: e.sessionID,
		Layer:     log.LayerLifecycle,
		Category:  log.CategoryState,
		LocalRole: log.RoleEntity,
		EntityID:  e.cfg.Info.EntityID,
		StateChange: &log.StateChangeEvent{
			OldState:   from.String(),
			NewState:   to.String(),
			Reason:     event.String(),
			Transition: count,
		},
	})

	e.enterState(to)
	return to.Terminal()
}

// enterState runs the entry action for a state. Long-running work is
// dispatched to its own goroutine and reports back through an event,
// keeping the loop responsive.
func (e *Engine) enterState(state State) {
	switch state {
	case StateInitializing:
		go e.initialize()
	case StateDiscovering:
		go e.survey()
	case StateAdvertising:
		go e.startAdvertising()
	case StateConnecting:
		go e.connect()
	case StateDisconnecting:
		go e.disconnect()
	case StateShuttingDown:
		e.shutdownSubProtocols()
	}
}

// initialize brings the sub-protocols up. The command processor and
// advertiser are assembled in NewEngine; what remains is giving the
// advertiser its identity and checking it took.
func (e *Engine) initialize() {
	e.advertiser.SetEntity(e.cfg.Info, e.cfg.Clock)
	if !e.cfg.Info.Valid() {
		e.postAsync(EventInitializationFailed)
		return
	}
	e.postAsync(EventInitializationComplete)
}

// survey broadcasts a discovery request and collects answers for the
// discovery window before moving on.
func (e *Engine) survey() {
	if err := e.advertiser.SendDiscoveryRequest(0); err != nil {
		e.logError(log.LayerWire, err, "send discovery request")
	}
	select {
	case <-time.After(e.cfg.DiscoveryWindow):
		e.postAsync(EventDiscoveryComplete)
	case <-e.stopCh:
	}
}

// startAdvertising begins the periodic announcements.
func (e *Engine) startAdvertising() {
	if err := e.advertiser.StartAdvertising(e.cfg.AdvertiseInterval); err != nil {
		e.mu.Lock()
		e.lastErr = err
		e.mu.Unlock()
		e.logError(log.LayerWire, err, "start advertising")
		e.postAsync(EventErrorOccurred)
		return
	}
	e.postAsync(EventAdvertisingStarted)
}

// connect dispatches a connection attempt to the collaborator.
func (e *Engine) connect() {
	if e.cfg.Connector == nil {
		e.postAsync(EventConnectionFailed)
		return
	}
	if err := e.cfg.Connector.Connect(context.Background()); err != nil {
		e.mu.Lock()
		e.lastErr = err
		e.mu.Unlock()
		e.logError(log.LayerLifecycle, err, "establish connection")
		e.postAsync(EventConnectionFailed)
		return
	}
	e.postAsync(EventConnectionEstablished)
}

// disconnect dispatches an orderly teardown to the collaborator.
func (e *Engine) disconnect() {
	if e.cfg.Connector != nil {
		e.cfg.Connector.Disconnect()
	}
	e.postAsync(EventDisconnectionComplete)
}

// shutdownSubProtocols stops advertising (broadcasting a departure)
// and wakes the message loop. Runs on the event loop; no further
// events are consumed after it.
func (e *Engine) shutdownSubProtocols() {
	if err := e.advertiser.StopAdvertising(); err != nil && !errors.Is(err, adp.ErrNotInitialized) {
		e.logError(log.LayerWire, err, "stop advertising")
	}
	close(e.stopCh)
}

// postAsync delivers a completion event from a worker goroutine,
// giving up once shutdown has begun.
func (e *Engine) postAsync(event LifecycleEvent) {
	select {
	case e.eventCh <- event:
	case <-e.stopCh:
	}
}

// messageLoop consumes inbound frames and routes them by protocol
// tag. Messages are processed in arrival order, independently of the
// event loop.
func (e *Engine) messageLoop() {
	defer e.wg.Done()

	for {
		select {
		case <-e.stopCh:
			return
		default:
		}

		data, err := e.cfg.Transport.Receive(receivePollInterval)
		if err != nil {
			if errors.Is(err, transport.ErrTimeout) {
				continue
			}
			if errors.Is(err, transport.ErrClosed) {
				return
			}
			e.logError(log.LayerTransport, err, "receive frame")
			continue
		}
		e.handleFrame(data)
	}
}

// handleFrame routes one inbound frame. Malformed frames are logged
// and dropped; they carry no header to answer to.
func (e *Engine) handleFrame(data []byte) {
	proto, payload, err := wire.DecodeFrame(data)
	if err != nil {
		e.logError(log.LayerTransport, err, "decode frame")
		return
	}

	switch proto {
	case wire.ProtocolDiscovery:
		e.handleDiscovery(payload)
	case wire.ProtocolControl:
		e.handleControl(payload)
	case wire.ProtocolConnection:
		if e.cfg.ConnectionHandler != nil {
			e.cfg.ConnectionHandler(payload)
		}
	}
}

// handleDiscovery feeds one discovery PDU to the advertiser.
func (e *Engine) handleDiscovery(payload []byte) {
	pdu, err := wire.DecodeADP(payload)
	if err != nil {
		e.logError(log.LayerWire, err, "decode discovery PDU")
		return
	}

	e.logger.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: e.sessionID,
		Direction: log.DirectionIn,
		Layer:     log.LayerWire,
		Category:  log.CategoryDiscovery,
		LocalRole: log.RoleEntity,
		EntityID:  e.cfg.Info.EntityID,
		Advertisement: &log.AdvertisementEvent{
			MessageType:    pdu.MessageType,
			EntityID:       pdu.EntityID,
			AvailableIndex: pdu.AvailableIndex,
		},
	})

	if err := e.advertiser.HandleMessage(pdu); err != nil {
		e.logError(log.LayerWire, err, "handle discovery PDU")
	}
}

// handleControl runs one command through the command processor and
// sends the response. Inbound responses are not for this role and are
// dropped.
func (e *Engine) handleControl(payload []byte) {
	cmd, err := wire.DecodeCommand(payload)
	if err != nil {
		e.logError(log.LayerWire, err, "decode command")
		return
	}
	if cmd.Header.IsResponse() {
		return
	}

	start := time.Now()
	resp := e.handler.HandleCommand(cmd)
	took := time.Since(start)

	status := wire.StatusEntityMisbehaving
	if decoded, derr := wire.DecodeResponse(resp); derr == nil {
		status = decoded.Status
	}
	e.logger.Log(log.Event{
		Timestamp:    time.Now(),
		SessionID:    e.sessionID,
		Direction:    log.DirectionOut,
		Layer:        log.LayerWire,
		Category:     log.CategoryCommand,
		LocalRole:    log.RoleEntity,
		EntityID:     e.cfg.Info.EntityID,
		ControllerID: cmd.Header.ControllerID,
		Command: &log.CommandEvent{
			Kind:           log.MessageKindResponse,
			SequenceID:     cmd.Header.SequenceID,
			CommandType:    cmd.Header.CommandType,
			Status:         &status,
			ProcessingTime: &took,
		},
	})

	if err := e.cfg.Transport.Send(wire.EncodeFrame(wire.ProtocolControl, resp)); err != nil {
		e.logError(log.LayerTransport, err, "send response")
	}
}

// logError records a non-fatal fault in the event trace.
func (e *Engine) logError(layer log.Layer, err error, context string) {
	e.logger.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: e.sessionID,
		Layer:     layer,
		Category:  log.CategoryError,
		LocalRole: log.RoleEntity,
		EntityID:  e.cfg.Info.EntityID,
		Error: &log.ErrorEventData{
			Layer:   layer,
			Message: err.Error(),
			Context: context,
		},
	})
}
