package adp

import (
	"errors"
	"sync"
	"time"

	"github.com/avdecc-protocol/avdecc-go/pkg/model"
	"github.com/avdecc-protocol/avdecc-go/pkg/transport"
	"github.com/avdecc-protocol/avdecc-go/pkg/wire"
)

// Advertiser errors.
var (
	// ErrNotInitialized indicates the module has no entity identity yet.
	ErrNotInitialized = errors.New("adp: entity identity not assigned")
)

// DefaultInterval is the default advertisement period.
const DefaultInterval = 10 * time.Second

// defaultValidTime is the advertised validity in 2-second units.
const defaultValidTime = 31

// SendFunc transmits one tagged discovery frame.
type SendFunc func(data []byte) error

// Advertiser periodically announces entity presence and answers
// discovery requests. It is safe for concurrent use.
type Advertiser struct {
	mu sync.Mutex

	info  *model.EntityInfo
	clock transport.Clock
	send  SendFunc

	interval       time.Duration
	availableIndex uint32
	running        bool
	stopCh         chan struct{}
	kickCh         chan struct{}
	wg             sync.WaitGroup

	registry *Registry
}

// NewAdvertiser creates an advertiser that transmits through send.
// The identity must be assigned with SetEntity before any operation.
func NewAdvertiser(send SendFunc) *Advertiser {
	return &Advertiser{
		send:     send,
		interval: DefaultInterval,
		registry: NewRegistry(),
	}
}

// SetEntity assigns the entity identity and optional timing
// collaborator. Must be called before any other operation.
func (a *Advertiser) SetEntity(info *model.EntityInfo, clock transport.Clock) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.info = info
	a.clock = clock
}

// Registry returns the peer entity registry.
func (a *Advertiser) Registry() *Registry {
	return a.registry
}

// AvailableIndex returns the current available index.
func (a *Advertiser) AvailableIndex() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.availableIndex
}

// SetAvailableIndex seeds the available index, typically from
// persisted state so it stays monotonic across restarts.
func (a *Advertiser) SetAvailableIndex(index uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.availableIndex = index
}

// StartAdvertising begins periodic announcements at the given
// interval (DefaultInterval if zero). Idempotent; a second call only
// updates the advertisement interval.
func (a *Advertiser) StartAdvertising(interval time.Duration) error {
	a.mu.Lock()
	if !a.info.Valid() {
		a.mu.Unlock()
		return ErrNotInitialized
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	a.interval = interval
	if a.running {
		kickCh := a.kickCh
		a.mu.Unlock()
		// Wake the loop so the new interval applies right away.
		select {
		case kickCh <- struct{}{}:
		default:
		}
		return nil
	}
	a.running = true
	a.stopCh = make(chan struct{})
	a.kickCh = make(chan struct{}, 1)
	stopCh := a.stopCh
	kickCh := a.kickCh
	a.mu.Unlock()

	// First announcement goes out immediately. On failure the start is
	// rolled back so a later retry can begin cleanly.
	if err := a.announce(wire.ADPEntityAvailable); err != nil {
		a.mu.Lock()
		a.running = false
		a.stopCh = nil
		a.kickCh = nil
		a.mu.Unlock()
		return err
	}

	a.wg.Add(1)
	go a.advertiseLoop(stopCh, kickCh)
	return nil
}

// StopAdvertising ends periodic announcements and broadcasts an
// orderly departure. Idempotent.
func (a *Advertiser) StopAdvertising() error {
	a.mu.Lock()
	if !a.info.Valid() {
		a.mu.Unlock()
		return ErrNotInitialized
	}
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	close(a.stopCh)
	a.mu.Unlock()

	a.wg.Wait()
	return a.announce(wire.ADPEntityDeparting)
}

// IsAdvertising returns true while the periodic loop runs.
func (a *Advertiser) IsAdvertising() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// SendDiscoveryRequest broadcasts a one-shot request for target (zero
// for all entities) to (re-)announce.
func (a *Advertiser) SendDiscoveryRequest(target wire.EntityID) error {
	a.mu.Lock()
	if !a.info.Valid() {
		a.mu.Unlock()
		return ErrNotInitialized
	}
	a.mu.Unlock()

	pdu := wire.ADP{
		MessageType: wire.ADPEntityDiscover,
		EntityID:    target,
	}
	return a.send(wire.EncodeFrame(wire.ProtocolDiscovery, pdu.Encode()))
}

// advertiseLoop re-announces until stopped.
func (a *Advertiser) advertiseLoop(stopCh, kickCh chan struct{}) {
	defer a.wg.Done()

	a.mu.Lock()
	interval := a.interval
	a.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			// Transmit failures are transient here; the next tick retries.
			_ = a.announce(wire.ADPEntityAvailable)
		case <-kickCh:
			a.mu.Lock()
			current := a.interval
			a.mu.Unlock()
			if current != interval {
				interval = current
				ticker.Reset(interval)
			}
		}
	}
}

// announce transmits one advertisement, incrementing the available
// index.
func (a *Advertiser) announce(msgType wire.ADPMessageType) error {
	a.mu.Lock()
	if !a.info.Valid() {
		a.mu.Unlock()
		return ErrNotInitialized
	}
	a.availableIndex++
	pdu := wire.ADP{
		MessageType:          msgType,
		ValidTime:            defaultValidTime,
		EntityID:             a.info.EntityID,
		EntityModelID:        a.info.EntityModelID,
		EntityCapabilities:   a.info.EntityCapabilities,
		TalkerStreamSources:  a.info.TalkerStreamSources,
		TalkerCapabilities:   a.info.TalkerCapabilities,
		ListenerStreamSinks:  a.info.ListenerStreamSinks,
		ListenerCapabilities: a.info.ListenerCapabilities,
		ControllerCaps:       a.info.ControllerCapabilities,
		AvailableIndex:       a.availableIndex,
		InterfaceIndex:       a.info.InterfaceIndex,
		AssociationID:        a.info.AssociationID,
	}
	if a.clock != nil {
		pdu.GPTPGrandmasterID = a.clock.GrandmasterIdentity()
		pdu.GPTPDomain = a.clock.Domain()
	}
	a.mu.Unlock()

	return a.send(wire.EncodeFrame(wire.ProtocolDiscovery, pdu.Encode()))
}

// HandleMessage processes one inbound discovery PDU. Announcements
// feed the peer registry; discovery requests addressed to this entity
// (or to all) trigger an immediate announcement. Requests for other
// identities are silently ignored.
func (a *Advertiser) HandleMessage(pdu *wire.ADP) error {
	a.mu.Lock()
	if !a.info.Valid() {
		a.mu.Unlock()
		return ErrNotInitialized
	}
	self := a.info.EntityID
	a.mu.Unlock()

	switch pdu.MessageType {
	case wire.ADPEntityAvailable:
		if pdu.EntityID != self {
			a.registry.Observe(pdu)
		}
	case wire.ADPEntityDeparting:
		if pdu.EntityID != self {
			a.registry.Remove(pdu.EntityID)
		}
	case wire.ADPEntityDiscover:
		if pdu.EntityID == 0 || pdu.EntityID == self {
			return a.announce(wire.ADPEntityAvailable)
		}
	}
	return nil
}
