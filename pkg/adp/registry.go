package adp

import (
	"sync"
	"time"

	"github.com/avdecc-protocol/avdecc-go/pkg/wire"
)

// Peer is one remote entity observed via discovery.
type Peer struct {
	// EntityID identifies the peer.
	EntityID wire.EntityID

	// EntityModelID is the peer's descriptor model revision.
	EntityModelID uint64

	// EntityCapabilities is the advertised capability bitfield.
	EntityCapabilities uint32

	// AvailableIndex is the last advertised available index.
	AvailableIndex uint32

	// ValidTime is the advertised validity in 2-second units.
	ValidTime uint8

	// LastSeen is when the peer last announced itself.
	LastSeen time.Time
}

// Registry tracks peer entities seen on the network. It is safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	peers map[wire.EntityID]*Peer

	// onAdded is invoked (outside the lock) when a new peer appears.
	onAdded func(*Peer)

	// onRemoved is invoked when a peer departs or expires.
	onRemoved func(wire.EntityID)

	// now is the clock source, replaceable in tests.
	now func() time.Time
}

// NewRegistry creates an empty peer registry.
func NewRegistry() *Registry {
	return &Registry{
		peers: make(map[wire.EntityID]*Peer),
		now:   time.Now,
	}
}

// OnEntityAdded sets the callback for newly observed peers.
func (r *Registry) OnEntityAdded(fn func(*Peer)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onAdded = fn
}

// OnEntityRemoved sets the callback for departed or expired peers.
func (r *Registry) OnEntityRemoved(fn func(wire.EntityID)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onRemoved = fn
}

// Observe records one advertisement from a peer.
func (r *Registry) Observe(pdu *wire.ADP) {
	r.mu.Lock()
	p, known := r.peers[pdu.EntityID]
	if !known {
		p = &Peer{EntityID: pdu.EntityID}
		r.peers[pdu.EntityID] = p
	}
	p.EntityModelID = pdu.EntityModelID
	p.EntityCapabilities = pdu.EntityCapabilities
	p.AvailableIndex = pdu.AvailableIndex
	p.ValidTime = pdu.ValidTime
	p.LastSeen = r.now()
	added := r.onAdded
	snapshot := *p
	r.mu.Unlock()

	if !known && added != nil {
		added(&snapshot)
	}
}

// Remove drops a peer after an orderly departure.
func (r *Registry) Remove(id wire.EntityID) {
	r.mu.Lock()
	_, known := r.peers[id]
	delete(r.peers, id)
	removed := r.onRemoved
	r.mu.Unlock()

	if known && removed != nil {
		removed(id)
	}
}

// Get returns a snapshot of the peer with the given ID.
func (r *Registry) Get(id wire.EntityID) (Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.peers[id]
	if !ok {
		return Peer{}, false
	}
	return *p, true
}

// Peers returns a snapshot of all known peers.
func (r *Registry) Peers() []Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Peer, 0, len(r.peers))
	for _, p := range r.peers {
		out = append(out, *p)
	}
	return out
}

// Len returns the number of known peers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

// Prune drops peers whose advertised validity has lapsed (twice the
// valid time without an announcement) and returns how many were
// dropped.
func (r *Registry) Prune() int {
	r.mu.Lock()
	now := r.now()
	var expired []wire.EntityID
	for id, p := range r.peers {
		ttl := 2 * time.Duration(p.ValidTime) * 2 * time.Second
		if ttl <= 0 {
			ttl = 2 * DefaultInterval
		}
		if now.Sub(p.LastSeen) > ttl {
			expired = append(expired, id)
			delete(r.peers, id)
		}
	}
	removed := r.onRemoved
	r.mu.Unlock()

	if removed != nil {
		for _, id := range expired {
			removed(id)
		}
	}
	return len(expired)
}
