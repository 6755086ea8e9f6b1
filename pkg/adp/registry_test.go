package adp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avdecc-protocol/avdecc-go/pkg/wire"
)

func TestRegistryObserveAndCallbacks(t *testing.T) {
	r := NewRegistry()

	var added []wire.EntityID
	var removed []wire.EntityID
	r.OnEntityAdded(func(p *Peer) { added = append(added, p.EntityID) })
	r.OnEntityRemoved(func(id wire.EntityID) { removed = append(removed, id) })

	r.Observe(&wire.ADP{EntityID: peerEntity, AvailableIndex: 1, ValidTime: 31})
	r.Observe(&wire.ADP{EntityID: peerEntity, AvailableIndex: 2, ValidTime: 31})

	// The added callback fires only on first sight.
	assert.Equal(t, []wire.EntityID{peerEntity}, added)
	assert.Equal(t, 1, r.Len())

	p, ok := r.Get(peerEntity)
	require.True(t, ok)
	assert.Equal(t, uint32(2), p.AvailableIndex)

	r.Remove(peerEntity)
	assert.Equal(t, []wire.EntityID{peerEntity}, removed)
	assert.Equal(t, 0, r.Len())

	// Removing an unknown peer fires no callback.
	r.Remove(peerEntity)
	assert.Len(t, removed, 1)
}

func TestRegistryGetReturnsSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Observe(&wire.ADP{EntityID: peerEntity, AvailableIndex: 5})

	p, ok := r.Get(peerEntity)
	require.True(t, ok)
	p.AvailableIndex = 99

	again, _ := r.Get(peerEntity)
	assert.Equal(t, uint32(5), again.AvailableIndex)

	_, ok = r.Get(localEntity)
	assert.False(t, ok)
}

func TestRegistryAddedCallbackGetsSnapshot(t *testing.T) {
	r := NewRegistry()

	var seen *Peer
	r.OnEntityAdded(func(p *Peer) { seen = p })

	r.Observe(&wire.ADP{EntityID: peerEntity, AvailableIndex: 1, EntityModelID: 0x10})
	require.NotNil(t, seen)

	// Later observations must not reach through to the peer handed
	// to the callback.
	r.Observe(&wire.ADP{EntityID: peerEntity, AvailableIndex: 7, EntityModelID: 0x20})

	assert.Equal(t, uint32(1), seen.AvailableIndex)
	assert.Equal(t, uint64(0x10), seen.EntityModelID)
}

func TestRegistryPruneExpiresStalePeers(t *testing.T) {
	r := NewRegistry()
	now := time.Now()
	r.now = func() time.Time { return now }

	var removed []wire.EntityID
	r.OnEntityRemoved(func(id wire.EntityID) { removed = append(removed, id) })

	// ValidTime 2 means 4 seconds of validity; pruning allows double.
	r.Observe(&wire.ADP{EntityID: peerEntity, ValidTime: 2})
	r.Observe(&wire.ADP{EntityID: wire.EntityID(0x01), ValidTime: 31})

	now = now.Add(9 * time.Second)
	assert.Equal(t, 1, r.Prune())
	assert.Equal(t, []wire.EntityID{peerEntity}, removed)
	assert.Equal(t, 1, r.Len())

	// The long-lived peer expires eventually too.
	now = now.Add(5 * time.Minute)
	assert.Equal(t, 1, r.Prune())
	assert.Equal(t, 0, r.Len())
}

func TestRegistryPeersSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Observe(&wire.ADP{EntityID: peerEntity})
	r.Observe(&wire.ADP{EntityID: wire.EntityID(0x01)})

	peers := r.Peers()
	assert.Len(t, peers, 2)
}
