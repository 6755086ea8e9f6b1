package aecp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avdecc-protocol/avdecc-go/pkg/access"
	"github.com/avdecc-protocol/avdecc-go/pkg/model"
	"github.com/avdecc-protocol/avdecc-go/pkg/transport"
	"github.com/avdecc-protocol/avdecc-go/pkg/wire"
)

// serveHandler answers control commands arriving on tp with h until tp
// closes, emulating the entity side of the wire.
func serveHandler(tp transport.Transport, h *Handler) {
	for {
		data, err := tp.Receive(50 * time.Millisecond)
		if errors.Is(err, transport.ErrTimeout) {
			continue
		}
		if err != nil {
			return
		}
		proto, payload, err := wire.DecodeFrame(data)
		if err != nil || proto != wire.ProtocolControl {
			continue
		}
		cmd, err := wire.DecodeCommand(payload)
		if err != nil || cmd.Header.IsResponse() {
			continue
		}
		_ = tp.Send(wire.EncodeFrame(wire.ProtocolControl, h.HandleCommand(cmd)))
	}
}

func TestClientCommandRoundTrip(t *testing.T) {
	ctrlSide, entitySide := transport.NewLoopbackPair()

	store := model.NewDescriptorStore()
	store.Write(wire.DescriptorEntity, 0, []byte{0xEE})
	h := NewHandler(&model.EntityInfo{EntityID: localEntity}, store, access.NewLedger(), nil)
	go serveHandler(entitySide, h)

	client := NewClient(ctrlOne, ctrlSide)
	client.Start()
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	desc, err := client.ReadDescriptor(ctx, localEntity, wire.DescriptorEntity, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xEE}, desc.Descriptor)
	assert.Equal(t, 0, client.Tracker().Len())
}

func TestClientAcquireScenario(t *testing.T) {
	// Two controllers sharing one entity: C1 acquires, C2 conflicts,
	// C1 releases, C2 succeeds.
	c1Side, e1 := transport.NewLoopbackPair()
	c2Side, e2 := transport.NewLoopbackPair()

	h := NewHandler(&model.EntityInfo{EntityID: localEntity}, model.NewDescriptorStore(), access.NewLedger(), nil)
	go serveHandler(e1, h)
	go serveHandler(e2, h)

	c1 := NewClient(ctrlOne, c1Side)
	c1.Start()
	defer c1.Close()
	c2 := NewClient(ctrlTwo, c2Side)
	c2.Start()
	defer c2.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := c1.Acquire(ctx, localEntity)
	require.NoError(t, err)
	assert.Equal(t, wire.StatusSuccess, resp.Status)

	resp, err = c2.Acquire(ctx, localEntity)
	require.NoError(t, err)
	assert.Equal(t, wire.StatusEntityAcquired, resp.Status)

	resp, err = c1.Release(ctx, localEntity)
	require.NoError(t, err)
	assert.Equal(t, wire.StatusSuccess, resp.Status)

	resp, err = c2.Acquire(ctx, localEntity)
	require.NoError(t, err)
	assert.Equal(t, wire.StatusSuccess, resp.Status)
}

func TestClientContextCancellation(t *testing.T) {
	ctrlSide, _ := transport.NewLoopbackPair()

	client := NewClient(ctrlOne, ctrlSide)
	client.Start()
	defer client.Close()

	// Nobody answers; the context bounds the wait.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Command(ctx, localEntity, wire.CmdGetConfiguration, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, client.Tracker().Len())
}

func TestClientObservesDiscovery(t *testing.T) {
	ctrlSide, peer := transport.NewLoopbackPair()

	seen := make(chan *wire.ADP, 1)
	client := NewClient(ctrlOne, ctrlSide)
	client.OnDiscovery = func(pdu *wire.ADP) { seen <- pdu }
	client.Start()
	defer client.Close()

	pdu := wire.ADP{MessageType: wire.ADPEntityAvailable, EntityID: localEntity, AvailableIndex: 5}
	require.NoError(t, peer.Send(wire.EncodeFrame(wire.ProtocolDiscovery, pdu.Encode())))

	select {
	case got := <-seen:
		assert.Equal(t, localEntity, got.EntityID)
		assert.Equal(t, uint32(5), got.AvailableIndex)
	case <-time.After(time.Second):
		t.Fatal("discovery PDU not observed")
	}
}
