package avdecc_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/avdecc-protocol/avdecc-go/pkg/adp"
	"github.com/avdecc-protocol/avdecc-go/pkg/aecp"
	"github.com/avdecc-protocol/avdecc-go/pkg/entity"
	"github.com/avdecc-protocol/avdecc-go/pkg/model"
	"github.com/avdecc-protocol/avdecc-go/pkg/transport"
	"github.com/avdecc-protocol/avdecc-go/pkg/wire"
)

const (
	e2eEntityID     wire.EntityID = 0x0011223344556677
	e2eControllerID wire.EntityID = 0x8899AABBCCDDEEFF
)

// startEntity brings up an engine on one end of a loopback pair and
// returns the other end for the controller.
func startEntity(t *testing.T, mutate func(*entity.Config)) (*entity.Engine, *transport.Loopback) {
	t.Helper()

	local, remote := transport.NewLoopbackPair()

	store := model.NewDescriptorStore()
	ent := make([]byte, 16)
	binary.BigEndian.PutUint64(ent[0:8], uint64(e2eEntityID))
	binary.BigEndian.PutUint64(ent[8:16], 0x001B92FFFE000001)
	store.Write(wire.DescriptorEntity, 0, ent)
	store.Write(wire.DescriptorConfiguration, 0, []byte("default"))

	cfg := entity.Config{
		Info: &model.EntityInfo{
			EntityID:           e2eEntityID,
			EntityModelID:      0x001B92FFFE000001,
			EntityCapabilities: model.CapAEMSupported,
		},
		Transport:         local,
		Store:             store,
		AdvertiseInterval: time.Hour,
		DiscoveryWindow:   5 * time.Millisecond,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	engine, err := entity.NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	if err := engine.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() {
		_ = engine.Shutdown()
		_ = local.Close()
	})

	waitForState(t, engine, entity.StateAvailable)
	return engine, remote
}

func waitForState(t *testing.T, e *entity.Engine, want entity.State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state = %s, want %s", e.State(), want)
}

// TestE2E_DiscoverAndEnumerate walks the full controller flow: discover
// the entity, read its descriptors, and query its configuration.
func TestE2E_DiscoverAndEnumerate(t *testing.T) {
	_, remote := startEntity(t, nil)

	registry := adp.NewRegistry()
	var mu sync.Mutex
	discovered := make(map[wire.EntityID]uint32)

	client := aecp.NewClient(e2eControllerID, remote)
	client.OnDiscovery = func(pdu *wire.ADP) {
		if pdu.MessageType != wire.ADPEntityAvailable {
			return
		}
		registry.Observe(pdu)
		mu.Lock()
		discovered[pdu.EntityID] = pdu.AvailableIndex
		mu.Unlock()
	}
	client.Start()
	defer client.Close()

	if err := client.SendDiscover(0); err != nil {
		t.Fatalf("SendDiscover failed: %v", err)
	}

	// The entity answers an all-entities discover with an announcement.
	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		_, ok := discovered[e2eEntityID]
		mu.Unlock()
		if ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("entity was not discovered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if registry.Len() != 1 {
		t.Fatalf("registry has %d peers, want 1", registry.Len())
	}
	peer, ok := registry.Get(e2eEntityID)
	if !ok {
		t.Fatal("discovered entity missing from registry")
	}
	if peer.EntityModelID != 0x001B92FFFE000001 {
		t.Errorf("unexpected model ID: 0x%016X", peer.EntityModelID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Read the entity descriptor and verify its identity fields.
	result, err := client.ReadDescriptor(ctx, e2eEntityID, wire.DescriptorEntity, 0)
	if err != nil {
		t.Fatalf("ReadDescriptor failed: %v", err)
	}
	if got := wire.EntityID(binary.BigEndian.Uint64(result.Descriptor[0:8])); got != e2eEntityID {
		t.Errorf("descriptor entity ID = %s, want %s", got, e2eEntityID)
	}

	// Missing descriptors report NO_SUCH_DESCRIPTOR.
	_, err = client.ReadDescriptor(ctx, e2eEntityID, wire.DescriptorStreamInput, 9)
	if err == nil {
		t.Fatal("expected error for missing descriptor")
	}
	if !errors.Is(err, aecp.ErrCommandFailed) {
		t.Errorf("unexpected error: %v", err)
	}

	index, err := client.GetConfiguration(ctx, e2eEntityID)
	if err != nil {
		t.Fatalf("GetConfiguration failed: %v", err)
	}
	if index != 0 {
		t.Errorf("configuration index = %d, want 0", index)
	}
}

// TestE2E_AcquireReleaseFlow exercises exclusive ownership over a live
// engine: acquire, command while owned, then release.
func TestE2E_AcquireReleaseFlow(t *testing.T) {
	_, remote := startEntity(t, nil)

	client := aecp.NewClient(e2eControllerID, remote)
	client.Start()
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := client.Acquire(ctx, e2eEntityID)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if resp.Status != wire.StatusSuccess {
		t.Fatalf("Acquire status = %s, want SUCCESS", resp.Status)
	}

	// The owner can still issue commands.
	if _, err := client.SetConfiguration(ctx, e2eEntityID, 0); err != nil {
		t.Fatalf("SetConfiguration failed: %v", err)
	}

	resp, err = client.Release(ctx, e2eEntityID)
	if err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if resp.Status != wire.StatusSuccess {
		t.Fatalf("Release status = %s, want SUCCESS", resp.Status)
	}

	// Lock and unlock after release.
	resp, err = client.Lock(ctx, e2eEntityID)
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	if resp.Status != wire.StatusSuccess {
		t.Fatalf("Lock status = %s, want SUCCESS", resp.Status)
	}
	resp, err = client.Unlock(ctx, e2eEntityID)
	if err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	if resp.Status != wire.StatusSuccess {
		t.Fatalf("Unlock status = %s, want SUCCESS", resp.Status)
	}
}

// TestE2E_VendorCommand registers a vendor handler on the engine and
// round-trips a vendor command through the client.
func TestE2E_VendorCommand(t *testing.T) {
	engine, remote := startEntity(t, nil)

	engine.Handler().RegisterVendor(wire.VendorCommandStart, wire.VendorCommandStart,
		func(cmd *wire.Command) (wire.Status, []byte) {
			return wire.StatusSuccess, cmd.Body
		})

	client := aecp.NewClient(e2eControllerID, remote)
	client.Start()
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	resp, err := client.Command(ctx, e2eEntityID, wire.VendorCommandStart, payload)
	if err != nil {
		t.Fatalf("vendor command failed: %v", err)
	}
	if resp.Status != wire.StatusSuccess {
		t.Fatalf("vendor status = %s, want SUCCESS", resp.Status)
	}
	if !bytes.Equal(resp.Body, payload) {
		t.Errorf("vendor echo = %x, want %x", resp.Body, payload)
	}
}

// TestE2E_ShutdownDeparture verifies the controller observes an orderly
// departure and drops the entity from its registry.
func TestE2E_ShutdownDeparture(t *testing.T) {
	engine, remote := startEntity(t, nil)

	registry := adp.NewRegistry()
	removed := make(chan wire.EntityID, 1)
	registry.OnEntityRemoved(func(id wire.EntityID) {
		select {
		case removed <- id:
		default:
		}
	})

	client := aecp.NewClient(e2eControllerID, remote)
	client.OnDiscovery = func(pdu *wire.ADP) {
		switch pdu.MessageType {
		case wire.ADPEntityAvailable:
			registry.Observe(pdu)
		case wire.ADPEntityDeparting:
			registry.Remove(pdu.EntityID)
		}
	}
	client.Start()
	defer client.Close()

	if err := client.SendDiscover(0); err != nil {
		t.Fatalf("SendDiscover failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for registry.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("entity was not discovered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := engine.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	select {
	case id := <-removed:
		if id != e2eEntityID {
			t.Errorf("removed entity = %s, want %s", id, e2eEntityID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("departure was not observed")
	}

	if registry.Len() != 0 {
		t.Errorf("registry has %d peers after departure, want 0", registry.Len())
	}
}
