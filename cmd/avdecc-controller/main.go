// Command avdecc-controller is an interactive protocol controller.
//
// The controller discovers entities on the network, takes exclusive
// control of them, and enumerates their descriptor models from an
// interactive shell.
//
// Usage:
//
//	avdecc-controller [flags]
//
// Flags:
//
//	-id string      Controller entity ID (hex or decimal)
//	-listen string  UDP listen address (default ":17222")
//	-peer string    UDP peer/broadcast address (default "255.255.255.255:17221")
//	-state string   Controller state file path
//
// Example:
//
//	avdecc-controller -id 0x8899AABBCCDDEEFF -peer 192.168.1.255:17221
package main

import (
	"context"
	"flag"
	"log"
	"strconv"
	"time"

	"github.com/avdecc-protocol/avdecc-go/cmd/avdecc-controller/interactive"
	"github.com/avdecc-protocol/avdecc-go/pkg/adp"
	"github.com/avdecc-protocol/avdecc-go/pkg/aecp"
	"github.com/avdecc-protocol/avdecc-go/pkg/persistence"
	"github.com/avdecc-protocol/avdecc-go/pkg/transport"
	"github.com/avdecc-protocol/avdecc-go/pkg/wire"
)

var (
	flagID     = flag.String("id", "0x8899AABBCCDDEEFF", "Controller entity ID (hex or decimal)")
	flagListen = flag.String("listen", ":17222", "UDP listen address")
	flagPeer   = flag.String("peer", "255.255.255.255:17221", "UDP peer/broadcast address")
	flagState  = flag.String("state", "", "Controller state file path")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ltime)

	id, err := strconv.ParseUint(*flagID, 0, 64)
	if err != nil || id == 0 {
		log.Fatalf("Invalid -id %q", *flagID)
	}
	controllerID := wire.EntityID(id)

	tp, err := transport.NewUDP(*flagListen, *flagPeer)
	if err != nil {
		log.Fatalf("Failed to open transport: %v", err)
	}
	defer tp.Close()

	// Observed advertisements feed the peer registry.
	registry := adp.NewRegistry()
	client := aecp.NewClient(controllerID, tp)
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

	var store *persistence.ControllerStateStore
	if *flagState != "" {
		store = persistence.NewControllerStateStore(*flagState)
		restoreEntities(store)
	}

	shell, err := interactive.New(client, registry)
	if err != nil {
		log.Fatalf("Failed to create shell: %v", err)
	}

	log.Printf("Controller %s on %s (peer %s)", controllerID, *flagListen, *flagPeer)

	// Announce interest right away.
	if err := client.SendDiscover(0); err != nil {
		log.Printf("Warning: initial discovery failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	shell.Run(ctx, cancel)

	if store != nil {
		if err := saveEntities(store, controllerID, registry); err != nil {
			log.Printf("Error saving state: %v", err)
		}
	}
}

// restoreEntities logs what the controller knew from previous runs.
// The registry itself only ever holds live peers.
func restoreEntities(store *persistence.ControllerStateStore) {
	state, err := store.Load()
	if err != nil {
		log.Printf("Warning: could not load state: %v", err)
		return
	}
	if state == nil {
		return
	}
	log.Printf("Known entities from previous runs: %d (stale until re-discovered)", len(state.Entities))
}

// saveEntities snapshots the registry to the state file.
func saveEntities(store *persistence.ControllerStateStore, controllerID wire.EntityID, registry *adp.Registry) error {
	now := time.Now()
	state := &persistence.ControllerState{ControllerID: controllerID}
	for _, p := range registry.Peers() {
		state.Entities = append(state.Entities, persistence.EntityRecord{
			EntityID:      p.EntityID,
			EntityModelID: p.EntityModelID,
			FirstSeenAt:   now,
			LastSeenAt:    p.LastSeen,
		})
	}
	return store.Save(state)
}
