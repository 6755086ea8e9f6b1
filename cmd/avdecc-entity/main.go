// Command avdecc-entity runs a reference protocol entity.
//
// The entity advertises itself on the network, answers enumeration
// and control commands against a sample descriptor model, and
// persists its runtime state across restarts.
//
// Usage:
//
//	avdecc-entity [flags]
//
// Flags:
//
//	-config string    Configuration file path (YAML)
//	-id string        Entity ID (hex or decimal, overrides config)
//	-listen string    UDP listen address (default ":17221")
//	-peer string      UDP peer/broadcast address
//	-interval duration  Advertisement interval
//	-state string     Runtime state file path
//	-protocol-log string  CBOR event trace file path
//	-log-level string Log level: debug, info, warn, error
//
// Examples:
//
//	# Start with an explicit identity
//	avdecc-entity -id 0x0011223344556677
//
//	# Start from a config file with a protocol trace
//	avdecc-entity -config /etc/avdecc/entity.yaml -protocol-log entity.avlog
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/avdecc-protocol/avdecc-go/pkg/connection"
	"github.com/avdecc-protocol/avdecc-go/pkg/entity"
	avlog "github.com/avdecc-protocol/avdecc-go/pkg/log"
	"github.com/avdecc-protocol/avdecc-go/pkg/model"
	"github.com/avdecc-protocol/avdecc-go/pkg/persistence"
	"github.com/avdecc-protocol/avdecc-go/pkg/transport"
	"github.com/avdecc-protocol/avdecc-go/pkg/wire"
)

var (
	flagConfig      = flag.String("config", "", "Configuration file path (YAML)")
	flagEntityID    = flag.String("id", "", "Entity ID (hex or decimal, overrides config)")
	flagListen      = flag.String("listen", "", "UDP listen address")
	flagPeer        = flag.String("peer", "", "UDP peer/broadcast address")
	flagInterval    = flag.Duration("interval", 0, "Advertisement interval")
	flagState       = flag.String("state", "", "Runtime state file path")
	flagProtocolLog = flag.String("protocol-log", "", "CBOR event trace file path")
	flagLogLevel    = flag.String("log-level", "", "Log level: debug, info, warn, error")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	cfg, err := loadConfig(*flagConfig)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	applyFlags(&cfg)
	if err := cfg.validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Println("AVDECC Reference Entity")
	log.Println("=======================")
	log.Printf("Entity ID: 0x%016X", cfg.EntityID)
	log.Printf("Model ID:  0x%016X", cfg.EntityModelID)
	log.Printf("Listen:    %s", cfg.ListenAddr)
	log.Printf("Peer:      %s", cfg.PeerAddr)

	tp, err := transport.NewUDP(cfg.ListenAddr, cfg.PeerAddr)
	if err != nil {
		log.Fatalf("Failed to open transport: %v", err)
	}
	defer tp.Close()

	info := &model.EntityInfo{
		EntityID:             wire.EntityID(cfg.EntityID),
		EntityModelID:        cfg.EntityModelID,
		EntityCapabilities:   model.CapAEMSupported | model.CapGPTPSupported,
		TalkerStreamSources:  cfg.TalkerStreams,
		TalkerCapabilities:   model.StreamCapImplemented | model.StreamCapAudioSource,
		ListenerStreamSinks:  cfg.ListenerStreams,
		ListenerCapabilities: model.StreamCapImplemented,
	}

	store := model.NewDescriptorStore()
	buildModel(cfg, store)

	logger, closeLogger, err := buildLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to open protocol log: %v", err)
	}
	defer closeLogger()

	// The stream connection is a probe of the configured peer; real
	// media transport sits outside this binary.
	connector := connection.NewManager(func(ctx context.Context) error {
		conn, err := net.Dial("udp", cfg.PeerAddr)
		if err != nil {
			return err
		}
		return conn.Close()
	})
	defer connector.Close()

	engineCfg := entity.Config{
		Info:              info,
		Transport:         tp,
		Store:             store,
		Clock:             transport.SystemClock{},
		Connector:         connector,
		Logger:            logger,
		AdvertiseInterval: cfg.AdvertiseInterval,
	}
	if cfg.StateFile != "" {
		engineCfg.StateStore = persistence.NewEntityStateStore(cfg.StateFile)
	}

	engine, err := entity.NewEngine(engineCfg)
	if err != nil {
		log.Fatalf("Failed to assemble engine: %v", err)
	}

	// Vendor command echo, so controllers can probe the vendor range.
	engine.Handler().RegisterVendor(wire.VendorCommandStart, wire.VendorCommandStart,
		func(cmd *wire.Command) (wire.Status, []byte) {
			return wire.StatusSuccess, cmd.Body
		})

	if err := engine.Start(); err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}
	log.Printf("Engine started (session %s)", engine.SessionID())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	log.Printf("Received signal: %v", sig)
	log.Println("Shutting down...")

	if err := engine.Shutdown(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Printf("Final state: %s after %d transitions", engine.State(), engine.Transitions())
}

// applyFlags overrides config fields with explicitly set flags.
func applyFlags(cfg *Config) {
	if *flagEntityID != "" {
		id, err := strconv.ParseUint(*flagEntityID, 0, 64)
		if err != nil {
			log.Fatalf("Invalid -id: %v", err)
		}
		cfg.EntityID = id
	}
	if *flagListen != "" {
		cfg.ListenAddr = *flagListen
	}
	if *flagPeer != "" {
		cfg.PeerAddr = *flagPeer
	}
	if *flagInterval > 0 {
		cfg.AdvertiseInterval = *flagInterval
	}
	if *flagState != "" {
		cfg.StateFile = *flagState
	}
	if *flagProtocolLog != "" {
		cfg.ProtocolLog = *flagProtocolLog
	}
	if *flagLogLevel != "" {
		cfg.LogLevel = *flagLogLevel
	}
}

// buildLogger assembles the protocol event logger from the config.
func buildLogger(cfg Config) (avlog.Logger, func(), error) {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	console := avlog.NewSlogAdapter(slog.New(handler))

	if cfg.ProtocolLog == "" {
		return console, func() {}, nil
	}
	file, err := avlog.NewFileLogger(cfg.ProtocolLog)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", cfg.ProtocolLog, err)
	}
	closer := func() {
		if err := file.Close(); err != nil {
			log.Printf("Error closing protocol log: %v", err)
		}
	}
	return avlog.NewMultiLogger(console, file), closer, nil
}
