// Package log provides structured protocol event capture for the
// engine.
//
// This package defines the Logger interface and Event types for
// capturing protocol-level events at multiple layers (transport, wire,
// lifecycle). It is separate from operational logging (slog) - protocol
// capture provides a complete machine-readable event trace for
// debugging and analysis.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/avdecc/entity.avlog")
//
//	// Both: use MultiLogger
//	cfg.ProtocolLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    log.NewFileLogger("/var/log/avdecc/entity.avlog"),
//	)
//
// # Event Types
//
// Events are captured at multiple layers:
//   - Transport: Raw frame bytes (FrameEvent)
//   - Wire: Decoded commands and discovery PDUs (CommandEvent,
//     AdvertisementEvent)
//   - Lifecycle: State transitions (StateChangeEvent)
//
// Errors at any layer have a dedicated event type.
//
// # File Format
//
// Log files use CBOR encoding with integer keys and the .avlog
// extension; Reader streams them back with optional filtering.
package log
