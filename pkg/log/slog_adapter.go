package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes protocol events to an slog.Logger.
// Useful for development when you want to see protocol events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session_id", event.SessionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}

	// Add optional identifiers
	if event.EntityID != 0 {
		attrs = append(attrs, slog.String("entity_id", event.EntityID.String()))
	}
	if event.ControllerID != 0 {
		attrs = append(attrs, slog.String("controller_id", event.ControllerID.String()))
	}
	if event.RemoteAddr != "" {
		attrs = append(attrs, slog.String("remote_addr", event.RemoteAddr))
	}

	// Add type-specific attributes
	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			slog.Int("frame_size", event.Frame.Size),
			slog.Bool("truncated", event.Frame.Truncated),
		)
	case event.Command != nil:
		attrs = append(attrs,
			slog.String("kind", event.Command.Kind.String()),
			slog.Uint64("sequence_id", uint64(event.Command.SequenceID)),
			slog.Uint64("command_type", uint64(event.Command.CommandType)),
		)
		if event.Command.Status != nil {
			attrs = append(attrs, slog.String("status", event.Command.Status.String()))
		}
		if event.Command.ProcessingTime != nil {
			attrs = append(attrs, slog.Duration("processing_time", *event.Command.ProcessingTime))
		}
	case event.Advertisement != nil:
		attrs = append(attrs,
			slog.Uint64("adp_type", uint64(event.Advertisement.MessageType)),
			slog.String("peer_id", event.Advertisement.EntityID.String()),
			slog.Uint64("available_index", uint64(event.Advertisement.AvailableIndex)),
		)
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "protocol", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
