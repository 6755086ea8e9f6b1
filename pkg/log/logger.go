package log

// Logger receives protocol events from the engine and its
// sub-protocols. Implementations must be safe for concurrent use and
// should return quickly; a slow sink stalls the calling loop.
type Logger interface {
	Log(event Event)
}

// NoopLogger discards every event. The zero value is ready to use; it
// is the default sink wherever no Logger is configured.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

var _ Logger = NoopLogger{}
