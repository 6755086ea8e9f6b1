package log

// MultiLogger fans each event out to several sinks, typically an
// SlogAdapter for the console next to a FileLogger for later analysis.
type MultiLogger struct {
	sinks []Logger
}

// NewMultiLogger returns a logger that forwards to every sink in order.
func NewMultiLogger(sinks ...Logger) *MultiLogger {
	return &MultiLogger{sinks: sinks}
}

// Log forwards the event to every sink.
func (m *MultiLogger) Log(event Event) {
	for _, s := range m.sinks {
		s.Log(event)
	}
}

var _ Logger = (*MultiLogger)(nil)
