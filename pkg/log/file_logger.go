package log

import (
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileLogger appends events to an .avlog file as a CBOR stream. Safe
// for concurrent use.
type FileLogger struct {
	mu     sync.Mutex
	file   *os.File
	enc    *cbor.Encoder
	closed bool
}

// NewFileLogger opens path for appending, creating it with mode 0644
// when absent. Events from successive runs accumulate in one file and
// are told apart by their session IDs.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &FileLogger{file: f, enc: NewEncoder(f)}, nil
}

// Log appends one event. Encoding errors are swallowed; logging must
// never disrupt protocol operation.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	_ = l.enc.Encode(event)
}

// Close closes the underlying file. Further Log calls are silently
// dropped; calling Close again is a no-op.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.file.Close()
}

var _ Logger = (*FileLogger)(nil)
