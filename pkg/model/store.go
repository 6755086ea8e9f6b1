package model

import (
	"errors"
	"fmt"
	"sync"

	"github.com/avdecc-protocol/avdecc-go/pkg/wire"
)

// Store errors.
var (
	// ErrNotFound indicates no descriptor exists at the given key.
	ErrNotFound = errors.New("model: descriptor not found")

	// ErrInvalidConfiguration indicates a configuration index outside
	// the 16-bit addressable range.
	ErrInvalidConfiguration = errors.New("model: invalid configuration index")
)

// BufferTooSmallError reports the length a caller-provided buffer must
// have to hold the stored descriptor.
type BufferTooSmallError struct {
	// Required is the stored descriptor length in octets.
	Required int
}

// Error implements the error interface.
func (e *BufferTooSmallError) Error() string {
	return fmt.Sprintf("model: buffer too small, need %d octets", e.Required)
}

// DescriptorStore holds the entity's descriptor records keyed by
// packed (type, index) keys, alongside the active configuration index.
// It is safe for concurrent use.
type DescriptorStore struct {
	mu          sync.RWMutex
	descriptors map[wire.DescriptorKey][]byte
	configIndex uint16
}

// NewDescriptorStore creates an empty descriptor store.
func NewDescriptorStore() *DescriptorStore {
	return &DescriptorStore{
		descriptors: make(map[wire.DescriptorKey][]byte),
	}
}

// Read returns a copy of the descriptor stored at (t, index).
// Returns ErrNotFound if the key was never written.
func (s *DescriptorStore) Read(t wire.DescriptorType, index uint16) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.descriptors[wire.MakeDescriptorKey(t, index)]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// ReadInto copies the descriptor stored at (t, index) into buf and
// returns the number of octets written. If buf is shorter than the
// stored record, returns a BufferTooSmallError carrying the required
// length so the caller can retry.
func (s *DescriptorStore) ReadInto(t wire.DescriptorType, index uint16, buf []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.descriptors[wire.MakeDescriptorKey(t, index)]
	if !ok {
		return 0, ErrNotFound
	}
	if len(buf) < len(data) {
		return 0, &BufferTooSmallError{Required: len(data)}
	}
	return copy(buf, data), nil
}

// Write stores a copy of data at (t, index), replacing any prior
// record atomically from the caller's perspective.
func (s *DescriptorStore) Write(t wire.DescriptorType, index uint16, data []byte) {
	stored := make([]byte, len(data))
	copy(stored, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.descriptors[wire.MakeDescriptorKey(t, index)] = stored
}

// Exists returns true if a descriptor is stored at (t, index).
func (s *DescriptorStore) Exists(t wire.DescriptorType, index uint16) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.descriptors[wire.MakeDescriptorKey(t, index)]
	return ok
}

// Len returns the number of stored descriptors.
func (s *DescriptorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.descriptors)
}

// Configuration returns the active configuration index.
func (s *DescriptorStore) Configuration() uint16 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.configIndex
}

// SetConfiguration selects the active configuration. Index 0xFFFF is
// reserved and rejected; no further range validation is done here.
func (s *DescriptorStore) SetConfiguration(index uint16) error {
	if index == 0xFFFF {
		return ErrInvalidConfiguration
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configIndex = index
	return nil
}

// Keys returns a snapshot of all stored descriptor keys.
func (s *DescriptorStore) Keys() []wire.DescriptorKey {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]wire.DescriptorKey, 0, len(s.descriptors))
	for k := range s.descriptors {
		keys = append(keys, k)
	}
	return keys
}
