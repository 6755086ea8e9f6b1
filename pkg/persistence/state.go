package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/avdecc-protocol/avdecc-go/pkg/wire"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// EntityState contains the runtime state for an entity that must
// survive restarts. Access-control claims are deliberately absent:
// acquisition and locks do not outlive the process holding them.
type EntityState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// EntityID identifies the entity the state belongs to. A state
	// file from a different identity is ignored on load.
	EntityID wire.EntityID `json:"entity_id"`

	// ConfigurationIndex is the active configuration.
	ConfigurationIndex uint16 `json:"configuration_index"`

	// AvailableIndex is the last transmitted available index. Seeding
	// the advertiser with it keeps the index monotonic across
	// restarts.
	AvailableIndex uint32 `json:"available_index"`
}

// EntityStateStore manages persistence of entity state to a JSON file.
type EntityStateStore struct {
	mu   sync.Mutex
	path string
}

// NewEntityStateStore creates a new entity state store.
func NewEntityStateStore(path string) *EntityStateStore {
	return &EntityStateStore{path: path}
}

// Save persists the entity state to disk.
func (s *EntityStateStore) Save(state *EntityState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Ensure parent directory exists
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now()
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// Load reads the entity state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *EntityStateStore) Load() (*EntityState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &EntityState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}

	return state, nil
}

// Clear removes the state file.
func (s *EntityStateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// ControllerState contains the runtime state for a controller.
type ControllerState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// ControllerID identifies the controller the state belongs to.
	ControllerID wire.EntityID `json:"controller_id"`

	// Entities contains info about entities seen on the network.
	Entities []EntityRecord `json:"entities,omitempty"`
}

// EntityRecord contains information about a discovered entity.
type EntityRecord struct {
	// EntityID is the unique entity identifier.
	EntityID wire.EntityID `json:"entity_id"`

	// EntityModelID identifies the entity's descriptor model revision.
	EntityModelID uint64 `json:"entity_model_id,omitempty"`

	// FirstSeenAt is when the entity was first discovered.
	FirstSeenAt time.Time `json:"first_seen_at"`

	// LastSeenAt is when the entity last advertised.
	LastSeenAt time.Time `json:"last_seen_at,omitempty"`
}

// ControllerStateStore manages persistence of controller state to a JSON file.
type ControllerStateStore struct {
	mu   sync.Mutex
	path string
}

// NewControllerStateStore creates a new controller state store.
func NewControllerStateStore(path string) *ControllerStateStore {
	return &ControllerStateStore{path: path}
}

// Save persists the controller state to disk.
func (s *ControllerStateStore) Save(state *ControllerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now()
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// Load reads the controller state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *ControllerStateStore) Load() (*ControllerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &ControllerState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}

	return state, nil
}

// Clear removes the state file.
func (s *ControllerStateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
