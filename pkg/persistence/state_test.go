package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/avdecc-protocol/avdecc-go/pkg/wire"
)

func TestEntityStateStore(t *testing.T) {
	t.Run("SaveAndLoad", func(t *testing.T) {
		dir := t.TempDir()
		store := NewEntityStateStore(filepath.Join(dir, "state.json"))

		state := &EntityState{
			EntityID:           wire.EntityID(0x0011223344556677),
			ConfigurationIndex: 2,
			AvailableIndex:     417,
		}

		if err := store.Save(state); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.Version != StateVersion {
			t.Errorf("Version = %d, want %d", got.Version, StateVersion)
		}
		if got.EntityID != state.EntityID {
			t.Errorf("EntityID = %s, want %s", got.EntityID, state.EntityID)
		}
		if got.ConfigurationIndex != 2 {
			t.Errorf("ConfigurationIndex = %d, want 2", got.ConfigurationIndex)
		}
		if got.AvailableIndex != 417 {
			t.Errorf("AvailableIndex = %d, want 417", got.AvailableIndex)
		}
		if got.SavedAt.IsZero() {
			t.Error("SavedAt not stamped on save")
		}
	})

	t.Run("LoadNonExistent", func(t *testing.T) {
		dir := t.TempDir()
		store := NewEntityStateStore(filepath.Join(dir, "nonexistent.json"))

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		// Should return nil (empty state) for non-existent file
		if got != nil {
			t.Errorf("Load() = %v, want nil for non-existent file", got)
		}
	})

	t.Run("SaveCreatesParentDirs", func(t *testing.T) {
		dir := t.TempDir()
		store := NewEntityStateStore(filepath.Join(dir, "nested", "deep", "state.json"))

		if err := store.Save(&EntityState{EntityID: 1}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if _, err := store.Load(); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		dir := t.TempDir()
		store := NewEntityStateStore(filepath.Join(dir, "state.json"))

		if err := store.Save(&EntityState{EntityID: 1}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if err := store.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() after Clear() error = %v", err)
		}
		if got != nil {
			t.Errorf("Load() after Clear() = %v, want nil", got)
		}

		// Clearing again is not an error
		if err := store.Clear(); err != nil {
			t.Errorf("second Clear() error = %v", err)
		}
	})
}

func TestControllerStateStore(t *testing.T) {
	t.Run("EntityRecordRoundTrip", func(t *testing.T) {
		dir := t.TempDir()
		store := NewControllerStateStore(filepath.Join(dir, "controller.json"))

		state := &ControllerState{
			ControllerID: wire.EntityID(0x8899AABBCCDDEEFF),
			Entities: []EntityRecord{
				{
					EntityID:      wire.EntityID(0x01),
					EntityModelID: 0x1234,
					FirstSeenAt:   time.Now().Add(-24 * time.Hour),
					LastSeenAt:    time.Now(),
				},
				{
					EntityID:    wire.EntityID(0x02),
					FirstSeenAt: time.Now().Add(-time.Hour),
				},
			},
		}

		if err := store.Save(state); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.ControllerID != state.ControllerID {
			t.Errorf("ControllerID = %s, want %s", got.ControllerID, state.ControllerID)
		}
		if len(got.Entities) != 2 {
			t.Fatalf("len(Entities) = %d, want 2", len(got.Entities))
		}
		if got.Entities[0].EntityModelID != 0x1234 {
			t.Errorf("EntityModelID = %#x, want 0x1234", got.Entities[0].EntityModelID)
		}
	})

	t.Run("LoadNonExistent", func(t *testing.T) {
		dir := t.TempDir()
		store := NewControllerStateStore(filepath.Join(dir, "nonexistent.json"))

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got != nil {
			t.Errorf("Load() = %v, want nil for non-existent file", got)
		}
	})
}
