package commands

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/avdecc-protocol/avdecc-go/pkg/log"
)

func TestFilterBySessionID(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, SessionID: "sess-1", Category: log.CategoryCommand},
		{Timestamp: ts, SessionID: "sess-2", Category: log.CategoryCommand},
		{Timestamp: ts, SessionID: "sess-1", Category: log.CategoryCommand},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.avlog")

	err := RunFilter(path, FilterOptions{
		Output:    outPath,
		SessionID: "sess-1",
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	// Verify output
	reader, err := log.NewReader(outPath)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read event: %v", err)
		}
		if event.SessionID != "sess-1" {
			t.Errorf("expected sess-1, got %s", event.SessionID)
		}
		count++
	}

	if count != 2 {
		t.Errorf("expected 2 events, got %d", count)
	}
}

func TestFilterByEntityID(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, EntityID: 0x0011223344556677, Category: log.CategoryCommand},
		{Timestamp: ts, EntityID: 0x8899AABBCCDDEEFF, Category: log.CategoryCommand},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.avlog")

	err := RunFilter(path, FilterOptions{
		Output:   outPath,
		EntityID: "0x0011223344556677",
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	count := countEvents(t, outPath)
	if count != 1 {
		t.Errorf("expected 1 event, got %d", count)
	}
}

func TestFilterByTimeRange(t *testing.T) {
	base := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: base, Category: log.CategoryCommand},
		{Timestamp: base.Add(time.Minute), Category: log.CategoryCommand},
		{Timestamp: base.Add(2 * time.Minute), Category: log.CategoryCommand},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.avlog")

	err := RunFilter(path, FilterOptions{
		Output:    outPath,
		TimeStart: base.Add(30 * time.Second).Format(time.RFC3339),
		TimeEnd:   base.Add(90 * time.Second).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	count := countEvents(t, outPath)
	if count != 1 {
		t.Errorf("expected 1 event in time range, got %d", count)
	}
}

func TestFilterByLayer(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, Layer: log.LayerTransport, Category: log.CategoryCommand},
		{Timestamp: ts, Layer: log.LayerWire, Category: log.CategoryCommand},
		{Timestamp: ts, Layer: log.LayerLifecycle, Category: log.CategoryState},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.avlog")

	err := RunFilter(path, FilterOptions{
		Output: outPath,
		Layer:  "wire",
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	count := countEvents(t, outPath)
	if count != 1 {
		t.Errorf("expected 1 wire event, got %d", count)
	}
}

func TestFilterInvalidEntityID(t *testing.T) {
	path := createTestLogFile(t, []log.Event{
		{Timestamp: time.Now(), Category: log.CategoryCommand},
	})
	outPath := filepath.Join(t.TempDir(), "filtered.avlog")

	err := RunFilter(path, FilterOptions{
		Output:   outPath,
		EntityID: "not-a-number",
	})
	if err == nil {
		t.Fatal("expected error for invalid entity ID")
	}
}

func countEvents(t *testing.T, path string) int {
	t.Helper()
	reader, err := log.NewReader(path)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		_, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read event: %v", err)
		}
		count++
	}
	return count
}
