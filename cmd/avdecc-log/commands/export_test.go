package commands

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/avdecc-protocol/avdecc-go/pkg/log"
	"github.com/avdecc-protocol/avdecc-go/pkg/wire"
)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.avlog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func TestExportToJSONL(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)
	events := []log.Event{
		{
			Timestamp: ts,
			SessionID: "abc12345",
			Direction: log.DirectionOut,
			Layer:     log.LayerWire,
			Category:  log.CategoryCommand,
			Command: &log.CommandEvent{
				Kind:        log.MessageKindCommand,
				SequenceID:  42,
				CommandType: wire.CmdReadDescriptor,
			},
		},
		{
			Timestamp: ts.Add(time.Second),
			SessionID: "abc12345",
			Direction: log.DirectionIn,
			Layer:     log.LayerWire,
			Category:  log.CategoryCommand,
			Command: &log.CommandEvent{
				Kind:        log.MessageKindResponse,
				SequenceID:  42,
				CommandType: wire.CmdReadDescriptor,
			},
		},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	reader, err := log.NewReader(path)
	if err != nil {
		t.Fatalf("failed to open log: %v", err)
	}
	defer reader.Close()

	if err := exportJSONL(reader, &buf); err != nil {
		t.Fatalf("exportJSONL failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	// Each line must be valid JSON
	for i, line := range lines {
		var decoded map[string]any
		if err := json.Unmarshal([]byte(line), &decoded); err != nil {
			t.Errorf("line %d is not valid JSON: %v", i, err)
		}
	}
}

func TestExportToCSV(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	events := []log.Event{
		{
			Timestamp: ts,
			SessionID: "sess-1",
			Direction: log.DirectionIn,
			Layer:     log.LayerWire,
			Category:  log.CategoryCommand,
			EntityID:  0x0011223344556677,
			Command: &log.CommandEvent{
				Kind:        log.MessageKindCommand,
				SequenceID:  7,
				CommandType: wire.CmdAcquireEntity,
			},
		},
		{
			Timestamp: ts,
			SessionID: "sess-1",
			Direction: log.DirectionIn,
			Layer:     log.LayerWire,
			Category:  log.CategoryDiscovery,
			Advertisement: &log.AdvertisementEvent{
				MessageType:    wire.ADPEntityAvailable,
				EntityID:       0x0011223344556677,
				AvailableIndex: 3,
			},
		},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	reader, err := log.NewReader(path)
	if err != nil {
		t.Fatalf("failed to open log: %v", err)
	}
	defer reader.Close()

	if err := exportCSV(reader, &buf); err != nil {
		t.Fatalf("exportCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 { // header + 2 rows
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}

	if !strings.HasPrefix(lines[0], "timestamp,session_id,direction") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "ACQUIRE_ENTITY") {
		t.Errorf("expected command type in row: %s", lines[1])
	}
	if !strings.Contains(lines[1], ",7") {
		t.Errorf("expected sequence ID in row: %s", lines[1])
	}
	if !strings.Contains(lines[2], "DISCOVERY") {
		t.Errorf("expected discovery category in row: %s", lines[2])
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, []log.Event{
		{Timestamp: time.Now(), Category: log.CategoryState},
	})

	err := RunExport(path, "xml", "")
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
	if !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("unexpected error: %v", err)
	}
}
