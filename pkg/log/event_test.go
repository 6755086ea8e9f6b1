package log

import (
	"testing"
	"time"

	"github.com/avdecc-protocol/avdecc-go/pkg/wire"
)

func TestEncodeDecodeCommandEvent(t *testing.T) {
	status := wire.StatusSuccess
	took := 1500 * time.Microsecond
	event := Event{
		Timestamp:    time.Now().UTC(),
		SessionID:    NewSessionID(),
		Direction:    DirectionOut,
		Layer:        LayerWire,
		Category:     CategoryCommand,
		LocalRole:    RoleEntity,
		EntityID:     0x0011223344556677,
		ControllerID: 0x8899AABBCCDDEEFF,
		Command: &CommandEvent{
			Kind:           MessageKindResponse,
			SequenceID:     42,
			CommandType:    wire.CmdReadDescriptor,
			Status:         &status,
			ProcessingTime: &took,
		},
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if decoded.SessionID != event.SessionID {
		t.Errorf("session ID = %q, want %q", decoded.SessionID, event.SessionID)
	}
	if decoded.EntityID != event.EntityID {
		t.Errorf("entity ID = %s, want %s", decoded.EntityID, event.EntityID)
	}
	if decoded.Command == nil {
		t.Fatal("command payload missing")
	}
	if decoded.Command.SequenceID != 42 {
		t.Errorf("sequence ID = %d, want 42", decoded.Command.SequenceID)
	}
	if decoded.Command.Status == nil || *decoded.Command.Status != wire.StatusSuccess {
		t.Errorf("status = %v, want Success", decoded.Command.Status)
	}
	if decoded.Command.ProcessingTime == nil || *decoded.Command.ProcessingTime != took {
		t.Errorf("processing time = %v, want %v", decoded.Command.ProcessingTime, took)
	}
	if decoded.Advertisement != nil || decoded.Frame != nil {
		t.Error("unexpected payloads set")
	}
}

func TestEncodeDecodeAdvertisementEvent(t *testing.T) {
	event := Event{
		Timestamp: time.Now().UTC(),
		SessionID: "s",
		Direction: DirectionIn,
		Layer:     LayerWire,
		Category:  CategoryDiscovery,
		Advertisement: &AdvertisementEvent{
			MessageType:    wire.ADPEntityAvailable,
			EntityID:       0x01,
			AvailableIndex: 9,
		},
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Advertisement == nil {
		t.Fatal("advertisement payload missing")
	}
	if decoded.Advertisement.AvailableIndex != 9 {
		t.Errorf("available index = %d, want 9", decoded.Advertisement.AvailableIndex)
	}
}

func TestTimestampRoundTripPreservesNanoseconds(t *testing.T) {
	ts := time.Date(2026, 3, 15, 10, 30, 0, 123456789, time.UTC)
	event := Event{Timestamp: ts, SessionID: "s"}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", decoded.Timestamp, ts)
	}
}

func TestDecodeEventRejectsGarbage(t *testing.T) {
	if _, err := DecodeEvent([]byte{0xFF, 0xFF, 0xFF}); err == nil {
		t.Error("expected decode error for garbage input")
	}
}

func TestNewSessionIDUnique(t *testing.T) {
	if NewSessionID() == NewSessionID() {
		t.Error("consecutive session IDs collided")
	}
}

func TestEnumStrings(t *testing.T) {
	cases := []struct {
		got  string
		want string
	}{
		{DirectionIn.String(), "IN"},
		{DirectionOut.String(), "OUT"},
		{LayerTransport.String(), "TRANSPORT"},
		{LayerWire.String(), "WIRE"},
		{LayerLifecycle.String(), "LIFECYCLE"},
		{CategoryCommand.String(), "COMMAND"},
		{CategoryDiscovery.String(), "DISCOVERY"},
		{CategoryState.String(), "STATE"},
		{CategoryError.String(), "ERROR"},
		{RoleEntity.String(), "ENTITY"},
		{RoleController.String(), "CONTROLLER"},
		{MessageKindCommand.String(), "COMMAND"},
		{MessageKindResponse.String(), "RESPONSE"},
		{Layer(99).String(), "UNKNOWN"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("got %q, want %q", tc.got, tc.want)
		}
	}
}
