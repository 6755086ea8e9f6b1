package log

import (
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/avdecc-protocol/avdecc-go/pkg/wire"
)

// Filter selects a subset of a log file's events. Zero-valued fields
// match everything; set fields are combined with AND.
type Filter struct {
	// SessionID filters by exact session ID match.
	SessionID string

	// Direction filters by message direction.
	Direction *Direction

	// Layer filters by protocol layer.
	Layer *Layer

	// Category filters by event category.
	Category *Category

	// TimeStart filters events at or after this time.
	TimeStart *time.Time

	// TimeEnd filters events before this time.
	TimeEnd *time.Time

	// EntityID filters by local entity identifier.
	EntityID wire.EntityID

	// ControllerID filters by remote controller identifier.
	ControllerID wire.EntityID
}

// matches reports whether event satisfies every set criterion.
func (f *Filter) matches(event Event) bool {
	switch {
	case f.SessionID != "" && event.SessionID != f.SessionID:
		return false
	case f.Direction != nil && event.Direction != *f.Direction:
		return false
	case f.Layer != nil && event.Layer != *f.Layer:
		return false
	case f.Category != nil && event.Category != *f.Category:
		return false
	case f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart):
		return false
	case f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd):
		return false
	case f.EntityID != 0 && event.EntityID != f.EntityID:
		return false
	case f.ControllerID != 0 && event.ControllerID != f.ControllerID:
		return false
	}
	return true
}

// Reader streams events out of an .avlog file one at a time, so large
// capture files never have to fit in memory.
type Reader struct {
	file   *os.File
	dec    *cbor.Decoder
	filter Filter
}

// NewReader opens path and yields every event in it.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader opens path and yields only the events matching
// filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{file: f, dec: NewDecoder(f), filter: filter}, nil
}

// Next returns the next matching event, or io.EOF at end of file.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		if err := r.dec.Decode(&event); err != nil {
			return Event{}, err
		}
		if r.filter.matches(event) {
			return event, nil
		}
	}
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
