package log

import (
	"io"

	"github.com/fxamacker/cbor/v2"
)

// encMode encodes events canonically with nanosecond RFC3339 timestamps
// so that .avlog files are byte-stable for a given event sequence.
var encMode = mustEncMode()

// decMode reads events leniently: duplicate keys and indefinite-length
// items from other writers are tolerated.
var decMode = mustDecMode()

func mustEncMode() cbor.EncMode {
	m, err := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic("log: cbor encoder mode: " + err.Error())
	}
	return m
}

func mustDecMode() cbor.DecMode {
	m, err := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}.DecMode()
	if err != nil {
		panic("log: cbor decoder mode: " + err.Error())
	}
	return m
}

// EncodeEvent encodes one event to its compact integer-keyed CBOR form.
func EncodeEvent(event Event) ([]byte, error) {
	return encMode.Marshal(event)
}

// DecodeEvent decodes one event from CBOR bytes.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := decMode.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}

// NewEncoder returns a streaming event encoder writing to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a streaming event decoder reading from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}
