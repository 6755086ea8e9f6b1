package wire

import (
	"bytes"
	"errors"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{
		TargetID:     0x0011223344556677,
		ControllerID: 0x8899AABBCCDDEEFF,
		SequenceID:   42,
		CommandType:  CmdReadDescriptor,
	}

	data := AppendHeader(nil, &h)
	if len(data) != HeaderSize {
		t.Fatalf("encoded header is %d octets, want %d", len(data), HeaderSize)
	}

	got, rest, err := DecodeHeader(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got != h {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, h)
	}
	if len(rest) != 0 {
		t.Errorf("unexpected trailing bytes: %d", len(rest))
	}
}

func TestDecodeHeaderShort(t *testing.T) {
	_, _, err := DecodeHeader(make([]byte, HeaderSize-1))
	if !errors.Is(err, ErrShortBuffer) {
		t.Errorf("got %v, want ErrShortBuffer", err)
	}
}

func TestResponseFlag(t *testing.T) {
	h := Header{
		TargetID:     1,
		ControllerID: 2,
		SequenceID:   7,
		CommandType:  CmdAcquireEntity,
	}

	data := EncodeResponse(&h, StatusEntityAcquired, nil)
	resp, err := DecodeResponse(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !resp.Header.IsResponse() {
		t.Error("response flag not set")
	}
	if resp.Header.BaseType() != CmdAcquireEntity {
		t.Errorf("base type = %v, want ACQUIRE_ENTITY", resp.Header.BaseType())
	}
	if resp.Status != StatusEntityAcquired {
		t.Errorf("status = %v, want ENTITY_ACQUIRED", resp.Status)
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		encode func() ([]byte, error)
		decode func([]byte) (any, error)
		want   any
	}{
		{
			name: "acquire entity",
			encode: func() ([]byte, error) {
				p := AcquireEntityPayload{
					Flags:          AcquireFlagPersistent,
					OwnerID:        0x1122334455667788,
					DescriptorType: DescriptorEntity,
				}
				return p.Encode(), nil
			},
			decode: func(b []byte) (any, error) { return DecodeAcquireEntityPayload(b) },
			want: &AcquireEntityPayload{
				Flags:          AcquireFlagPersistent,
				OwnerID:        0x1122334455667788,
				DescriptorType: DescriptorEntity,
			},
		},
		{
			name: "read descriptor",
			encode: func() ([]byte, error) {
				p := ReadDescriptorPayload{
					ConfigurationIndex: 1,
					DescriptorType:     DescriptorStreamInput,
					DescriptorIndex:    3,
				}
				return p.Encode(), nil
			},
			decode: func(b []byte) (any, error) { return DecodeReadDescriptorPayload(b) },
			want: &ReadDescriptorPayload{
				ConfigurationIndex: 1,
				DescriptorType:     DescriptorStreamInput,
				DescriptorIndex:    3,
			},
		},
		{
			name: "configuration",
			encode: func() ([]byte, error) {
				p := ConfigurationPayload{ConfigurationIndex: 5}
				return p.Encode(), nil
			},
			decode: func(b []byte) (any, error) { return DecodeConfigurationPayload(b) },
			want:   &ConfigurationPayload{ConfigurationIndex: 5},
		},
		{
			name: "streaming",
			encode: func() ([]byte, error) {
				p := StreamingPayload{DescriptorType: DescriptorStreamOutput, DescriptorIndex: 2}
				return p.Encode(), nil
			},
			decode: func(b []byte) (any, error) { return DecodeStreamingPayload(b) },
			want:   &StreamingPayload{DescriptorType: DescriptorStreamOutput, DescriptorIndex: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.encode()
			if err != nil {
				t.Fatalf("encode failed: %v", err)
			}
			got, err := tt.decode(data)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}

			switch want := tt.want.(type) {
			case *AcquireEntityPayload:
				if *got.(*AcquireEntityPayload) != *want {
					t.Errorf("got %+v, want %+v", got, want)
				}
			case *ReadDescriptorPayload:
				if *got.(*ReadDescriptorPayload) != *want {
					t.Errorf("got %+v, want %+v", got, want)
				}
			case *ConfigurationPayload:
				if *got.(*ConfigurationPayload) != *want {
					t.Errorf("got %+v, want %+v", got, want)
				}
			case *StreamingPayload:
				if *got.(*StreamingPayload) != *want {
					t.Errorf("got %+v, want %+v", got, want)
				}
			}
		})
	}
}

func TestReadDescriptorResponseRoundTrip(t *testing.T) {
	desc := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	resp := ReadDescriptorResponse{
		ReadDescriptorPayload: ReadDescriptorPayload{
			ConfigurationIndex: 0,
			DescriptorType:     DescriptorControl,
			DescriptorIndex:    1,
		},
		Descriptor: desc,
	}

	data, err := resp.Encode()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	got, err := DecodeReadDescriptorResponse(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.DescriptorType != DescriptorControl || got.DescriptorIndex != 1 {
		t.Errorf("echoed fields wrong: %+v", got.ReadDescriptorPayload)
	}
	if !bytes.Equal(got.Descriptor, desc) {
		t.Errorf("descriptor bytes = %x, want %x", got.Descriptor, desc)
	}
}

func TestReadDescriptorResponseTooLarge(t *testing.T) {
	resp := ReadDescriptorResponse{
		Descriptor: make([]byte, MaxDescriptorSize+1),
	}
	if _, err := resp.Encode(); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("got %v, want ErrPayloadTooLarge", err)
	}
}

func TestADPRoundTrip(t *testing.T) {
	pdu := ADP{
		MessageType:          ADPEntityAvailable,
		ValidTime:            31,
		EntityID:             0x0102030405060708,
		EntityModelID:        0x1112131415161718,
		EntityCapabilities:   0x00000001,
		TalkerStreamSources:  4,
		TalkerCapabilities:   0x4001,
		ListenerStreamSinks:  8,
		ListenerCapabilities: 0x4001,
		ControllerCaps:       0x00000001,
		AvailableIndex:       99,
		GPTPGrandmasterID:    [8]byte{1, 2, 3, 4, 5, 6, 7, 8},
		GPTPDomain:           1,
		InterfaceIndex:       2,
		AssociationID:        0xAABB,
	}

	data := pdu.Encode()
	if len(data) != ADPSize {
		t.Fatalf("encoded PDU is %d octets, want %d", len(data), ADPSize)
	}

	got, err := DecodeADP(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if *got != pdu {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", *got, pdu)
	}
}

func TestDecodeADPShort(t *testing.T) {
	if _, err := DecodeADP(make([]byte, ADPSize-1)); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("got %v, want ErrShortBuffer", err)
	}
}

func TestDescriptorKeyPacking(t *testing.T) {
	key := MakeDescriptorKey(DescriptorStreamOutput, 0xBEEF)
	if key.Type() != DescriptorStreamOutput {
		t.Errorf("type = %v, want STREAM_OUTPUT", key.Type())
	}
	if key.Index() != 0xBEEF {
		t.Errorf("index = 0x%04X, want 0xBEEF", key.Index())
	}
	if uint32(key) != uint32(DescriptorStreamOutput)<<16|0xBEEF {
		t.Errorf("packed key = 0x%08X", uint32(key))
	}
}

func TestFrameRoundTrip(t *testing.T) {
	payload := []byte{0xAA, 0xBB}
	frame := EncodeFrame(ProtocolControl, payload)

	p, got, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if p != ProtocolControl {
		t.Errorf("protocol = %v, want CONTROL", p)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload = %x, want %x", got, payload)
	}
}

func TestDecodeFrameRejectsUnknownTag(t *testing.T) {
	if _, _, err := DecodeFrame([]byte{0x7F, 0x00}); err == nil {
		t.Error("expected error for unknown protocol tag")
	}
	if _, _, err := DecodeFrame(nil); !errors.Is(err, ErrShortBuffer) {
		t.Error("expected ErrShortBuffer for empty frame")
	}
}
