package main

import (
	"encoding/binary"

	"github.com/avdecc-protocol/avdecc-go/pkg/model"
	"github.com/avdecc-protocol/avdecc-go/pkg/wire"
)

// descriptorNameSize is the fixed name field width in sample
// descriptors.
const descriptorNameSize = 64

// paddedName returns s as a fixed-size, zero-padded field.
func paddedName(s string) []byte {
	out := make([]byte, descriptorNameSize)
	copy(out, s)
	return out
}

// buildModel populates the descriptor store with the reference entity
// model: one entity descriptor, one configuration, the configured
// stream descriptors, and a gain control.
func buildModel(cfg Config, store *model.DescriptorStore) {
	entity := make([]byte, 0, 16+descriptorNameSize)
	entity = binary.BigEndian.AppendUint64(entity, cfg.EntityID)
	entity = binary.BigEndian.AppendUint64(entity, cfg.EntityModelID)
	entity = append(entity, paddedName(cfg.Name)...)
	store.Write(wire.DescriptorEntity, 0, entity)

	configuration := make([]byte, 0, 4+descriptorNameSize)
	configuration = append(configuration, paddedName("default")...)
	configuration = binary.BigEndian.AppendUint16(configuration, cfg.TalkerStreams)
	configuration = binary.BigEndian.AppendUint16(configuration, cfg.ListenerStreams)
	store.Write(wire.DescriptorConfiguration, 0, configuration)

	for i := uint16(0); i < cfg.ListenerStreams; i++ {
		store.Write(wire.DescriptorStreamInput, i, streamDescriptor("input", i))
	}
	for i := uint16(0); i < cfg.TalkerStreams; i++ {
		store.Write(wire.DescriptorStreamOutput, i, streamDescriptor("output", i))
	}

	// One gain control, initialized to unity.
	control := make([]byte, 0, 2+descriptorNameSize)
	control = append(control, paddedName("gain")...)
	control = binary.BigEndian.AppendUint16(control, 0x8000)
	store.Write(wire.DescriptorControl, 0, control)
}

// streamDescriptor builds one sample stream descriptor.
func streamDescriptor(kind string, index uint16) []byte {
	out := make([]byte, 0, 2+descriptorNameSize)
	out = append(out, paddedName(kind)...)
	return binary.BigEndian.AppendUint16(out, index)
}
