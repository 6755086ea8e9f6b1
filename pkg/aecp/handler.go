package aecp

import (
	"errors"
	"sync"

	"github.com/avdecc-protocol/avdecc-go/pkg/access"
	"github.com/avdecc-protocol/avdecc-go/pkg/model"
	"github.com/avdecc-protocol/avdecc-go/pkg/transport"
	"github.com/avdecc-protocol/avdecc-go/pkg/wire"
)

// controlValueType is the reserved descriptor-type namespace under
// which SetControl values are stored. It is disjoint from every real
// descriptor type, so control values never collide with descriptors.
const controlValueType wire.DescriptorType = 0xF00C

// Store is the descriptor store surface the handler needs.
// Implemented by model.DescriptorStore.
type Store interface {
	Read(t wire.DescriptorType, index uint16) ([]byte, error)
	Write(t wire.DescriptorType, index uint16, data []byte)
	Configuration() uint16
	SetConfiguration(index uint16) error
}

// Ledger is the access control surface the handler needs.
// Implemented by access.Ledger.
type Ledger interface {
	Acquire(entityID, controllerID wire.EntityID) error
	Release(entityID, controllerID wire.EntityID) error
	Lock(entityID, controllerID wire.EntityID) error
	Unlock(entityID, controllerID wire.EntityID) error
	AcquiredBy(entityID wire.EntityID) wire.EntityID
	LockedBy(entityID wire.EntityID) wire.EntityID
	Sweep() int
}

// VendorFunc handles one vendor/profile command and returns the
// response status and body.
type VendorFunc func(cmd *wire.Command) (wire.Status, []byte)

// vendorRange is one registered vendor command-type range.
type vendorRange struct {
	start, end wire.CommandType
	fn         VendorFunc
}

// Handler is the enumeration/control command processor for one entity.
// It is safe for concurrent use.
type Handler struct {
	entity *model.EntityInfo
	store  Store
	ledger Ledger
	clock  transport.Clock

	mu      sync.Mutex
	running map[wire.DescriptorKey]bool
	vendors []vendorRange
}

// NewHandler creates a command processor for the given entity.
// clock may be nil if the entity has no timing collaborator; dynamic
// info queries then report NOT_SUPPORTED.
func NewHandler(entity *model.EntityInfo, store Store, ledger Ledger, clock transport.Clock) *Handler {
	return &Handler{
		entity:  entity,
		store:   store,
		ledger:  ledger,
		clock:   clock,
		running: make(map[wire.DescriptorKey]bool),
	}
}

// RegisterVendor registers fn for the command-type range [start, end].
// Later registrations win on overlap.
func (h *Handler) RegisterVendor(start, end wire.CommandType, fn VendorFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.vendors = append([]vendorRange{{start: start, end: end, fn: fn}}, h.vendors...)
}

// HandleCommand processes one decoded command and returns the encoded
// response frame. Exactly one response is produced for every command;
// a panic in any branch is contained here and reported as
// ENTITY_MISBEHAVING with the partial response body discarded.
func (h *Handler) HandleCommand(cmd *wire.Command) (out []byte) {
	defer func() {
		if r := recover(); r != nil {
			out = wire.EncodeResponse(&cmd.Header, wire.StatusEntityMisbehaving, nil)
		}
	}()

	// Stale claims are swept before every dispatch.
	h.ledger.Sweep()

	status, body := h.dispatch(cmd)
	return wire.EncodeResponse(&cmd.Header, status, body)
}

// dispatch routes one command to its branch. Every branch returns a
// terminal status.
func (h *Handler) dispatch(cmd *wire.Command) (wire.Status, []byte) {
	switch cmd.Header.CommandType {
	case wire.CmdAcquireEntity:
		return h.handleAcquire(cmd)
	case wire.CmdLockEntity:
		return h.handleLock(cmd)
	case wire.CmdEntityAvailable, wire.CmdControllerAvailable:
		return wire.StatusSuccess, nil
	case wire.CmdReadDescriptor:
		return h.handleReadDescriptor(cmd)
	case wire.CmdWriteDescriptor:
		return h.handleWriteDescriptor(cmd)
	case wire.CmdGetConfiguration:
		return h.handleGetConfiguration(cmd)
	case wire.CmdSetConfiguration:
		return h.handleSetConfiguration(cmd)
	case wire.CmdStartStreaming:
		return h.handleStartStreaming(cmd)
	case wire.CmdStopStreaming:
		return h.handleStopStreaming(cmd)
	case wire.CmdSetControl:
		return h.handleSetControl(cmd)
	case wire.CmdGetControl:
		return h.handleGetControl(cmd)
	case wire.CmdGetDynamicInfo:
		return h.handleGetDynamicInfo(cmd)
	default:
		if fn := h.vendorFor(cmd.Header.CommandType); fn != nil {
			return fn(cmd)
		}
		return wire.StatusNotImplemented, nil
	}
}

// vendorFor returns the registered handler covering t, or nil.
func (h *Handler) vendorFor(t wire.CommandType) VendorFunc {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.vendors {
		if t >= r.start && t <= r.end {
			return r.fn
		}
	}
	return nil
}

// checkWriteAccess verifies that a state-mutating command is not
// blocked by another controller's acquisition or lock.
func (h *Handler) checkWriteAccess(controllerID wire.EntityID) wire.Status {
	target := h.entity.EntityID
	if owner := h.ledger.AcquiredBy(target); owner != 0 && owner != controllerID {
		return wire.StatusEntityAcquired
	}
	if holder := h.ledger.LockedBy(target); holder != 0 && holder != controllerID {
		return wire.StatusEntityLocked
	}
	return wire.StatusSuccess
}

// handleAcquire processes AcquireEntity, including the release path
// selected by the RELEASE flag. The command body is echoed verbatim on
// success; on conflict the owner field carries the current holder.
func (h *Handler) handleAcquire(cmd *wire.Command) (wire.Status, []byte) {
	p, err := wire.DecodeAcquireEntityPayload(cmd.Body)
	if err != nil {
		return wire.StatusBadArguments, nil
	}

	target := cmd.Header.TargetID
	controller := cmd.Header.ControllerID

	if p.Flags&wire.AcquireFlagRelease != 0 {
		if err := h.ledger.Release(target, controller); err != nil {
			return wire.StatusBadArguments, p.Encode()
		}
		return wire.StatusSuccess, p.Encode()
	}

	if err := h.ledger.Acquire(target, controller); err != nil {
		if errors.Is(err, access.ErrAcquiredByOther) {
			conflict := *p
			conflict.OwnerID = h.ledger.AcquiredBy(target)
			return wire.StatusEntityAcquired, conflict.Encode()
		}
		return wire.StatusEntityMisbehaving, nil
	}

	echo := *p
	echo.OwnerID = controller
	return wire.StatusSuccess, echo.Encode()
}

// handleLock processes LockEntity, including the unlock path selected
// by the UNLOCK flag.
func (h *Handler) handleLock(cmd *wire.Command) (wire.Status, []byte) {
	p, err := wire.DecodeAcquireEntityPayload(cmd.Body)
	if err != nil {
		return wire.StatusBadArguments, nil
	}

	target := cmd.Header.TargetID
	controller := cmd.Header.ControllerID

	if p.Flags&wire.LockFlagUnlock != 0 {
		if err := h.ledger.Unlock(target, controller); err != nil {
			return wire.StatusBadArguments, p.Encode()
		}
		return wire.StatusSuccess, p.Encode()
	}

	if err := h.ledger.Lock(target, controller); err != nil {
		if errors.Is(err, access.ErrLockedByOther) {
			conflict := *p
			conflict.OwnerID = h.ledger.LockedBy(target)
			return wire.StatusEntityLocked, conflict.Encode()
		}
		return wire.StatusEntityMisbehaving, nil
	}

	echo := *p
	echo.OwnerID = controller
	return wire.StatusSuccess, echo.Encode()
}

// handleReadDescriptor answers with the stored descriptor bytes, or
// NO_SUCH_DESCRIPTOR on a key never written.
func (h *Handler) handleReadDescriptor(cmd *wire.Command) (wire.Status, []byte) {
	p, err := wire.DecodeReadDescriptorPayload(cmd.Body)
	if err != nil {
		return wire.StatusBadArguments, nil
	}

	data, err := h.store.Read(p.DescriptorType, p.DescriptorIndex)
	if err != nil {
		return wire.StatusNoSuchDescriptor, p.Encode()
	}

	resp := wire.ReadDescriptorResponse{
		ReadDescriptorPayload: *p,
		Descriptor:            data,
	}
	body, err := resp.Encode()
	if err != nil {
		return wire.StatusNoResources, p.Encode()
	}
	return wire.StatusSuccess, body
}

// handleWriteDescriptor replaces a descriptor record. Blocked when
// another controller holds the acquisition or lock.
func (h *Handler) handleWriteDescriptor(cmd *wire.Command) (wire.Status, []byte) {
	p, err := wire.DecodeReadDescriptorPayload(cmd.Body)
	if err != nil {
		return wire.StatusBadArguments, nil
	}
	data := cmd.Body[6:]
	if len(data) > wire.MaxDescriptorSize {
		return wire.StatusBadArguments, p.Encode()
	}
	if st := h.checkWriteAccess(cmd.Header.ControllerID); st != wire.StatusSuccess {
		return st, p.Encode()
	}

	h.store.Write(p.DescriptorType, p.DescriptorIndex, data)
	return wire.StatusSuccess, p.Encode()
}

// handleGetConfiguration returns the active configuration index.
func (h *Handler) handleGetConfiguration(cmd *wire.Command) (wire.Status, []byte) {
	p := wire.ConfigurationPayload{ConfigurationIndex: h.store.Configuration()}
	return wire.StatusSuccess, p.Encode()
}

// handleSetConfiguration selects the active configuration. Indices at
// or above 0xFFFF are rejected with BAD_ARGUMENTS.
func (h *Handler) handleSetConfiguration(cmd *wire.Command) (wire.Status, []byte) {
	p, err := wire.DecodeConfigurationPayload(cmd.Body)
	if err != nil {
		return wire.StatusBadArguments, nil
	}
	if st := h.checkWriteAccess(cmd.Header.ControllerID); st != wire.StatusSuccess {
		return st, p.Encode()
	}
	if err := h.store.SetConfiguration(p.ConfigurationIndex); err != nil {
		return wire.StatusBadArguments, p.Encode()
	}
	return wire.StatusSuccess, p.Encode()
}

// handleStartStreaming starts a stream. Non-stream descriptor types
// and already-running streams are rejected with STREAM_IS_RUNNING.
func (h *Handler) handleStartStreaming(cmd *wire.Command) (wire.Status, []byte) {
	p, err := wire.DecodeStreamingPayload(cmd.Body)
	if err != nil {
		return wire.StatusBadArguments, nil
	}
	if !p.DescriptorType.IsStream() {
		return wire.StatusStreamIsRunning, p.Encode()
	}
	if st := h.checkWriteAccess(cmd.Header.ControllerID); st != wire.StatusSuccess {
		return st, p.Encode()
	}

	key := wire.MakeDescriptorKey(p.DescriptorType, p.DescriptorIndex)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running[key] {
		return wire.StatusStreamIsRunning, p.Encode()
	}
	h.running[key] = true
	return wire.StatusSuccess, p.Encode()
}

// handleStopStreaming stops a stream. Non-stream descriptor types and
// streams that are not running are rejected with BAD_ARGUMENTS.
func (h *Handler) handleStopStreaming(cmd *wire.Command) (wire.Status, []byte) {
	p, err := wire.DecodeStreamingPayload(cmd.Body)
	if err != nil {
		return wire.StatusBadArguments, nil
	}
	if !p.DescriptorType.IsStream() {
		return wire.StatusBadArguments, p.Encode()
	}
	if st := h.checkWriteAccess(cmd.Header.ControllerID); st != wire.StatusSuccess {
		return st, p.Encode()
	}

	key := wire.MakeDescriptorKey(p.DescriptorType, p.DescriptorIndex)
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running[key] {
		return wire.StatusBadArguments, p.Encode()
	}
	delete(h.running, key)
	return wire.StatusSuccess, p.Encode()
}

// IsStreaming reports whether the stream at (t, index) is running.
func (h *Handler) IsStreaming(t wire.DescriptorType, index uint16) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running[wire.MakeDescriptorKey(t, index)]
}

// handleSetControl stores an opaque control value. Only the control
// descriptor type is accepted.
func (h *Handler) handleSetControl(cmd *wire.Command) (wire.Status, []byte) {
	p, err := wire.DecodeControlPayload(cmd.Body)
	if err != nil {
		return wire.StatusBadArguments, nil
	}
	if p.DescriptorType != wire.DescriptorControl {
		return wire.StatusBadArguments, nil
	}
	if st := h.checkWriteAccess(cmd.Header.ControllerID); st != wire.StatusSuccess {
		body, _ := p.Encode()
		return st, body
	}

	h.store.Write(controlValueType, p.DescriptorIndex, p.Values)
	body, err := p.Encode()
	if err != nil {
		return wire.StatusBadArguments, nil
	}
	return wire.StatusSuccess, body
}

// handleGetControl retrieves a control value previously stored with
// SetControl. Reading an unset control yields NO_SUCH_DESCRIPTOR.
func (h *Handler) handleGetControl(cmd *wire.Command) (wire.Status, []byte) {
	p, err := wire.DecodeControlPayload(cmd.Body)
	if err != nil {
		return wire.StatusBadArguments, nil
	}
	if p.DescriptorType != wire.DescriptorControl {
		return wire.StatusBadArguments, nil
	}

	values, err := h.store.Read(controlValueType, p.DescriptorIndex)
	if err != nil {
		return wire.StatusNoSuchDescriptor, nil
	}

	resp := wire.ControlPayload{
		DescriptorType:  p.DescriptorType,
		DescriptorIndex: p.DescriptorIndex,
		Values:          values,
	}
	body, err := resp.Encode()
	if err != nil {
		return wire.StatusNoResources, nil
	}
	return wire.StatusSuccess, body
}

// handleGetDynamicInfo reports grandmaster identity and sync domain
// from the timing collaborator. The values are sourced, not computed.
func (h *Handler) handleGetDynamicInfo(cmd *wire.Command) (wire.Status, []byte) {
	if h.clock == nil {
		return wire.StatusNotSupported, nil
	}

	p := wire.DynamicInfoPayload{
		GrandmasterID: h.clock.GrandmasterIdentity(),
		GPTPDomain:    h.clock.Domain(),
	}
	if h.clock.IsSynchronized() {
		p.Flags |= wire.DynamicInfoFlagSynchronized
	}
	return wire.StatusSuccess, p.Encode()
}

// Compile-time interface satisfaction checks.
var (
	_ Store  = (*model.DescriptorStore)(nil)
	_ Ledger = (*access.Ledger)(nil)
)
