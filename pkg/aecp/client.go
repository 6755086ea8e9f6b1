package aecp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avdecc-protocol/avdecc-go/pkg/transport"
	"github.com/avdecc-protocol/avdecc-go/pkg/wire"
)

// Client errors.
var (
	// ErrClientClosed indicates the client has been closed.
	ErrClientClosed = errors.New("aecp: client closed")

	// ErrCommandFailed wraps a non-success response status.
	ErrCommandFailed = errors.New("aecp: command failed")
)

// receivePollInterval bounds how long the receive loop blocks before
// re-checking for shutdown.
const receivePollInterval = 250 * time.Millisecond

// Client issues enumeration/control commands in the controller role
// and correlates responses through a Tracker. It owns a receive loop
// on its transport; discovery frames seen on the way are handed to an
// optional callback.
type Client struct {
	controllerID wire.EntityID
	tp           transport.Transport
	tracker      *Tracker

	nextSeq atomic.Uint32

	// OnDiscovery, if set before Start, receives discovery PDUs
	// observed on the client's transport.
	OnDiscovery func(*wire.ADP)

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewClient creates a controller client with the given identity.
func NewClient(controllerID wire.EntityID, tp transport.Transport) *Client {
	return &Client{
		controllerID: controllerID,
		tp:           tp,
		tracker:      NewTracker(),
	}
}

// Tracker exposes the client's pending command tracker.
func (c *Client) Tracker() *Tracker {
	return c.tracker
}

// Start launches the receive loop. Idempotent.
func (c *Client) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.started = true

	c.wg.Add(1)
	go c.receiveLoop(ctx)
}

// Close stops the receive loop and the underlying transport.
func (c *Client) Close() error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = false
	c.cancel()
	c.mu.Unlock()

	err := c.tp.Close()
	c.wg.Wait()
	return err
}

// receiveLoop drains inbound frames, routing control responses to the
// tracker and discovery PDUs to the callback. Command frames addressed
// to entities are not the controller's concern and are dropped.
func (c *Client) receiveLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}
		data, err := c.tp.Receive(receivePollInterval)
		if errors.Is(err, transport.ErrTimeout) {
			continue
		}
		if err != nil {
			return
		}

		proto, payload, err := wire.DecodeFrame(data)
		if err != nil {
			continue
		}
		switch proto {
		case wire.ProtocolControl:
			resp, err := wire.DecodeResponse(payload)
			if err != nil || !resp.Header.IsResponse() {
				continue
			}
			resp.Header.CommandType = resp.Header.BaseType()
			c.tracker.HandleResponse(resp)
		case wire.ProtocolDiscovery:
			if c.OnDiscovery == nil {
				continue
			}
			if pdu, err := wire.DecodeADP(payload); err == nil {
				c.OnDiscovery(pdu)
			}
		}
	}
}

// Command sends one command to target and waits for the correlated
// response or ctx cancellation. Retry on timeout is the caller's
// choice; an abandoned command is forgotten by the tracker.
func (c *Client) Command(ctx context.Context, target wire.EntityID, cmdType wire.CommandType, body []byte) (*wire.Response, error) {
	seq := uint16(c.nextSeq.Add(1))
	h := wire.Header{
		TargetID:     target,
		ControllerID: c.controllerID,
		SequenceID:   seq,
		CommandType:  cmdType,
	}

	ch, err := c.tracker.Track(seq, c.controllerID, cmdType)
	if err != nil {
		return nil, err
	}

	frame := wire.EncodeFrame(wire.ProtocolControl, wire.EncodeCommand(&h, body))
	if err := c.tp.Send(frame); err != nil {
		c.tracker.Cancel(seq, c.controllerID)
		return nil, fmt.Errorf("aecp: send command: %w", err)
	}

	select {
	case <-ctx.Done():
		c.tracker.Cancel(seq, c.controllerID)
		return nil, ctx.Err()
	case resp, ok := <-ch:
		if !ok {
			return nil, ErrClientClosed
		}
		return resp, nil
	}
}

// SendDiscover broadcasts a discovery request for target (zero for all
// entities).
func (c *Client) SendDiscover(target wire.EntityID) error {
	pdu := wire.ADP{
		MessageType: wire.ADPEntityDiscover,
		EntityID:    target,
	}
	return c.tp.Send(wire.EncodeFrame(wire.ProtocolDiscovery, pdu.Encode()))
}

// Acquire claims ownership of target.
func (c *Client) Acquire(ctx context.Context, target wire.EntityID) (*wire.Response, error) {
	p := wire.AcquireEntityPayload{OwnerID: c.controllerID, DescriptorType: wire.DescriptorEntity}
	return c.Command(ctx, target, wire.CmdAcquireEntity, p.Encode())
}

// Release drops ownership of target.
func (c *Client) Release(ctx context.Context, target wire.EntityID) (*wire.Response, error) {
	p := wire.AcquireEntityPayload{
		Flags:          wire.AcquireFlagRelease,
		OwnerID:        c.controllerID,
		DescriptorType: wire.DescriptorEntity,
	}
	return c.Command(ctx, target, wire.CmdAcquireEntity, p.Encode())
}

// Lock claims the lock on target.
func (c *Client) Lock(ctx context.Context, target wire.EntityID) (*wire.Response, error) {
	p := wire.AcquireEntityPayload{OwnerID: c.controllerID, DescriptorType: wire.DescriptorEntity}
	return c.Command(ctx, target, wire.CmdLockEntity, p.Encode())
}

// Unlock drops the lock on target.
func (c *Client) Unlock(ctx context.Context, target wire.EntityID) (*wire.Response, error) {
	p := wire.AcquireEntityPayload{
		Flags:          wire.LockFlagUnlock,
		OwnerID:        c.controllerID,
		DescriptorType: wire.DescriptorEntity,
	}
	return c.Command(ctx, target, wire.CmdLockEntity, p.Encode())
}

// ReadDescriptor reads one descriptor from target.
func (c *Client) ReadDescriptor(ctx context.Context, target wire.EntityID, t wire.DescriptorType, index uint16) (*wire.ReadDescriptorResponse, error) {
	p := wire.ReadDescriptorPayload{DescriptorType: t, DescriptorIndex: index}
	resp, err := c.Command(ctx, target, wire.CmdReadDescriptor, p.Encode())
	if err != nil {
		return nil, err
	}
	if resp.Status.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrCommandFailed, resp.Status)
	}
	return wire.DecodeReadDescriptorResponse(resp.Body)
}

// GetConfiguration reads target's active configuration index.
func (c *Client) GetConfiguration(ctx context.Context, target wire.EntityID) (uint16, error) {
	resp, err := c.Command(ctx, target, wire.CmdGetConfiguration, nil)
	if err != nil {
		return 0, err
	}
	if resp.Status.IsError() {
		return 0, fmt.Errorf("%w: %s", ErrCommandFailed, resp.Status)
	}
	p, err := wire.DecodeConfigurationPayload(resp.Body)
	if err != nil {
		return 0, err
	}
	return p.ConfigurationIndex, nil
}

// SetConfiguration selects target's active configuration.
func (c *Client) SetConfiguration(ctx context.Context, target wire.EntityID, index uint16) (*wire.Response, error) {
	p := wire.ConfigurationPayload{ConfigurationIndex: index}
	return c.Command(ctx, target, wire.CmdSetConfiguration, p.Encode())
}
