// Package interactive provides the interactive command-line interface
// for the controller.
package interactive

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/avdecc-protocol/avdecc-go/pkg/adp"
	"github.com/avdecc-protocol/avdecc-go/pkg/aecp"
	"github.com/avdecc-protocol/avdecc-go/pkg/wire"
)

// commandTimeout bounds each issued command.
const commandTimeout = 2 * time.Second

// Controller handles interactive mode for avdecc-controller.
type Controller struct {
	client   *aecp.Client
	registry *adp.Registry
	rl       *readline.Instance
}

// New creates a new interactive controller handler.
func New(client *aecp.Client, registry *adp.Registry) (*Controller, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "avdecc> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Controller{
		client:   client,
		registry: registry,
		rl:       rl,
	}, nil
}

// Stdout returns a writer that properly coordinates with the readline
// input. Use this for log output to avoid interfering with the prompt.
func (c *Controller) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Run starts the interactive command loop.
func (c *Controller) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "discover":
			c.cmdDiscover(args)

		case "list", "ls", "entities":
			c.cmdEntities()

		case "acquire":
			c.cmdClaim(ctx, args, "acquire")

		case "release":
			c.cmdClaim(ctx, args, "release")

		case "lock":
			c.cmdClaim(ctx, args, "lock")

		case "unlock":
			c.cmdClaim(ctx, args, "unlock")

		case "read", "r":
			c.cmdRead(ctx, args)

		case "getconfig":
			c.cmdGetConfig(ctx, args)

		case "setconfig":
			c.cmdSetConfig(ctx, args)

		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *Controller) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
AVDECC Controller Commands:
  Discovery:
    discover [entity-id]        - Ask entities to announce themselves
    entities                    - List entities seen on the network

  Access Control:
    acquire <entity-id>         - Take exclusive control of an entity
    release <entity-id>         - Give exclusive control back
    lock <entity-id>            - Take a short-lived atomic lock
    unlock <entity-id>          - Release the lock

  Enumeration:
    read <entity-id> <type> <index> - Read a descriptor
    getconfig <entity-id>           - Read the active configuration
    setconfig <entity-id> <index>   - Switch the active configuration

  General:
    help                        - Show this help
    quit                        - Exit controller

  Descriptor types: entity, configuration, stream-input, stream-output,
  control, or a numeric type. Entity IDs accept hex (0x...) or decimal.`)
}

// cmdDiscover broadcasts a discovery request.
func (c *Controller) cmdDiscover(args []string) {
	var target wire.EntityID
	if len(args) > 0 {
		id, err := parseEntityID(args[0])
		if err != nil {
			fmt.Fprintf(c.rl.Stdout(), "Bad entity ID: %v\n", err)
			return
		}
		target = id
	}
	if err := c.client.SendDiscover(target); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Discovery error: %v\n", err)
		return
	}
	fmt.Fprintln(c.rl.Stdout(), "Discovery request sent; give entities a moment, then run 'entities'.")
}

// cmdEntities lists the peer registry.
func (c *Controller) cmdEntities() {
	peers := c.registry.Peers()
	if len(peers) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "No entities seen yet (try 'discover').")
		return
	}
	sort.Slice(peers, func(i, j int) bool { return peers[i].EntityID < peers[j].EntityID })

	fmt.Fprintf(c.rl.Stdout(), "%-20s %-20s %-12s %s\n", "ENTITY ID", "MODEL ID", "AVAIL INDEX", "LAST SEEN")
	for _, p := range peers {
		fmt.Fprintf(c.rl.Stdout(), "%-20s 0x%016X %-12d %s\n",
			p.EntityID, p.EntityModelID, p.AvailableIndex,
			p.LastSeen.Format("15:04:05"))
	}
}

// cmdClaim handles acquire/release/lock/unlock.
func (c *Controller) cmdClaim(ctx context.Context, args []string, verb string) {
	if len(args) != 1 {
		fmt.Fprintf(c.rl.Stdout(), "Usage: %s <entity-id>\n", verb)
		return
	}
	target, err := parseEntityID(args[0])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Bad entity ID: %v\n", err)
		return
	}

	cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	var resp *wire.Response
	switch verb {
	case "acquire":
		resp, err = c.client.Acquire(cmdCtx, target)
	case "release":
		resp, err = c.client.Release(cmdCtx, target)
	case "lock":
		resp, err = c.client.Lock(cmdCtx, target)
	case "unlock":
		resp, err = c.client.Unlock(cmdCtx, target)
	}
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "%s failed: %v\n", verb, err)
		return
	}

	if resp.Status.IsSuccess() {
		fmt.Fprintf(c.rl.Stdout(), "%s of %s: %s\n", verb, target, resp.Status)
		return
	}
	// Conflict responses carry the current holder.
	if payload, perr := wire.DecodeAcquireEntityPayload(resp.Body); perr == nil {
		fmt.Fprintf(c.rl.Stdout(), "%s of %s: %s (held by %s)\n", verb, target, resp.Status, payload.OwnerID)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "%s of %s: %s\n", verb, target, resp.Status)
}

// cmdRead reads one descriptor.
func (c *Controller) cmdRead(ctx context.Context, args []string) {
	if len(args) != 3 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: read <entity-id> <type> <index>")
		return
	}
	target, err := parseEntityID(args[0])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Bad entity ID: %v\n", err)
		return
	}
	descType, err := parseDescriptorType(args[1])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Bad descriptor type: %v\n", err)
		return
	}
	index, err := strconv.ParseUint(args[2], 0, 16)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Bad index: %v\n", err)
		return
	}

	cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	result, err := c.client.ReadDescriptor(cmdCtx, target, descType, uint16(index))
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Read failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Descriptor %s[%d] (%d octets):\n", args[1], index, len(result.Descriptor))
	printHexDump(c.rl.Stdout(), result.Descriptor)
}

// cmdGetConfig reads the active configuration index.
func (c *Controller) cmdGetConfig(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: getconfig <entity-id>")
		return
	}
	target, err := parseEntityID(args[0])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Bad entity ID: %v\n", err)
		return
	}

	cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	index, err := c.client.GetConfiguration(cmdCtx, target)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "GetConfiguration failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Active configuration: %d\n", index)
}

// cmdSetConfig switches the active configuration.
func (c *Controller) cmdSetConfig(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: setconfig <entity-id> <index>")
		return
	}
	target, err := parseEntityID(args[0])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Bad entity ID: %v\n", err)
		return
	}
	index, err := strconv.ParseUint(args[1], 0, 16)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Bad index: %v\n", err)
		return
	}

	cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	resp, err := c.client.SetConfiguration(cmdCtx, target, uint16(index))
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "SetConfiguration failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "SetConfiguration: %s\n", resp.Status)
}

// parseEntityID accepts hex (0x-prefixed) or decimal entity IDs.
func parseEntityID(s string) (wire.EntityID, error) {
	id, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, fmt.Errorf("entity ID must be non-zero")
	}
	return wire.EntityID(id), nil
}

// parseDescriptorType accepts well-known names or numeric types.
func parseDescriptorType(s string) (wire.DescriptorType, error) {
	switch strings.ToLower(s) {
	case "entity":
		return wire.DescriptorEntity, nil
	case "configuration", "config":
		return wire.DescriptorConfiguration, nil
	case "stream-input", "input":
		return wire.DescriptorStreamInput, nil
	case "stream-output", "output":
		return wire.DescriptorStreamOutput, nil
	case "control":
		return wire.DescriptorControl, nil
	}
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, err
	}
	return wire.DescriptorType(v), nil
}

// printHexDump writes a compact hex dump.
func printHexDump(w io.Writer, data []byte) {
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		fmt.Fprintf(w, "  %04x:", off)
		for _, b := range data[off:end] {
			fmt.Fprintf(w, " %02x", b)
		}
		fmt.Fprintln(w)
	}
}
