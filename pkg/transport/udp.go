package transport

import (
	"fmt"
	"net"
	"time"
)

// maxDatagramSize bounds a single received protocol frame.
const maxDatagramSize = 1500

// UDP is a minimal datagram Transport for running entities on a local
// network segment. Every frame is sent to a fixed peer address,
// typically a broadcast address.
type UDP struct {
	conn *net.UDPConn
	peer *net.UDPAddr
}

// NewUDP binds listenAddr and directs outbound frames to peerAddr.
func NewUDP(listenAddr, peerAddr string) (*UDP, error) {
	laddr, err := net.ResolveUDPAddr("udp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve listen address: %w", err)
	}
	paddr, err := net.ResolveUDPAddr("udp", peerAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve peer address: %w", err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen: %w", err)
	}
	return &UDP{conn: conn, peer: paddr}, nil
}

// LocalAddr returns the bound local address.
func (u *UDP) LocalAddr() net.Addr {
	return u.conn.LocalAddr()
}

// Send transmits one frame to the peer address.
func (u *UDP) Send(data []byte) error {
	_, err := u.conn.WriteToUDP(data, u.peer)
	if err != nil {
		return fmt.Errorf("transport: send: %w", err)
	}
	return nil
}

// Receive blocks until a datagram arrives or the timeout elapses.
// A timeout of zero blocks indefinitely.
func (u *UDP) Receive(timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		if err := u.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return nil, err
		}
	} else {
		if err := u.conn.SetReadDeadline(time.Time{}); err != nil {
			return nil, err
		}
	}

	buf := make([]byte, maxDatagramSize)
	n, _, err := u.conn.ReadFromUDP(buf)
	if err != nil {
		if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
			return nil, ErrTimeout
		}
		return nil, ErrClosed
	}
	return buf[:n], nil
}

// Close releases the socket.
func (u *UDP) Close() error {
	return u.conn.Close()
}

// Compile-time interface satisfaction check.
var _ Transport = (*UDP)(nil)
