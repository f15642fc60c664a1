package transport

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// maxDatagram bounds a single protocol message. Messages are short ASCII
// lines; 512 leaves generous headroom.
const maxDatagram = 512

// ErrTimeout is returned by Receive when no datagram arrives before the
// deadline.
var ErrTimeout = errors.New("transport: receive timed out")

// ErrClosed is returned once the endpoint has been shut down.
var ErrClosed = errors.New("transport: endpoint closed")

// Endpoint is a bound localhost UDP socket supporting deadline-bounded
// receives for cooperative polling.
type Endpoint struct {
	conn *net.UDPConn
	port int
}

// NewEndpoint binds a datagram socket on the loopback interface. A bind
// failure is fatal to the caller.
func NewEndpoint(port int) (*Endpoint, error) {
	addr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("bind udp port %d: %w", port, err)
	}
	return &Endpoint{conn: conn, port: port}, nil
}

// Port returns the bound port.
func (e *Endpoint) Port() int {
	return e.port
}

// SendTo writes one datagram to a localhost port.
func (e *Endpoint) SendTo(port int, payload []byte) error {
	dst := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}
	if _, err := e.conn.WriteToUDP(payload, dst); err != nil {
		return fmt.Errorf("send to port %d: %w", port, err)
	}
	return nil
}

// Reply writes one datagram back to a previously observed sender.
func (e *Endpoint) Reply(addr *net.UDPAddr, payload []byte) error {
	if _, err := e.conn.WriteToUDP(payload, addr); err != nil {
		return fmt.Errorf("reply to %s: %w", addr, err)
	}
	return nil
}

// Receive waits up to timeout for one datagram. It returns ErrTimeout when
// the deadline passes and ErrClosed after Close.
func (e *Endpoint) Receive(timeout time.Duration) ([]byte, *net.UDPAddr, error) {
	if err := e.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, nil, err
	}
	buf := make([]byte, maxDatagram)
	n, addr, err := e.conn.ReadFromUDP(buf)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, nil, ErrTimeout
		}
		if errors.Is(err, net.ErrClosed) {
			return nil, nil, ErrClosed
		}
		return nil, nil, err
	}
	return buf[:n], addr, nil
}

// Close shuts the socket down, terminating in-flight receives.
func (e *Endpoint) Close() error {
	return e.conn.Close()
}
