package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/iceisfun/goeip/pkg/eip"
	"github.com/iceisfun/goeip/pkg/plcerr"
)

// DefaultPort is the standard EtherNet/IP TCP port.
const DefaultPort = 44818

// Transport defines the interface for sending and receiving EIP packets
type Transport interface {
	Send(cmd eip.Command, data []byte, sessionHandle eip.SessionHandle) error
	Receive() (*eip.EncapsulationHeader, []byte, error)
	Close() error
}

// TCPTransport implements Transport using TCP. Every Send/Receive carries a
// deadline derived from Timeout; a timed-out or malformed frame marks the
// transport invalid, since partial frames may remain on the wire and make
// the connection unsafe to reuse.
type TCPTransport struct {
	conn    net.Conn
	Timeout time.Duration

	mu      sync.Mutex
	invalid error
}

// NewTCPTransport dials address (appending the default EtherNet/IP port if
// none is given) with the supplied connection timeout.
func NewTCPTransport(address string, timeout time.Duration) (*TCPTransport, error) {
	if !strings.Contains(address, ":") {
		address = fmt.Sprintf("%s:%d", address, DefaultPort)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return nil, &plcerr.ConnectionError{Op: "dial", Err: err}
	}
	return &TCPTransport{conn: conn, Timeout: timeout}, nil
}

// Valid reports whether the transport has not yet been invalidated by a
// framing error or I/O timeout.
func (t *TCPTransport) Valid() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.invalid
}

func (t *TCPTransport) invalidate(err error) error {
	t.mu.Lock()
	if t.invalid == nil {
		t.invalid = err
	}
	t.mu.Unlock()
	return err
}

// Send sends an EIP packet
func (t *TCPTransport) Send(cmd eip.Command, data []byte, sessionHandle eip.SessionHandle) error {
	if err := t.Valid(); err != nil {
		return err
	}

	header := eip.EncapsulationHeader{
		Command:       cmd,
		Length:        uint16(len(data)),
		SessionHandle: sessionHandle,
		Status:        0,
		SenderContext: [8]byte{},
		Options:       0,
	}

	t.conn.SetWriteDeadline(time.Now().Add(t.Timeout))

	if err := header.Encode(t.conn); err != nil {
		return t.invalidate(&plcerr.ConnectionError{Op: "write header", Err: err})
	}
	if len(data) > 0 {
		if _, err := t.conn.Write(data); err != nil {
			return t.invalidate(&plcerr.ConnectionError{Op: "write payload", Err: err})
		}
	}
	return nil
}

// maxEncapsulationPayload bounds how much payload Receive will ever try to
// allocate for a single frame, guarding against a corrupt length field
// causing a multi-gigabyte allocation.
const maxEncapsulationPayload = 1 << 20

// Receive receives an EIP packet. A short read blocks until the deadline
// expires; a read past the deadline, or a length field inconsistent with
// what the peer actually sends, invalidates the transport.
func (t *TCPTransport) Receive() (*eip.EncapsulationHeader, []byte, error) {
	if err := t.Valid(); err != nil {
		return nil, nil, err
	}

	t.conn.SetReadDeadline(time.Now().Add(t.Timeout))

	header := &eip.EncapsulationHeader{}
	if err := header.Decode(t.conn); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, nil, t.invalidate(&plcerr.ProtocolFramingError{Reason: fmt.Sprintf("short encapsulation header: %v", err)})
		}
		return nil, nil, t.invalidate(&plcerr.ConnectionError{Op: "read header", Err: err})
	}

	if int(header.Length) > maxEncapsulationPayload {
		return nil, nil, t.invalidate(&plcerr.ProtocolFramingError{
			Reason: fmt.Sprintf("declared length %d exceeds sane maximum", header.Length),
		})
	}

	var data []byte
	if header.Length > 0 {
		data = make([]byte, header.Length)
		if _, err := io.ReadFull(t.conn, data); err != nil {
			return nil, nil, t.invalidate(&plcerr.ProtocolFramingError{
				Reason: fmt.Sprintf("short payload: declared %d bytes, got error %v", header.Length, err),
			})
		}
	}

	return header, data, nil
}

// Close closes the connection
func (t *TCPTransport) Close() error {
	return t.conn.Close()
}
