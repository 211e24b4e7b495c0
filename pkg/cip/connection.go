package cip

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Connection Manager service codes (Class 0x06).
const (
	ServiceForwardClose     USINT = 0x4E
	ServiceUnconnectedSend  USINT = 0x52
	ServiceForwardOpen      USINT = 0x54
	ServiceLargeForwardOpen USINT = 0x5B
)

// Network connection parameter bits shared by Forward_Open and
// Large_Forward_Open, scaled to 16 or 32 bits respectively.
const (
	ConnTypeP2P        = 0x4000 // point-to-point, 16-bit params
	ConnTypeP2PLarge   = 0x20000000
	ConnPriorityLow    = 0x0000
	ConnFixedSize      = 0x0000
	ConnVariableSize   = 0x0200
	ConnVariableSizeLg = 0x02000000
)

// ForwardOpenParams carries the originator-supplied fields of a Forward_Open
// or Large_Forward_Open request. ConnectionPath is a fully encoded EPATH to
// the target object (usually the Message Router or Assembly instance).
type ForwardOpenParams struct {
	PriorityTimeTick            byte
	TimeoutTicks                byte
	OTConnectionID              uint32 // 0 lets the target assign its own O->T id on the wire; callers usually randomize this
	TOConnectionID              uint32
	ConnectionSerialNumber      uint16
	VendorID                    uint16
	OriginatorSerialNumber      uint32
	ConnectionTimeoutMultiplier byte
	OTRPI                       uint32 // requested packet interval, microseconds
	OTSize                      uint16 // O->T data size in bytes
	TORPI                       uint32
	TOSize                      uint16
	TransportTypeTrigger        byte
	ConnectionPath              Path
}

func encodeNetworkParams16(size uint16) uint16 {
	return uint16(ConnTypeP2P) | ConnVariableSize | (size & 0x01FF)
}

func encodeNetworkParams32(size uint16) uint32 {
	return uint32(ConnTypeP2PLarge) | ConnVariableSizeLg | uint32(size&0xFFFF)
}

// NewForwardOpenRequest builds a standard Forward_Open (0x54) request
// against the Connection Manager (class 0x06, instance 1).
func NewForwardOpenRequest(p ForwardOpenParams) (*MessageRouterRequest, error) {
	buf := new(bytes.Buffer)
	fields := []any{
		p.PriorityTimeTick, p.TimeoutTicks,
		p.OTConnectionID, p.TOConnectionID,
		p.ConnectionSerialNumber, p.VendorID, p.OriginatorSerialNumber,
		p.ConnectionTimeoutMultiplier, [3]byte{},
		p.OTRPI, encodeNetworkParams16(p.OTSize),
		p.TORPI, encodeNetworkParams16(p.TOSize),
		p.TransportTypeTrigger,
	}
	for _, f := range fields {
		if err := binary.Write(buf, binary.LittleEndian, f); err != nil {
			return nil, err
		}
	}

	pathBytes := p.ConnectionPath.Bytes()
	if err := binary.Write(buf, binary.LittleEndian, byte(len(pathBytes)/2)); err != nil {
		return nil, err
	}
	buf.Write(pathBytes)

	mrPath := NewPath()
	mrPath.AddClass(ClassConnectionMgr)
	mrPath.AddInstance(1)

	return &MessageRouterRequest{
		Service:     ServiceForwardOpen,
		RequestPath: mrPath,
		RequestData: buf.Bytes(),
	}, nil
}

// NewLargeForwardOpenRequest builds a Large_Forward_Open (0x5B) request,
// used when either data size exceeds the 511-byte limit a standard
// Forward_Open's 16-bit network connection parameters can express.
func NewLargeForwardOpenRequest(p ForwardOpenParams) (*MessageRouterRequest, error) {
	buf := new(bytes.Buffer)
	fields := []any{
		p.PriorityTimeTick, p.TimeoutTicks,
		p.OTConnectionID, p.TOConnectionID,
		p.ConnectionSerialNumber, p.VendorID, p.OriginatorSerialNumber,
		p.ConnectionTimeoutMultiplier, [3]byte{},
		p.OTRPI, encodeNetworkParams32(p.OTSize),
		p.TORPI, encodeNetworkParams32(p.TOSize),
		p.TransportTypeTrigger,
	}
	for _, f := range fields {
		if err := binary.Write(buf, binary.LittleEndian, f); err != nil {
			return nil, err
		}
	}

	pathBytes := p.ConnectionPath.Bytes()
	if err := binary.Write(buf, binary.LittleEndian, byte(len(pathBytes)/2)); err != nil {
		return nil, err
	}
	buf.Write(pathBytes)

	mrPath := NewPath()
	mrPath.AddClass(ClassConnectionMgr)
	mrPath.AddInstance(1)

	return &MessageRouterRequest{
		Service:     ServiceLargeForwardOpen,
		RequestPath: mrPath,
		RequestData: buf.Bytes(),
	}, nil
}

// ForwardOpenResult is the successful reply to Forward_Open or
// Large_Forward_Open.
type ForwardOpenResult struct {
	OTConnectionID         uint32
	TOConnectionID         uint32
	ConnectionSerialNumber uint16
	VendorID               uint16
	OriginatorSerialNumber uint32
	OTAPI                  uint32
	TOAPI                  uint32
}

// DecodeForwardOpenResponse parses a successful Forward_Open or
// Large_Forward_Open reply body (both share the same layout; only the
// request's network connection parameter width differs).
func DecodeForwardOpenResponse(data []byte) (*ForwardOpenResult, error) {
	if len(data) < 26 {
		return nil, fmt.Errorf("cip: forward open reply too short (%d bytes)", len(data))
	}
	r := bytes.NewReader(data)
	res := &ForwardOpenResult{}
	for _, f := range []any{
		&res.OTConnectionID, &res.TOConnectionID,
		&res.ConnectionSerialNumber, &res.VendorID, &res.OriginatorSerialNumber,
		&res.OTAPI, &res.TOAPI,
	} {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return nil, fmt.Errorf("cip: decode forward open reply: %w", err)
		}
	}
	return res, nil
}

// NewForwardCloseRequest builds a Forward_Close (0x4E) request identifying
// the connection by its original serial/vendor/originator triad, as
// required by the spec (connection IDs are not used to close).
func NewForwardCloseRequest(p ForwardOpenParams) (*MessageRouterRequest, error) {
	buf := new(bytes.Buffer)
	fields := []any{
		p.PriorityTimeTick, p.TimeoutTicks,
		p.ConnectionSerialNumber, p.VendorID, p.OriginatorSerialNumber,
	}
	for _, f := range fields {
		if err := binary.Write(buf, binary.LittleEndian, f); err != nil {
			return nil, err
		}
	}

	pathBytes := p.ConnectionPath.Bytes()
	if err := binary.Write(buf, binary.LittleEndian, byte(len(pathBytes)/2)); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, byte(0)); err != nil { // reserved
		return nil, err
	}
	buf.Write(pathBytes)

	mrPath := NewPath()
	mrPath.AddClass(ClassConnectionMgr)
	mrPath.AddInstance(1)

	return &MessageRouterRequest{
		Service:     ServiceForwardClose,
		RequestPath: mrPath,
		RequestData: buf.Bytes(),
	}, nil
}
