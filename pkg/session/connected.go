package session

import (
	"fmt"
	"math/rand"
	"sync/atomic"

	"github.com/iceisfun/goeip/pkg/cip"
	"github.com/iceisfun/goeip/pkg/eip"
	"github.com/iceisfun/goeip/pkg/plcerr"
)

// Connection is an established Forward_Open (Class 3, connected) session
// against a single target path. Every Send on it carries the connection's
// own sequence number, independent of any other connection on the Session.
type Connection struct {
	s *Session

	otID, toID uint32
	params     cip.ForwardOpenParams
	large      bool

	sequence uint32 // atomic; wraps at 16 bits per DecodeSendUnitDataReply framing
}

// defaultConnectionSize is the O->T/T->O byte budget requested for a new
// connection when the caller has no better estimate. A size the target
// refuses makes ForwardOpen fail; it is not retried with a smaller size or
// another Forward_Open variant.
const defaultConnectionSize = 500

// largeConnectionThreshold is the data size past which Large_Forward_Open
// is required, since the standard network connection parameters field can
// only express sizes up to 511 bytes (9 bits).
const largeConnectionThreshold = 511

// ForwardOpen negotiates a new connected-messaging connection to
// connectionPath (typically a path to the Message Router, class 0x02
// instance 1, via the controller's backplane/Ethernet route). rpi is the
// requested packet interval in microseconds; 0 selects a driver default.
func (s *Session) ForwardOpen(connectionPath cip.Path, size int, rpi uint32) (*Connection, error) {
	if size <= 0 {
		size = defaultConnectionSize
	}
	if rpi == 0 {
		rpi = 50000
	}

	params := cip.ForwardOpenParams{
		PriorityTimeTick:            0x0A,
		TimeoutTicks:                0x05,
		OTConnectionID:              rand.Uint32(),
		TOConnectionID:              0,
		ConnectionSerialNumber:      uint16(rand.Uint32()),
		VendorID:                    0x01,
		OriginatorSerialNumber:      rand.Uint32(),
		ConnectionTimeoutMultiplier: 0x03,
		OTRPI:                      rpi,
		OTSize:                      uint16(size),
		TORPI:                      rpi,
		TOSize:                      uint16(size),
		TransportTypeTrigger:        0xA3, // direction=server, trigger=cyclic, class=3
		ConnectionPath:              connectionPath,
	}

	large := size > largeConnectionThreshold
	var req *cip.MessageRouterRequest
	var err error
	if large {
		req, err = cip.NewLargeForwardOpenRequest(params)
	} else {
		req, err = cip.NewForwardOpenRequest(params)
	}
	if err != nil {
		return nil, fmt.Errorf("plc: build forward open request: %w", err)
	}

	resp, err := s.SendCIPRequest(req)
	if err != nil {
		return nil, &plcerr.ConnectionError{Op: "forward open", Err: err}
	}
	if err := resp.Error(); err != nil {
		return nil, &plcerr.ConnectionError{Op: "forward open", Err: err}
	}

	result, err := cip.DecodeForwardOpenResponse(resp.ResponseData)
	if err != nil {
		return nil, &plcerr.ConnectionError{Op: "forward open", Err: err}
	}

	s.logger.Infof("Forward Open established: O->T=0x%08X T->O=0x%08X", result.OTConnectionID, result.TOConnectionID)

	return &Connection{
		s:      s,
		otID:   result.OTConnectionID,
		toID:   result.TOConnectionID,
		params: params,
		large:  large,
	}, nil
}

// NegotiatedSize returns the O->T and T->O byte sizes this connection
// actually established, for sizing the request planner's payload budget.
func (c *Connection) NegotiatedSize() (otSize, toSize int) {
	return int(c.params.OTSize), int(c.params.TOSize)
}

// Close sends Forward_Close, tearing down the connection.
func (c *Connection) Close() error {
	req, err := cip.NewForwardCloseRequest(c.params)
	if err != nil {
		return fmt.Errorf("plc: build forward close request: %w", err)
	}
	resp, err := c.s.SendCIPRequest(req)
	if err != nil {
		return &plcerr.ConnectionError{Op: "forward close", Err: err}
	}
	if err := resp.Error(); err != nil {
		return &plcerr.ConnectionError{Op: "forward close", Err: err}
	}
	return nil
}

// nextSequence returns the next connection sequence number, wrapping at 16
// bits as required by the sequenced connected data item.
func (c *Connection) nextSequence() uint16 {
	return uint16(atomic.AddUint32(&c.sequence, 1))
}

// SendCIPRequest sends a CIP request over this connection via SendUnitData
// and returns the decoded CIP response.
func (c *Connection) SendCIPRequest(req *cip.MessageRouterRequest) (*cip.MessageRouterResponse, error) {
	reqBytes, err := req.Encode()
	if err != nil {
		return nil, err
	}

	seq := c.nextSequence()
	payload, err := eip.EncodeSendUnitData(c.toID, seq, reqBytes)
	if err != nil {
		return nil, err
	}

	if err := c.s.transport.Send(eip.CommandSendUnitData, payload, c.s.sessionHandle); err != nil {
		return nil, &plcerr.ConnectionError{Op: "send unit data", Err: err}
	}

	header, respData, err := c.s.transport.Receive()
	if err != nil {
		return nil, &plcerr.ConnectionError{Op: "receive unit data", Err: err}
	}
	if header.Status != eip.StatusSuccess {
		return nil, &plcerr.ProtocolFramingError{Reason: fmt.Sprintf("SendUnitData reply status 0x%08X", header.Status)}
	}

	_, cipResp, err := eip.DecodeSendUnitDataReply(respData)
	if err != nil {
		return nil, &plcerr.ProtocolFramingError{Reason: err.Error()}
	}

	return cip.DecodeMessageRouterResponse(cipResp)
}
