package plc

import (
	"fmt"

	"github.com/iceisfun/goeip/pkg/cip"
	"github.com/iceisfun/goeip/pkg/plcerr"
	"github.com/iceisfun/goeip/pkg/types"
)

// GenericMessage is one caller-built CIP request against an arbitrary
// class/instance/attribute, for functionality the read/write facade does
// not cover: get/set PLC time, PLC name, and any vendor-specific object.
type GenericMessage struct {
	Service      cip.USINT
	ClassCode    cip.UINT
	Instance     uint32
	Attribute    cip.UINT // 0 omits the attribute segment
	RequestType  types.Descriptor
	RequestValue any
	ResponseType types.Descriptor // nil returns raw bytes
	RoutePath    cip.Path         // only used when UnconnectedSend is true

	Connected       bool
	UnconnectedSend bool
}

// GenericResult is the outcome of a GenericMessage send.
type GenericResult struct {
	Raw   []byte
	Value any
	Err   error
}

// SendGeneric builds and sends msg per §4.8: a service byte, EPATH, and
// request data, routed through the connected connection, a one-shot
// Unconnected Send, or (the common case) the plain unconnected session.
func (d *Driver) SendGeneric(msg GenericMessage) GenericResult {
	p := cip.NewPath()
	p.AddClass(msg.ClassCode)
	p.AddInstance32(msg.Instance)
	if msg.Attribute != 0 {
		p.AddAttribute(msg.Attribute)
	}

	var reqData []byte
	if msg.RequestType != nil {
		reqData = make([]byte, msg.RequestType.Size())
		if err := msg.RequestType.EncodeAt(reqData, 0, msg.RequestValue); err != nil {
			return GenericResult{Err: err}
		}
	}

	req := &cip.MessageRouterRequest{
		Service:     msg.Service,
		RequestPath: p,
		RequestData: reqData,
	}

	if msg.UnconnectedSend {
		wrapped, err := cip.NewUnconnectedSendRequest(req, msg.RoutePath, 0x0A, 0x05)
		if err != nil {
			return GenericResult{Err: err}
		}
		req = wrapped
	}

	var resp *cip.MessageRouterResponse
	var err error
	if msg.Connected {
		if d.conn == nil {
			return GenericResult{Err: &plcerr.RequestError{Reason: "connected generic message requested but no connection is open"}}
		}
		resp, err = d.conn.SendCIPRequest(req)
	} else {
		resp, err = d.sess.SendCIPRequest(req)
	}
	if err != nil {
		return GenericResult{Err: &plcerr.ConnectionError{Op: "generic message", Err: err}}
	}
	if resp.GeneralStatus != cip.StatusSuccess {
		return GenericResult{Err: plcerr.NewCIPError(resp.GeneralStatus, resp.ExtStatus)}
	}

	if msg.ResponseType == nil {
		return GenericResult{Raw: resp.ResponseData}
	}

	value, err := msg.ResponseType.DecodeAt(resp.ResponseData, 0)
	if err != nil {
		return GenericResult{Raw: resp.ResponseData, Err: fmt.Errorf("plc: decode generic response: %w", err)}
	}
	return GenericResult{Raw: resp.ResponseData, Value: value}
}
