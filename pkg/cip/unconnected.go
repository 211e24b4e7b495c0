package cip

import (
	"bytes"
	"encoding/binary"
)

// NewUnconnectedSendRequest wraps embedded (already a fully-formed Message
// Router request) in a Connection Manager Unconnected_Send (0x52),
// addressed to the Connection Manager instance and carrying routePath as
// the embedded message's route to a device beyond the one the session is
// open to (e.g. a CPU in another backplane slot behind a communication
// module). priorityTimeTick/timeoutTicks follow the same encoding as
// Forward_Open's fields.
func NewUnconnectedSendRequest(embedded *MessageRouterRequest, routePath Path, priorityTimeTick, timeoutTicks byte) (*MessageRouterRequest, error) {
	msgBytes, err := embedded.Encode()
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	buf.WriteByte(priorityTimeTick)
	buf.WriteByte(timeoutTicks)
	binary.Write(buf, binary.LittleEndian, uint16(len(msgBytes)))
	buf.Write(msgBytes)
	if len(msgBytes)%2 != 0 {
		buf.WriteByte(0) // pad to an even length before the route path
	}
	buf.WriteByte(byte(len(routePath) / 2)) // route path size, in words
	buf.WriteByte(0)                        // reserved
	buf.Write(routePath.Bytes())

	p := NewPath()
	p.AddClass(ClassConnectionMgr)
	p.AddInstance(1)

	return &MessageRouterRequest{
		Service:     ServiceUnconnectedSend,
		RequestPath: p,
		RequestData: buf.Bytes(),
	}, nil
}
