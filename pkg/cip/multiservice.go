package cip

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// MultipleServicePacket packs several CIP requests into a single
// Multiple_Service_Packet (0x0A) request against the Message Router
// Object (class 0x02, instance 1).
func NewMultipleServicePacketRequest(requests []*MessageRouterRequest) (*MessageRouterRequest, error) {
	encoded := make([][]byte, len(requests))
	for i, r := range requests {
		b, err := r.Encode()
		if err != nil {
			return nil, fmt.Errorf("cip: encode sub-request %d: %w", i, err)
		}
		encoded[i] = b
	}

	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(encoded))); err != nil {
		return nil, err
	}

	// Offsets are measured from the start of the offset-count field, i.e.
	// the first offset equals 2 + 2*count.
	offset := uint16(2 + 2*len(encoded))
	offsets := make([]uint16, len(encoded))
	for i, b := range encoded {
		offsets[i] = offset
		offset += uint16(len(b))
	}
	for _, o := range offsets {
		if err := binary.Write(buf, binary.LittleEndian, o); err != nil {
			return nil, err
		}
	}
	for _, b := range encoded {
		buf.Write(b)
	}

	p := NewPath()
	p.AddClass(ClassMessageRouter)
	p.AddInstance(1)

	return &MessageRouterRequest{
		Service:     ServiceMultipleServicePacket,
		RequestPath: p,
		RequestData: buf.Bytes(),
	}, nil
}

// DecodeMultipleServicePacketResponse splits a Multiple_Service_Packet
// reply's ResponseData into the concatenated per-entry reply blocks, in
// request order. Each block is the entry's raw bytes including its
// reply-service/general-status header (i.e. a DecodeMessageRouterResponse-able
// blob), exactly as the controller emitted it.
func DecodeMultipleServicePacketResponse(data []byte) ([][]byte, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("cip: multi-service reply too short")
	}
	count := int(binary.LittleEndian.Uint16(data[0:2]))
	if len(data) < 2+2*count {
		return nil, fmt.Errorf("cip: multi-service reply missing offset table")
	}

	offsets := make([]int, count)
	for i := 0; i < count; i++ {
		offsets[i] = int(binary.LittleEndian.Uint16(data[2+2*i : 4+2*i]))
	}

	blocks := make([][]byte, count)
	for i := 0; i < count; i++ {
		start := offsets[i]
		end := len(data)
		if i+1 < count {
			end = offsets[i+1]
		}
		if start < 0 || end > len(data) || start > end {
			return nil, fmt.Errorf("cip: multi-service reply entry %d has invalid bounds", i)
		}
		blocks[i] = data[start:end]
	}
	return blocks, nil
}
