package cip

import (
	"encoding/binary"
	"fmt"
)

// NewReadModifyWriteRequest builds a Read_Modify_Write_Tag (0x4E) request:
// the controller ANDs the current value with andMask then ORs in orMask,
// atomically, without a separate read round trip. This is how a single
// BOOL bit inside a bit-aliased array or struct member is written without
// disturbing its sibling bits. orMask and andMask must be the same length
// (1, 2, 4, 8, or 12 bytes, matching the host member's size).
func NewReadModifyWriteRequest(tagPath Path, orMask, andMask []byte) (*MessageRouterRequest, error) {
	if len(orMask) != len(andMask) {
		return nil, fmt.Errorf("cip: read-modify-write: OR mask length %d != AND mask length %d", len(orMask), len(andMask))
	}
	size := len(orMask)
	switch size {
	case 1, 2, 4, 8, 12:
	default:
		return nil, fmt.Errorf("cip: read-modify-write: mask size %d is not a supported host width", size)
	}

	reqData := make([]byte, 2+2*size)
	binary.LittleEndian.PutUint16(reqData[0:2], uint16(size))
	copy(reqData[2:2+size], orMask)
	copy(reqData[2+size:], andMask)

	return &MessageRouterRequest{
		Service:     ServiceReadModifyWriteTag,
		RequestPath: tagPath,
		RequestData: reqData,
	}, nil
}
