package cip

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// NewIdentityAttributesRequest builds a Get_Attribute_All request against
// the Identity Object (class 0x01, instance 1), used at connection open to
// populate driver info and to distinguish Micro800 controllers (which
// disable CIP routing, Forward Open, and instance-id addressing) from
// ControlLogix/CompactLogix by device type and product name.
func NewIdentityAttributesRequest() *MessageRouterRequest {
	p := NewPath()
	p.AddClass(ClassIdentity)
	p.AddInstance(1)
	return &MessageRouterRequest{
		Service:     ServiceGetAttributeAll,
		RequestPath: p,
	}
}

// IdentityInfo is the Identity Object's Get_Attribute_All reply, decoded.
type IdentityInfo struct {
	VendorID     uint16
	DeviceType   uint16
	ProductCode  uint16
	Revision     [2]byte
	Status       uint16
	SerialNumber uint32
	ProductName  string
}

// DecodeIdentityAttributesResponse decodes a Get_Attribute_All reply from
// the Identity Object.
func DecodeIdentityAttributesResponse(data []byte) (*IdentityInfo, error) {
	r := bytes.NewReader(data)
	info := &IdentityInfo{}

	fields := []any{&info.VendorID, &info.DeviceType, &info.ProductCode}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return nil, fmt.Errorf("cip: identity attributes: %w", err)
		}
	}
	if err := binary.Read(r, binary.LittleEndian, &info.Revision); err != nil {
		return nil, fmt.Errorf("cip: identity attributes: revision: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &info.Status); err != nil {
		return nil, fmt.Errorf("cip: identity attributes: status: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &info.SerialNumber); err != nil {
		return nil, fmt.Errorf("cip: identity attributes: serial number: %w", err)
	}

	var nameLen uint8
	if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return nil, fmt.Errorf("cip: identity attributes: product name length: %w", err)
	}
	nameBytes := make([]byte, nameLen)
	if _, err := io.ReadFull(r, nameBytes); err != nil {
		return nil, fmt.Errorf("cip: identity attributes: product name: %w", err)
	}
	info.ProductName = string(nameBytes)

	return info, nil
}

// IsMicro800 reports whether an Identity reply names a Micro800-family
// controller, which does not support CIP routing, Forward Open, or
// instance-id tag addressing the way ControlLogix/CompactLogix do.
func (i *IdentityInfo) IsMicro800() bool {
	const prefix = "Micro8"
	return len(i.ProductName) >= len(prefix) && i.ProductName[:len(prefix)] == prefix
}
