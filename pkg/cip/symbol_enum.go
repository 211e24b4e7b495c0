package cip

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Symbol Object (class 0x6B) service and class id. Bulk enumeration uses
// Get_Instance_Attribute_List (0x55): unlike Get_Attribute_List (0x03)
// against one instance at a time, it returns a flat run of entries with
// a single overall status, which is what makes paging through an entire
// controller's tag table practical.
const (
	ClassSymbol                     UINT  = 0x6B
	ServiceGetInstanceAttributeList USINT = 0x55
)

// NewSymbolEnumerationRequest builds a Get_Instance_Attribute_List (0x55)
// request against the Symbol Object (class 0x6B), requesting the Name
// (attribute 1) and Type (attribute 2) of every instance starting at
// startInstance. Unlike Get_Attribute_List, this service returns a flat
// run of entries with a single overall status rather than per-attribute
// statuses, making it the bulk enumeration primitive.
func NewSymbolEnumerationRequest(startInstance uint32) *MessageRouterRequest {
	return NewProgramSymbolEnumerationRequest("", startInstance)
}

// NewProgramSymbolEnumerationRequest is NewSymbolEnumerationRequest rooted
// at a program's own symbol scope instead of the controller scope, by
// prefixing the path with a "Program:<name>" symbolic segment. An empty
// programName is equivalent to NewSymbolEnumerationRequest.
func NewProgramSymbolEnumerationRequest(programName string, startInstance uint32) *MessageRouterRequest {
	p := NewPath()
	if programName != "" {
		p.AddSymbolicSegment("Program:" + programName)
	}
	p.AddClass(ClassSymbol)
	p.AddInstance32(startInstance)

	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, uint16(2))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // Name
	binary.Write(buf, binary.LittleEndian, uint16(2)) // Type

	return &MessageRouterRequest{
		Service:     ServiceGetInstanceAttributeList,
		RequestPath: p,
		RequestData: buf.Bytes(),
	}
}

// SymbolEntry is one instance decoded from a symbol enumeration reply.
type SymbolEntry struct {
	InstanceID uint32
	Name       string
	Type       DataType
}

// DecodeSymbolEnumerationResponse parses the flat run of {instance, name,
// type} entries from a Get_Instance_Attribute_List reply on the Symbol
// Object.
func DecodeSymbolEnumerationResponse(data []byte) ([]SymbolEntry, error) {
	r := bytes.NewReader(data)
	var entries []SymbolEntry

	for r.Len() > 0 {
		var instanceID uint32
		if err := binary.Read(r, binary.LittleEndian, &instanceID); err != nil {
			return entries, fmt.Errorf("cip: symbol enumeration: read instance id: %w", err)
		}

		var nameLen uint16
		if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
			return entries, fmt.Errorf("cip: symbol enumeration: read name length: %w", err)
		}
		nameBytes := make([]byte, nameLen)
		if _, err := r.Read(nameBytes); err != nil {
			return entries, fmt.Errorf("cip: symbol enumeration: read name: %w", err)
		}

		var typeCode uint16
		if err := binary.Read(r, binary.LittleEndian, &typeCode); err != nil {
			return entries, fmt.Errorf("cip: symbol enumeration: read type: %w", err)
		}

		entries = append(entries, SymbolEntry{
			InstanceID: instanceID,
			Name:       string(nameBytes),
			Type:       DataType(typeCode),
		})
	}

	return entries, nil
}
