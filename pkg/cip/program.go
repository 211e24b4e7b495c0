package cip

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ClassProgramName is the Program Name Object, whose instances enumerate
// the controller's user programs for program-scoped tag uploads.
const ClassProgramName UINT = 0x64

// NewProgramEnumerationRequest builds a Get_Instance_Attribute_List
// request against the Program Name Object, requesting just the Name
// attribute (1) of every instance starting at startInstance.
func NewProgramEnumerationRequest(startInstance uint32) *MessageRouterRequest {
	p := NewPath()
	p.AddClass(ClassProgramName)
	p.AddInstance32(startInstance)

	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // Name

	return &MessageRouterRequest{
		Service:     ServiceGetInstanceAttributeList,
		RequestPath: p,
		RequestData: buf.Bytes(),
	}
}

// ProgramEntry is one instance decoded from a program enumeration reply.
type ProgramEntry struct {
	InstanceID uint32
	Name       string
}

// DecodeProgramEnumerationResponse parses the flat run of {instance, name}
// entries from a Get_Instance_Attribute_List reply on the Program Name
// Object.
func DecodeProgramEnumerationResponse(data []byte) ([]ProgramEntry, error) {
	r := bytes.NewReader(data)
	var entries []ProgramEntry

	for r.Len() > 0 {
		var instanceID uint32
		if err := binary.Read(r, binary.LittleEndian, &instanceID); err != nil {
			return entries, fmt.Errorf("cip: program enumeration: read instance id: %w", err)
		}
		var nameLen uint16
		if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
			return entries, fmt.Errorf("cip: program enumeration: read name length: %w", err)
		}
		nameBytes := make([]byte, nameLen)
		if _, err := r.Read(nameBytes); err != nil {
			return entries, fmt.Errorf("cip: program enumeration: read name: %w", err)
		}
		entries = append(entries, ProgramEntry{InstanceID: instanceID, Name: string(nameBytes)})
	}

	return entries, nil
}
