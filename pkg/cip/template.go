package cip

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Template Object attribute IDs.
const (
	TemplateAttrStructureHandle     UINT = 1
	TemplateAttrMemberCount         UINT = 2
	TemplateAttrObjectDefinitionLen UINT = 4 // words
	TemplateAttrStructureSize       UINT = 5 // bytes
)

// TemplateInstanceID extracts the Template Object instance id from a
// STRUCT-family symbol type code: the low 12 bits of the type code name
// the template; the upper bits carry the array-dimension count and array
// flag (see DataType.IsArray).
func TemplateInstanceID(code DataType) uint32 {
	return uint32(code.Base()) & 0x0FFF
}

// NewTemplateHeaderRequest builds a Get_Attribute_List request for a
// Template Object instance's header fields.
func NewTemplateHeaderRequest(instanceID uint32) *MessageRouterRequest {
	p := NewPath()
	p.AddClass(ClassTemplate)
	p.AddInstance32(instanceID)

	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, uint16(4))
	binary.Write(buf, binary.LittleEndian, uint16(TemplateAttrStructureHandle))
	binary.Write(buf, binary.LittleEndian, uint16(TemplateAttrMemberCount))
	binary.Write(buf, binary.LittleEndian, uint16(TemplateAttrObjectDefinitionLen))
	binary.Write(buf, binary.LittleEndian, uint16(TemplateAttrStructureSize))

	return &MessageRouterRequest{
		Service:     ServiceGetAttributeList,
		RequestPath: p,
		RequestData: buf.Bytes(),
	}
}

// TemplateHeader is the Template Object's fixed-size attribute block,
// sizing the subsequent Read Template fetch and the struct's decoded
// member-plus-name byte block.
type TemplateHeader struct {
	StructureHandle           uint16
	MemberCount               uint16
	ObjectDefinitionSizeWords uint32
	StructureSizeBytes        uint32
}

// DecodeTemplateHeaderResponse decodes a Get_Attribute_List reply from a
// Template Object instance.
func DecodeTemplateHeaderResponse(data []byte) (*TemplateHeader, error) {
	r := bytes.NewReader(data)
	var count uint16
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("cip: template header: read count: %w", err)
	}

	h := &TemplateHeader{}
	for i := 0; i < int(count); i++ {
		var attrID, status uint16
		if err := binary.Read(r, binary.LittleEndian, &attrID); err != nil {
			return nil, fmt.Errorf("cip: template header: read attribute id: %w", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &status); err != nil {
			return nil, fmt.Errorf("cip: template header: read attribute status: %w", err)
		}
		if status != 0 {
			continue
		}
		switch UINT(attrID) {
		case TemplateAttrStructureHandle:
			binary.Read(r, binary.LittleEndian, &h.StructureHandle)
		case TemplateAttrMemberCount:
			binary.Read(r, binary.LittleEndian, &h.MemberCount)
		case TemplateAttrObjectDefinitionLen:
			binary.Read(r, binary.LittleEndian, &h.ObjectDefinitionSizeWords)
		case TemplateAttrStructureSize:
			binary.Read(r, binary.LittleEndian, &h.StructureSizeBytes)
		}
	}
	return h, nil
}

// NewReadTemplateRequest builds a Read_Template_Service (0x4C on the
// Template Object) request fetching byteCount bytes of the member-plus-
// name definition block starting at byteOffset, for fragmented assembly
// across multiple round trips.
func NewReadTemplateRequest(instanceID uint32, byteOffset, byteCount uint32) *MessageRouterRequest {
	p := NewPath()
	p.AddClass(ClassTemplate)
	p.AddInstance32(instanceID)

	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, byteOffset)
	binary.Write(buf, binary.LittleEndian, uint16(byteCount))

	return &MessageRouterRequest{
		Service:     ServiceReadTemplate,
		RequestPath: p,
		RequestData: buf.Bytes(),
	}
}
