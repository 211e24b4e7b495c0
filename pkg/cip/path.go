package cip

import (
	"encoding/binary"
	"fmt"
)

// Path Segment Types
const (
	SegmentTypePort      byte = 0x00 // 000xxxxx
	SegmentTypeLogical   byte = 0x20 // 001xxxxx
	SegmentTypeNetwork   byte = 0x40 // 010xxxxx
	SegmentTypeSymbolic  byte = 0x60 // 011xxxxx
	SegmentTypeData      byte = 0x80 // 100xxxxx
	SegmentTypeDataType1 byte = 0xA0 // 101xxxxx
	SegmentTypeDataType2 byte = 0xC0 // 110xxxxx
	SegmentTypeReserved  byte = 0xE0 // 111xxxxx
)

// Logical Segment Types
const (
	LogicalTypeClass     byte = 0x00 // xxx000xx
	LogicalTypeInstance  byte = 0x04 // xxx001xx
	LogicalTypeMember    byte = 0x08 // xxx010xx
	LogicalTypePoint     byte = 0x0C // xxx011xx
	LogicalTypeAttribute byte = 0x10 // xxx100xx
	LogicalTypeSpecial   byte = 0x14 // xxx101xx
	LogicalTypeService   byte = 0x18 // xxx110xx
	LogicalTypeExtended  byte = 0x1C // xxx111xx
)

// Logical Segment Formats
const (
	LogicalFormat8Bit     byte = 0x00 // xxxxxx00
	LogicalFormat16Bit    byte = 0x01 // xxxxxx01
	LogicalFormat32Bit    byte = 0x02 // xxxxxx10
	LogicalFormatReserved byte = 0x03 // xxxxxx11
)

// Path represents a CIP EPATH
type Path []byte

// NewPath creates a new empty path
func NewPath() Path {
	return make(Path, 0)
}

// AddClass adds a Class segment to the path
func (p *Path) AddClass(classID UINT) {
	if classID <= 0xFF {
		*p = append(*p, SegmentTypeLogical|LogicalTypeClass|LogicalFormat8Bit)
		*p = append(*p, byte(classID))
	} else {
		*p = append(*p, SegmentTypeLogical|LogicalTypeClass|LogicalFormat16Bit)
		*p = append(*p, 0x00) // Pad
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(classID))
		*p = append(*p, b...)
	}
}

// AddInstance adds an Instance segment to the path
func (p *Path) AddInstance(instanceID UINT) {
	if instanceID <= 0xFF {
		*p = append(*p, SegmentTypeLogical|LogicalTypeInstance|LogicalFormat8Bit)
		*p = append(*p, byte(instanceID))
	} else {
		*p = append(*p, SegmentTypeLogical|LogicalTypeInstance|LogicalFormat16Bit)
		*p = append(*p, 0x00) // Pad
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(instanceID))
		*p = append(*p, b...)
	}
}

// AddInstance32 adds a 32-bit Instance segment to the path
func (p *Path) AddInstance32(instanceID uint32) {
	if instanceID <= 0xFF {
		*p = append(*p, SegmentTypeLogical|LogicalTypeInstance|LogicalFormat8Bit)
		*p = append(*p, byte(instanceID))
	} else if instanceID <= 0xFFFF {
		*p = append(*p, SegmentTypeLogical|LogicalTypeInstance|LogicalFormat16Bit)
		*p = append(*p, 0x00) // Pad
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(instanceID))
		*p = append(*p, b...)
	} else {
		*p = append(*p, SegmentTypeLogical|LogicalTypeInstance|LogicalFormat32Bit)
		*p = append(*p, 0x00) // Pad
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, instanceID)
		*p = append(*p, b...)
	}
}

// AddAttribute adds an Attribute segment to the path
func (p *Path) AddAttribute(attributeID UINT) {
	if attributeID <= 0xFF {
		*p = append(*p, SegmentTypeLogical|LogicalTypeAttribute|LogicalFormat8Bit)
		*p = append(*p, byte(attributeID))
	} else {
		*p = append(*p, SegmentTypeLogical|LogicalTypeAttribute|LogicalFormat16Bit)
		*p = append(*p, 0x00) // Pad
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(attributeID))
		*p = append(*p, b...)
	}
}

// AddMember adds a Member segment to the path
func (p *Path) AddMember(memberID UINT) {
	if memberID <= 0xFF {
		*p = append(*p, SegmentTypeLogical|LogicalTypeMember|LogicalFormat8Bit)
		*p = append(*p, byte(memberID))
	} else {
		*p = append(*p, SegmentTypeLogical|LogicalTypeMember|LogicalFormat16Bit)
		*p = append(*p, 0x00) // Pad
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(memberID))
		*p = append(*p, b...)
	}
}

// AddSymbolicSegment adds a Symbolic segment (ANSI Extended Symbol)
func (p *Path) AddSymbolicSegment(symbol string) {
	*p = append(*p, 0x91) // Extended Symbol Segment (Data Segment 0x80 | 0x11)
	l := len(symbol)
	*p = append(*p, byte(l))
	*p = append(*p, []byte(symbol)...)
	if l%2 != 0 {
		*p = append(*p, 0x00) // Pad to even length
	}
}

// extendedLinkPort is the port number value signaling that the real port
// number follows as a 16-bit extended port segment.
const extendedLinkPort = 0x0F

// AddPortSegment adds a Port segment. linkAddress is a single byte (e.g. a
// backplane slot) or an ASCII string (e.g. a dotted IPv4 address) depending
// on the port being addressed. A link address other than exactly one byte
// is encoded with the extended-link-address form: a length byte followed by
// the address bytes, the whole segment padded to an even length.
func (p *Path) AddPortSegment(port UINT, linkAddress []byte) {
	extended := len(linkAddress) != 1

	b := SegmentTypePort
	if port < extendedLinkPort {
		b |= byte(port)
	} else {
		b |= extendedLinkPort
	}
	if extended {
		b |= 0x10
	}

	seg := []byte{b}
	if port >= extendedLinkPort {
		pb := make([]byte, 2)
		binary.LittleEndian.PutUint16(pb, uint16(port))
		seg = append(seg, pb...)
	}
	if extended {
		seg = append(seg, byte(len(linkAddress)))
	}
	seg = append(seg, linkAddress...)
	if len(seg)%2 != 0 {
		seg = append(seg, 0x00)
	}
	*p = append(*p, seg...)
}

// Bytes returns the byte slice of the path
func (p Path) Bytes() []byte {
	return []byte(p)
}

// LenWords returns the length in words (16-bit)
func (p Path) LenWords() byte {
	return byte((len(p) + 1) / 2)
}

// String returns a string representation of the path
func (p Path) String() string {
	return fmt.Sprintf("%X", []byte(p))
}

// BuildPath creates a standard Class/Instance/Attribute path
func BuildPath(classID, instanceID, attributeID UINT) Path {
	p := NewPath()
	p.AddClass(classID)
	p.AddInstance(instanceID)
	if attributeID != 0 {
		p.AddAttribute(attributeID)
	}
	return p
}
