package types

import (
	"encoding/binary"
	"fmt"

	"github.com/iceisfun/goeip/pkg/cip"
	"github.com/iceisfun/goeip/pkg/plcerr"
)

// Member is one field of a Struct descriptor. A member whose BitOffset is
// >= 0 is a BOOL bit-aliased into the host integer living at the same
// ByteOffset (HostSize bytes wide, conventionally a DWORD); that host
// member may or may not itself be visible in the struct's member list.
type Member struct {
	Name       string
	Descriptor Descriptor
	ByteOffset int
	BitOffset  int // -1 unless this is a bit-aliased BOOL
	HostSize   int // byte width of the host integer when BitOffset >= 0
	Hidden     bool
}

// Struct describes a CIP structure: a UDT, an Add-On-Instruction's backing
// structure, or a builtin like TIMER. Members are walked in declaration
// order; gaps between them are left as zero padding.
type Struct struct {
	Name          string
	Members       []Member
	TotalSize     int
	IsStringAlias bool
}

func (s Struct) Size() int { return s.TotalSize }

// Code reports the generic structure type code. Real Write_Tag requests
// against a whole UDT also carry the template's structure handle after
// this code; whole-struct writes are rare enough against elementary
// member writes that this driver does not build that extended form yet.
func (s Struct) Code() cip.DataType { return cip.TypeSTRUCT }

// DetectStringAlias reports whether members match the string-alias
// heuristic: exactly two visible members, an elementary-typed LEN and a
// SINT-array DATA. The value held in LEN is not checked.
func DetectStringAlias(members []Member) bool {
	visible := make([]Member, 0, len(members))
	for _, m := range members {
		if !m.Hidden {
			visible = append(visible, m)
		}
	}
	if len(visible) != 2 {
		return false
	}
	var hasLen, hasData bool
	for _, m := range visible {
		switch m.Name {
		case "LEN":
			if _, ok := m.Descriptor.(Elementary); ok {
				hasLen = true
			}
		case "DATA":
			if arr, ok := m.Descriptor.(Array); ok {
				if el, ok := arr.Element.(Elementary); ok && el.TypeCode.Base() == cip.TypeSINT {
					hasData = true
				}
			}
		}
	}
	return hasLen && hasData
}

// EncodeAt encodes a struct value. For a string-alias struct, value must
// be a string; otherwise value is a map[name]any of visible members.
func (s Struct) EncodeAt(out []byte, off int, value any) error {
	if s.IsStringAlias {
		return s.encodeStringAlias(out, off, value)
	}

	fields, ok := value.(map[string]any)
	if !ok {
		return &plcerr.DataValueError{Reason: fmt.Sprintf("struct %s expects map[string]any, got %T", s.Name, value)}
	}

	for _, m := range s.Members {
		if m.BitOffset >= 0 {
			v, present := fields[m.Name]
			if !present {
				continue
			}
			b, ok := v.(bool)
			if !ok {
				return &plcerr.DataValueError{Reason: fmt.Sprintf("member %s.%s expects bool, got %T", s.Name, m.Name, v)}
			}
			hostOff := off + m.ByteOffset
			host := readHostUint(out[hostOff : hostOff+m.HostSize])
			if b {
				host |= 1 << uint(m.BitOffset)
			} else {
				host &^= 1 << uint(m.BitOffset)
			}
			writeHostUint(out[hostOff:hostOff+m.HostSize], host)
			continue
		}

		if m.Hidden {
			continue
		}
		v, present := fields[m.Name]
		if !present {
			continue
		}
		if err := m.Descriptor.EncodeAt(out, off+m.ByteOffset, v); err != nil {
			return fmt.Errorf("struct %s.%s: %w", s.Name, m.Name, err)
		}
	}
	return nil
}

func (s Struct) DecodeAt(data []byte, off int) (any, error) {
	if s.IsStringAlias {
		return s.decodeStringAlias(data, off)
	}

	out := make(map[string]any, len(s.Members))
	for _, m := range s.Members {
		if m.BitOffset >= 0 {
			hostOff := off + m.ByteOffset
			host := readHostUint(data[hostOff : hostOff+m.HostSize])
			out[m.Name] = host&(1<<uint(m.BitOffset)) != 0
			continue
		}
		if m.Hidden {
			continue
		}
		v, err := m.Descriptor.DecodeAt(data, off+m.ByteOffset)
		if err != nil {
			return nil, fmt.Errorf("struct %s.%s: %w", s.Name, m.Name, err)
		}
		out[m.Name] = v
	}
	return out, nil
}

// stringAliasDataMember locates the DATA member, whose array length gives
// the alias's character capacity.
func (s Struct) stringAliasDataMember() (Member, bool) {
	for _, m := range s.Members {
		if m.Name == "DATA" {
			return m, true
		}
	}
	return Member{}, false
}

func (s Struct) encodeStringAlias(out []byte, off int, value any) error {
	str, ok := value.(string)
	if !ok {
		return &plcerr.DataValueError{Reason: fmt.Sprintf("string-alias struct %s expects string, got %T", s.Name, value)}
	}
	dataMember, ok := s.stringAliasDataMember()
	if !ok {
		return &plcerr.DataValueError{Reason: fmt.Sprintf("string-alias struct %s missing DATA member", s.Name)}
	}
	arr := dataMember.Descriptor.(Array)
	if len(str) > arr.FixedN {
		str = str[:arr.FixedN] // truncate silently to capacity, matching pycomm3's write behavior
	}

	binary.LittleEndian.PutUint32(out[off:], uint32(len(str)))
	copy(out[off+dataMember.ByteOffset:], str)
	return nil
}

func (s Struct) decodeStringAlias(data []byte, off int) (any, error) {
	dataMember, ok := s.stringAliasDataMember()
	if !ok {
		return nil, &plcerr.DataValueError{Reason: fmt.Sprintf("string-alias struct %s missing DATA member", s.Name)}
	}
	n := int(binary.LittleEndian.Uint32(data[off:]))
	base := off + dataMember.ByteOffset
	if n < 0 || base+n > len(data) {
		return nil, &plcerr.DataValueError{Reason: "string-alias LEN exceeds available data"}
	}
	return string(data[base : base+n]), nil
}

func readHostUint(b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	case 8:
		return binary.LittleEndian.Uint64(b)
	default:
		return 0
	}
}

func writeHostUint(b []byte, v uint64) {
	switch len(b) {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(b, v)
	}
}
