package types

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/iceisfun/goeip/pkg/cip"
	"github.com/iceisfun/goeip/pkg/plcerr"
)

// Elementary describes a single numeric or string CIP value.
//
// StringCapacity is only meaningful for STRING-family codes: 0 means the
// standalone counted form (16-bit length + exactly that many bytes); a
// positive value means the fixed-size member form, where the buffer
// following the length is always StringCapacity bytes regardless of the
// live string's length (the common case is an 82-byte STRING member).
type Elementary struct {
	TypeCode       cip.DataType
	StringCapacity int
}

func (e Elementary) Code() cip.DataType { return e.TypeCode }

func (e Elementary) Size() int {
	if e.TypeCode.IsStringType() {
		return e.stringWireSize()
	}
	n, ok := cip.ElementarySize(e.TypeCode)
	if !ok {
		return -1
	}
	return n
}

func (e Elementary) stringWireSize() int {
	switch e.TypeCode.Base() {
	case cip.TypeSHORT_STRING:
		return -1 // 1-byte length + exactly that many bytes; no fixed form
	default:
		if e.StringCapacity > 0 {
			return 2 + e.StringCapacity
		}
		return -1 // standalone counted form, size depends on the value
	}
}

func (e Elementary) EncodeAt(out []byte, off int, value any) error {
	base := e.TypeCode.Base()
	if base.IsStringType() {
		return e.encodeString(out, off, value)
	}

	switch base {
	case cip.TypeBOOL:
		b, ok := value.(bool)
		if !ok {
			return &plcerr.DataValueError{Reason: fmt.Sprintf("BOOL expects bool, got %T", value)}
		}
		if b {
			out[off] = 0xFF
		} else {
			out[off] = 0x00
		}
		return nil

	case cip.TypeSINT, cip.TypeUSINT, cip.TypeBYTE:
		n, err := toInt64(value)
		if err != nil {
			return err
		}
		if base == cip.TypeSINT {
			if n < math.MinInt8 || n > math.MaxInt8 {
				return &plcerr.DataValueError{Reason: fmt.Sprintf("%d out of range for SINT", n)}
			}
		} else if n < 0 || n > math.MaxUint8 {
			return &plcerr.DataValueError{Reason: fmt.Sprintf("%d out of range for %s", n, base)}
		}
		out[off] = byte(n)
		return nil

	case cip.TypeINT, cip.TypeUINT, cip.TypeWORD:
		n, err := toInt64(value)
		if err != nil {
			return err
		}
		if base == cip.TypeINT {
			if n < math.MinInt16 || n > math.MaxInt16 {
				return &plcerr.DataValueError{Reason: fmt.Sprintf("%d out of range for INT", n)}
			}
		} else if n < 0 || n > math.MaxUint16 {
			return &plcerr.DataValueError{Reason: fmt.Sprintf("%d out of range for %s", n, base)}
		}
		binary.LittleEndian.PutUint16(out[off:], uint16(n))
		return nil

	case cip.TypeDINT, cip.TypeUDINT, cip.TypeDWORD:
		n, err := toInt64(value)
		if err != nil {
			return err
		}
		if base == cip.TypeDINT {
			if n < math.MinInt32 || n > math.MaxInt32 {
				return &plcerr.DataValueError{Reason: fmt.Sprintf("%d out of range for DINT", n)}
			}
		} else if n < 0 || n > math.MaxUint32 {
			return &plcerr.DataValueError{Reason: fmt.Sprintf("%d out of range for %s", n, base)}
		}
		binary.LittleEndian.PutUint32(out[off:], uint32(n))
		return nil

	case cip.TypeLINT, cip.TypeULINT, cip.TypeLWORD:
		n, err := toInt64(value)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint64(out[off:], uint64(n))
		return nil

	case cip.TypeREAL:
		f, err := toFloat64(value)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(out[off:], math.Float32bits(float32(f)))
		return nil

	case cip.TypeLREAL:
		f, err := toFloat64(value)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint64(out[off:], math.Float64bits(f))
		return nil

	default:
		return &plcerr.DataValueError{Reason: fmt.Sprintf("unsupported elementary type %s", base)}
	}
}

func (e Elementary) DecodeAt(data []byte, off int) (any, error) {
	base := e.TypeCode.Base()
	if base.IsStringType() {
		return e.decodeString(data, off)
	}

	switch base {
	case cip.TypeBOOL:
		return data[off] != 0, nil
	case cip.TypeSINT:
		return int8(data[off]), nil
	case cip.TypeUSINT, cip.TypeBYTE:
		return data[off], nil
	case cip.TypeINT:
		return int16(binary.LittleEndian.Uint16(data[off:])), nil
	case cip.TypeUINT, cip.TypeWORD:
		return binary.LittleEndian.Uint16(data[off:]), nil
	case cip.TypeDINT:
		return int32(binary.LittleEndian.Uint32(data[off:])), nil
	case cip.TypeUDINT, cip.TypeDWORD:
		return binary.LittleEndian.Uint32(data[off:]), nil
	case cip.TypeLINT:
		return int64(binary.LittleEndian.Uint64(data[off:])), nil
	case cip.TypeULINT, cip.TypeLWORD:
		return binary.LittleEndian.Uint64(data[off:]), nil
	case cip.TypeREAL:
		return math.Float32frombits(binary.LittleEndian.Uint32(data[off:])), nil
	case cip.TypeLREAL:
		return math.Float64frombits(binary.LittleEndian.Uint64(data[off:])), nil
	default:
		return nil, &plcerr.DataValueError{Reason: fmt.Sprintf("unsupported elementary type %s", base)}
	}
}

func (e Elementary) encodeString(out []byte, off int, value any) error {
	s, ok := value.(string)
	if !ok {
		return &plcerr.DataValueError{Reason: fmt.Sprintf("%s expects string, got %T", e.TypeCode.Base(), value)}
	}

	switch e.TypeCode.Base() {
	case cip.TypeSHORT_STRING:
		if len(s) > math.MaxUint8 {
			return &plcerr.DataValueError{Reason: "SHORT_STRING value exceeds 255 bytes"}
		}
		out[off] = byte(len(s))
		copy(out[off+1:], s)
		return nil

	default: // STRING, STRING2, STRINGN, STRINGI treated uniformly as a 16-bit length + buffer
		if e.StringCapacity > 0 && len(s) > e.StringCapacity {
			s = s[:e.StringCapacity] // truncate silently to capacity, matching pycomm3's write behavior
		}
		if len(s) > math.MaxUint16 {
			return &plcerr.DataValueError{Reason: "string value exceeds 65535 bytes"}
		}
		binary.LittleEndian.PutUint16(out[off:], uint16(len(s)))
		copy(out[off+2:], s)
		// remaining capacity bytes are left zeroed in the caller-sized buffer
		return nil
	}
}

func (e Elementary) decodeString(data []byte, off int) (any, error) {
	switch e.TypeCode.Base() {
	case cip.TypeSHORT_STRING:
		if off >= len(data) {
			return nil, &plcerr.DataValueError{Reason: "SHORT_STRING length byte out of bounds"}
		}
		n := int(data[off])
		if off+1+n > len(data) {
			return nil, &plcerr.DataValueError{Reason: "SHORT_STRING data out of bounds"}
		}
		return string(data[off+1 : off+1+n]), nil

	default:
		if off+2 > len(data) {
			return nil, &plcerr.DataValueError{Reason: "string length field out of bounds"}
		}
		n := int(binary.LittleEndian.Uint16(data[off:]))
		if off+2+n > len(data) {
			return nil, &plcerr.DataValueError{Reason: "string data out of bounds"}
		}
		return string(data[off+2 : off+2+n]), nil
	}
}

func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	default:
		return 0, &plcerr.DataValueError{Reason: fmt.Sprintf("expected an integer value, got %T", value)}
	}
}

func toFloat64(value any) (float64, error) {
	switch v := value.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	default:
		n, err := toInt64(value)
		if err == nil {
			return float64(n), nil
		}
		return 0, &plcerr.DataValueError{Reason: fmt.Sprintf("expected a numeric value, got %T", value)}
	}
}
