package types

import (
	"fmt"

	"github.com/iceisfun/goeip/pkg/cip"
	"github.com/iceisfun/goeip/pkg/plcerr"
)

// LengthKind selects how an Array's element count is determined.
type LengthKind int

const (
	LengthFixed LengthKind = iota
	LengthPrefixed
	LengthUnbounded
)

// Array describes a homogeneous sequence of a non-BOOL element type. BOOL
// arrays are bit-packed into host DWORDs and use BoolArray instead.
type Array struct {
	Element    Descriptor
	Kind       LengthKind
	FixedN     int        // element count for LengthFixed
	PrefixType Descriptor // length-prefix descriptor for LengthPrefixed (e.g. Elementary{TypeUDINT})
}

// Code returns the element type's code with the array bit set, for
// tagging a Write_Tag request that targets this array as a whole. Falls
// back to the generic structure code if Element does not itself carry a
// type code (only builtin elementary and template-backed element types
// do).
func (a Array) Code() cip.DataType {
	tc, ok := a.Element.(TypeCode)
	if !ok {
		return cip.TypeSTRUCT
	}
	return tc.Code() | 0x8000
}

func (a Array) Size() int {
	switch a.Kind {
	case LengthFixed:
		es := a.Element.Size()
		if es < 0 {
			return -1
		}
		return es * a.FixedN
	default:
		return -1
	}
}

// EncodeAt encodes values, a []any of element values. Fixed arrays
// truncate a longer input and fail on a shorter one, per the write-whole
// semantics the controller expects.
func (a Array) EncodeAt(out []byte, off int, value any) error {
	values, ok := value.([]any)
	if !ok {
		return &plcerr.DataValueError{Reason: fmt.Sprintf("array expects []any, got %T", value)}
	}

	es := a.Element.Size()
	if es < 0 {
		return &plcerr.DataValueError{Reason: "array element type has no fixed size"}
	}

	switch a.Kind {
	case LengthFixed:
		if len(values) < a.FixedN {
			return &plcerr.DataValueError{Reason: fmt.Sprintf("array write supplies %d elements, need %d", len(values), a.FixedN)}
		}
		for i := 0; i < a.FixedN; i++ {
			if err := a.Element.EncodeAt(out, off+i*es, values[i]); err != nil {
				return err
			}
		}
		return nil

	case LengthPrefixed:
		if err := a.PrefixType.EncodeAt(out, off, int64(len(values))); err != nil {
			return err
		}
		base := off + a.PrefixType.Size()
		for i, v := range values {
			if err := a.Element.EncodeAt(out, base+i*es, v); err != nil {
				return err
			}
		}
		return nil

	case LengthUnbounded:
		for i, v := range values {
			if err := a.Element.EncodeAt(out, off+i*es, v); err != nil {
				return err
			}
		}
		return nil

	default:
		return &plcerr.DataValueError{Reason: "unknown array length kind"}
	}
}

func (a Array) DecodeAt(data []byte, off int) (any, error) {
	es := a.Element.Size()
	if es < 0 {
		return nil, &plcerr.DataValueError{Reason: "array element type has no fixed size"}
	}

	switch a.Kind {
	case LengthFixed:
		out := make([]any, a.FixedN)
		for i := 0; i < a.FixedN; i++ {
			v, err := a.Element.DecodeAt(data, off+i*es)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case LengthPrefixed:
		n, err := a.PrefixType.DecodeAt(data, off)
		if err != nil {
			return nil, err
		}
		count, cerr := toInt64(n)
		if cerr != nil {
			return nil, cerr
		}
		base := off + a.PrefixType.Size()
		out := make([]any, count)
		for i := int64(0); i < count; i++ {
			v, err := a.Element.DecodeAt(data, base+int(i)*es)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case LengthUnbounded:
		var out []any
		for pos := off; pos+es <= len(data); pos += es {
			v, err := a.Element.DecodeAt(data, pos)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	default:
		return nil, &plcerr.DataValueError{Reason: "unknown array length kind"}
	}
}

// BoolArray describes a BOOL[N] tag, physically a DWORD[ceil(N/32)] on the
// wire. N is the declared element count, not the host DWORD count.
type BoolArray struct {
	N int
}

// Code reports BOOL[] since a BoolArray is always a declared BOOL array.
func (b BoolArray) Code() cip.DataType { return cip.TypeBOOL | 0x8000 }

func (b BoolArray) dwordCount() int { return (b.N + 31) / 32 }

func (b BoolArray) Size() int { return b.dwordCount() * 4 }

// EncodeAt encodes the entire array (value is []bool of length N).
func (b BoolArray) EncodeAt(out []byte, off int, value any) error {
	bits, ok := value.([]bool)
	if !ok {
		return &plcerr.DataValueError{Reason: fmt.Sprintf("BOOL array expects []bool, got %T", value)}
	}
	if len(bits) != b.N {
		return &plcerr.DataValueError{Reason: fmt.Sprintf("BOOL array write supplies %d elements, need %d", len(bits), b.N)}
	}
	for i, v := range bits {
		if v {
			out[off+i/8] |= 1 << uint(i%8)
		} else {
			out[off+i/8] &^= 1 << uint(i%8)
		}
	}
	return nil
}

func (b BoolArray) DecodeAt(data []byte, off int) (any, error) {
	return b.ReadRange(data, off, 0, b.N)
}

// ReadRange returns count bool values starting at global bit index start,
// from the BOOL[N] array's backing bytes beginning at off.
func (b BoolArray) ReadRange(data []byte, off, start, count int) ([]bool, error) {
	if start < 0 || count < 0 || start+count > b.N {
		return nil, &plcerr.DataValueError{Reason: "BOOL array read out of bounds"}
	}
	out := make([]bool, count)
	for i := 0; i < count; i++ {
		bit := start + i
		out[i] = data[off+bit/8]&(1<<uint(bit%8)) != 0
	}
	return out, nil
}

// WriteRange writes count bool values starting at global bit index start.
// Per the write-whole-DWORD constraint, writing more than one bit requires
// both start and count to be multiples of 32; a single-bit write is always
// allowed (callers serialize this as a read-modify-write).
func (b BoolArray) WriteRange(data []byte, off, start int, values []bool) error {
	count := len(values)
	if start < 0 || start+count > b.N {
		return &plcerr.DataValueError{Reason: "BOOL array write out of bounds"}
	}
	if count > 1 && (start%32 != 0 || count%32 != 0) {
		return &plcerr.RequestError{Reason: "multi-bit BOOL array writes must start and count in multiples of 32"}
	}
	for i, v := range values {
		bit := start + i
		if v {
			data[off+bit/8] |= 1 << uint(bit%8)
		} else {
			data[off+bit/8] &^= 1 << uint(bit%8)
		}
	}
	return nil
}
