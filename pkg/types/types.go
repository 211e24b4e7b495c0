// Package types implements the CIP type system: descriptors that encode
// and decode Go values against byte offsets in a wire buffer, built up
// from elementary types into arrays and arbitrarily nested structures
// whose layout is only known at runtime (downloaded from the controller
// as a Template, see pkg/template).
package types

import (
	"github.com/iceisfun/goeip/pkg/cip"
)

// Descriptor is a value that knows how to encode a Go value into, and
// decode one out of, a fixed region of a wire buffer. Every concrete
// variant (Elementary, Array, BoolArray, Struct) implements it.
type Descriptor interface {
	// EncodeAt writes value into out[off:off+Size()]. out must already be
	// sized to at least off+Size(); structs rely on this to let sibling
	// members and bit-aliased BOOLs share a buffer.
	EncodeAt(out []byte, off int, value any) error

	// DecodeAt reads a value from data[off:off+Size()].
	DecodeAt(data []byte, off int) (any, error)

	// Size returns the descriptor's fixed wire size in bytes, or -1 if the
	// size depends on the value being encoded (unbounded arrays, standalone
	// counted strings).
	Size() int
}

// TypeCode is implemented by descriptors that correspond directly to a
// CIP data type code, for describing a member's type in a template.
type TypeCode interface {
	Code() cip.DataType
}
