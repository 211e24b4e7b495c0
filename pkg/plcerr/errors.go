// Package plcerr defines the error taxonomy surfaced across the driver: a
// handful of concrete, typed errors instead of opaque errors bubbling up
// from deep inside the codec or planner.
package plcerr

import (
	"fmt"

	"github.com/iceisfun/goeip/pkg/cip"
)

// PathSyntaxError reports a route or tag reference that could not be
// parsed.
type PathSyntaxError struct {
	Input  string
	Reason string
}

func (e *PathSyntaxError) Error() string {
	return fmt.Sprintf("plc: invalid path syntax %q: %s", e.Input, e.Reason)
}

// PathTooLongError reports an encoded EPATH exceeding the per-message path
// limit.
type PathTooLongError struct {
	Length int
	Limit  int
}

func (e *PathTooLongError) Error() string {
	return fmt.Sprintf("plc: encoded path length %d exceeds limit %d", e.Length, e.Limit)
}

// ConnectionError wraps a transport, RegisterSession, or Forward Open
// failure. It is always fatal to the owning driver instance.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("plc: connection error during %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ProtocolFramingError reports a malformed encapsulation header or CPF. It
// invalidates the connection, since partial frames may remain on the wire.
type ProtocolFramingError struct {
	Reason string
}

func (e *ProtocolFramingError) Error() string {
	return fmt.Sprintf("plc: protocol framing error: %s", e.Reason)
}

// CIPError reports a non-zero CIP general status on a single reply.
type CIPError struct {
	Status         cip.USINT
	ExtendedStatus []cip.UINT
}

func (e *CIPError) Error() string {
	if len(e.ExtendedStatus) == 0 {
		return fmt.Sprintf("plc: CIP error 0x%02X: %s", uint8(e.Status), cip.StatusMessage(e.Status))
	}
	return fmt.Sprintf("plc: CIP error 0x%02X: %s (extended: %v)", uint8(e.Status), cip.StatusMessage(e.Status), e.ExtendedStatus)
}

// NewCIPError builds a CIPError from a decoded message router response,
// returning nil if the response indicates success.
func NewCIPError(status cip.USINT, ext []cip.UINT) error {
	if status == cip.StatusSuccess {
		return nil
	}
	return &CIPError{Status: status, ExtendedStatus: ext}
}

// DataValueError reports a value that cannot be encoded into, or decoded
// from, a target CIP type (range, length, or structure mismatch).
type DataValueError struct {
	Reason string
}

func (e *DataValueError) Error() string {
	return fmt.Sprintf("plc: data value error: %s", e.Reason)
}

// TypeLookupError reports an unknown tag name or a missing template.
type TypeLookupError struct {
	Name string
}

func (e *TypeLookupError) Error() string {
	return fmt.Sprintf("plc: unknown tag or type %q", e.Name)
}

// RequestError reports a planner precondition violation, such as an array
// write whose source is shorter than the declared element count.
type RequestError struct {
	Reason string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("plc: invalid request: %s", e.Reason)
}
