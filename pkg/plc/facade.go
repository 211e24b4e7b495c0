package plc

import (
	"fmt"

	"github.com/iceisfun/goeip/pkg/cip"
	"github.com/iceisfun/goeip/pkg/path"
	"github.com/iceisfun/goeip/pkg/planner"
	"github.com/iceisfun/goeip/pkg/plcerr"
	"github.com/iceisfun/goeip/pkg/types"
)

// Tag is one read or write result, carrying the original reference string
// alongside the decoded value (or the write's echoed value) and any error
// specific to that one operation.
type Tag struct {
	Name  string
	Value any
	Type  string
	Err   error
}

// boolDescriptor is the element descriptor for a single addressed BOOL
// array bit: the controller decodes and returns it as a plain BOOL, the
// bit-packed host DWORD never crossing the wire on a read.
var boolDescriptor = types.Elementary{TypeCode: cip.TypeBOOL}

// Read resolves and executes one or more tag references, returning one
// Tag per reference in the same order.
func (d *Driver) Read(refs ...string) []Tag {
	out := make([]Tag, len(refs))
	ops := make([]planner.Operation, len(refs))
	resolved := make([]*resolvedRef, len(refs))
	parsed := make([]*TagReference, len(refs))

	for i, ref := range refs {
		tr, rr, err := d.resolveReference(ref)
		if err != nil {
			out[i] = Tag{Name: ref, Err: err}
			continue
		}
		resolved[i] = rr
		parsed[i] = tr

		symPath, instPath, err := d.buildPaths(tr)
		if err != nil {
			out[i] = Tag{Name: ref, Err: err}
			continue
		}

		descriptor := rr.elem
		if rr.bitArray != nil {
			descriptor = boolDescriptor
		}

		op := planner.ReadOp{Path: symPath, SymbolicPath: nil, Count: uint16(tr.Count), Descriptor: descriptor}
		if instPath != nil {
			op.Path = instPath
			op.SymbolicPath = symPath
		}
		ops[i] = planner.Operation{Read: &op}
	}

	d.executePlanned(ops, out, resolved, parsed, refs)
	return out
}

// Write resolves and executes one or more (reference, value) writes,
// returning one Tag per reference in the same order. A single-bit write
// against a bit-aliased BOOL array routes through Read_Modify_Write_Tag
// instead of a plain Write_Tag, so its sibling bits are left untouched.
func (d *Driver) Write(refs []string, values []any) []Tag {
	out := make([]Tag, len(refs))
	if len(refs) != len(values) {
		for i := range out {
			out[i] = Tag{Name: refs[i], Err: &plcerr.RequestError{Reason: "refs and values length mismatch"}}
		}
		return out
	}

	ops := make([]planner.Operation, len(refs))
	resolved := make([]*resolvedRef, len(refs))
	parsed := make([]*TagReference, len(refs))

	for i, ref := range refs {
		tr, rr, err := d.resolveReference(ref)
		if err != nil {
			out[i] = Tag{Name: ref, Err: err}
			continue
		}
		resolved[i] = rr
		parsed[i] = tr

		if rr.bitArray != nil {
			out[i] = d.writeBit(tr, rr, values[i])
			continue
		}

		encoded, err := encodeWriteValue(rr.elem, tr.Count, values[i])
		if err != nil {
			out[i] = Tag{Name: ref, Err: err}
			continue
		}

		symPath, instPath, err := d.buildPaths(tr)
		if err != nil {
			out[i] = Tag{Name: ref, Err: err}
			continue
		}

		op := planner.WriteOp{Path: symPath, SymbolicPath: nil, DataType: wireTypeCode(rr.elem), Count: uint16(tr.Count), Encoded: encoded}
		if instPath != nil {
			op.Path = instPath
			op.SymbolicPath = symPath
		}
		ops[i] = planner.Operation{Write: &op}
	}

	d.executePlanned(ops, out, resolved, parsed, refs)
	for i, op := range ops {
		if op.Write != nil && out[i].Err == nil {
			out[i].Value = values[i]
		}
	}
	return out
}

// encodeWriteValue encodes value (a single element, or a []any of count
// elements) against elem into a freshly allocated wire buffer.
func encodeWriteValue(elem types.Descriptor, count int, value any) ([]byte, error) {
	encoded := make([]byte, elem.Size()*count)
	if count <= 1 {
		if err := elem.EncodeAt(encoded, 0, value); err != nil {
			return nil, err
		}
		return encoded, nil
	}

	slice, ok := value.([]any)
	if !ok {
		return nil, &plcerr.DataValueError{Reason: fmt.Sprintf("write of %d elements needs a []any, got %T", count, value)}
	}
	if len(slice) != count {
		return nil, &plcerr.RequestError{Reason: fmt.Sprintf("write of %d elements got %d values", count, len(slice))}
	}
	elemSize := elem.Size()
	for i, v := range slice {
		if err := elem.EncodeAt(encoded, i*elemSize, v); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return encoded, nil
}

// wireTypeCode returns the CIP data type code to tag a Write_Tag request
// with, for the elementary/array/struct descriptor being written.
func wireTypeCode(d types.Descriptor) cip.DataType {
	if tc, ok := d.(types.TypeCode); ok {
		return tc.Code()
	}
	return cip.TypeSTRUCT
}

// writeBit flips exactly one bit of a BOOL array's backing host DWORD via
// Read_Modify_Write_Tag, addressing that DWORD by replacing the array
// reference's final subscript with the bit's host-element index.
func (d *Driver) writeBit(tr *TagReference, rr *resolvedRef, value any) Tag {
	v, ok := value.(bool)
	if !ok {
		return Tag{Name: tr.Raw, Err: &plcerr.DataValueError{Reason: fmt.Sprintf("bit write expects bool, got %T", value)}}
	}

	dwordIndex := rr.bitIndex / 32
	bitInWord := uint(rr.bitIndex % 32)

	segs := make([]path.Segment, len(rr.segments))
	copy(segs, rr.segments)
	segs[len(segs)-1].Indices = []int{dwordIndex}

	p, err := path.EncodeTagPath(segs)
	if err != nil {
		return Tag{Name: tr.Raw, Err: err}
	}

	orMask := make([]byte, 4)
	andMask := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	if v {
		orMask[bitInWord/8] |= 1 << (bitInWord % 8)
	} else {
		andMask[bitInWord/8] &^= 1 << (bitInWord % 8)
	}

	req, err := cip.NewReadModifyWriteRequest(p, orMask, andMask)
	if err != nil {
		return Tag{Name: tr.Raw, Err: err}
	}
	resp, err := d.req.SendCIPRequest(req)
	if err != nil {
		return Tag{Name: tr.Raw, Err: &plcerr.ConnectionError{Op: "read modify write tag", Err: err}}
	}
	if resp.GeneralStatus != cip.StatusSuccess {
		return Tag{Name: tr.Raw, Err: plcerr.NewCIPError(resp.GeneralStatus, resp.ExtStatus)}
	}
	return Tag{Name: tr.Raw, Value: v, Type: typeDisplayName("BOOL", tr)}
}

// typeDisplayName appends a "[n]" suffix to base (the element type's bare
// name) whenever the reference's count exceeds 1 or any segment carries a
// subscript, per §4.7's descriptor-name rule.
func typeDisplayName(base string, tr *TagReference) string {
	if tr == nil {
		return base
	}
	subscripted := false
	for _, seg := range tr.Segments {
		if len(seg.Indices) > 0 {
			subscripted = true
			break
		}
	}
	if tr.Count > 1 || subscripted {
		return fmt.Sprintf("%s[%d]", base, tr.Count)
	}
	return base
}

func (d *Driver) resolveReference(ref string) (*TagReference, *resolvedRef, error) {
	tr, err := ParseTagReference(ref)
	if err != nil {
		return nil, nil, err
	}
	def, ok := d.tags[tr.Segments[0].Name]
	if !ok {
		return nil, nil, &plcerr.TypeLookupError{Name: tr.Segments[0].Name}
	}
	rr, err := resolveDescriptor(def.Descriptor, tr.Segments)
	if err != nil {
		return nil, nil, err
	}
	return tr, rr, nil
}

// buildPaths returns the symbolic EPATH for tr and, when instance-id
// addressing is enabled and tr names a controller-scoped tag with no
// member walk, an instance-id EPATH alternative the planner prefers,
// falling back to symbolic on a path-segment-error per §4.6.
func (d *Driver) buildPaths(tr *TagReference) (symbolic, instance cip.Path, err error) {
	symbolic, err = path.EncodeTagPath(tr.Segments)
	if err != nil {
		return nil, nil, err
	}
	if !d.opts.UseInstanceIDs || d.Info.IsMicro800 || len(tr.Segments) != 1 {
		return symbolic, nil, nil
	}
	def, ok := d.tags[tr.Segments[0].Name]
	if !ok {
		return symbolic, nil, nil
	}
	instance = path.EncodeInstancePath(def.InstanceID)
	return symbolic, instance, nil
}

// executePlanned runs every still-pending operation (entries left with
// neither Read nor Write set correspond to already-failed resolutions)
// through the planner and fills in out with the decoded results.
func (d *Driver) executePlanned(ops []planner.Operation, out []Tag, resolved []*resolvedRef, parsed []*TagReference, refs []string) {
	pending := make([]int, 0, len(ops))
	pendingOps := make([]planner.Operation, 0, len(ops))
	for i, op := range ops {
		if op.Read == nil && op.Write == nil {
			continue
		}
		pending = append(pending, i)
		pendingOps = append(pendingOps, op)
	}
	if len(pendingOps) == 0 {
		return
	}

	results, err := d.pl.Execute(pendingOps)
	if err != nil {
		for _, i := range pending {
			out[i] = Tag{Name: refs[i], Err: err}
		}
		return
	}

	for j, i := range pending {
		r := results[j]
		typeName := ""
		if resolved[i] != nil && resolved[i].elem != nil {
			if tc, ok := resolved[i].elem.(types.TypeCode); ok {
				typeName = typeDisplayName(tc.Code().Base().String(), parsed[i])
			}
		}
		out[i] = Tag{Name: refs[i], Value: r.Value, Type: typeName, Err: r.Err}
	}
}
