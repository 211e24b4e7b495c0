package plc

import (
	"fmt"

	"github.com/iceisfun/goeip/pkg/path"
	"github.com/iceisfun/goeip/pkg/plcerr"
	"github.com/iceisfun/goeip/pkg/types"
)

// resolvedRef is a tag reference fully resolved against the tag table: the
// segments with any omitted array subscript defaulted to [0], the
// wire-level element descriptor to encode/decode, and whether that element
// is itself an Array. bitArray and bitIndex are set when the final segment
// addresses one bit of a bit-aliased BOOL array, which the facade writes
// through Read_Modify_Write_Tag instead of a plain typed write.
type resolvedRef struct {
	segments []path.Segment
	elem     types.Descriptor
	isArray  bool
	bitArray *types.BoolArray
	bitIndex int
}

// resolveDescriptor walks a tag reference's member chain against root
// (the tag's declared type), applying the omitted-index-defaults-to-[0]
// rule to whichever segment ends up addressing an Array, and returns the
// element-level descriptor the wire reply/write value will be encoded as.
func resolveDescriptor(root types.Descriptor, segs []path.Segment) (*resolvedRef, error) {
	if len(segs) == 0 {
		return nil, &plcerr.PathSyntaxError{Reason: "empty tag reference"}
	}

	out := make([]path.Segment, len(segs))
	copy(out, segs)

	d := root
	var bitArray *types.BoolArray
	bitIndex := 0

	for i := range out {
		last := i == len(out)-1

		switch t := d.(type) {
		case types.Array:
			if len(out[i].Indices) == 0 {
				out[i].Indices = []int{0}
			}
			d = t.Element
		case types.BoolArray:
			if len(out[i].Indices) == 0 {
				out[i].Indices = []int{0}
			}
			if last {
				bitArray = &t
				bitIndex = out[i].Indices[0]
			}
		default:
			if len(out[i].Indices) > 0 {
				return nil, &plcerr.PathSyntaxError{Reason: fmt.Sprintf("segment %q takes a subscript but is not an array", out[i].Name)}
			}
		}

		if last {
			break
		}

		s, ok := d.(types.Struct)
		if !ok {
			return nil, &plcerr.PathSyntaxError{Reason: fmt.Sprintf("segment %q has no member %q: not a structure", out[i].Name, out[i+1].Name)}
		}
		member, err := memberByName(s, out[i+1].Name)
		if err != nil {
			return nil, err
		}
		d = member.Descriptor
	}

	_, isArray := d.(types.Array)
	return &resolvedRef{segments: out, elem: d, isArray: isArray, bitArray: bitArray, bitIndex: bitIndex}, nil
}

func memberByName(s types.Struct, name string) (types.Member, error) {
	for _, m := range s.Members {
		if m.Name == name {
			return m, nil
		}
	}
	return types.Member{}, &plcerr.TypeLookupError{Name: s.Name + "." + name}
}
