package path

import (
	"github.com/iceisfun/goeip/pkg/cip"
	"github.com/iceisfun/goeip/pkg/plcerr"
)

// Segment is one dotted element of a resolved tag reference: a symbolic
// name plus any array subscripts applied directly to it
// ("Array[3]" -> Segment{Name: "Array", Indices: []int{3}}).
type Segment struct {
	Name    string
	Indices []int
}

// EncodeTagPath builds the ANSI Extended Symbolic EPATH for a resolved,
// dotted tag reference: one symbolic segment per Segment.Name, followed by
// a logical member segment per subscript.
func EncodeTagPath(segments []Segment) (cip.Path, error) {
	p := cip.NewPath()
	for _, seg := range segments {
		p.AddSymbolicSegment(seg.Name)
		for _, idx := range seg.Indices {
			p.AddMember(cip.UINT(idx))
		}
	}
	if len(p) > PathWordLimit*2 {
		return nil, &plcerr.PathTooLongError{Length: len(p), Limit: PathWordLimit * 2}
	}
	return p, nil
}

// EncodeInstancePath builds a Class/Instance EPATH for instance-id
// addressing mode (controller-scoped tags on firmware that supports it).
func EncodeInstancePath(instanceID uint32) cip.Path {
	p := cip.NewPath()
	p.AddClass(cip.UINT(0x6B)) // Symbol Object
	p.AddInstance32(instanceID)
	return p
}
