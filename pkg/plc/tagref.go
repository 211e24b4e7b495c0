package plc

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/iceisfun/goeip/pkg/path"
	"github.com/iceisfun/goeip/pkg/plcerr"
)

// countSuffixPattern matches the trailing "{count}" of a tag reference.
var countSuffixPattern = regexp.MustCompile(`^(.*)\{(\d+)\}$`)

// subscriptPattern matches one dotted segment's optional "[i,j,k]"
// subscript (1 to 3 comma-separated non-negative integers).
var subscriptPattern = regexp.MustCompile(`^([^.\[\]]+)(?:\[(\d+)(?:,(\d+))?(?:,(\d+))?\])?$`)

// TagReference is a parsed "name(.member)*([i(,j(,k)?)?])?({count})?"
// reference, ready to be resolved against the uploaded tag table.
type TagReference struct {
	Raw      string
	Segments []path.Segment
	Count    int
}

// ParseTagReference parses the read/write facade's tag grammar. An
// omitted count defaults to 1; an omitted subscript is left empty here
// and defaulted to [0] by the caller once the tag's declared type is
// known (only arrays need a default index at all).
func ParseTagReference(ref string) (*TagReference, error) {
	body := ref
	count := 1

	if m := countSuffixPattern.FindStringSubmatch(ref); m != nil {
		body = m[1]
		n, err := strconv.Atoi(m[2])
		if err != nil || n <= 0 {
			return nil, &plcerr.PathSyntaxError{Input: ref, Reason: "count must be a positive integer"}
		}
		count = n
	}
	if body == "" {
		return nil, &plcerr.PathSyntaxError{Input: ref, Reason: "empty tag reference"}
	}

	parts := strings.Split(body, ".")
	segments := make([]path.Segment, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, &plcerr.PathSyntaxError{Input: ref, Reason: "empty segment between dots"}
		}
		m := subscriptPattern.FindStringSubmatch(part)
		if m == nil {
			return nil, &plcerr.PathSyntaxError{Input: ref, Reason: "malformed segment " + strconv.Quote(part)}
		}

		seg := path.Segment{Name: m[1]}
		for _, raw := range m[2:] {
			if raw == "" {
				continue
			}
			idx, err := strconv.Atoi(raw)
			if err != nil {
				return nil, &plcerr.PathSyntaxError{Input: ref, Reason: "malformed index in " + strconv.Quote(part)}
			}
			seg.Indices = append(seg.Indices, idx)
		}
		segments = append(segments, seg)
	}

	return &TagReference{Raw: ref, Segments: segments, Count: count}, nil
}

// String renders the reference back in the tag grammar: the dotted path
// with each segment's subscripts as "[i,j]", plus a "{n}" count suffix
// when count exceeds 1.
func (t *TagReference) String() string {
	var b strings.Builder
	for i, seg := range t.Segments {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg.Name)
		for j, idx := range seg.Indices {
			if j == 0 {
				b.WriteByte('[')
			} else {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(idx))
			if j == len(seg.Indices)-1 {
				b.WriteByte(']')
			}
		}
	}
	if t.Count > 1 {
		b.WriteString("{")
		b.WriteString(strconv.Itoa(t.Count))
		b.WriteString("}")
	}
	return b.String()
}
