package template

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/iceisfun/goeip/pkg/cip"
	"github.com/iceisfun/goeip/pkg/types"
)

// memberRecordSize is the fixed width of one member record in a Template
// Object's definition block: type code, additional info, byte offset.
const memberRecordSize = 8

// rawMember is one fixed-size record from the template body, before its
// name has been matched up from the trailing name blob.
type rawMember struct {
	TypeCode cip.DataType
	Info     uint16
	Offset   uint32
}

// parseTemplateBody splits a Read Template byte block into its member
// records and trailing NUL-terminated name blob, per the member-count
// already known from the template header.
func parseTemplateBody(data []byte, memberCount int) ([]rawMember, []string, error) {
	recordsLen := memberCount * memberRecordSize
	if len(data) < recordsLen {
		return nil, nil, fmt.Errorf("plc: template body: have %d bytes, need at least %d for %d member records", len(data), recordsLen, memberCount)
	}

	records := make([]rawMember, memberCount)
	for i := 0; i < memberCount; i++ {
		rec := data[i*memberRecordSize : (i+1)*memberRecordSize]
		records[i] = rawMember{
			TypeCode: cip.DataType(binary.LittleEndian.Uint16(rec[0:2])),
			Info:     binary.LittleEndian.Uint16(rec[2:4]),
			Offset:   binary.LittleEndian.Uint32(rec[4:8]),
		}
	}

	nameBlob := data[recordsLen:]
	// Strip a trailing NUL the controller sometimes pads the block with
	// before splitting, so we don't emit a spurious empty trailing name.
	nameBlob = []byte(strings.TrimRight(string(nameBlob), "\x00"))
	names := strings.Split(string(nameBlob), "\x00")

	// names[0] is "TemplateName;TypeSpec" or, for anonymous UDTs produced by
	// AOI definitions, just the template name; one name per member follows.
	if len(names) < memberCount+1 {
		return nil, nil, fmt.Errorf("plc: template body: have %d names, need %d member names plus the template name", len(names), memberCount)
	}
	return records, names, nil
}

// templateDisplayName extracts the bare template name from the
// "TemplateName;TypeSpec" leading entry of the name blob.
func templateDisplayName(nameAndSpec string) string {
	if i := strings.IndexByte(nameAndSpec, ';'); i >= 0 {
		return nameAndSpec[:i]
	}
	return nameAndSpec
}

// buildMembers resolves raw member records into types.Member values,
// recursing into nested struct templates via resolve, and applying the
// internal-member-hiding and bit-aliased-BOOL conventions.
func (u *Uploader) buildMembers(records []rawMember, names []string) ([]types.Member, error) {
	members := make([]types.Member, 0, len(records))

	for i, rec := range records {
		name := names[i+1]
		hidden := isInternalMemberName(name)

		if rec.TypeCode.Base() == cip.TypeBOOL && !rec.TypeCode.IsArray() && rec.Info < 32 {
			members = append(members, types.Member{
				Name:       name,
				ByteOffset: int(rec.Offset),
				BitOffset:  int(rec.Info),
				HostSize:   4,
				Hidden:     hidden,
			})
			continue
		}

		elemDescriptor, err := u.descriptorFor(rec.TypeCode)
		if err != nil {
			return nil, fmt.Errorf("plc: member %q: %w", name, err)
		}

		descriptor := elemDescriptor
		// Info counts array elements for any non-bit-aliased member; a
		// scalar member simply carries Info==1.
		if rec.Info > 1 {
			descriptor = types.Array{Element: elemDescriptor, Kind: types.LengthFixed, FixedN: int(rec.Info)}
		}

		members = append(members, types.Member{
			Name:       name,
			Descriptor: descriptor,
			ByteOffset: int(rec.Offset),
			BitOffset:  -1,
			Hidden:     hidden,
		})
	}

	return members, nil
}

// descriptorFor resolves one member's type code to a Descriptor, fetching
// and recursing into a nested struct template when the code does not name
// an elementary or string type.
func (u *Uploader) descriptorFor(code cip.DataType) (types.Descriptor, error) {
	if code.IsStringType() {
		return types.Elementary{TypeCode: code.Base(), StringCapacity: 82}, nil
	}
	if _, ok := cip.ElementarySize(code); ok {
		return types.Elementary{TypeCode: code.Base()}, nil
	}

	nested, err := u.resolveTemplate(cip.TemplateInstanceID(code))
	if err != nil {
		return nil, fmt.Errorf("nested template %d: %w", cip.TemplateInstanceID(code), err)
	}
	return nested, nil
}
