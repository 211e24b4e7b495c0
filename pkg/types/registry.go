package types

import (
	"sync"

	"github.com/iceisfun/goeip/pkg/cip"
	"github.com/iceisfun/goeip/pkg/plcerr"
)

// Registry holds the type classes known to an open driver instance: the
// fixed elementary codes plus whatever struct classes the template
// uploader (pkg/template) downloads and registers by name. It may be
// transplanted wholesale onto another driver instance to skip the upload
// cost on a second connection to the same program.
type Registry struct {
	mu    sync.RWMutex
	named map[string]Descriptor
}

// NewRegistry returns a Registry preloaded with the builtin elementary
// types and the Rockwell builtin structures (TIMER, COUNTER, CONTROL).
func NewRegistry() *Registry {
	r := &Registry{named: make(map[string]Descriptor)}
	for name, d := range elementaryBuiltins() {
		r.named[name] = d
	}
	for name, d := range structBuiltins() {
		r.named[name] = d
	}
	return r
}

// Register adds or replaces a named type class, as the template uploader
// does once per UDT/AOI discovered in the controller's Symbol table.
func (r *Registry) Register(name string, d Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.named[name] = d
}

// Lookup resolves a type name (e.g. "DINT", "TIMER", or a UDT name) to its
// Descriptor.
func (r *Registry) Lookup(name string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.named[name]
	if !ok {
		return nil, &plcerr.TypeLookupError{Name: name}
	}
	return d, nil
}

// Snapshot returns a copy of the registry's named entries, for
// transplanting onto another driver instance.
func (r *Registry) Snapshot() map[string]Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Descriptor, len(r.named))
	for k, v := range r.named {
		out[k] = v
	}
	return out
}

// LoadSnapshot replaces the registry's contents with a previously taken
// Snapshot.
func (r *Registry) LoadSnapshot(snap map[string]Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.named = make(map[string]Descriptor, len(snap))
	for k, v := range snap {
		r.named[k] = v
	}
}

func elementaryBuiltins() map[string]Descriptor {
	codes := map[string]cip.DataType{
		"BOOL":         cip.TypeBOOL,
		"SINT":         cip.TypeSINT,
		"INT":          cip.TypeINT,
		"DINT":         cip.TypeDINT,
		"LINT":         cip.TypeLINT,
		"USINT":        cip.TypeUSINT,
		"UINT":         cip.TypeUINT,
		"UDINT":        cip.TypeUDINT,
		"ULINT":        cip.TypeULINT,
		"REAL":         cip.TypeREAL,
		"LREAL":        cip.TypeLREAL,
		"BYTE":         cip.TypeBYTE,
		"WORD":         cip.TypeWORD,
		"DWORD":        cip.TypeDWORD,
		"LWORD":        cip.TypeLWORD,
		"STRING":       cip.TypeSTRING,
		"SHORT_STRING": cip.TypeSHORT_STRING,
	}
	out := make(map[string]Descriptor, len(codes))
	for name, code := range codes {
		d := Elementary{TypeCode: code}
		if code.Base() == cip.TypeSTRING {
			d.StringCapacity = 82 // Logix's default STRING member capacity
		}
		out[name] = d
	}
	return out
}

// statusBit describes one BOOL flag bit-aliased into a builtin's status
// DWORD, mirroring the layout pkg/cip's Timer/Counter convenience types
// decode directly.
type statusBit struct {
	name string
	bit  int
}

func timerLikeStruct(name string, bits []statusBit) Struct {
	members := []Member{
		{Name: "_reserved", Descriptor: Elementary{TypeCode: cip.TypeINT}, ByteOffset: 0, BitOffset: -1, HostSize: 0, Hidden: true},
	}
	for _, b := range bits {
		members = append(members, Member{
			Name: b.name, ByteOffset: 2, BitOffset: b.bit, HostSize: 4,
		})
	}
	members = append(members,
		Member{Name: "PRE", Descriptor: Elementary{TypeCode: cip.TypeDINT}, ByteOffset: 6, BitOffset: -1},
		Member{Name: "ACC", Descriptor: Elementary{TypeCode: cip.TypeDINT}, ByteOffset: 10, BitOffset: -1},
	)
	return Struct{Name: name, Members: members, TotalSize: 14}
}

// structBuiltins returns the Rockwell builtin structures driver code may
// encounter without an explicit UDT download: TIMER, COUNTER, CONTROL.
// TIMER and COUNTER decode/encode through pkg/cip's concrete Timer/Counter
// types, the authoritative decoders for their 14-byte memory layout (reserved
// INT, status DINT, PRE DINT, ACC DINT); CONTROL has no such concrete type in
// pkg/cip, so it is described generically against the same layout.
func structBuiltins() map[string]Descriptor {
	control := timerLikeStruct("CONTROL", []statusBit{
		{"EN", 31}, {"EU", 30}, {"DN", 29}, {"EM", 28}, {"ER", 27}, {"UL", 26}, {"IN", 25}, {"FD", 24},
	})
	return map[string]Descriptor{
		"TIMER":   timerDescriptor{},
		"COUNTER": counterDescriptor{},
		"CONTROL": control,
	}
}
