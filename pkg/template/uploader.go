// Package template implements the tag/template uploader (C5): it walks
// the controller's Symbol Object table, recursively downloads the
// Template Object definition for every structured tag type it finds, and
// builds a pkg/types.Registry plus a flat tag table ready for the
// read/write facade.
package template

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/iceisfun/goeip/internal"
	"github.com/iceisfun/goeip/pkg/cip"
	"github.com/iceisfun/goeip/pkg/plcerr"
	"github.com/iceisfun/goeip/pkg/types"
)

// Requester is the subset of *session.Session / *session.Connection the
// uploader needs; accepting the interface here lets the uploader run over
// either an unconnected session or an established connection without
// importing pkg/session (which would create an import cycle once pkg/plc
// wires both together).
type Requester interface {
	SendCIPRequest(req *cip.MessageRouterRequest) (*cip.MessageRouterResponse, error)
}

// TagDefinition describes one enumerated symbol, resolved against its
// type descriptor in the Registry.
type TagDefinition struct {
	Name       string
	InstanceID uint32
	TypeName   string
	Descriptor types.Descriptor
	IsArray    bool
	IsStruct   bool
}

// Uploader runs the one-time tag/template walk at connection open.
type Uploader struct {
	req      Requester
	registry *types.Registry
	logger   internal.Logger

	mu        sync.Mutex
	templates map[uint32]types.Struct // instance id -> resolved struct, memoized across the whole walk
}

// NewUploader returns an Uploader that will populate registry as it
// discovers structure templates.
func NewUploader(req Requester, registry *types.Registry, logger internal.Logger) *Uploader {
	if logger == nil {
		logger = internal.NopLogger()
	}
	return &Uploader{
		req:       req,
		registry:  registry,
		logger:    logger,
		templates: make(map[uint32]types.Struct),
	}
}

// Upload enumerates every controller-scoped symbol and resolves each to a
// TagDefinition, fetching and registering any structure templates it
// encounters along the way. Program-scoped tags are not included; call
// UploadPrograms for those.
func (u *Uploader) Upload(ctx context.Context) ([]TagDefinition, error) {
	entries, err := u.enumerateSymbols("")
	if err != nil {
		return nil, err
	}
	return u.resolveAll(ctx, entries, "")
}

// UploadPrograms enumerates the controller's user programs via the
// Program Name Object, then re-issues Symbol enumeration rooted at each
// program's own scope, returning every program-scoped tag with its name
// prefixed "Program:<prog>.", per §4.5.
func (u *Uploader) UploadPrograms(ctx context.Context) ([]TagDefinition, error) {
	programs, err := u.enumeratePrograms()
	if err != nil {
		return nil, err
	}

	var all []TagDefinition
	for _, prog := range programs {
		entries, err := u.enumerateSymbols(prog.Name)
		if err != nil {
			return nil, fmt.Errorf("plc: enumerate program %q symbols: %w", prog.Name, err)
		}
		defs, err := u.resolveAll(ctx, entries, prog.Name)
		if err != nil {
			return nil, err
		}
		all = append(all, defs...)
	}
	return all, nil
}

func (u *Uploader) enumeratePrograms() ([]cip.ProgramEntry, error) {
	var all []cip.ProgramEntry
	next := uint32(0)
	for {
		req := cip.NewProgramEnumerationRequest(next)
		resp, err := u.req.SendCIPRequest(req)
		if err != nil {
			return nil, fmt.Errorf("plc: enumerate programs: %w", err)
		}
		if resp.GeneralStatus != cip.StatusSuccess && resp.GeneralStatus != cip.StatusPartialTransfer {
			return nil, plcerr.NewCIPError(resp.GeneralStatus, resp.ExtStatus)
		}
		entries, err := cip.DecodeProgramEnumerationResponse(resp.ResponseData)
		if err != nil {
			return nil, fmt.Errorf("plc: decode program enumeration: %w", err)
		}
		all = append(all, entries...)
		if resp.GeneralStatus == cip.StatusSuccess || len(entries) == 0 {
			break
		}
		next = entries[len(entries)-1].InstanceID + 1
	}
	return all, nil
}

// resolveAll fetches the templates referenced by entries and resolves
// each to a TagDefinition, prefixing Name with "Program:<prog>." when
// prog is non-empty.
func (u *Uploader) resolveAll(ctx context.Context, entries []cip.SymbolEntry, prog string) ([]TagDefinition, error) {

	structInstances := make(map[uint32]struct{})
	for _, e := range entries {
		// The array bit only says the symbol has multiple elements; it is
		// the base type code, not the flag, that names a struct template.
		if isStructType(e.Type) {
			structInstances[cip.TemplateInstanceID(e.Type)] = struct{}{}
		}
	}

	g, _ := errgroup.WithContext(ctx)
	for instanceID := range structInstances {
		instanceID := instanceID
		g.Go(func() error {
			_, err := u.resolveTemplate(instanceID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	defs := make([]TagDefinition, 0, len(entries))
	for _, e := range entries {
		def, err := u.resolveTag(e, prog)
		if err != nil {
			u.logger.Debugf("skipping tag %s: %v", e.Name, err)
			continue
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (u *Uploader) resolveTag(e cip.SymbolEntry, prog string) (TagDefinition, error) {
	name := e.Name
	if prog != "" {
		name = fmt.Sprintf("Program:%s.%s", prog, e.Name)
	}
	def := TagDefinition{Name: name, InstanceID: e.InstanceID, IsArray: e.Type.IsArray()}

	if isStructType(e.Type) {
		s, err := u.resolveTemplate(cip.TemplateInstanceID(e.Type))
		if err != nil {
			return def, err
		}
		def.TypeName = s.Name
		def.Descriptor = s
		def.IsStruct = true
		return def, nil
	}

	d, err := u.registry.Lookup(e.Type.String())
	if err != nil {
		return def, err
	}
	def.TypeName = e.Type.String()
	def.Descriptor = d
	return def, nil
}

// isStructType reports whether a symbol type code names a structure
// template rather than an elementary type.
func isStructType(d cip.DataType) bool {
	_, known := cip.ElementarySize(d)
	return !known && !d.IsStringType()
}

// enumerateSymbols pages through Get_Instance_Attribute_List until the
// controller reports no more data. An empty program enumerates the
// controller scope; otherwise it roots enumeration at that program's own
// symbol scope.
func (u *Uploader) enumerateSymbols(program string) ([]cip.SymbolEntry, error) {
	var all []cip.SymbolEntry
	next := uint32(0)

	for {
		req := cip.NewProgramSymbolEnumerationRequest(program, next)
		resp, err := u.req.SendCIPRequest(req)
		if err != nil {
			return nil, fmt.Errorf("plc: enumerate symbols: %w", err)
		}
		if resp.GeneralStatus != cip.StatusSuccess && resp.GeneralStatus != cip.StatusPartialTransfer {
			return nil, plcerr.NewCIPError(resp.GeneralStatus, resp.ExtStatus)
		}

		entries, err := cip.DecodeSymbolEnumerationResponse(resp.ResponseData)
		if err != nil {
			return nil, fmt.Errorf("plc: decode symbol enumeration: %w", err)
		}
		all = append(all, entries...)

		if resp.GeneralStatus == cip.StatusSuccess {
			break
		}
		if len(entries) == 0 {
			break
		}
		next = entries[len(entries)-1].InstanceID + 1
	}
	return all, nil
}

// resolveTemplate returns the Struct descriptor for a template instance,
// fetching and parsing it on first use.
func (u *Uploader) resolveTemplate(instanceID uint32) (types.Struct, error) {
	u.mu.Lock()
	if s, ok := u.templates[instanceID]; ok {
		u.mu.Unlock()
		return s, nil
	}
	u.mu.Unlock()

	s, err := u.fetchTemplate(instanceID)
	if err != nil {
		return types.Struct{}, err
	}

	u.mu.Lock()
	u.templates[instanceID] = s
	u.mu.Unlock()

	u.registry.Register(s.Name, s)
	return s, nil
}

// isInternalMemberName matches the Logix convention for host fields
// backing bit-aliased BOOLs and alignment padding.
func isInternalMemberName(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, "ZZZZZZZZZZ")
}
