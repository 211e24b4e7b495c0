// Package plc implements the read/write facade (C7), generic messaging
// (C8), and the top-level Driver that composes session management, tag
// upload, and request planning into pycomm3-style open/read/write calls.
package plc

import (
	"context"
	"fmt"
	"time"

	"github.com/iceisfun/goeip/internal"
	"github.com/iceisfun/goeip/pkg/cip"
	"github.com/iceisfun/goeip/pkg/path"
	"github.com/iceisfun/goeip/pkg/planner"
	"github.com/iceisfun/goeip/pkg/plcerr"
	"github.com/iceisfun/goeip/pkg/session"
	"github.com/iceisfun/goeip/pkg/template"
	"github.com/iceisfun/goeip/pkg/transport"
	"github.com/iceisfun/goeip/pkg/types"
)

// Info is the driver-level summary populated at Open, mirroring what
// pycomm3 exposes as a driver's .info property. Open fills it from the
// Identity Object only; ProgramName is not populated and stays empty.
type Info struct {
	VendorID     uint16
	ProductCode  uint16
	ProductName  string
	SerialNumber uint32
	Revision     string
	IsMicro800   bool
	ProgramName  string
}

// Options configures Open.
type Options struct {
	Route             string // human route grammar; empty dials the host directly
	Timeout           time.Duration
	ConnectionSize    int // 0 selects the driver default (500 bytes); a refused size is not retried
	UseInstanceIDs    bool
	UploadProgramTags bool
	Logger            internal.Logger
}

// Driver is one open connection to a controller: transport, session,
// optional Forward_Open'd connection, uploaded tag table, and the
// planner that packs/fragments requests against it.
type Driver struct {
	opts     Options
	logger   internal.Logger
	t        *transport.TCPTransport
	sess     *session.Session
	conn     *session.Connection
	registry *types.Registry
	tags     map[string]template.TagDefinition
	pl       *planner.Planner
	req      requester // whichever of sess/conn Open established; used by the facade's Read_Modify_Write_Tag path

	Info Info
}

// requester is satisfied by both *session.Session (unconnected) and
// *session.Connection (connected); Driver picks whichever Open
// established.
type requester interface {
	SendCIPRequest(req *cip.MessageRouterRequest) (*cip.MessageRouterResponse, error)
}

// Open dials address, registers an EtherNet/IP session, negotiates a
// connected-messaging connection (skipped for Micro800, which does not
// support it), and uploads the controller's tag table.
func Open(ctx context.Context, address string, opts Options) (*Driver, error) {
	if opts.Logger == nil {
		opts.Logger = internal.NopLogger()
	}

	t, err := transport.NewTCPTransport(address, opts.Timeout)
	if err != nil {
		return nil, err
	}

	sess := session.NewSession(t, opts.Logger)
	if err := sess.Register(); err != nil {
		t.Close()
		return nil, &plcerr.ConnectionError{Op: "register session", Err: err}
	}

	d := &Driver{
		opts:     opts,
		logger:   opts.Logger,
		t:        t,
		sess:     sess,
		registry: types.NewRegistry(),
		tags:     make(map[string]template.TagDefinition),
	}

	if err := d.fetchInfo(); err != nil {
		d.Close()
		return nil, err
	}

	connPath, err := d.connectionPath()
	if err != nil {
		d.Close()
		return nil, err
	}

	var req requester = sess
	if !d.Info.IsMicro800 {
		conn, err := sess.ForwardOpen(connPath, opts.ConnectionSize, 0)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.conn = conn
		req = conn
	}

	d.req = req

	ot, to := defaultBudgetSizes(opts.ConnectionSize)
	if d.conn != nil {
		ot, to = d.conn.NegotiatedSize()
	}
	d.pl = planner.New(req, planner.NewBudget(ot, to))

	up := template.NewUploader(req, d.registry, opts.Logger)
	defs, err := up.Upload(ctx)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("plc: upload tags: %w", err)
	}
	for _, def := range defs {
		d.tags[def.Name] = def
	}

	if opts.UploadProgramTags {
		progDefs, err := up.UploadPrograms(ctx)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("plc: upload program tags: %w", err)
		}
		for _, def := range progDefs {
			d.tags[def.Name] = def
		}
	}

	return d, nil
}

// connectionPath resolves the Options.Route grammar (if any) to an EPATH
// ending at the Message Router, the target of Forward_Open.
func (d *Driver) connectionPath() (cip.Path, error) {
	if d.opts.Route == "" {
		p := cip.NewPath()
		p.AddClass(cip.ClassMessageRouter)
		p.AddInstance(1)
		return p, nil
	}
	return path.ParseRoute(d.opts.Route)
}

func defaultBudgetSizes(requested int) (int, int) {
	if requested <= 0 {
		requested = 500
	}
	return requested, requested
}

func (d *Driver) fetchInfo() error {
	req := cip.NewIdentityAttributesRequest()
	resp, err := d.sess.SendCIPRequest(req)
	if err != nil {
		return &plcerr.ConnectionError{Op: "read identity", Err: err}
	}
	if resp.GeneralStatus != cip.StatusSuccess {
		return plcerr.NewCIPError(resp.GeneralStatus, resp.ExtStatus)
	}
	ident, err := cip.DecodeIdentityAttributesResponse(resp.ResponseData)
	if err != nil {
		return err
	}

	d.Info = Info{
		VendorID:     ident.VendorID,
		ProductCode:  ident.ProductCode,
		ProductName:  ident.ProductName,
		SerialNumber: ident.SerialNumber,
		Revision:     revisionString(ident.Revision),
		IsMicro800:   ident.IsMicro800(),
	}
	return nil
}

// revisionString renders a [major, minor] revision pair the way pycomm3's
// info dict does, e.g. "20.11".
func revisionString(rev [2]byte) string {
	return fmt.Sprintf("%d.%d", rev[0], rev[1])
}

// Tags returns the uploaded tag table's definitions, in no particular
// order, mirroring pycomm3's get_tag_list().
func (d *Driver) Tags() []template.TagDefinition {
	out := make([]template.TagDefinition, 0, len(d.tags))
	for _, def := range d.tags {
		out = append(out, def)
	}
	return out
}

// DataTypes returns the registry's known type names, controller-builtin
// elementary/Rockwell types plus every UDT/AOI template discovered during
// upload.
func (d *Driver) DataTypes() map[string]types.Descriptor {
	return d.registry.Snapshot()
}

// Close tears down the connected-messaging connection (best-effort),
// unregisters the session, and closes the transport.
func (d *Driver) Close() error {
	if d.conn != nil {
		d.conn.Close() // best-effort; the session teardown below still proceeds
	}
	if d.sess != nil {
		d.sess.Unregister()
	}
	if d.t != nil {
		return d.t.Close()
	}
	return nil
}
