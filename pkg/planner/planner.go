// Package planner implements the request planner (C6): it turns an
// ordered list of tag read/write operations into the fewest possible wire
// requests that fit the negotiated connection's payload budget, falling
// back to fragmented single-tag requests for anything too big to share a
// Multiple Service Packet.
package planner

import (
	"fmt"

	"github.com/iceisfun/goeip/pkg/cip"
	"github.com/iceisfun/goeip/pkg/plcerr"
	"github.com/iceisfun/goeip/pkg/types"
)

// Requester is the subset of *session.Session / *session.Connection the
// planner needs to send a built request and get back a decoded reply.
type Requester interface {
	SendCIPRequest(req *cip.MessageRouterRequest) (*cip.MessageRouterResponse, error)
}

// Fixed framing overhead subtracted from the negotiated connection size to
// get the usable payload budget: encapsulation header (24), CPF item
// framing for a connected/unconnected data item (~16), and the Multiple
// Service Packet's own service+path+count header (~8).
const (
	encapAndCPFOverhead  = 40
	multiServiceOverhead = 8
	perEntryOffsetBytes  = 2
	readReplyHeader      = 6 // reply service + status + type code
	writeReplyHeader     = 4 // reply service + status
)

// Budget is the usable request/reply payload ceiling for one Multiple
// Service Packet, derived from the connection's negotiated O->T and T->O
// sizes.
type Budget struct {
	RequestBytes int
	ReplyBytes   int
}

// NewBudget derives a Budget from the negotiated connection sizes (O->T
// bounds what the planner may send, T->O bounds what it may ask back).
func NewBudget(otSize, toSize int) Budget {
	b := Budget{
		RequestBytes: otSize - encapAndCPFOverhead - multiServiceOverhead,
		ReplyBytes:   toSize - encapAndCPFOverhead - multiServiceOverhead,
	}
	if b.RequestBytes < 0 {
		b.RequestBytes = 0
	}
	if b.ReplyBytes < 0 {
		b.ReplyBytes = 0
	}
	return b
}

// ReadOp reads Count elements (or, for a struct descriptor, Count struct
// instances) starting at Path. SymbolicPath, if non-nil, is retried once
// in place of Path on a path-segment-error reply.
type ReadOp struct {
	Path         cip.Path
	SymbolicPath cip.Path
	Count        uint16
	Descriptor   types.Descriptor
}

// WriteOp writes an already-encoded value of DataType to Path.
type WriteOp struct {
	Path         cip.Path
	SymbolicPath cip.Path
	DataType     cip.DataType
	Count        uint16
	Encoded      []byte
}

// Operation is exactly one of Read or Write.
type Operation struct {
	Read  *ReadOp
	Write *WriteOp
}

// Result is the outcome of one planned operation, in input order.
type Result struct {
	Value any
	Err   error
}

// Planner packs and fragments operations against one connection's budget.
type Planner struct {
	req    Requester
	budget Budget
}

// New returns a Planner bound to req, sizing its bins to budget.
func New(req Requester, budget Budget) *Planner {
	return &Planner{req: req, budget: budget}
}

// Execute runs every operation, in order, returning one Result per
// operation in the same order regardless of how operations were batched
// or fragmented on the wire.
func (pl *Planner) Execute(ops []Operation) ([]Result, error) {
	results := make([]Result, len(ops))

	bins := pl.packBins(ops)
	for _, bin := range bins {
		if len(bin) == 1 && !pl.fits(ops[bin[0]]) {
			results[bin[0]] = pl.executeFragmented(ops[bin[0]])
			continue
		}
		pl.executeBin(ops, bin, results)
	}

	return results, nil
}

// reqBytes estimates the wire size of op's own request (path + service
// header), used for bin-packing and the fits-alone fragmentation check.
func reqBytes(op Operation) int {
	switch {
	case op.Read != nil:
		return len(op.Read.Path) + 2 + 4 // path + elements(2) + service/class overhead
	case op.Write != nil:
		return len(op.Write.Path) + 4 + len(op.Write.Encoded) + 4
	default:
		return 0
	}
}

// replyBytes estimates the wire size of op's expected reply.
func replyBytes(op Operation) int {
	switch {
	case op.Read != nil:
		return readReplyHeader + op.Read.Descriptor.Size()*int(op.Read.Count)
	case op.Write != nil:
		return writeReplyHeader
	default:
		return 0
	}
}

// fits reports whether op can be sent alone inside a Multiple Service
// Packet bin without overflowing either budget.
func (pl *Planner) fits(op Operation) bool {
	return reqBytes(op) <= pl.budget.RequestBytes && replyBytes(op) <= pl.budget.ReplyBytes
}

// packBins greedily bin-packs operation indices, starting a new bin when
// the next operation would overflow either budget, and isolating any
// operation that cannot fit an empty bin into its own singleton bin (the
// caller then routes it through fragmentation instead).
func (pl *Planner) packBins(ops []Operation) [][]int {
	var bins [][]int
	var cur []int
	curReq, curReply := 0, 0

	flush := func() {
		if len(cur) > 0 {
			bins = append(bins, cur)
			cur = nil
			curReq, curReply = 0, 0
		}
	}

	for i, op := range ops {
		rb, pb := reqBytes(op), replyBytes(op)
		if !pl.fits(op) {
			flush()
			bins = append(bins, []int{i})
			continue
		}
		if len(cur) > 0 && (curReq+rb > pl.budget.RequestBytes || curReply+pb > pl.budget.ReplyBytes) {
			flush()
		}
		cur = append(cur, i)
		curReq += rb
		curReply += pb
	}
	flush()
	return bins
}

// executeBin sends one batch of operations as a single Multiple Service
// Packet and reassembles each sub-reply into results, applying the
// path-segment-error symbolic retry per operation when needed.
func (pl *Planner) executeBin(ops []Operation, bin []int, results []Result) {
	subReqs := make([]*cip.MessageRouterRequest, len(bin))
	for i, idx := range bin {
		subReqs[i] = buildRequest(ops[idx])
	}

	packed, err := cip.NewMultipleServicePacketRequest(subReqs)
	if err != nil {
		for _, idx := range bin {
			results[idx] = Result{Err: fmt.Errorf("plc: pack request: %w", err)}
		}
		return
	}

	resp, err := pl.req.SendCIPRequest(packed)
	if err != nil {
		for _, idx := range bin {
			results[idx] = Result{Err: err}
		}
		return
	}
	if resp.GeneralStatus != cip.StatusSuccess {
		err := plcerr.NewCIPError(resp.GeneralStatus, resp.ExtStatus)
		for _, idx := range bin {
			results[idx] = Result{Err: err}
		}
		return
	}

	blocks, err := cip.DecodeMultipleServicePacketResponse(resp.ResponseData)
	if err != nil {
		for _, idx := range bin {
			results[idx] = Result{Err: err}
		}
		return
	}

	for i, idx := range bin {
		if i >= len(blocks) {
			results[idx] = Result{Err: fmt.Errorf("plc: multi-service reply missing entry %d", i)}
			continue
		}
		results[idx] = pl.decodeEntry(ops[idx], blocks[i])
	}
}

// decodeEntry interprets one Multiple Service Packet sub-reply, retrying
// once with symbolic addressing on a path-segment-error status.
func (pl *Planner) decodeEntry(op Operation, block []byte) Result {
	sub, err := cip.DecodeMessageRouterResponse(block)
	if err != nil {
		return Result{Err: err}
	}

	if sub.GeneralStatus == cip.StatusPathSegmentError {
		if retried, ok := pl.retrySymbolic(op); ok {
			return retried
		}
	}
	if sub.GeneralStatus != cip.StatusSuccess {
		return Result{Err: plcerr.NewCIPError(sub.GeneralStatus, sub.ExtStatus)}
	}

	if op.Read != nil {
		v, err := decodeReadReply(op.Read, sub.ResponseData)
		return Result{Value: v, Err: err}
	}
	return Result{}
}

// retrySymbolic resends op once with its SymbolicPath in place of Path,
// returning ok=false when no fallback path was supplied.
func (pl *Planner) retrySymbolic(op Operation) (Result, bool) {
	switch {
	case op.Read != nil && op.Read.SymbolicPath != nil:
		fallback := *op.Read
		fallback.Path = op.Read.SymbolicPath
		fallback.SymbolicPath = nil
		return pl.executeSingle(Operation{Read: &fallback}), true
	case op.Write != nil && op.Write.SymbolicPath != nil:
		fallback := *op.Write
		fallback.Path = op.Write.SymbolicPath
		fallback.SymbolicPath = nil
		return pl.executeSingle(Operation{Write: &fallback}), true
	default:
		return Result{}, false
	}
}

// executeSingle sends one operation directly (outside any Multiple
// Service Packet), used for symbolic-addressing retries.
func (pl *Planner) executeSingle(op Operation) Result {
	req := buildRequest(op)
	resp, err := pl.req.SendCIPRequest(req)
	if err != nil {
		return Result{Err: err}
	}
	if resp.GeneralStatus != cip.StatusSuccess {
		return Result{Err: plcerr.NewCIPError(resp.GeneralStatus, resp.ExtStatus)}
	}
	if op.Read != nil {
		v, err := decodeReadReply(op.Read, resp.ResponseData)
		return Result{Value: v, Err: err}
	}
	return Result{}
}

func buildRequest(op Operation) *cip.MessageRouterRequest {
	switch {
	case op.Read != nil:
		return cip.NewReadTagRequest(op.Read.Path, op.Read.Count)
	case op.Write != nil:
		return cip.NewWriteTagRequest(op.Write.Path, op.Write.DataType, op.Write.Count, op.Write.Encoded)
	default:
		return nil
	}
}

// decodeReadReply strips the Read Tag reply's 2-byte echoed type code and
// decodes the remaining bytes through the operation's descriptor.
func decodeReadReply(op *ReadOp, data []byte) (any, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("plc: read reply too short")
	}
	payload := data[2:]
	if op.Count <= 1 {
		v, err := op.Descriptor.DecodeAt(payload, 0)
		return v, err
	}

	elemSize := op.Descriptor.Size()
	values := make([]any, op.Count)
	for i := 0; i < int(op.Count); i++ {
		off := i * elemSize
		if off+elemSize > len(payload) {
			return nil, fmt.Errorf("plc: read reply short: element %d at offset %d", i, off)
		}
		v, err := op.Descriptor.DecodeAt(payload, off)
		if err != nil {
			return nil, fmt.Errorf("plc: decode element %d: %w", i, err)
		}
		values[i] = v
	}
	return values, nil
}
