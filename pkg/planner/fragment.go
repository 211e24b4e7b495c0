package planner

import (
	"fmt"

	"github.com/iceisfun/goeip/pkg/cip"
	"github.com/iceisfun/goeip/pkg/plcerr"
)

// fragmentChunkSize bounds each Read/Write Tag Fragmented chunk so it
// stays within whichever budget is tighter.
func (pl *Planner) fragmentChunkSize() int {
	n := pl.budget.RequestBytes
	if pl.budget.ReplyBytes < n {
		n = pl.budget.ReplyBytes
	}
	n -= 8 // fragmented service's own element-count/byte-offset header
	if n < 32 {
		n = 32 // never degenerate to a near-zero chunk
	}
	return n
}

// executeFragmented runs one operation too large for a Multiple Service
// Packet bin through Read/Write Tag Fragmented, retrying once with
// symbolic addressing on a path-segment-error reply.
func (pl *Planner) executeFragmented(op Operation) Result {
	switch {
	case op.Read != nil:
		return pl.fragmentedRead(op.Read, op.Read.Path)
	case op.Write != nil:
		return pl.fragmentedWrite(op.Write, op.Write.Path)
	default:
		return Result{}
	}
}

func (pl *Planner) fragmentedRead(op *ReadOp, path cip.Path) Result {
	expected := op.Descriptor.Size() * int(op.Count)
	payload := make([]byte, 0, expected)
	triedSymbolic := false

	for len(payload) < expected {
		req := cip.NewReadTagFragmentedRequest(path, op.Count, uint32(len(payload)))
		resp, err := pl.req.SendCIPRequest(req)
		if err != nil {
			return Result{Err: err}
		}
		if resp.GeneralStatus == cip.StatusPathSegmentError && op.SymbolicPath != nil && !triedSymbolic {
			path = op.SymbolicPath
			triedSymbolic = true
			payload = payload[:0]
			continue
		}
		if resp.GeneralStatus != cip.StatusSuccess && resp.GeneralStatus != cip.StatusPartialTransfer {
			return Result{Err: plcerr.NewCIPError(resp.GeneralStatus, resp.ExtStatus)}
		}
		if len(resp.ResponseData) < 2 {
			return Result{Err: fmt.Errorf("plc: fragmented read reply too short")}
		}
		payload = append(payload, resp.ResponseData[2:]...)
		if resp.GeneralStatus == cip.StatusSuccess {
			break
		}
		if len(resp.ResponseData) <= 2 {
			return Result{Err: fmt.Errorf("plc: fragmented read: controller signaled more data but returned none")}
		}
	}

	if op.Count <= 1 {
		v, err := op.Descriptor.DecodeAt(payload, 0)
		return Result{Value: v, Err: err}
	}
	elemSize := op.Descriptor.Size()
	values := make([]any, op.Count)
	for i := 0; i < int(op.Count); i++ {
		v, err := op.Descriptor.DecodeAt(payload, i*elemSize)
		if err != nil {
			return Result{Err: fmt.Errorf("plc: decode element %d: %w", i, err)}
		}
		values[i] = v
	}
	return Result{Value: values}
}

func (pl *Planner) fragmentedWrite(op *WriteOp, path cip.Path) Result {
	chunkSize := pl.fragmentChunkSize()
	offset := 0
	triedSymbolic := false

	for offset < len(op.Encoded) {
		end := offset + chunkSize
		if end > len(op.Encoded) {
			end = len(op.Encoded)
		}
		chunk := op.Encoded[offset:end]

		req := cip.NewWriteTagFragmentedRequest(path, op.DataType, op.Count, uint32(offset), chunk)
		resp, err := pl.req.SendCIPRequest(req)
		if err != nil {
			return Result{Err: err}
		}
		if resp.GeneralStatus == cip.StatusPathSegmentError && op.SymbolicPath != nil && !triedSymbolic {
			path = op.SymbolicPath
			triedSymbolic = true
			offset = 0
			continue
		}
		if resp.GeneralStatus != cip.StatusSuccess && resp.GeneralStatus != cip.StatusPartialTransfer {
			return Result{Err: plcerr.NewCIPError(resp.GeneralStatus, resp.ExtStatus)}
		}
		offset = end
		if resp.GeneralStatus == cip.StatusSuccess && offset < len(op.Encoded) {
			return Result{Err: fmt.Errorf("plc: fragmented write: controller ended transfer early at offset %d of %d", offset, len(op.Encoded))}
		}
	}
	return Result{}
}
