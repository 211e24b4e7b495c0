package plc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iceisfun/goeip/pkg/cip"
	"github.com/iceisfun/goeip/pkg/planner"
	"github.com/iceisfun/goeip/pkg/template"
	"github.com/iceisfun/goeip/pkg/types"
)

type fakeRequester struct {
	handle func(req *cip.MessageRouterRequest) (*cip.MessageRouterResponse, error)
}

func (f *fakeRequester) SendCIPRequest(req *cip.MessageRouterRequest) (*cip.MessageRouterResponse, error) {
	return f.handle(req)
}

func newTestDriver(req requester, tags map[string]template.TagDefinition) *Driver {
	return &Driver{
		opts: Options{},
		tags: tags,
		pl:   planner.New(req, planner.NewBudget(500, 500)),
		req:  req,
	}
}

func TestDriver_Read_Elementary(t *testing.T) {
	req := &fakeRequester{handle: func(r *cip.MessageRouterRequest) (*cip.MessageRouterResponse, error) {
		require.Equal(t, cip.ServiceMultipleServicePacket, r.Service)
		// One-entry Multiple Service Packet reply: count, offset, then a
		// Read_Tag reply block carrying DINT 42.
		reply := []byte{1, 0, 4, 0, byte(cip.ServiceReadTag | 0x80), 0, 0, 0, byte(cip.TypeDINT), 0, 42, 0, 0, 0}
		return &cip.MessageRouterResponse{GeneralStatus: cip.StatusSuccess, ResponseData: reply}, nil
	}}

	d := newTestDriver(req, map[string]template.TagDefinition{
		"Counter1": {Name: "Counter1", InstanceID: 1, Descriptor: types.Elementary{TypeCode: cip.TypeDINT}},
	})

	results := d.Read("Counter1")
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
	assert.EqualValues(t, 42, results[0].Value)
}

func TestDriver_Read_UnknownTag(t *testing.T) {
	d := newTestDriver(&fakeRequester{}, map[string]template.TagDefinition{})
	results := d.Read("DoesNotExist")
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}

func TestDriver_Write_BitFlipsOnlyThatBit(t *testing.T) {
	var sentReq *cip.MessageRouterRequest
	req := &fakeRequester{handle: func(r *cip.MessageRouterRequest) (*cip.MessageRouterResponse, error) {
		sentReq = r
		return &cip.MessageRouterResponse{GeneralStatus: cip.StatusSuccess}, nil
	}}

	d := newTestDriver(req, map[string]template.TagDefinition{
		"Flags": {Name: "Flags", InstanceID: 1, Descriptor: types.BoolArray{N: 64}},
	})

	results := d.Write([]string{"Flags[35]"}, []any{true})
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)

	require.NotNil(t, sentReq)
	assert.Equal(t, cip.ServiceReadModifyWriteTag, sentReq.Service)

	// bit 35 falls in the second DWORD (index 1), local bit 3: byte 0, bit 3 of the OR mask.
	size := int(sentReq.RequestData[0]) | int(sentReq.RequestData[1])<<8
	require.Equal(t, 4, size)
	orMask := sentReq.RequestData[2 : 2+size]
	assert.Equal(t, byte(0x08), orMask[0])
}

func TestDriver_Write_LengthMismatch(t *testing.T) {
	d := newTestDriver(&fakeRequester{}, map[string]template.TagDefinition{})
	results := d.Write([]string{"A", "B"}, []any{1})
	require.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	assert.Error(t, results[1].Err)
}
