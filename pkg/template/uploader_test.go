package template

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/iceisfun/goeip/internal"
	"github.com/iceisfun/goeip/pkg/cip"
	"github.com/iceisfun/goeip/pkg/types"
)

// scriptedRequester replays a fixed list of responses, one per call, and
// records every request it was handed for post-hoc assertions.
type scriptedRequester struct {
	responses []*cip.MessageRouterResponse
	requests  []*cip.MessageRouterRequest
	i         int
}

func (s *scriptedRequester) SendCIPRequest(req *cip.MessageRouterRequest) (*cip.MessageRouterResponse, error) {
	s.requests = append(s.requests, req)
	if s.i >= len(s.responses) {
		panic("scriptedRequester: ran out of responses")
	}
	resp := s.responses[s.i]
	s.i++
	return resp, nil
}

func encodeSymbolEntry(instanceID uint32, name string, typeCode cip.DataType) []byte {
	buf := make([]byte, 0, 8+len(name))
	var instBytes [4]byte
	binary.LittleEndian.PutUint32(instBytes[:], instanceID)
	buf = append(buf, instBytes[:]...)
	var lenBytes [2]byte
	binary.LittleEndian.PutUint16(lenBytes[:], uint16(len(name)))
	buf = append(buf, lenBytes[:]...)
	buf = append(buf, []byte(name)...)
	var typeBytes [2]byte
	binary.LittleEndian.PutUint16(typeBytes[:], uint16(typeCode))
	buf = append(buf, typeBytes[:]...)
	return buf
}

func TestUploader_EnumerateSymbols_Pages(t *testing.T) {
	page1 := append(
		encodeSymbolEntry(1, "Counter1", cip.TypeDINT),
		encodeSymbolEntry(2, "Flag1", cip.TypeBOOL)...,
	)
	page2 := encodeSymbolEntry(3, "Speed", cip.TypeREAL)

	req := &scriptedRequester{
		responses: []*cip.MessageRouterResponse{
			{GeneralStatus: cip.StatusPartialTransfer, ResponseData: page1},
			{GeneralStatus: cip.StatusSuccess, ResponseData: page2},
		},
	}

	u := NewUploader(req, types.NewRegistry(), internal.NopLogger())
	entries, err := u.enumerateSymbols("")
	if err != nil {
		t.Fatalf("enumerateSymbols() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[2].Name != "Speed" || entries[2].InstanceID != 3 {
		t.Errorf("entries[2] = %+v, want Speed/3", entries[2])
	}
	if len(req.requests) != 2 {
		t.Fatalf("made %d requests, want 2", len(req.requests))
	}
}

func TestUploader_Upload_ElementaryOnly(t *testing.T) {
	page := encodeSymbolEntry(1, "Counter1", cip.TypeDINT)
	req := &scriptedRequester{
		responses: []*cip.MessageRouterResponse{
			{GeneralStatus: cip.StatusSuccess, ResponseData: page},
		},
	}

	u := NewUploader(req, types.NewRegistry(), internal.NopLogger())
	defs, err := u.Upload(context.Background())
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if len(defs) != 1 || defs[0].Name != "Counter1" || defs[0].TypeName != "DINT" {
		t.Fatalf("defs = %+v, want one Counter1/DINT", defs)
	}
}

func encodeMemberRecord(typeCode cip.DataType, info uint16, offset uint32) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(typeCode))
	binary.LittleEndian.PutUint16(buf[2:4], info)
	binary.LittleEndian.PutUint32(buf[4:8], offset)
	return buf
}

func TestUploader_FetchTemplate_SimpleStruct(t *testing.T) {
	// Template with two members: Count (DINT) and a BOOL bit-aliased flag,
	// laid out like a small Logix UDT.
	body := append(
		encodeMemberRecord(cip.TypeDINT, 1, 0),
		encodeMemberRecord(cip.TypeBOOL, 3, 4)...,
	)
	names := []byte("MyType;n\x00Count\x00Flag\x00")
	body = append(body, names...)

	headerResp := make([]byte, 2)
	binary.LittleEndian.PutUint16(headerResp, 4)
	headerResp = append(headerResp,
		attrEntry(cip.TemplateAttrStructureHandle, 1)...,
	)
	headerResp = append(headerResp, attrEntry(cip.TemplateAttrMemberCount, 2)...)
	headerResp = append(headerResp, attrEntry32(cip.TemplateAttrObjectDefinitionLen, uint32(len(body)+23)/4)...)
	headerResp = append(headerResp, attrEntry32(cip.TemplateAttrStructureSize, 8)...)

	req := &scriptedRequester{
		responses: []*cip.MessageRouterResponse{
			{GeneralStatus: cip.StatusSuccess, ResponseData: headerResp},
			{GeneralStatus: cip.StatusSuccess, ResponseData: body},
		},
	}

	u := NewUploader(req, types.NewRegistry(), internal.NopLogger())
	s, err := u.fetchTemplate(42)
	if err != nil {
		t.Fatalf("fetchTemplate() error = %v", err)
	}
	if s.Name != "MyType" {
		t.Errorf("Name = %q, want MyType", s.Name)
	}
	if len(s.Members) != 2 || s.Members[0].Name != "Count" || s.Members[1].Name != "Flag" {
		t.Fatalf("Members = %+v", s.Members)
	}
	if s.Members[1].BitOffset != 3 {
		t.Errorf("Flag.BitOffset = %d, want 3", s.Members[1].BitOffset)
	}
}

func attrEntry(id cip.UINT, value uint16) []byte {
	buf := make([]byte, 6)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(id))
	binary.LittleEndian.PutUint16(buf[2:4], 0) // status success
	binary.LittleEndian.PutUint16(buf[4:6], value)
	return buf
}

func attrEntry32(id cip.UINT, value uint32) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(id))
	binary.LittleEndian.PutUint16(buf[2:4], 0) // status success
	binary.LittleEndian.PutUint32(buf[4:8], value)
	return buf
}
