package template

import (
	"fmt"

	"github.com/iceisfun/goeip/pkg/cip"
	"github.com/iceisfun/goeip/pkg/plcerr"
	"github.com/iceisfun/goeip/pkg/types"
)

// readTemplateChunkSize bounds each Read Template fragment so the request
// stays well under an unconnected message's reply budget; the controller
// is free to return less and signal 0x06 to continue.
const readTemplateChunkSize = 480

// fetchTemplate downloads and parses one Template Object instance's
// header and body, recursing into any nested struct members.
func (u *Uploader) fetchTemplate(instanceID uint32) (types.Struct, error) {
	header, err := u.fetchTemplateHeader(instanceID)
	if err != nil {
		return types.Struct{}, err
	}

	// The controller's definition block is 23 bytes smaller than the
	// reported object size: a quirk of how Logix counts the block's own
	// header words, carried over unchanged from the original driver this
	// was ported from.
	expected := int(header.ObjectDefinitionSizeWords)*4 - 23
	body, err := u.fetchTemplateBody(instanceID, expected)
	if err != nil {
		return types.Struct{}, err
	}

	records, names, err := parseTemplateBody(body, int(header.MemberCount))
	if err != nil {
		return types.Struct{}, fmt.Errorf("plc: template %d: %w", instanceID, err)
	}

	members, err := u.buildMembers(records, names)
	if err != nil {
		return types.Struct{}, fmt.Errorf("plc: template %d: %w", instanceID, err)
	}

	s := types.Struct{
		Name:      templateDisplayName(names[0]),
		Members:   members,
		TotalSize: int(header.StructureSizeBytes),
	}
	s.IsStringAlias = types.DetectStringAlias(members)
	return s, nil
}

func (u *Uploader) fetchTemplateHeader(instanceID uint32) (*cip.TemplateHeader, error) {
	req := cip.NewTemplateHeaderRequest(instanceID)
	resp, err := u.req.SendCIPRequest(req)
	if err != nil {
		return nil, fmt.Errorf("plc: template %d header: %w", instanceID, err)
	}
	if resp.GeneralStatus != cip.StatusSuccess {
		return nil, plcerr.NewCIPError(resp.GeneralStatus, resp.ExtStatus)
	}
	return cip.DecodeTemplateHeaderResponse(resp.ResponseData)
}

// fetchTemplateBody aggregates the member-record-plus-name-blob byte
// block across as many Read Template fragments as the controller requires
// (status 0x06 continues, 0x00 ends), per §4.5.
func (u *Uploader) fetchTemplateBody(instanceID uint32, expectedBytes int) ([]byte, error) {
	body := make([]byte, 0, expectedBytes)

	for len(body) < expectedBytes {
		remaining := expectedBytes - len(body)
		chunk := remaining
		if chunk > readTemplateChunkSize {
			chunk = readTemplateChunkSize
		}

		req := cip.NewReadTemplateRequest(instanceID, uint32(len(body)), uint32(chunk))
		resp, err := u.req.SendCIPRequest(req)
		if err != nil {
			return nil, fmt.Errorf("plc: template %d body at offset %d: %w", instanceID, len(body), err)
		}
		if resp.GeneralStatus != cip.StatusSuccess && resp.GeneralStatus != cip.StatusPartialTransfer {
			return nil, plcerr.NewCIPError(resp.GeneralStatus, resp.ExtStatus)
		}

		body = append(body, resp.ResponseData...)
		if resp.GeneralStatus == cip.StatusSuccess {
			break
		}
		if len(resp.ResponseData) == 0 {
			return nil, fmt.Errorf("plc: template %d body: controller signaled more data but returned none", instanceID)
		}
	}

	return body, nil
}
