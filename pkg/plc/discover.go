package plc

import (
	"time"

	"github.com/iceisfun/goeip/pkg/eip"
	"github.com/iceisfun/goeip/pkg/plcerr"
	"github.com/iceisfun/goeip/pkg/transport"
)

// Discover sends a ListIdentity request to address and returns the
// identity it reports. Unlike pycomm3's broadcast discover(), this
// driver's transport is TCP-only (no UDP socket to broadcast a subnet
// scan from), so discovery here is scoped to one known host at a time;
// callers wanting a subnet sweep loop this over their own address list.
func Discover(address string, timeout time.Duration) (*Info, error) {
	t, err := transport.NewTCPTransport(address, timeout)
	if err != nil {
		return nil, err
	}
	defer t.Close()

	if err := t.Send(eip.CommandListIdentity, nil, 0); err != nil {
		return nil, &plcerr.ConnectionError{Op: "list identity", Err: err}
	}

	header, data, err := t.Receive()
	if err != nil {
		return nil, &plcerr.ConnectionError{Op: "list identity", Err: err}
	}
	if header.Status != eip.StatusSuccess {
		return nil, &plcerr.ProtocolFramingError{Reason: "ListIdentity reply carried a non-success encapsulation status"}
	}

	items, err := eip.DecodeListIdentityResponse(data)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, &plcerr.ProtocolFramingError{Reason: "ListIdentity reply carried no identity item"}
	}

	item := items[0]
	info := &Info{
		VendorID:     item.VendorID,
		ProductCode:  item.ProductCode,
		ProductName:  item.ProductName,
		SerialNumber: item.SerialNumber,
		Revision:     revisionString(item.Revision),
		IsMicro800:   len(item.ProductName) >= 6 && item.ProductName[:6] == "Micro8",
	}
	return info, nil
}
