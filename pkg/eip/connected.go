package eip

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// NewConnectedAddressItem builds the Connected Address (0x00A1) CPF item
// carrying the O->T connection id, used as the address item of a
// SendUnitData request.
func NewConnectedAddressItem(connectionID uint32) CPFItem {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, connectionID)
	return NewCPFItem(ItemIDConnectedAddress, data)
}

// NewSequencedConnectedDataItem builds the Connected Data (0x00B1) item
// prefixed with the 16-bit connection sequence number required by every
// connected (Class 3) message. payload is the CIP request/reply bytes.
func NewSequencedConnectedDataItem(sequence uint16, payload []byte) CPFItem {
	data := make([]byte, 2+len(payload))
	binary.LittleEndian.PutUint16(data[0:2], sequence)
	copy(data[2:], payload)
	return NewCPFItem(ItemIDConnectedData, data)
}

// DecodeSequencedConnectedData splits a Connected Data item's payload into
// its leading sequence number and the CIP payload that follows.
func DecodeSequencedConnectedData(data []byte) (uint16, []byte, error) {
	if len(data) < 2 {
		return 0, nil, fmt.Errorf("eip: connected data item too short")
	}
	seq := binary.LittleEndian.Uint16(data[0:2])
	return seq, data[2:], nil
}

// EncodeSendUnitData builds the full SendUnitData payload (interface handle
// + timeout + CPF) for a connected message, mirroring the RRData framing
// SendRRData already uses for unconnected messages.
func EncodeSendUnitData(connectionID uint32, sequence uint16, cipRequest []byte) ([]byte, error) {
	cpf := NewCommonPacketFormat(
		NewConnectedAddressItem(connectionID),
		NewSequencedConnectedDataItem(sequence, cipRequest),
	)
	cpfData, err := cpf.Encode()
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	// Interface Handle (0 = CIP)
	if err := binary.Write(buf, binary.LittleEndian, uint32(0)); err != nil {
		return nil, err
	}
	// Timeout (router-chosen; unused on TCP unicast)
	if err := binary.Write(buf, binary.LittleEndian, uint16(0)); err != nil {
		return nil, err
	}
	buf.Write(cpfData)
	return buf.Bytes(), nil
}

// DecodeSendUnitDataReply parses a SendUnitData reply payload back into the
// connection sequence number and CIP response bytes.
func DecodeSendUnitDataReply(data []byte) (uint16, []byte, error) {
	if len(data) < 6 {
		return 0, nil, fmt.Errorf("eip: SendUnitData reply too short")
	}
	cpf, err := DecodeCommonPacketFormat(data[6:])
	if err != nil {
		return 0, nil, fmt.Errorf("eip: decode CPF: %w", err)
	}
	item := cpf.FindItemByType(ItemIDConnectedData)
	if item == nil {
		return 0, nil, fmt.Errorf("eip: SendUnitData reply missing connected data item")
	}
	return DecodeSequencedConnectedData(item.Data)
}
