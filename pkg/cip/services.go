package cip

// NewGetAttributeSingleRequest creates a request to read a single attribute
func NewGetAttributeSingleRequest(path Path) *MessageRouterRequest {
	return &MessageRouterRequest{
		Service:     ServiceGetAttributeSingle,
		RequestPath: path,
		RequestData: nil,
	}
}

// NewSetAttributeSingleRequest creates a request to write a single attribute
func NewSetAttributeSingleRequest(path Path, data []byte) *MessageRouterRequest {
	return &MessageRouterRequest{
		Service:     ServiceSetAttributeSingle,
		RequestPath: path,
		RequestData: data,
	}
}

// Rockwell Logix tag access services, scoped to the Symbol Object.
const (
	ServiceReadTag            USINT = 0x4C
	ServiceWriteTag           USINT = 0x4D
	ServiceReadModifyWriteTag USINT = 0x4E
	ServiceReadTagFragmented  USINT = 0x52
	ServiceWriteTagFragmented USINT = 0x53
)

// Template Object (class 0x6C) service and class id.
const (
	ClassTemplate       UINT  = 0x6C
	ServiceReadTemplate USINT = 0x4C
)

func NewReadTagRequest(tagPath Path, elements uint16) *MessageRouterRequest {
	reqData := make([]byte, 2)
	reqData[0] = byte(elements)
	reqData[1] = byte(elements >> 8)

	return &MessageRouterRequest{
		Service:     ServiceReadTag,
		RequestPath: tagPath,
		RequestData: reqData,
	}
}

// NewWriteTagRequest creates a request to write elements of a tag.
// dataTypeCode is the CIP data type the target value will be tagged with on
// the wire (e.g. TypeDINT); encodedValue is the already-encoded element
// payload (elements * element size bytes).
func NewWriteTagRequest(tagPath Path, dataTypeCode DataType, elements uint16, encodedValue []byte) *MessageRouterRequest {
	reqData := make([]byte, 4+len(encodedValue))
	reqData[0] = byte(dataTypeCode)
	reqData[1] = byte(dataTypeCode >> 8)
	reqData[2] = byte(elements)
	reqData[3] = byte(elements >> 8)
	copy(reqData[4:], encodedValue)

	return &MessageRouterRequest{
		Service:     ServiceWriteTag,
		RequestPath: tagPath,
		RequestData: reqData,
	}
}

// NewReadTagFragmentedRequest creates a Read_Tag_Fragmented request reading
// elements starting at byteOffset bytes into the tag's value.
func NewReadTagFragmentedRequest(tagPath Path, elements uint16, byteOffset uint32) *MessageRouterRequest {
	reqData := make([]byte, 8)
	reqData[0] = byte(elements)
	reqData[1] = byte(elements >> 8)
	reqData[2] = byte(byteOffset)
	reqData[3] = byte(byteOffset >> 8)
	reqData[4] = byte(byteOffset >> 16)
	reqData[5] = byte(byteOffset >> 24)

	return &MessageRouterRequest{
		Service:     ServiceReadTagFragmented,
		RequestPath: tagPath,
		RequestData: reqData[:6],
	}
}

// NewWriteTagFragmentedRequest creates a Write_Tag_Fragmented request
// writing a chunk of an already-encoded value starting at byteOffset.
func NewWriteTagFragmentedRequest(tagPath Path, dataTypeCode DataType, elements uint16, byteOffset uint32, chunk []byte) *MessageRouterRequest {
	reqData := make([]byte, 8+len(chunk))
	reqData[0] = byte(dataTypeCode)
	reqData[1] = byte(dataTypeCode >> 8)
	reqData[2] = byte(elements)
	reqData[3] = byte(elements >> 8)
	reqData[4] = byte(byteOffset)
	reqData[5] = byte(byteOffset >> 8)
	reqData[6] = byte(byteOffset >> 16)
	reqData[7] = byte(byteOffset >> 24)
	copy(reqData[8:], chunk)

	return &MessageRouterRequest{
		Service:     ServiceWriteTagFragmented,
		RequestPath: tagPath,
		RequestData: reqData,
	}
}
