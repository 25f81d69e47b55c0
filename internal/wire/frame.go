// Package wire implements the request/response/callback datagram codec:
// big-endian, length-prefixed frames over UDP.
package wire

import (
	"encoding/binary"

	"github.com/arjunpatel/facilitybook/internal/constants"
)

// RequestFrame is the decoded form of an inbound client datagram.
type RequestFrame struct {
	RequestID    uint32
	OpCode       uint8
	SemanticFlag uint8
	Payload      []byte
}

// ResponseFrame is the decoded form of an outbound server reply.
type ResponseFrame struct {
	RequestID    uint32
	ResponseCode uint8
	Payload      []byte
}

func isKnownOpCode(op uint8) bool {
	switch op {
	case constants.OpQuery, constants.OpBook, constants.OpChange, constants.OpRegisterMonitor, constants.OpA, constants.OpB:
		return true
	default:
		return false
	}
}

// OpName returns a short mnemonic for op, used in logging. Unknown codes
// render as "OP(?)".
func OpName(op uint8) string {
	switch op {
	case constants.OpQuery:
		return "QUERY"
	case constants.OpBook:
		return "BOOK"
	case constants.OpChange:
		return "CHANGE"
	case constants.OpRegisterMonitor:
		return "REGISTER_MONITOR"
	case constants.OpA:
		return "OP_A"
	case constants.OpB:
		return "OP_B"
	default:
		return "OP(?)"
	}
}

// EncodeRequest serializes a request frame to wire bytes.
func EncodeRequest(f *RequestFrame) []byte {
	buf := make([]byte, constants.RequestHeaderSize+len(f.Payload))
	binary.BigEndian.PutUint32(buf[0:4], f.RequestID)
	buf[4] = f.OpCode
	buf[5] = f.SemanticFlag
	binary.BigEndian.PutUint32(buf[6:10], uint32(len(f.Payload)))
	copy(buf[10:], f.Payload)
	return buf
}

// DecodeRequest parses a datagram into a RequestFrame. On any failure the
// returned error is a *DecodeError; callers that need to reply with the
// correct request_id should check HeaderOK before falling back to 0.
func DecodeRequest(data []byte) (*RequestFrame, error) {
	if len(data) < 4 {
		return nil, &DecodeError{RequestID: 0, HeaderOK: false, Err: ErrTruncated}
	}
	requestID := binary.BigEndian.Uint32(data[0:4])

	if len(data) < constants.RequestHeaderSize {
		return nil, &DecodeError{RequestID: requestID, HeaderOK: true, Err: ErrTruncated}
	}

	opCode := data[4]
	semanticFlag := data[5]
	payloadLen := binary.BigEndian.Uint32(data[6:10])

	if int(payloadLen) != len(data)-constants.RequestHeaderSize {
		return nil, &DecodeError{RequestID: requestID, HeaderOK: true, Err: ErrPayloadLengthMismatch}
	}
	if !isKnownOpCode(opCode) {
		return nil, &DecodeError{RequestID: requestID, HeaderOK: true, Err: ErrUnknownOpCode}
	}

	payload := make([]byte, payloadLen)
	copy(payload, data[constants.RequestHeaderSize:])

	return &RequestFrame{
		RequestID:    requestID,
		OpCode:       opCode,
		SemanticFlag: semanticFlag,
		Payload:      payload,
	}, nil
}

// EncodeResponse serializes a response frame to wire bytes.
func EncodeResponse(f *ResponseFrame) []byte {
	buf := make([]byte, constants.ResponseHeaderSize+len(f.Payload))
	binary.BigEndian.PutUint32(buf[0:4], f.RequestID)
	buf[4] = f.ResponseCode
	binary.BigEndian.PutUint32(buf[5:9], uint32(len(f.Payload)))
	copy(buf[9:], f.Payload)
	return buf
}

// DecodeResponse parses a datagram into a ResponseFrame, as seen by a client.
func DecodeResponse(data []byte) (*ResponseFrame, error) {
	if len(data) < constants.ResponseHeaderSize {
		return nil, ErrTruncated
	}
	requestID := binary.BigEndian.Uint32(data[0:4])
	responseCode := data[4]
	payloadLen := binary.BigEndian.Uint32(data[5:9])

	if int(payloadLen) != len(data)-constants.ResponseHeaderSize {
		return nil, ErrPayloadLengthMismatch
	}

	payload := make([]byte, payloadLen)
	copy(payload, data[constants.ResponseHeaderSize:])

	return &ResponseFrame{
		RequestID:    requestID,
		ResponseCode: responseCode,
		Payload:      payload,
	}, nil
}
