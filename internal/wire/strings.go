package wire

import (
	"encoding/binary"

	"github.com/arjunpatel/facilitybook/internal/constants"
)

// putString appends a u16-length-prefixed UTF-8 string to buf.
func putString(buf []byte, s string) ([]byte, error) {
	if len(s) > constants.MaxStringBytes {
		return nil, ErrStringTooLong
	}
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(s)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, s...)
	return buf, nil
}

// takeString reads a u16-length-prefixed UTF-8 string from the front of
// data, returning the string and the number of bytes consumed.
func takeString(data []byte) (s string, n int, err error) {
	if len(data) < 2 {
		return "", 0, ErrTruncated
	}
	length := int(binary.BigEndian.Uint16(data))
	if len(data) < 2+length {
		return "", 0, ErrTruncated
	}
	return string(data[2 : 2+length]), 2 + length, nil
}
