package wire

import "encoding/binary"

// WeekInterval is a (start, end) pair of absolute week-minute offsets, as
// carried on the monitor-callback datagram.
type WeekInterval struct {
	StartMinOfWeek int32
	EndMinOfWeek   int32
}

// Callback is the unsolicited datagram pushed to monitor subscribers. It
// is not wrapped in a response frame; clients distinguish it from a reply
// by the fact that it never matches an outstanding request_id.
type Callback struct {
	FacilityName string
	Bookings     []WeekInterval
}

func EncodeCallback(c Callback) ([]byte, error) {
	buf, err := putString(nil, c.FacilityName)
	if err != nil {
		return nil, err
	}
	var countBuf [2]byte
	binary.BigEndian.PutUint16(countBuf[:], uint16(len(c.Bookings)))
	buf = append(buf, countBuf[:]...)
	for _, b := range c.Bookings {
		var ivBuf [8]byte
		binary.BigEndian.PutUint32(ivBuf[0:4], uint32(b.StartMinOfWeek))
		binary.BigEndian.PutUint32(ivBuf[4:8], uint32(b.EndMinOfWeek))
		buf = append(buf, ivBuf[:]...)
	}
	return buf, nil
}

func DecodeCallback(data []byte) (Callback, error) {
	name, n, err := takeString(data)
	if err != nil {
		return Callback{}, err
	}
	data = data[n:]
	if len(data) < 2 {
		return Callback{}, ErrTruncated
	}
	count := int(binary.BigEndian.Uint16(data[0:2]))
	data = data[2:]
	bookings := make([]WeekInterval, 0, count)
	for i := 0; i < count; i++ {
		if len(data) < 8 {
			return Callback{}, ErrTruncated
		}
		bookings = append(bookings, WeekInterval{
			StartMinOfWeek: int32(binary.BigEndian.Uint32(data[0:4])),
			EndMinOfWeek:   int32(binary.BigEndian.Uint32(data[4:8])),
		})
		data = data[8:]
	}
	if len(data) != 0 {
		return Callback{}, ErrTrailingBytes
	}
	return Callback{FacilityName: name, Bookings: bookings}, nil
}
