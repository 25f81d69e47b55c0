package wire

import (
	"encoding/binary"
)

// --- QUERY ---------------------------------------------------------------

// QueryRequest is the decoded QUERY operation payload. A nil/empty Days
// means "all seven days".
type QueryRequest struct {
	Name string
	Days []uint8
}

func EncodeQueryRequest(r QueryRequest) ([]byte, error) {
	buf, err := putString(nil, r.Name)
	if err != nil {
		return nil, err
	}
	buf = append(buf, uint8(len(r.Days)))
	buf = append(buf, r.Days...)
	return buf, nil
}

func DecodeQueryRequest(data []byte) (QueryRequest, error) {
	name, n, err := takeString(data)
	if err != nil {
		return QueryRequest{}, err
	}
	data = data[n:]
	if len(data) < 1 {
		return QueryRequest{}, ErrTruncated
	}
	dayCount := int(data[0])
	data = data[1:]
	if len(data) != dayCount {
		return QueryRequest{}, ErrTrailingBytes
	}
	days := make([]uint8, dayCount)
	copy(days, data)
	return QueryRequest{Name: name, Days: days}, nil
}

// Interval is a (start, end) pair of minute-of-day offsets: start is
// 0..1439 and end is 1..1440, since an interval clipped at midnight ends
// at 1440.
type Interval struct {
	StartOfDayMin uint16
	EndOfDayMin   uint16
}

// DayAvailability is one day's clipped, sorted booking intervals.
type DayAvailability struct {
	Day       uint8
	Intervals []Interval
}

func EncodeQueryReply(days []DayAvailability) []byte {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, uint16(len(days)))
	for _, d := range days {
		var head [3]byte
		head[0] = d.Day
		binary.BigEndian.PutUint16(head[1:3], uint16(len(d.Intervals)))
		buf = append(buf, head[:]...)
		for _, iv := range d.Intervals {
			var ivBuf [4]byte
			binary.BigEndian.PutUint16(ivBuf[0:2], iv.StartOfDayMin)
			binary.BigEndian.PutUint16(ivBuf[2:4], iv.EndOfDayMin)
			buf = append(buf, ivBuf[:]...)
		}
	}
	return buf
}

func DecodeQueryReply(data []byte) ([]DayAvailability, error) {
	if len(data) < 2 {
		return nil, ErrTruncated
	}
	dayCount := int(binary.BigEndian.Uint16(data[0:2]))
	data = data[2:]
	days := make([]DayAvailability, 0, dayCount)
	for i := 0; i < dayCount; i++ {
		if len(data) < 3 {
			return nil, ErrTruncated
		}
		day := data[0]
		intervalCount := int(binary.BigEndian.Uint16(data[1:3]))
		data = data[3:]
		intervals := make([]Interval, 0, intervalCount)
		for j := 0; j < intervalCount; j++ {
			if len(data) < 4 {
				return nil, ErrTruncated
			}
			intervals = append(intervals, Interval{
				StartOfDayMin: binary.BigEndian.Uint16(data[0:2]),
				EndOfDayMin:   binary.BigEndian.Uint16(data[2:4]),
			})
			data = data[4:]
		}
		days = append(days, DayAvailability{Day: day, Intervals: intervals})
	}
	if len(data) != 0 {
		return nil, ErrTrailingBytes
	}
	return days, nil
}

// --- BOOK ------------------------------------------------------------------

type BookRequest struct {
	Name              string
	SDay, SHour, SMin uint8
	EDay, EHour, EMin uint8
}

func EncodeBookRequest(r BookRequest) ([]byte, error) {
	buf, err := putString(nil, r.Name)
	if err != nil {
		return nil, err
	}
	buf = append(buf, r.SDay, r.SHour, r.SMin, r.EDay, r.EHour, r.EMin)
	return buf, nil
}

func DecodeBookRequest(data []byte) (BookRequest, error) {
	name, n, err := takeString(data)
	if err != nil {
		return BookRequest{}, err
	}
	data = data[n:]
	if len(data) != 6 {
		return BookRequest{}, ErrTrailingBytes
	}
	return BookRequest{
		Name: name,
		SDay: data[0], SHour: data[1], SMin: data[2],
		EDay: data[3], EHour: data[4], EMin: data[5],
	}, nil
}

func EncodeBookReply(confirmationID uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, confirmationID)
	return buf
}

func DecodeBookReply(data []byte) (uint32, error) {
	if len(data) != 4 {
		return 0, ErrTruncated
	}
	return binary.BigEndian.Uint32(data), nil
}

// --- CHANGE ------------------------------------------------------------------

type ChangeRequest struct {
	ConfirmationID uint32
	OffsetMinutes  int32
}

func EncodeChangeRequest(r ChangeRequest) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint32(buf[0:4], r.ConfirmationID)
	binary.BigEndian.PutUint32(buf[4:8], uint32(r.OffsetMinutes))
	return buf
}

func DecodeChangeRequest(data []byte) (ChangeRequest, error) {
	if len(data) != 8 {
		return ChangeRequest{}, ErrTruncated
	}
	return ChangeRequest{
		ConfirmationID: binary.BigEndian.Uint32(data[0:4]),
		OffsetMinutes:  int32(binary.BigEndian.Uint32(data[4:8])),
	}, nil
}

// --- REGISTER_MONITOR --------------------------------------------------------

type RegisterMonitorRequest struct {
	Name            string
	IntervalSeconds uint32
}

func EncodeRegisterMonitorRequest(r RegisterMonitorRequest) ([]byte, error) {
	buf, err := putString(nil, r.Name)
	if err != nil {
		return nil, err
	}
	var secBuf [4]byte
	binary.BigEndian.PutUint32(secBuf[:], r.IntervalSeconds)
	buf = append(buf, secBuf[:]...)
	return buf, nil
}

func DecodeRegisterMonitorRequest(data []byte) (RegisterMonitorRequest, error) {
	name, n, err := takeString(data)
	if err != nil {
		return RegisterMonitorRequest{}, err
	}
	data = data[n:]
	if len(data) != 4 {
		return RegisterMonitorRequest{}, ErrTrailingBytes
	}
	return RegisterMonitorRequest{
		Name:            name,
		IntervalSeconds: binary.BigEndian.Uint32(data),
	}, nil
}

// --- OP_A / OP_B (shared optional-name payload) ------------------------------

// DecodeOptionalName decodes the OP_A/OP_B request payload: an empty
// payload means no name was given; otherwise the payload is a single
// length-prefixed string consuming it entirely.
func DecodeOptionalName(data []byte) (name string, has bool, err error) {
	if len(data) == 0 {
		return "", false, nil
	}
	name, n, err := takeString(data)
	if err != nil {
		return "", false, err
	}
	if n != len(data) {
		return "", false, ErrTrailingBytes
	}
	return name, true, nil
}

// EncodeOptionalName encodes the OP_A/OP_B request payload.
func EncodeOptionalName(name string, has bool) ([]byte, error) {
	if !has {
		return nil, nil
	}
	return putString(nil, name)
}
