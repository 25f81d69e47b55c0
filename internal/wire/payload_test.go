package wire

import (
	"errors"
	"reflect"
	"testing"
)

func TestQueryRequestRoundTrip(t *testing.T) {
	r := QueryRequest{Name: "RoomA", Days: []uint8{0, 3, 6}}
	encoded, err := EncodeQueryRequest(r)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeQueryRequest(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != r.Name || !reflect.DeepEqual(got.Days, r.Days) {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, r)
	}
}

func TestQueryRequestEmptyDaysMeansAllWeek(t *testing.T) {
	r := QueryRequest{Name: "RoomA"}
	encoded, err := EncodeQueryRequest(r)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeQueryRequest(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Days) != 0 {
		t.Fatalf("expected no days, got %v", got.Days)
	}
}

func TestQueryReplyRoundTrip(t *testing.T) {
	days := []DayAvailability{
		{Day: 0, Intervals: []Interval{{StartOfDayMin: 0, EndOfDayMin: 60}}},
		{Day: 6, Intervals: nil},
	}
	encoded := EncodeQueryReply(days)
	got, err := DecodeQueryReply(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].Day != 0 || len(got[0].Intervals) != 1 || got[0].Intervals[0].EndOfDayMin != 60 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got[1].Day != 6 || len(got[1].Intervals) != 0 {
		t.Fatalf("unexpected second day: %+v", got[1])
	}
}

func TestBookRequestRoundTrip(t *testing.T) {
	r := BookRequest{Name: "RoomB", SDay: 1, SHour: 9, SMin: 0, EDay: 1, EHour: 10, EMin: 0}
	encoded, err := EncodeBookRequest(r)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeBookRequest(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != r {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, r)
	}
}

func TestBookReplyRoundTrip(t *testing.T) {
	encoded := EncodeBookReply(123456)
	got, err := DecodeBookReply(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != 123456 {
		t.Fatalf("got %d, want 123456", got)
	}
}

func TestChangeRequestRoundTripNegativeOffset(t *testing.T) {
	r := ChangeRequest{ConfirmationID: 9, OffsetMinutes: -120}
	encoded := EncodeChangeRequest(r)
	got, err := DecodeChangeRequest(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != r {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, r)
	}
}

func TestRegisterMonitorRequestRoundTrip(t *testing.T) {
	r := RegisterMonitorRequest{Name: "RoomA", IntervalSeconds: 3600}
	encoded, err := EncodeRegisterMonitorRequest(r)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeRegisterMonitorRequest(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != r {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, r)
	}
}

func TestOptionalNamePresentAndAbsent(t *testing.T) {
	absent, err := EncodeOptionalName("", false)
	if err != nil {
		t.Fatalf("encode absent: %v", err)
	}
	name, has, err := DecodeOptionalName(absent)
	if err != nil || has || name != "" {
		t.Fatalf("expected absent name, got name=%q has=%v err=%v", name, has, err)
	}

	present, err := EncodeOptionalName("RoomA", true)
	if err != nil {
		t.Fatalf("encode present: %v", err)
	}
	name, has, err = DecodeOptionalName(present)
	if err != nil || !has || name != "RoomA" {
		t.Fatalf("expected present name RoomA, got name=%q has=%v err=%v", name, has, err)
	}
}

func TestCallbackRoundTrip(t *testing.T) {
	c := Callback{
		FacilityName: "RoomA",
		Bookings: []WeekInterval{
			{StartMinOfWeek: 0, EndMinOfWeek: 60},
			{StartMinOfWeek: 10000, EndMinOfWeek: 10080},
		},
	}
	encoded, err := EncodeCallback(c)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeCallback(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.FacilityName != c.FacilityName || !reflect.DeepEqual(got.Bookings, c.Bookings) {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, c)
	}
}

func TestDecodeQueryRequestTrailingBytes(t *testing.T) {
	encoded, _ := EncodeQueryRequest(QueryRequest{Name: "X", Days: []uint8{0}})
	encoded = append(encoded, 0xFF)
	if _, err := DecodeQueryRequest(encoded); !errors.Is(err, ErrTrailingBytes) {
		t.Fatalf("expected ErrTrailingBytes, got %v", err)
	}
}
