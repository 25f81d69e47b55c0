package weektime

import "testing"

func TestToMinuteValid(t *testing.T) {
	cases := []struct {
		day, hour, minute uint8
		want              int
	}{
		{0, 0, 0, 0},
		{0, 0, 1, 1},
		{1, 0, 0, 1440},
		{6, 23, 59, 10079},
	}
	for _, c := range cases {
		got, ok := ToMinute(c.day, c.hour, c.minute)
		if !ok {
			t.Fatalf("ToMinute(%d,%d,%d) not ok", c.day, c.hour, c.minute)
		}
		if got != c.want {
			t.Fatalf("ToMinute(%d,%d,%d) = %d, want %d", c.day, c.hour, c.minute, got, c.want)
		}
	}
}

func TestToMinuteInvalid(t *testing.T) {
	cases := []struct{ day, hour, minute uint8 }{
		{7, 0, 0},
		{0, 24, 0},
		{0, 0, 60},
	}
	for _, c := range cases {
		if _, ok := ToMinute(c.day, c.hour, c.minute); ok {
			t.Fatalf("ToMinute(%d,%d,%d) should not be ok", c.day, c.hour, c.minute)
		}
	}
}

func TestSplitRoundTrip(t *testing.T) {
	for t0 := 0; t0 < 10080; t0 += 37 {
		day, hour, minute := Split(t0)
		got, ok := ToMinute(day, hour, minute)
		if !ok || got != t0 {
			t.Fatalf("round trip failed for %d: got day=%d hour=%d minute=%d -> %d", t0, day, hour, minute, got)
		}
	}
}

func TestInRange(t *testing.T) {
	if !InRange(0) || !InRange(10080) {
		t.Fatalf("boundaries should be in range")
	}
	if InRange(-1) || InRange(10081) {
		t.Fatalf("out-of-range values incorrectly accepted")
	}
}
