package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHarnessBookAndQueryRoundTrip(t *testing.T) {
	h, err := NewTestHarness(HarnessOptions{Semantic: AtLeastOnce})
	require.NoError(t, err)
	defer h.Close()

	id, err := h.Client.Book("RoomA", 0, 9, 0, 0, 10, 0)
	require.NoError(t, err)
	require.NotZero(t, id)

	days, err := h.Client.Query("RoomA", []uint8{0})
	require.NoError(t, err)
	require.Len(t, days, 1)
	require.Len(t, days[0].Intervals, 1)
	require.Equal(t, uint16(9*60), days[0].Intervals[0].StartOfDayMin)
	require.Equal(t, uint16(10*60), days[0].Intervals[0].EndOfDayMin)
}

func TestServerBookDirectBypassesWire(t *testing.T) {
	h, err := NewTestHarness(HarnessOptions{Semantic: AtLeastOnce})
	require.NoError(t, err)
	defer h.Close()

	facilities := h.Server.ListFacilities()
	require.NotEmpty(t, facilities, "expected bootstrap facilities to be seeded")

	id, err := h.Server.BookDirect("RoomA", 2, 8, 0, 2, 9, 0)
	require.NoError(t, err)
	require.NotZero(t, id)

	_, err = h.Server.BookDirect("NoSuchRoom", 2, 8, 0, 2, 9, 0)
	require.True(t, IsCode(err, ErrCodeNotFound))
}

func TestHarnessBookUnknownFacilityReturnsNotFound(t *testing.T) {
	h, err := NewTestHarness(HarnessOptions{Semantic: AtLeastOnce})
	require.NoError(t, err)
	defer h.Close()

	_, err = h.Client.Book("NoSuchRoom", 0, 9, 0, 0, 10, 0)
	require.True(t, IsCode(err, ErrCodeNotFound))
}

func TestHarnessMonitorDeliversUpdateOnBooking(t *testing.T) {
	h, err := NewTestHarness(HarnessOptions{Semantic: AtLeastOnce})
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, h.Client.RegisterMonitor("RoomB", 5*time.Second))

	_, err = h.Client.Book("RoomB", 1, 14, 0, 1, 15, 0)
	require.NoError(t, err)

	select {
	case update := <-h.Client.Monitors():
		require.Equal(t, "RoomB", update.FacilityName)
		require.Len(t, update.Bookings, 1)
	case <-time.After(2 * time.Second):
		t.Fatalf("monitor update was not delivered")
	}
}
