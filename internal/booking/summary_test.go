package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	t.Run("Picks nearest on each side", func(t *testing.T) {
		bookings := []*Booking{
			newTestBooking("m10", -10*day, -9*day, StatusApproved),
			newTestBooking("p9", 9*day, 10*day, StatusWaiting),
			newTestBooking("m2", -2*day, -day, StatusApproved),
			newTestBooking("p3", 3*day, 4*day, StatusWaiting),
		}

		s, ok := Summarize(bookings, testNow)
		require.True(t, ok)
		assert.Equal(t, "m2", s.Last.ID)
		assert.Equal(t, "p3", s.Next.ID)
	})

	t.Run("Both or neither", func(t *testing.T) {
		onlyPast := []*Booking{newTestBooking("m2", -2*day, -day, StatusApproved)}
		s, ok := Summarize(onlyPast, testNow)
		assert.False(t, ok)
		assert.Nil(t, s.Last)
		assert.Nil(t, s.Next)

		onlyFuture := []*Booking{newTestBooking("p3", 3*day, 4*day, StatusWaiting)}
		_, ok = Summarize(onlyFuture, testNow)
		assert.False(t, ok)

		_, ok = Summarize(nil, testNow)
		assert.False(t, ok)
	})

	t.Run("Start equal to now is neither", func(t *testing.T) {
		bookings := []*Booking{
			newTestBooking("now", 0, time.Hour, StatusWaiting),
			newTestBooking("p1", day, 2*day, StatusWaiting),
		}
		_, ok := Summarize(bookings, testNow)
		assert.False(t, ok)
	})

	t.Run("Ties go to the smaller id", func(t *testing.T) {
		bookings := []*Booking{
			newTestBooking("z-last", -day, 0, StatusApproved),
			newTestBooking("a-last", -day, 0, StatusApproved),
			newTestBooking("z-next", day, 2*day, StatusWaiting),
			newTestBooking("a-next", day, 2*day, StatusWaiting),
		}

		s, ok := Summarize(bookings, testNow)
		require.True(t, ok)
		assert.Equal(t, "a-last", s.Last.ID)
		assert.Equal(t, "a-next", s.Next.ID)
	})
}
