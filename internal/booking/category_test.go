package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

func newTestBooking(id string, start, end time.Duration, status Status) *Booking {
	return &Booking{
		ID:        id,
		StartTime: testNow.Add(start),
		EndTime:   testNow.Add(end),
		Status:    status,
	}
}

func ids(bookings []*Booking) []string {
	out := make([]string, len(bookings))
	for i, b := range bookings {
		out[i] = b.ID
	}
	return out
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input   string
		want    Category
		wantErr bool
	}{
		{input: "ALL", want: CategoryAll},
		{input: "current", want: CategoryCurrent},
		{input: " Past ", want: CategoryPast},
		{input: "FUTURE", want: CategoryFuture},
		{input: "waiting", want: CategoryWaiting},
		{input: "REJECTED", want: CategoryRejected},
		{input: "PPS", wantErr: true},
		{input: "APPROVED", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCategory(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownState)
				assert.EqualError(t, err, "Unknown state: UNSUPPORTED_STATUS")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategory_Matches(t *testing.T) {
	current := newTestBooking("current", -day, day, StatusApproved)
	past := newTestBooking("past", -3*day, -2*day, StatusApproved)
	future := newTestBooking("future", day, 2*day, StatusWaiting)
	rejected := newTestBooking("rejected", 2*day, 3*day, StatusRejected)

	tests := []struct {
		category Category
		booking  *Booking
		want     bool
	}{
		{CategoryAll, current, true},
		{CategoryAll, rejected, true},
		{CategoryCurrent, current, true},
		{CategoryCurrent, past, false},
		{CategoryCurrent, future, false},
		{CategoryPast, past, true},
		{CategoryPast, current, false},
		{CategoryFuture, future, true},
		{CategoryFuture, rejected, true},
		{CategoryFuture, current, false},
		{CategoryWaiting, future, true},
		{CategoryWaiting, current, false},
		{CategoryRejected, rejected, true},
		{CategoryRejected, future, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.category)+"/"+tt.booking.ID, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.category.Matches(tt.booking, testNow))
		})
	}
}

func TestCategory_Boundaries(t *testing.T) {
	startsNow := newTestBooking("starts-now", 0, time.Hour, StatusWaiting)
	assert.True(t, CategoryCurrent.Matches(startsNow, testNow))
	assert.False(t, CategoryFuture.Matches(startsNow, testNow))

	endsNow := newTestBooking("ends-now", -time.Hour, 0, StatusApproved)
	assert.False(t, CategoryCurrent.Matches(endsNow, testNow))
	assert.False(t, CategoryPast.Matches(endsNow, testNow))
}

func TestCategory_TimeCategoriesAreDisjoint(t *testing.T) {
	var bookings []*Booking
	offsets := []time.Duration{-5 * day, -day, -time.Minute, time.Minute, day, 5 * day}
	for i, start := range offsets {
		for _, length := range []time.Duration{time.Hour, 2 * day} {
			bookings = append(bookings, newTestBooking(string(rune('a'+i)), start, start+length, StatusApproved))
		}
	}

	for _, b := range bookings {
		n := 0
		for _, c := range []Category{CategoryCurrent, CategoryPast, CategoryFuture} {
			if c.Matches(b, testNow) {
				n++
			}
		}
		assert.Equal(t, 1, n, "booking %s..%s", b.StartTime, b.EndTime)
	}
}

func TestCategory_Predicate(t *testing.T) {
	assert.Nil(t, CategoryAll.Predicate(testNow))

	tests := []struct {
		category Category
		wantSQL  string
		wantArgs []any
	}{
		{CategoryCurrent, "(b.start_time <= ? AND b.end_time > ?)", []any{testNow, testNow}},
		{CategoryPast, "b.end_time < ?", []any{testNow}},
		{CategoryFuture, "b.start_time > ?", []any{testNow}},
		{CategoryWaiting, "b.status = ?", []any{StatusWaiting}},
		{CategoryRejected, "b.status = ?", []any{StatusRejected}},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			sql, args, err := tt.category.Predicate(testNow).ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestClassify(t *testing.T) {
	bookings := []*Booking{
		newTestBooking("b", day, 2*day, StatusWaiting),
		newTestBooking("a", day, 2*day, StatusWaiting),
		newTestBooking("old", -3*day, -2*day, StatusApproved),
		newTestBooking("later", 4*day, 5*day, StatusRejected),
		newTestBooking("now", -day, day, StatusApproved),
	}

	assert.Equal(t, []string{"later", "a", "b", "now", "old"}, ids(Classify(CategoryAll, testNow, bookings)))
	assert.Equal(t, []string{"later", "a", "b"}, ids(Classify(CategoryFuture, testNow, bookings)))
	assert.Equal(t, []string{"a", "b"}, ids(Classify(CategoryWaiting, testNow, bookings)))
	assert.Equal(t, []string{"old"}, ids(Classify(CategoryPast, testNow, bookings)))
	assert.Equal(t, []string{"now"}, ids(Classify(CategoryCurrent, testNow, bookings)))
	assert.Empty(t, Classify(CategoryRejected, testNow, bookings[:3]))

	// Input order is untouched.
	assert.Equal(t, "b", bookings[0].ID)
}
