package booking

import (
	"strings"
	"time"
)

// Summary holds the most recent and the upcoming booking of an item.
type Summary struct {
	Last *Booking
	Next *Booking
}

// Summarize picks the booking with the latest start before now and the one with the earliest start after now.
// Ties on start time go to the smaller id. ok is false unless both sides exist.
func Summarize(bookings []*Booking, now time.Time) (s Summary, ok bool) {
	for _, b := range bookings {
		switch {
		case b.StartTime.Before(now):
			if s.Last == nil || b.StartTime.After(s.Last.StartTime) ||
				(b.StartTime.Equal(s.Last.StartTime) && strings.Compare(b.ID, s.Last.ID) < 0) {
				s.Last = b
			}
		case b.StartTime.After(now):
			if s.Next == nil || b.StartTime.Before(s.Next.StartTime) ||
				(b.StartTime.Equal(s.Next.StartTime) && strings.Compare(b.ID, s.Next.ID) < 0) {
				s.Next = b
			}
		}
	}
	if s.Last == nil || s.Next == nil {
		return Summary{}, false
	}
	return s, true
}
