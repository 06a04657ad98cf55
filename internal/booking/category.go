package booking

import (
	"slices"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
)

// Category is a classification of a booking relative to the current instant.
// It is derived for filtering only and never stored.
type Category string

const (
	CategoryAll      Category = "ALL"
	CategoryCurrent  Category = "CURRENT"
	CategoryPast     Category = "PAST"
	CategoryFuture   Category = "FUTURE"
	CategoryWaiting  Category = "WAITING"
	CategoryRejected Category = "REJECTED"
)

var categories = []Category{
	CategoryAll, CategoryCurrent, CategoryPast, CategoryFuture, CategoryWaiting, CategoryRejected,
}

// ParseCategory parses a state query value, ignoring case.
// Unknown values fail with ErrUnknownState instead of falling back to ALL.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if slices.Contains(categories, c) {
		return c, nil
	}
	return "", ErrUnknownState
}

// Matches reports whether b belongs to the category at instant now.
func (c Category) Matches(b *Booking, now time.Time) bool {
	switch c {
	case CategoryAll:
		return true
	case CategoryCurrent:
		return !b.StartTime.After(now) && now.Before(b.EndTime)
	case CategoryPast:
		return b.EndTime.Before(now)
	case CategoryFuture:
		return b.StartTime.After(now)
	case CategoryWaiting:
		return b.Status == StatusWaiting
	case CategoryRejected:
		return b.Status == StatusRejected
	default:
		return false
	}
}

// Predicate returns the SQL condition equivalent to Matches, or nil for ALL.
// Column names assume the bookings table is aliased as b.
func (c Category) Predicate(now time.Time) squirrel.Sqlizer {
	switch c {
	case CategoryCurrent:
		return squirrel.And{
			squirrel.LtOrEq{"b.start_time": now},
			squirrel.Gt{"b.end_time": now},
		}
	case CategoryPast:
		return squirrel.Lt{"b.end_time": now}
	case CategoryFuture:
		return squirrel.Gt{"b.start_time": now}
	case CategoryWaiting:
		return squirrel.Eq{"b.status": StatusWaiting}
	case CategoryRejected:
		return squirrel.Eq{"b.status": StatusRejected}
	default:
		return nil
	}
}

// Classify filters bookings by category and orders them by start time, newest first.
// The input slice is not modified.
func Classify(c Category, now time.Time, bookings []*Booking) []*Booking {
	out := make([]*Booking, 0, len(bookings))
	for _, b := range bookings {
		if c.Matches(b, now) {
			out = append(out, b)
		}
	}
	SortByStartDesc(out)
	return out
}

// SortByStartDesc sorts bookings by start time descending, ties by id ascending.
func SortByStartDesc(bookings []*Booking) {
	slices.SortStableFunc(bookings, func(a, b *Booking) int {
		if c := b.StartTime.Compare(a.StartTime); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
