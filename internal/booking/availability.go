package booking

import "github.com/nekogravitycat/item-sharing-backend/internal/item"

// CanBook reports whether the item accepts new bookings.
// Overlapping bookings of the same item are not rejected.
func CanBook(it *item.Item) bool {
	return it != nil && it.Available
}
