package booking

// IsParty reports whether userID is the booker or the owner of the booked item.
func IsParty(userID string, b *Booking) bool {
	return userID == b.BookerID || IsOwner(userID, b)
}

// IsOwner reports whether userID owns the booked item.
func IsOwner(userID string, b *Booking) bool {
	return b.Item.OwnerID != "" && userID == b.Item.OwnerID
}
