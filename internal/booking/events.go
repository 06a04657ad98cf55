package booking

import (
	"log"
	"time"
)

const (
	EventCreated  = "booking.created"
	EventApproved = "booking.approved"
	EventRejected = "booking.rejected"
	EventDeleted  = "booking.deleted"
)

// EventPublisher delivers booking lifecycle events to a message broker.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// Event is the message body published for every lifecycle change.
type Event struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id"`
	ItemID     string    `json:"item_id"`
	BookerID   string    `json:"booker_id"`
	OwnerID    string    `json:"owner_id"`
	Status     Status    `json:"status"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	OccurredAt time.Time `json:"occurred_at"`
}

func newEvent(eventType string, b *Booking, at time.Time) Event {
	return Event{
		Type:       eventType,
		BookingID:  b.ID,
		ItemID:     b.ItemID,
		BookerID:   b.BookerID,
		OwnerID:    b.Item.OwnerID,
		Status:     b.Status,
		StartTime:  b.StartTime,
		EndTime:    b.EndTime,
		OccurredAt: at,
	}
}

// publish sends the event after the store write has committed.
// Delivery failures are logged and never undo the write.
func (s *service) publish(eventType string, b *Booking) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(eventType, newEvent(eventType, b, s.clock.Now())); err != nil {
		log.Printf("warning: failed to publish %s for booking %s: %v", eventType, b.ID, err)
	}
}
