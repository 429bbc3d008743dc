package notifications

import "time"

const (
	EventBookingCreated   = "booking.created"
	EventBookingPaid      = "booking.paid"
	EventBookingCancelled = "booking.cancelled"
	EventBookingExpired   = "booking.expired"
	EventBookingCompleted = "booking.completed"
)

// BookingEvent is the JSON payload published for each lifecycle transition.
// Keyed by booking code so all events for one booking land on one partition,
// in order.
type BookingEvent struct {
	Type           string    `json:"type"`
	BookingCode    string    `json:"booking_code"`
	ScheduleID     string    `json:"schedule_id"`
	Class          string    `json:"class"`
	Status         string    `json:"status"`
	PassengerCount int       `json:"passenger_count"`
	Amount         int64     `json:"amount"`
	ContactEmail   string    `json:"contact_email,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
