package bookings

// Status is the booking lifecycle state. The operational progression moves
// one step at a time; Cancelled is reachable from any state before Boarding.
type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusPaid           Status = "paid"
	StatusConfirmed      Status = "confirmed"
	StatusBoarding       Status = "boarding"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

// next maps each status to its single operational successor.
var next = map[Status]Status{
	StatusPendingPayment: StatusPaid,
	StatusPaid:           StatusConfirmed,
	StatusConfirmed:      StatusBoarding,
	StatusBoarding:       StatusCompleted,
}

func (s Status) CanTransitionTo(target Status) bool {
	if target == StatusCancelled {
		return s == StatusPendingPayment || s == StatusPaid || s == StatusConfirmed
	}
	return next[s] == target
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPendingPayment, StatusPaid, StatusConfirmed, StatusBoarding, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}
