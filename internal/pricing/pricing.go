package pricing

// Fees are the fixed per-passenger charges in the smallest currency unit.
type Fees struct {
	AdminFee   int64 `json:"admin_fee"`
	ServiceFee int64 `json:"service_fee"`
}

// DefaultFees returns the standard per-passenger fee schedule.
func DefaultFees() Fees {
	return Fees{
		AdminFee:   5000,
		ServiceFee: 10000,
	}
}

// Breakdown itemizes the amount due for a booking. All values are in the
// smallest currency unit; inputs are integral so there is no rounding.
type Breakdown struct {
	TicketPrice int64 `json:"ticket_price"`
	AdminFee    int64 `json:"admin_fee"`
	ServiceFee  int64 `json:"service_fee"`
	Total       int64 `json:"total"`
}

// Quote computes the fee breakdown for totalPassengers tickets at unitPrice.
// Pure function: same inputs always produce the same breakdown, so a persisted
// booking amount can be recomputed and audited against it.
func Quote(unitPrice int64, totalPassengers int, fees Fees) Breakdown {
	n := int64(totalPassengers)
	b := Breakdown{
		TicketPrice: unitPrice * n,
		AdminFee:    fees.AdminFee * n,
		ServiceFee:  fees.ServiceFee * n,
	}
	b.Total = b.TicketPrice + b.AdminFee + b.ServiceFee
	return b
}
