package bookings

import (
	"time"

	"github.com/google/uuid"
)

// Booking is the persisted outcome of a committed reservation session. Money
// fields are in the smallest currency unit. The contact block is a snapshot:
// later edits to a customer profile never rewrite a booking.
type Booking struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Code           string    `gorm:"type:varchar(16);uniqueIndex;not null" json:"code"`
	ScheduleID     uuid.UUID `gorm:"type:uuid;index;not null" json:"schedule_id"`
	Class          string    `gorm:"not null" json:"class"`
	PassengerCount int       `gorm:"not null" json:"passenger_count"`

	ContactName  string `gorm:"not null" json:"contact_name"`
	ContactEmail string `gorm:"index;not null" json:"contact_email"`
	ContactPhone string `gorm:"not null" json:"contact_phone"`

	TicketPrice   int64  `gorm:"not null" json:"ticket_price"`
	AdminFee      int64  `gorm:"not null" json:"admin_fee"`
	ServiceFee    int64  `gorm:"not null" json:"service_fee"`
	PaymentAmount int64  `gorm:"not null" json:"payment_amount"`
	PaymentMethod string `gorm:"type:varchar(40)" json:"payment_method,omitempty"`
	ExternalRef   string `gorm:"type:varchar(120)" json:"external_ref,omitempty"`

	Status        Status     `gorm:"type:varchar(20);index;not null" json:"status"`
	PaymentExpiry time.Time  `gorm:"index;not null" json:"payment_expiry"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Passengers []PassengerRecord `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE;" json:"passengers,omitempty"`
}

type PassengerRecord struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID uuid.UUID  `gorm:"type:uuid;index;not null" json:"booking_id"`
	Category  string     `gorm:"type:varchar(10);not null" json:"category"`
	Name      string     `gorm:"not null" json:"name"`
	IDType    string     `gorm:"type:varchar(20);not null" json:"id_type"`
	IDNumber  string     `gorm:"not null" json:"id_number"`
	Gender    string     `gorm:"type:varchar(10)" json:"gender,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	SeatID    string     `gorm:"not null" json:"seat_id"`
	Phone     string     `json:"phone,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (Booking) TableName() string         { return "bookings" }
func (PassengerRecord) TableName() string { return "booking_passengers" }

// SeatIDs collects the seats this booking occupies, one per passenger.
func (b *Booking) SeatIDs() []string {
	ids := make([]string, 0, len(b.Passengers))
	for _, p := range b.Passengers {
		ids = append(ids, p.SeatID)
	}
	return ids
}
