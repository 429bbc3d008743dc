package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Port is a ferry terminal.
type Port struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	City         string    `gorm:"not null" json:"city"`
	Code         string    `gorm:"type:varchar(8);unique;not null" json:"code"`
	Address      string    `json:"address,omitempty"`
	ContactPhone string    `json:"contact_phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Ship is a vessel operating schedules.
type Ship struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	OperatorName string    `json:"operator_name,omitempty"`
	Capacity     int       `gorm:"not null" json:"capacity"`
	YearBuilt    int       `json:"year_built,omitempty"`
	Facilities   string    `json:"facilities,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Schedule is one published voyage between two ports. Immutable once
// published; per-class seat availability is the only field the engine
// mutates, and only through the explicit decrement/restore operations.
type Schedule struct {
	ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ShipID          uuid.UUID `gorm:"type:uuid;index;not null" json:"ship_id"`
	DeparturePortID uuid.UUID `gorm:"type:uuid;index;not null" json:"departure_port_id"`
	ArrivalPortID   uuid.UUID `gorm:"type:uuid;index;not null" json:"arrival_port_id"`
	DepartureTime   time.Time `gorm:"index;not null" json:"departure_time"`
	ArrivalTime     time.Time `gorm:"not null" json:"arrival_time"`
	DurationMinutes int       `gorm:"not null" json:"duration_minutes"`
	Status          string    `gorm:"type:varchar(20);check:status IN ('scheduled', 'departed', 'cancelled');default:'scheduled'" json:"status"`
	CreatedAt       time.Time `json:"created_at"`

	// Relationships
	Ship          *Ship           `json:"ship,omitempty" gorm:"foreignKey:ShipID"`
	DeparturePort *Port           `json:"departure_port,omitempty" gorm:"foreignKey:DeparturePortID"`
	ArrivalPort   *Port           `json:"arrival_port,omitempty" gorm:"foreignKey:ArrivalPortID"`
	Classes       []ClassOffering `json:"classes,omitempty" gorm:"foreignKey:ScheduleID;constraint:OnDelete:CASCADE;"`
}

// ClassOffering is one bookable class on a schedule. Prices are in the
// smallest currency unit.
type ClassOffering struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ScheduleID     uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_schedule_class" json:"schedule_id"`
	Class          string    `gorm:"not null;uniqueIndex:idx_schedule_class" json:"class"`
	Price          int64     `gorm:"not null" json:"price"`
	SeatCapacity   int       `gorm:"not null" json:"seat_capacity"`
	AvailableSeats int       `gorm:"not null" json:"available_seats"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Port) TableName() string          { return "ports" }
func (Ship) TableName() string          { return "ships" }
func (Schedule) TableName() string      { return "schedules" }
func (ClassOffering) TableName() string { return "class_offerings" }

// OfferingFor returns the class offering with the given label, if present.
func (s *Schedule) OfferingFor(class string) (*ClassOffering, bool) {
	for i := range s.Classes {
		if s.Classes[i].Class == class {
			return &s.Classes[i], true
		}
	}
	return nil, false
}

// SearchCriteria narrows a schedule search.
type SearchCriteria struct {
	DeparturePortID uuid.UUID
	ArrivalPortID   uuid.UUID
	Date            time.Time
}
