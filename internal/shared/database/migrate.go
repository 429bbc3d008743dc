package database

import (
	"shipline/internal/bookings"
	"shipline/internal/catalog"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&catalog.Port{},
		&catalog.Ship{},
		&catalog.Schedule{},
		&catalog.ClassOffering{},
		&bookings.Booking{},
		&bookings.PassengerRecord{},
	)
}
