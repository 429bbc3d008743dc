package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"shipline/internal/catalog"
	"shipline/internal/inventory"
	"shipline/internal/shared/config"
	"shipline/internal/shared/database"

	"github.com/google/uuid"
)

type Seeder struct {
	db  *database.DB
	inv inventory.Service
}

func main() {
	fmt.Println("Starting Shipline Database Seeder...")

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	var store inventory.Store
	if db.Redis != nil {
		store = inventory.NewRedisStore(db.GetRedis())
	} else {
		store = inventory.NewMemoryStore()
		fmt.Println("WARNING: no Redis configured, the server will rebuild seat pools in memory at startup")
	}

	seeder := &Seeder{db: db, inv: inventory.NewService(store)}

	fmt.Println("\nCleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("Database cleaned")

	fmt.Println("\nSeeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("\nSeeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in reverse dependency order.
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"booking_passengers",
		"bookings",
		"class_offerings",
		"schedules",
		"ships",
		"ports",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit().Error
}

func (s *Seeder) SeedAll() error {
	ctx := context.Background()

	ports, err := s.SeedPorts()
	if err != nil {
		return fmt.Errorf("failed to seed ports: %w", err)
	}

	ships, err := s.SeedShips()
	if err != nil {
		return fmt.Errorf("failed to seed ships: %w", err)
	}

	if err := s.SeedSchedules(ctx, ports, ships); err != nil {
		return fmt.Errorf("failed to seed schedules: %w", err)
	}

	return nil
}

func (s *Seeder) SeedPorts() ([]catalog.Port, error) {
	ports := []catalog.Port{
		{ID: uuid.New(), Code: "MRK", Name: "Pelabuhan Merak", City: "Cilegon"},
		{ID: uuid.New(), Code: "BKH", Name: "Pelabuhan Bakauheni", City: "Lampung Selatan"},
		{ID: uuid.New(), Code: "KTP", Name: "Pelabuhan Ketapang", City: "Banyuwangi"},
		{ID: uuid.New(), Code: "GLM", Name: "Pelabuhan Gilimanuk", City: "Jembrana"},
		{ID: uuid.New(), Code: "PDB", Name: "Pelabuhan Padangbai", City: "Karangasem"},
		{ID: uuid.New(), Code: "LBR", Name: "Pelabuhan Lembar", City: "Lombok Barat"},
	}

	for i := range ports {
		if err := s.db.PostgreSQL.Create(&ports[i]).Error; err != nil {
			return nil, err
		}
		fmt.Printf("  Created port: %s (%s)\n", ports[i].Name, ports[i].Code)
	}
	return ports, nil
}

func (s *Seeder) SeedShips() ([]catalog.Ship, error) {
	ships := []catalog.Ship{
		{ID: uuid.New(), Name: "KMP Jatra III", OperatorName: "ASDP Indonesia Ferry", Capacity: 400},
		{ID: uuid.New(), Name: "KMP Legundi", OperatorName: "ASDP Indonesia Ferry", Capacity: 350},
		{ID: uuid.New(), Name: "KMP Portlink VIII", OperatorName: "Dharma Lautan Utama", Capacity: 300},
	}

	for i := range ships {
		if err := s.db.PostgreSQL.Create(&ships[i]).Error; err != nil {
			return nil, err
		}
		fmt.Printf("  Created ship: %s\n", ships[i].Name)
	}
	return ships, nil
}

// SeedSchedules creates a week of daily crossings on three routes, each with
// three classes, and provisions the matching seat pools.
func (s *Seeder) SeedSchedules(ctx context.Context, ports []catalog.Port, ships []catalog.Ship) error {
	routes := []struct {
		from, to catalog.Port
		ship     catalog.Ship
		duration time.Duration
	}{
		{ports[0], ports[1], ships[0], 2 * time.Hour},   // Merak - Bakauheni
		{ports[2], ports[3], ships[1], 1 * time.Hour},   // Ketapang - Gilimanuk
		{ports[4], ports[5], ships[2], 4 * time.Hour},   // Padangbai - Lembar
	}

	classes := []struct {
		name     string
		price    int64
		capacity int
	}{
		{"economy", 150000, 48},
		{"business", 250000, 24},
		{"executive", 400000, 12},
	}

	created := 0
	for day := 1; day <= 7; day++ {
		date := time.Now().AddDate(0, 0, day).Truncate(24 * time.Hour)
		for _, route := range routes {
			for _, hour := range []int{8, 14, 20} {
				departure := date.Add(time.Duration(hour) * time.Hour)
				schedule := catalog.Schedule{
					ID:              uuid.New(),
					ShipID:          route.ship.ID,
					DeparturePortID: route.from.ID,
					ArrivalPortID:   route.to.ID,
					DepartureTime:   departure,
					ArrivalTime:     departure.Add(route.duration),
					DurationMinutes: int(route.duration.Minutes()),
					Status:          "scheduled",
				}
				for _, class := range classes {
					schedule.Classes = append(schedule.Classes, catalog.ClassOffering{
						ID:             uuid.New(),
						Class:          class.name,
						Price:          class.price,
						SeatCapacity:   class.capacity,
						AvailableSeats: class.capacity,
					})
				}

				if err := s.db.PostgreSQL.Create(&schedule).Error; err != nil {
					return err
				}
				for _, class := range classes {
					if err := s.inv.ProvisionPool(ctx, schedule.ID.String(), class.name, class.capacity); err != nil {
						return fmt.Errorf("provision %s/%s: %w", schedule.ID, class.name, err)
					}
				}
				created++
			}
		}
	}

	fmt.Printf("  Created %d schedules with seat pools provisioned\n", created)
	return nil
}
