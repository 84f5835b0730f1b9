// File: /database/database.go
package database

import (
	"fmt"
	"log"
	"time"

	"campus-events-api/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Initialize opens the relational store. driver is "mysql" or "sqlite".
func Initialize(driver, databaseURL string, logLevel logger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(databaseURL)
	case "sqlite":
		dialector = sqlite.Open(databaseURL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logLevel),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		// A single connection keeps in-memory databases alive and serialises writers.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sqlite handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	// Auto migrate all models
	err := db.AutoMigrate(
		&models.User{},
		&models.Activity{},
		&models.ActivityTag{},
		&models.ActivityAttendee{},
		&models.EventRegistration{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Add custom indexes for better performance
	if err := addCustomIndexes(db); err != nil {
		return fmt.Errorf("failed to add custom indexes: %w", err)
	}

	return nil
}

func addCustomIndexes(db *gorm.DB) error {
	indexes := []struct {
		model interface{}
		name  string
		ddl   string
	}{
		// Listing queries filter on both flags and sort by start date
		{&models.Activity{}, "idx_activities_listing", "CREATE INDEX idx_activities_listing ON activities(is_hidden, is_archived, start_date)"},
		// Tag filter resolves activity ids from tag values
		{&models.ActivityTag{}, "idx_activity_tags_tag_activity", "CREATE INDEX idx_activity_tags_tag_activity ON activity_tags(tag, activity_id)"},
		// Per-activity registration listing
		{&models.EventRegistration{}, "idx_event_registrations_activity_created", "CREATE INDEX idx_event_registrations_activity_created ON event_registrations(activity_id, created_at)"},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.model, idx.name) {
			continue
		}
		if err := db.Exec(idx.ddl).Error; err != nil {
			log.Printf("Warning: Could not create index %s: %v", idx.name, err)
		}
	}

	return nil
}

// SeedData populates an empty database with an admin account and a
// system-owned sample activity for development.
func SeedData(db *gorm.DB, adminEmail, adminPassword string, cost int) error {
	var userCount int64
	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		return err
	}

	if userCount > 0 {
		log.Println("Database already has data, skipping seed")
		return nil
	}

	if adminEmail != "" && adminPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), cost)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}
		admin := models.User{
			ID:        uuid.New().String(),
			FirstName: "Site",
			LastName:  "Admin",
			Email:     adminEmail,
			Password:  string(hash),
			Role:      models.RoleAdmin,
		}
		if err := db.Create(&admin).Error; err != nil {
			log.Printf("Warning: Could not create admin user %s: %v", adminEmail, err)
		}
	}

	start := time.Now().Add(7 * 24 * time.Hour).Truncate(time.Hour)
	welcome := models.Activity{
		ID:          uuid.New().String(),
		Title:       "Welcome Week Open House",
		Description: "Meet student clubs and organisations.",
		StartDate:   start,
		EndDate:     start.Add(3 * time.Hour),
		Location:    "Student Union",
		Host:        "Student Life",
		Capacity:    "200",
		Tags:        models.StringSlice{"Social", "Orientation"},
		TagIndex:    []models.ActivityTag{{Tag: "social"}, {Tag: "orientation"}},
	}
	if err := db.Create(&welcome).Error; err != nil {
		log.Printf("Warning: Could not create sample activity: %v", err)
	}

	log.Println("Database seeded with development data")
	return nil
}
