package db

import (
	"fmt"
	"log"
	"os"

	"school_resource_hub/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func ConnectDB() *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	if err := Migrate(conn); err != nil {
		log.Fatal("Failed to migrate models: ", err)
	}
	log.Println("Database connected")
	return conn
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{}, &models.Category{}, &models.Resource{},
		&models.Loan{}, &models.Reservation{}, &models.TransitionLog{},
	); err != nil {
		return err
	}

	// Reconciliation scans active loans and loaned resources; keep both cheap.
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_active
	  ON %s (created_at DESC)
	  WHERE status = 'active';
	`, models.LoanTable, models.LoanTable)).Error; err != nil {
		return err
	}

	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_loaned
	  ON %s (id)
	  WHERE status = 'prestado';
	`, models.ResourceTable, models.ResourceTable)).Error; err != nil {
		return err
	}

	return nil
}
