package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/cretedrive/rental-booking-backend/internal/config"
	"github.com/cretedrive/rental-booking-backend/internal/database"
)

func main() {
	var (
		dbURLFlag    string
		includeStaff bool
		dataDir      string
	)
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.BoolVar(&includeStaff, "staff", false, "also remove staff users")
	flag.StringVar(&dataDir, "data-dir", "", "also empty the file booking store in this directory")
	flag.Parse()

	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	db, err := database.NewConnection(config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     5,
		MaxIdleConnections: 2,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	tables := []string{"payment_events", "bookings"}
	if includeStaff {
		tables = append(tables, "staff_users")
	}

	fmt.Println("Connected to database. Truncating tables...")
	if _, err := db.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(tables, ", "))); err != nil {
		log.Fatalf("failed to truncate tables: %v", err)
	}

	if dataDir != "" {
		store, err := database.NewFileBookingStore(dataDir)
		if err != nil {
			log.Fatalf("failed to open file store: %v", err)
		}
		if err := store.ReplaceAll(context.Background(), nil); err != nil {
			log.Fatalf("failed to empty file store: %v", err)
		}
		fmt.Printf("Emptied %s\n", store.Path())
	}

	fmt.Println("Post-clear row counts:")
	for _, t := range tables {
		var count int
		if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", t)).Scan(&count); err != nil {
			fmt.Printf("  %s: error: %v\n", t, err)
			continue
		}
		fmt.Printf("  %s: %d\n", t, count)
	}
}
