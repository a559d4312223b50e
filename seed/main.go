// seed/main.go
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Jhector1/learnoir-api/seed/seeders"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	var (
		seedType = flag.String("type", "all", "Type of seeding: all, sections, instances")
		dsn      = flag.String("dsn", "", "Postgres DSN (overrides DATABASE_URL env var)")
		help     = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	databaseURL := *dsn
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		databaseURL = dsnFromEnv()
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Connected to database")

	practiceSeeder := seeders.NewPracticeSeeder(db)

	switch *seedType {
	case "all":
		log.Println("Running complete database seeding...")
		if err := practiceSeeder.SeedAll(); err != nil {
			log.Fatalf("Failed to seed database: %v", err)
		}
	case "sections":
		log.Println("Seeding sections only...")
		if err := practiceSeeder.SeedSections(); err != nil {
			log.Fatalf("Failed to seed sections: %v", err)
		}
	case "instances":
		log.Println("Seeding instances only...")
		if err := practiceSeeder.SeedInstances(); err != nil {
			log.Fatalf("Failed to seed instances: %v", err)
		}
	default:
		log.Fatalf("Unknown seed type: %s. Use 'all', 'sections', or 'instances'", *seedType)
	}

	log.Println("Seeding operation completed successfully!")
}

func dsnFromEnv() string {
	host := envOr("DB_HOST", "localhost")
	port := envOr("DB_PORT", "5432")
	user := envOr("DB_USER", "postgres")
	password := envOr("DB_PASSWORD", "postgres")
	dbname := envOr("DB_NAME", "learnoir_api")
	sslmode := envOr("DB_SSLMODE", "disable")

	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		host, user, password, dbname, port, sslmode)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func showHelp() {
	log.Println(`
Database Seeding Tool for the Learnoir Practice API

Usage: go run seed/main.go [flags]

Flags:
  -type string
        Type of seeding to perform (default "all")
        Options: all, sections, instances
  -dsn string
        Postgres DSN (overrides DATABASE_URL environment variable)
  -help
        Show this help message

Examples:
  # Seed everything
  go run seed/main.go

  # Seed only sections
  go run seed/main.go -type=sections

Environment Variables:
  DATABASE_URL - Postgres connection string
  DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME, DB_SSLMODE - used when DATABASE_URL is unset
`)
}
