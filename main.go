package main

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/ppisarski/Climate-Data-Daily-IDN/adapters/api"
	"github.com/ppisarski/Climate-Data-Daily-IDN/adapters/climatefile"
	"github.com/ppisarski/Climate-Data-Daily-IDN/adapters/postgres"
	"github.com/ppisarski/Climate-Data-Daily-IDN/app"
	"github.com/ppisarski/Climate-Data-Daily-IDN/internal/config"
	"github.com/ppisarski/Climate-Data-Daily-IDN/internal/errors"
	"github.com/ppisarski/Climate-Data-Daily-IDN/internal/migration"
	"github.com/ppisarski/Climate-Data-Daily-IDN/internal/testkit"
	"github.com/ppisarski/Climate-Data-Daily-IDN/ports"
)

// initDatabase connects to PostgreSQL and brings the schema up to date
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Results go to PostgreSQL when configured, otherwise they are held in
	// memory for the lifetime of the process and served from there.
	var results ports.ResultRepository
	if appConfig.Database.URL != "" {
		db, err := initDatabase(appConfig)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
		results = postgres.NewResultRepository(db)
		log.Println("Result persistence: PostgreSQL")
	} else {
		results = testkit.NewInMemoryResultRepository()
		log.Println("Result persistence: in-memory (no DATABASE_URL)")
	}

	reader := climatefile.NewReader(
		appConfig.Data.ClimateFile,
		appConfig.Data.StationFile,
		appConfig.Data.ProvinceFile,
	)

	service := app.NewComparisonService(reader, results)
	report, err := service.RunComparison(context.Background(), appConfig)
	if err != nil {
		if app.IsDataError(err) {
			log.Fatalf("Dataset rejected: %v", err)
		}
		log.Fatalf("Evaluation run failed: %v", err)
	}

	log.Printf("Run %s complete: ranking=%v fingerprint=%s",
		report.RunID, report.Ranking, report.Fingerprint)

	server := api.NewApp(api.Config{Port: appConfig.Server.Port}, results)
	if err := server.Start(); err != nil {
		log.Fatalf("API server failed: %v", err)
	}
}
