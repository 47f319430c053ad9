package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"lawnly/internal/config"
	"lawnly/internal/database"
	"lawnly/internal/export"
	"lawnly/internal/logging"
	"lawnly/internal/models"
)

// Standalone export tool: writes the bookings in a date range to an xlsx
// workbook without going through the API.
func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	var (
		startStr = flag.String("start", "", "range start (YYYY-MM-DD)")
		endStr   = flag.String("end", "", "range end (YYYY-MM-DD)")
	)
	flag.Parse()

	if *startStr == "" || *endStr == "" {
		return fmt.Errorf("both -start and -end are required")
	}
	start, err := time.Parse(models.DateLayout, *startStr)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	end, err := time.Parse(models.DateLayout, *endStr)
	if err != nil {
		return fmt.Errorf("invalid -end: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("end date before start date")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}
	logger := logging.Component(baseLogger, "export-main")

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	bookings, err := db.GetBookingsByDateRange(context.Background(), start, end)
	if err != nil {
		return fmt.Errorf("load bookings: %w", err)
	}

	exporter := export.NewExporter(cfg.Exports.Path, &logger)
	path, err := exporter.BookingsWorkbook(bookings, start, end)
	if err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	fmt.Printf("exported %d bookings to %s\n", len(bookings), path)
	return nil
}
