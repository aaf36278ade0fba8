package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/numtrip/numtrip-backend/internal/config"
	"github.com/numtrip/numtrip-backend/internal/database"
	"github.com/numtrip/numtrip-backend/internal/models"
	"github.com/numtrip/numtrip-backend/internal/services"
	"github.com/numtrip/numtrip-backend/pkg/places"
)

func main() {
	city := flag.String("city", "", "City to import businesses for (required)")
	category := flag.String("category", "hotel", "Business category: hotel, restaurant, tour, transport, attraction")
	limit := flag.Int("limit", 20, "Maximum number of results to process")
	skipDuplicates := flag.Bool("skip-duplicates", true, "Skip results that match an existing business")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	if *city == "" {
		fmt.Fprintln(os.Stderr, "Usage: import-businesses -city <city> [-category hotel] [-limit 20] [-skip-duplicates]")
		os.Exit(1)
	}

	switch models.BusinessCategory(*category) {
	case models.CategoryHotel, models.CategoryRestaurant, models.CategoryTour, models.CategoryTransport, models.CategoryAttraction:
	default:
		logger.Fatalf("Invalid category: %s", *category)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Places.APIKey == "" {
		logger.Fatal("PLACES_API_KEY is required for imports")
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	businessRepo := database.NewBusinessRepository(db)
	placesClient := places.NewClient(cfg.Places.APIKey, cfg.Places.BaseURL)
	dedupService := services.NewDedupService(businessRepo)
	importService := services.NewImportService(placesClient, dedupService, businessRepo, logger)

	summary, err := importService.Run(services.ImportParams{
		City:           *city,
		Category:       models.BusinessCategory(*category),
		Limit:          *limit,
		SkipDuplicates: *skipDuplicates,
	})
	if err != nil {
		logger.Fatalf("Import failed: %v", err)
	}

	fmt.Printf("Processed:  %d\n", summary.Processed)
	fmt.Printf("Imported:   %d\n", summary.Imported)
	fmt.Printf("Duplicates: %d\n", summary.Duplicates)
	fmt.Printf("Landmarks:  %d\n", summary.Landmarks)
	fmt.Printf("Failures:   %d\n", summary.Failures)
}
