package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/numtrip/numtrip-backend/internal/database"
	"github.com/numtrip/numtrip-backend/internal/models"
	"github.com/numtrip/numtrip-backend/pkg/places"
)

// pageTokenDelay is how long the Places API needs before a freshly issued
// next_page_token becomes usable.
const pageTokenDelay = 2 * time.Second

// PlacesSearcher is the slice of the Places client the importer depends on
type PlacesSearcher interface {
	TextSearch(query, pageToken string) (*places.SearchResponse, error)
}

// ImportParams drives one import run
type ImportParams struct {
	City           string
	Category       models.BusinessCategory
	Limit          int
	SkipDuplicates bool
}

// ImportSummary reports the outcome of an import run
type ImportSummary struct {
	Processed  int `json:"processed"`
	Imported   int `json:"imported"`
	Duplicates int `json:"duplicates"`
	Landmarks  int `json:"landmarks"`
	Failures   int `json:"failures"`
}

// ImportService pulls candidate businesses from the Places API, filters
// landmarks, skips duplicates and persists the remainder.
type ImportService struct {
	places     PlacesSearcher
	dedup      *DedupService
	businesses *database.BusinessRepository
	logger     *logrus.Logger
}

// NewImportService creates a new import service
func NewImportService(searcher PlacesSearcher, dedup *DedupService, businesses *database.BusinessRepository, logger *logrus.Logger) *ImportService {
	return &ImportService{
		places:     searcher,
		dedup:      dedup,
		businesses: businesses,
		logger:     logger,
	}
}

// Run executes an import, paging through Text Search results until the
// limit is reached or the provider runs out of pages.
func (s *ImportService) Run(params ImportParams) (*ImportSummary, error) {
	if params.City == "" {
		return nil, fmt.Errorf("city is required")
	}
	if params.Limit <= 0 {
		params.Limit = 20
	}

	query := fmt.Sprintf("%s in %s", params.Category, params.City)
	summary := &ImportSummary{}
	pageToken := ""

	for summary.Processed < params.Limit {
		resp, err := s.places.TextSearch(query, pageToken)
		if err != nil {
			return summary, fmt.Errorf("places search failed: %w", err)
		}

		for _, result := range resp.Results {
			if summary.Processed >= params.Limit {
				break
			}
			summary.Processed++

			s.importOne(result, params, summary)
		}

		if resp.NextPageToken == "" || summary.Processed >= params.Limit {
			break
		}
		pageToken = resp.NextPageToken
		time.Sleep(pageTokenDelay)
	}

	s.logger.WithFields(logrus.Fields{
		"city":       params.City,
		"category":   params.Category,
		"processed":  summary.Processed,
		"imported":   summary.Imported,
		"duplicates": summary.Duplicates,
		"landmarks":  summary.Landmarks,
		"failures":   summary.Failures,
	}).Info("Import run completed")

	return summary, nil
}

func (s *ImportService) importOne(result places.SearchResult, params ImportParams, summary *ImportSummary) {
	candidate := Candidate{
		ExternalID:       result.PlaceID,
		Name:             result.Name,
		FormattedAddress: result.FormattedAddress,
	}

	if s.dedup.IsLandmark(candidate) {
		summary.Landmarks++
		return
	}

	if params.SkipDuplicates {
		check, err := s.dedup.IsDuplicate(candidate)
		if err != nil {
			summary.Failures++
			s.logger.WithError(err).WithField("place_id", result.PlaceID).Warn("Duplicate check failed")
			return
		}
		if check.IsDuplicate {
			summary.Duplicates++
			return
		}
	}

	business := mapSearchResult(result, params.City, params.Category)
	if err := s.businesses.Create(business); err != nil {
		summary.Failures++
		s.logger.WithError(err).WithField("place_id", result.PlaceID).Warn("Failed to persist imported business")
		return
	}

	summary.Imported++
}

// mapSearchResult converts a Places result into a Business record
func mapSearchResult(result places.SearchResult, city string, category models.BusinessCategory) *models.Business {
	business := &models.Business{
		Name:     result.Name,
		Category: category,
		City:     city,
	}
	if result.PlaceID != "" {
		externalID := result.PlaceID
		business.ExternalID = &externalID
	}
	if result.FormattedAddress != "" {
		address := result.FormattedAddress
		business.Address = &address
	}
	if result.Geometry.Location.Lat != 0 || result.Geometry.Location.Lng != 0 {
		lat := result.Geometry.Location.Lat
		lng := result.Geometry.Location.Lng
		business.Latitude = &lat
		business.Longitude = &lng
	}
	return business
}
