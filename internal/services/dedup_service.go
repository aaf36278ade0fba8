package services

import (
	"strings"

	"github.com/google/uuid"
	"github.com/numtrip/numtrip-backend/internal/database"
)

// SimilarityThreshold is the minimum normalized name similarity for a
// fuzzy duplicate match.
const SimilarityThreshold = 0.8

// minTokenLength filters out short words when tokenizing names for the
// candidate lookup.
const minTokenLength = 2

// landmarkKeywords flags places that are public landmarks rather than
// contactable businesses. Candidates matching any keyword in their name,
// description or address are rejected before duplicate detection.
var landmarkKeywords = []string{
	"plaza",
	"museo",
	"museum",
	"catedral",
	"cathedral",
	"monumento",
	"monument",
	"iglesia",
	"church",
	"castillo",
	"castle",
	"muralla",
	"fuerte",
	"parque nacional",
	"mirador",
	"malecon",
	"torre del reloj",
	"puerta del sol",
	"cementerio",
	"memorial",
}

// Candidate is an externally sourced business record under consideration
// for import.
type Candidate struct {
	ExternalID       string
	Name             string
	Description      string
	FormattedAddress string
}

// DuplicateCheck is the outcome of a duplicate-detection pass
type DuplicateCheck struct {
	IsDuplicate bool       `json:"is_duplicate"`
	MatchedID   *uuid.UUID `json:"matched_id,omitempty"`
	Confidence  float64    `json:"confidence"`
}

// DedupService decides whether an import candidate already exists in the store
type DedupService struct {
	businesses *database.BusinessRepository
}

// NewDedupService creates a new deduplication service
func NewDedupService(businesses *database.BusinessRepository) *DedupService {
	return &DedupService{
		businesses: businesses,
	}
}

// IsDuplicate checks a candidate against the store. An exact external-id
// match wins with confidence 1.0 and skips the fuzzy pass. The fuzzy pass
// requires name similarity above the threshold AND address containment;
// the first qualifying match is returned.
func (s *DedupService) IsDuplicate(candidate Candidate) (*DuplicateCheck, error) {
	if candidate.ExternalID != "" {
		existing, err := s.businesses.GetByExternalID(candidate.ExternalID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return &DuplicateCheck{
				IsDuplicate: true,
				MatchedID:   &existing.ID,
				Confidence:  1.0,
			}, nil
		}
	}

	tokens := nameTokens(candidate.Name)
	if len(tokens) == 0 {
		return &DuplicateCheck{}, nil
	}

	matches, err := s.businesses.SearchByNameTokens(tokens)
	if err != nil {
		return nil, err
	}

	candidateName := strings.ToLower(candidate.Name)
	candidateAddress := strings.ToLower(candidate.FormattedAddress)

	for _, match := range matches {
		similarity := NameSimilarity(candidateName, strings.ToLower(match.Name))
		if similarity <= SimilarityThreshold {
			continue
		}

		// Name similarity alone is not enough: same-named chains at
		// different locations must not collapse into one record.
		address := ""
		if match.Address != nil {
			address = strings.ToLower(*match.Address)
		}
		if !strings.Contains(address, candidateAddress) {
			continue
		}

		return &DuplicateCheck{
			IsDuplicate: true,
			MatchedID:   &match.ID,
			Confidence:  similarity,
		}, nil
	}

	return &DuplicateCheck{}, nil
}

// IsLandmark reports whether a candidate names a landmark, monument or
// public space. These are never imported regardless of duplicate status.
func (s *DedupService) IsLandmark(candidate Candidate) bool {
	haystacks := []string{
		strings.ToLower(candidate.Name),
		strings.ToLower(candidate.Description),
		strings.ToLower(candidate.FormattedAddress),
	}
	for _, keyword := range landmarkKeywords {
		for _, haystack := range haystacks {
			if haystack != "" && strings.Contains(haystack, keyword) {
				return true
			}
		}
	}
	return false
}

// NameSimilarity computes a normalized Levenshtein similarity in [0, 1].
// Identical strings (including two empty strings) yield 1.0.
func NameSimilarity(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)

	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 1.0
	}

	distance := levenshteinDistance(ra, rb)
	return float64(maxLen-distance) / float64(maxLen)
}

// levenshteinDistance is the classic dynamic-programming edit distance
// over runes with unit costs for insertion, deletion and substitution.
func levenshteinDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}

			deletion := prev[j] + 1
			insertion := curr[j-1] + 1
			substitution := prev[j-1] + cost

			min := deletion
			if insertion < min {
				min = insertion
			}
			if substitution < min {
				min = substitution
			}
			curr[j] = min
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

// nameTokens lowercases a name and keeps words longer than minTokenLength
func nameTokens(name string) []string {
	var tokens []string
	for _, word := range strings.Fields(strings.ToLower(name)) {
		if len([]rune(word)) > minTokenLength {
			tokens = append(tokens, word)
		}
	}
	return tokens
}
