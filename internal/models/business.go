package models

import (
	"time"

	"github.com/google/uuid"
)

// BusinessCategory represents the type of tourism business
// Matches PostgreSQL ENUM: business_category
type BusinessCategory string

const (
	CategoryHotel      BusinessCategory = "hotel"
	CategoryRestaurant BusinessCategory = "restaurant"
	CategoryTour       BusinessCategory = "tour"
	CategoryTransport  BusinessCategory = "transport"
	CategoryAttraction BusinessCategory = "attraction"
)

// Business represents a tourism business listed in the directory
type Business struct {
	ID          uuid.UUID        `db:"id" json:"id"`
	ExternalID  *string          `db:"external_id" json:"external_id,omitempty"`
	Name        string           `db:"name" json:"name"`
	Description *string          `db:"description" json:"description,omitempty"`
	Category    BusinessCategory `db:"category" json:"category"`
	City        string           `db:"city" json:"city"`
	Address     *string          `db:"address" json:"address,omitempty"`
	Email       *string          `db:"email" json:"email,omitempty"`
	Phone       *string          `db:"phone" json:"phone,omitempty"`
	Whatsapp    *string          `db:"whatsapp" json:"whatsapp,omitempty"`
	Latitude    *float64         `db:"latitude" json:"latitude,omitempty"`
	Longitude   *float64         `db:"longitude" json:"longitude,omitempty"`
	OwnerID     *uuid.UUID       `db:"owner_id" json:"owner_id,omitempty"`
	Verified    bool             `db:"verified" json:"verified"`
	ClaimedAt   *time.Time       `db:"claimed_at" json:"claimed_at,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// OwnedBusiness is a business projection for owner dashboards,
// including aggregated community validation counts.
type OwnedBusiness struct {
	Business
	ValidationCount      int `db:"validation_count" json:"validation_count"`
	ValidConfirmations   int `db:"valid_confirmations" json:"valid_confirmations"`
	InvalidConfirmations int `db:"invalid_confirmations" json:"invalid_confirmations"`
}

// ValidationField identifies which contact field a community validation refers to
type ValidationField string

const (
	ValidationFieldEmail    ValidationField = "email"
	ValidationFieldPhone    ValidationField = "phone"
	ValidationFieldWhatsapp ValidationField = "whatsapp"
)

// ContactValidation records a user's confirmation (or dispute) of a
// business contact field. One vote per (business, user, field); re-voting
// overwrites the previous vote.
type ContactValidation struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	BusinessID uuid.UUID       `db:"business_id" json:"business_id"`
	UserID     uuid.UUID       `db:"user_id" json:"user_id"`
	Field      ValidationField `db:"field" json:"field"`
	Valid      bool            `db:"valid" json:"valid"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
