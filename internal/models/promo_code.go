package models

import (
	"time"

	"github.com/google/uuid"
)

// PromoCode is a discount code published by a business owner
type PromoCode struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	BusinessID      uuid.UUID  `db:"business_id" json:"business_id"`
	Code            string     `db:"code" json:"code"`
	Description     *string    `db:"description" json:"description,omitempty"`
	DiscountPercent int        `db:"discount_percent" json:"discount_percent"`
	ValidFrom       time.Time  `db:"valid_from" json:"valid_from"`
	ValidUntil      *time.Time `db:"valid_until" json:"valid_until,omitempty"`
	Active          bool       `db:"active" json:"active"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// IsCurrentlyValid reports whether the promo code can be redeemed at the given time
func (p *PromoCode) IsCurrentlyValid(now time.Time) bool {
	if !p.Active {
		return false
	}
	if now.Before(p.ValidFrom) {
		return false
	}
	if p.ValidUntil != nil && now.After(*p.ValidUntil) {
		return false
	}
	return true
}
