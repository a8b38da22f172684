// Package document defines the denormalized search document and the projection
// and reconciliation rules that derive it from a Listing Store row.
package document

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/gymdex/internal/domain"
	"github.com/kailas-cloud/gymdex/internal/domain/listing"
)

// Boost scores by subscription tier.
const (
	BoostPremium int32 = 100
	BoostDefault int32 = 10
)

// Document is the flattened projection of one eligible listing.
// The ID equals the listing ID.
type Document struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	GymType     string `json:"gym_type"`
	PriceRange  string `json:"price_range,omitempty"`

	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code,omitempty"`
	// Location is [lat, lng].
	Location [2]float64 `json:"location"`

	Phone   string `json:"phone"`
	Website string `json:"website"`

	Is24Hour   bool   `json:"is_24_hour"`
	HoursToday string `json:"hours_today,omitempty"`

	Attributes          []string `json:"attributes"`
	AttributeCategories []string `json:"attribute_categories"`
	EquipmentCount      int32    `json:"equipment_count"`
	AmenityCount        int32    `json:"amenity_count"`

	Status           string `json:"status"`
	SubscriptionTier string `json:"subscription_tier"`
	CreatedAt        int64  `json:"created_at"` // epoch ms
	UpdatedAt        int64  `json:"updated_at"` // epoch ms
	BoostScore       int32  `json:"boost_score"`
}

// Lat returns the latitude.
func (d *Document) Lat() float64 { return d.Location[0] }

// Lng returns the longitude.
func (d *Document) Lng() float64 { return d.Location[1] }

// BoostScore is the ranking tie-breaker for a tier.
func BoostScore(t listing.Tier) int32 {
	if t == listing.TierPremium {
		return BoostPremium
	}
	return BoostDefault
}

// Project builds the search document for l. now selects the weekday for hours_today.
// Listings outside verified/claimed yield domain.ErrIneligible.
func Project(l *listing.Listing, now time.Time) (Document, error) {
	if l == nil {
		return Document{}, fmt.Errorf("project: nil listing")
	}
	if !l.Eligible() {
		return Document{}, fmt.Errorf("listing %s has status %q: %w", l.ID, l.Status, domain.ErrIneligible)
	}

	doc := Document{
		ID:               l.ID,
		Slug:             l.Slug,
		Name:             l.Name,
		Description:      l.Description,
		GymType:          l.GymType,
		PriceRange:       l.PriceRange,
		Address:          l.Address,
		City:             l.City,
		State:            l.State,
		Country:          l.Country,
		PostalCode:       l.PostalCode,
		Location:         [2]float64{l.Latitude, l.Longitude},
		Phone:            l.Phone,
		Website:          l.Website,
		Is24Hour:         l.Hours.OpenAllDay(),
		Status:           string(l.Status),
		SubscriptionTier: string(l.Tier),
		CreatedAt:        l.CreatedAt.UnixMilli(),
		UpdatedAt:        l.UpdatedAt.UnixMilli(),
		BoostScore:       BoostScore(l.Tier),
		Attributes:       make([]string, 0, len(l.Attributes)),
		// non-nil so the stored JSON always carries an array
		AttributeCategories: []string{},
	}

	if dh, ok := l.Hours.For(now.Weekday()); ok {
		doc.HoursToday = dh.Open + " - " + dh.Close
	}

	seen := make(map[listing.Category]bool)
	for _, a := range l.Attributes {
		if a.Name == "" {
			continue
		}
		doc.Attributes = append(doc.Attributes, a.Name)
		if a.Category != "" && !seen[a.Category] {
			seen[a.Category] = true
			doc.AttributeCategories = append(doc.AttributeCategories, string(a.Category))
		}
		switch a.Category {
		case listing.CategoryEquipment:
			doc.EquipmentCount++
		case listing.CategoryAmenity:
			doc.AmenityCount++
		}
	}

	return doc, nil
}
