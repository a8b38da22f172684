// Package listing holds the Listing Store's row model: one gym entry with its
// lifecycle status and attribute associations.
package listing

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle status of a listing.
type Status string

// Listing status values.
const (
	StatusPending   Status = "pending"
	StatusVerified  Status = "verified"
	StatusClaimed   Status = "claimed"
	StatusSuspended Status = "suspended"
)

// IsValid checks if the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusClaimed, StatusSuspended:
		return true
	}
	return false
}

// Eligible reports whether listings in this status belong in the search index.
func (s Status) Eligible() bool {
	return s == StatusVerified || s == StatusClaimed
}

// EligibleStatuses returns the statuses allowed in the index.
func EligibleStatuses() []Status {
	return []Status{StatusVerified, StatusClaimed}
}

// Tier is the subscription tier.
type Tier string

// Subscription tiers.
const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// IsValid checks if the tier is a known value.
func (t Tier) IsValid() bool { return t == TierFree || t == TierPremium }

// Category groups attributes.
type Category string

// Attribute categories.
const (
	CategoryEquipment Category = "equipment"
	CategoryAmenity   Category = "amenity"
	CategoryClass     Category = "class"
	CategorySpecialty Category = "specialty"
	CategoryRecovery  Category = "recovery"
)

// Attribute is one attribute association of a listing.
// Value and Quantity are presentation data and optional.
type Attribute struct {
	ID       string
	Name     string
	Category Category
	Value    *string
	Quantity *int
}

// DayHours is the opening window of one day, "HH:MM" strings.
type DayHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Hours maps a lower-case weekday name ("monday") to its opening window.
// A missing day means closed.
type Hours map[string]DayHours

// ParseHours decodes the JSON hours column. Empty input and "null" yield nil hours.
// Day keys are normalized to lower case.
func ParseHours(raw []byte) (Hours, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil, nil
	}
	var h Hours
	if err := json.Unmarshal([]byte(s), &h); err != nil {
		return nil, fmt.Errorf("parse hours: %w", err)
	}
	out := make(Hours, len(h))
	for day, dh := range h {
		out[strings.ToLower(strings.TrimSpace(day))] = dh
	}
	return out, nil
}

// For returns the window for the given weekday; ok is false when closed.
func (h Hours) For(day time.Weekday) (DayHours, bool) {
	dh, ok := h[strings.ToLower(day.String())]
	if !ok || dh.Open == "" || dh.Close == "" {
		return DayHours{}, false
	}
	return dh, true
}

// OpenAllDay reports whether any day opens at 00:00 and closes at 23:59 or 24:00.
func (h Hours) OpenAllDay() bool {
	for _, dh := range h {
		if dh.Open == "00:00" && (dh.Close == "23:59" || dh.Close == "24:00") {
			return true
		}
	}
	return false
}

// Listing is one directory entry as stored in the Listing Store.
type Listing struct {
	ID          string
	Slug        string
	Name        string
	Description string
	GymType     string
	PriceRange  string

	Address    string
	City       string
	State      string
	Country    string
	PostalCode string
	Latitude   float64
	Longitude  float64

	Phone   string
	Email   string
	Website string

	Hours      Hours
	Status     Status
	Tier       Tier
	Attributes []Attribute

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Eligible reports whether the listing may be present in the search index.
func (l *Listing) Eligible() bool {
	return l.Status.Eligible()
}

// Page is one slice of eligible listings plus the total eligible count.
type Page struct {
	Listings []Listing
	Total    int
}
