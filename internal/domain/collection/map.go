// Package collection models user-owned restaurant maps.
package collection

import (
	"strings"

	"github.com/bobvengers/mapmate/internal/domain/identity"
	"github.com/bobvengers/mapmate/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SortBy selects the server-side ordering of the community map list
type SortBy string

const (
	SortByNone          SortBy = ""
	SortByAverageRating SortBy = "averageRating"
	SortByReviewCount   SortBy = "reviewCount"
)

// IsValid checks if the sort key is one the backend understands
func (s SortBy) IsValid() bool {
	switch s {
	case SortByNone, SortByAverageRating, SortByReviewCount:
		return true
	}
	return false
}

// HomeSectionSize is the number of maps shown per home page section
const HomeSectionSize = 5

// Restaurant is one place pinned on a map
type Restaurant struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// HasLocation reports whether the restaurant carries usable coordinates.
// A zero latitude or longitude means the backend has no location.
func (r Restaurant) HasLocation() bool {
	return r.Latitude != 0 && r.Longitude != 0
}

// RestaurantInfo is the name/address pair sent when creating a map. The
// backend geocodes it.
type RestaurantInfo struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
}

// MapCollection is a named, user-owned set of restaurants. Rating and review
// count are aggregates computed by the backend.
type MapCollection struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	Nickname      string       `json:"nickname"`
	UserID        int64        `json:"userId,omitempty"`
	AverageRating *float64     `json:"averageRating"`
	ReviewCount   int          `json:"reviewCount"`
	Restaurants   []Restaurant `json:"restaurants"`
}

// IsOwnedBy reports whether user created the map
func (m *MapCollection) IsOwnedBy(user *identity.User) bool {
	if m == nil || user == nil {
		return false
	}
	if m.UserID != 0 {
		return m.UserID == user.UserID
	}
	return m.Nickname != "" && m.Nickname == user.Nickname
}

// Rating returns the average rating as a decimal, zero when unrated
func (m *MapCollection) Rating() decimal.Decimal {
	if m == nil || m.AverageRating == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*m.AverageRating)
}

// IsRated reports whether the map has received any rating
func (m *MapCollection) IsRated() bool {
	return m != nil && m.AverageRating != nil && *m.AverageRating > 0
}

// ValidateName checks a map title
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_INPUT", "Map name cannot be empty")
	}
	return nil
}

// Dedupe collapses entries with the same name and address, keeping the first
// occurrence and the original order.
func Dedupe(infos []RestaurantInfo) []RestaurantInfo {
	seen := make(map[RestaurantInfo]struct{}, len(infos))
	out := make([]RestaurantInfo, 0, len(infos))
	for _, info := range infos {
		key := RestaurantInfo{Name: strings.TrimSpace(info.Name), Address: strings.TrimSpace(info.Address)}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

// TopN returns at most n maps from the head of the list
func TopN(maps []MapCollection, n int) []MapCollection {
	if n < 0 {
		n = 0
	}
	if len(maps) <= n {
		return maps
	}
	return maps[:n]
}
