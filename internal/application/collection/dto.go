package collection

import (
	"github.com/bobvengers/mapmate/internal/domain/collection"
	"github.com/bobvengers/mapmate/internal/domain/review"
)

// ListFilter narrows the community map list
type ListFilter struct {
	Keyword string
	SortBy  collection.SortBy
}

// CreateMapInput contains the input for saving a new map
type CreateMapInput struct {
	Name        string                      `validate:"required,max=100"`
	Restaurants []collection.RestaurantInfo `validate:"required,min=1,dive"`
}

// HomeSections holds the two ranked lists on the home screen
type HomeSections struct {
	TopRated     []collection.MapCollection `json:"topRated" yaml:"topRated"`
	MostReviewed []collection.MapCollection `json:"mostReviewed" yaml:"mostReviewed"`
}

// MapDetail is a map together with its reviews. It is only ever returned
// whole.
type MapDetail struct {
	Map     collection.MapCollection `json:"map" yaml:"map"`
	Reviews []review.Review          `json:"reviews" yaml:"reviews"`
}

// Cursor starts a restaurant cursor over the detail's map
func (d *MapDetail) Cursor() *collection.Cursor {
	return collection.NewCursor(d.Map.Restaurants)
}

// createMapRequest is the body of POST /map-collections
type createMapRequest struct {
	Name            string                      `json:"name"`
	UserID          int64                       `json:"userId"`
	RestaurantInfos []collection.RestaurantInfo `json:"restaurantInfos"`
}

type renameMapRequest struct {
	Name string `json:"name"`
}
