// Package collection serves the map screens: home rankings, community and
// personal lists, map detail, and the map editor.
package collection

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/bobvengers/mapmate/internal/application/view"
	"github.com/bobvengers/mapmate/internal/domain/collection"
	"github.com/bobvengers/mapmate/internal/domain/identity"
	"github.com/bobvengers/mapmate/internal/domain/review"
	"github.com/bobvengers/mapmate/internal/domain/shared"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"
)

// RedirectAfterGone is where a missing map sends the user
const RedirectAfterGone = "/my-maps"

// API is the slice of the gateway the map screens use
type API interface {
	Get(ctx context.Context, path string, query map[string]string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// Sessions resolves the signed-in user
type Sessions interface {
	RequireUser() (*identity.User, error)
}

// MapService handles map collection screens
type MapService struct {
	api      API
	sessions Sessions
	validate *validator.Validate
	logger   *zap.Logger
}

// NewMapService creates a new MapService
func NewMapService(api API, sessions Sessions, logger *zap.Logger) *MapService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MapService{
		api:      api,
		sessions: sessions,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.Named("maps"),
	}
}

// Home loads the top-rated and most-reviewed sections. Each section is
// fetched on its own; one that fails is logged and left empty.
func (s *MapService) Home(ctx context.Context) *HomeSections {
	home := &HomeSections{
		TopRated:     []collection.MapCollection{},
		MostReviewed: []collection.MapCollection{},
	}

	var g errgroup.Group
	g.Go(func() error {
		maps, err := s.List(ctx, ListFilter{SortBy: collection.SortByAverageRating})
		if err != nil {
			s.logger.Warn("loading top rated maps", zap.Error(err))
			return nil
		}
		home.TopRated = collection.TopN(maps, collection.HomeSectionSize)
		return nil
	})
	g.Go(func() error {
		maps, err := s.List(ctx, ListFilter{SortBy: collection.SortByReviewCount})
		if err != nil {
			s.logger.Warn("loading most reviewed maps", zap.Error(err))
			return nil
		}
		home.MostReviewed = collection.TopN(maps, collection.HomeSectionSize)
		return nil
	})
	_ = g.Wait()
	return home
}

// List returns community maps matching filter
func (s *MapService) List(ctx context.Context, filter ListFilter) ([]collection.MapCollection, error) {
	if !filter.SortBy.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown sort order %q", filter.SortBy))
	}

	query := make(map[string]string)
	if keyword := norm.NFC.String(strings.TrimSpace(filter.Keyword)); keyword != "" {
		query["keyword"] = keyword
	}
	if filter.SortBy != collection.SortByNone {
		query["sortBy"] = string(filter.SortBy)
	}

	var maps []collection.MapCollection
	if err := s.api.Get(ctx, "/map-collections", query, &maps); err != nil {
		return nil, err
	}
	return nonNil(maps), nil
}

// ListByUser returns the maps created by userID
func (s *MapService) ListByUser(ctx context.Context, userID int64) ([]collection.MapCollection, error) {
	var maps []collection.MapCollection
	if err := s.api.Get(ctx, "/map-collections/user/"+strconv.FormatInt(userID, 10), nil, &maps); err != nil {
		return nil, err
	}
	return nonNil(maps), nil
}

// ListMine returns the signed-in user's maps
func (s *MapService) ListMine(ctx context.Context) ([]collection.MapCollection, error) {
	user, err := s.sessions.RequireUser()
	if err != nil {
		return nil, err
	}
	return s.ListByUser(ctx, user.UserID)
}

// ListByCreator returns the maps created by the user with nickname
func (s *MapService) ListByCreator(ctx context.Context, nickname string) ([]collection.MapCollection, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Creator nickname is required")
	}
	var maps []collection.MapCollection
	if err := s.api.Get(ctx, "/map-collections/creator-nickname/"+url.PathEscape(nickname), nil, &maps); err != nil {
		return nil, err
	}
	return nonNil(maps), nil
}

// Get loads one map. Any failure means the map cannot be shown.
func (s *MapService) Get(ctx context.Context, id int64) (*collection.MapCollection, error) {
	var m collection.MapCollection
	if err := s.api.Get(ctx, mapPath(id), nil, &m); err != nil {
		return nil, view.Gone("map", id, RedirectAfterGone, err)
	}
	return &m, nil
}

// Detail loads a map and its reviews in parallel. If either request fails
// nothing is returned.
func (s *MapService) Detail(ctx context.Context, id int64) (*MapDetail, error) {
	var (
		m       collection.MapCollection
		reviews []review.Review
	)
	err := view.All(ctx,
		func(ctx context.Context) error {
			return s.api.Get(ctx, mapPath(id), nil, &m)
		},
		func(ctx context.Context) error {
			return s.api.Get(ctx, "/map-reviews/map/"+strconv.FormatInt(id, 10), nil, &reviews)
		},
	)
	if err != nil {
		s.logger.Info("map detail unavailable", zap.Int64("map_id", id), zap.Error(err))
		return nil, view.Gone("map", id, RedirectAfterGone, err)
	}
	if reviews == nil {
		reviews = []review.Review{}
	}
	return &MapDetail{Map: m, Reviews: reviews}, nil
}

// Create saves a new map owned by the signed-in user. Repeated restaurants
// are collapsed before sending.
func (s *MapService) Create(ctx context.Context, input CreateMapInput) error {
	user, err := s.sessions.RequireUser()
	if err != nil {
		return err
	}

	input.Name = strings.TrimSpace(input.Name)
	if err := collection.ValidateName(input.Name); err != nil {
		return err
	}
	restaurants := collection.Dedupe(input.Restaurants)
	if len(restaurants) == 0 {
		return shared.NewDomainError("INVALID_INPUT", "Add at least one restaurant to the map")
	}
	input.Restaurants = restaurants
	if err := s.validate.Struct(input); err != nil {
		return shared.NewDomainError("INVALID_INPUT", "Map name is too long or a restaurant is missing its name or address")
	}

	req := createMapRequest{Name: input.Name, UserID: user.UserID, RestaurantInfos: restaurants}
	if err := s.api.Post(ctx, "/map-collections", req, nil); err != nil {
		return err
	}
	s.logger.Info("map created", zap.String("name", input.Name), zap.Int("restaurants", len(restaurants)))
	return nil
}

// Rename changes the title of one of the signed-in user's maps
func (s *MapService) Rename(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if err := collection.ValidateName(name); err != nil {
		return err
	}
	if _, err := s.owned(ctx, id); err != nil {
		return err
	}
	if err := s.api.Put(ctx, mapPath(id), renameMapRequest{Name: name}, nil); err != nil {
		return err
	}
	s.logger.Info("map renamed", zap.Int64("map_id", id))
	return nil
}

// Delete removes one of the signed-in user's maps
func (s *MapService) Delete(ctx context.Context, id int64) error {
	if _, err := s.owned(ctx, id); err != nil {
		return err
	}
	if err := s.api.Delete(ctx, mapPath(id), nil); err != nil {
		return err
	}
	s.logger.Info("map deleted", zap.Int64("map_id", id))
	return nil
}

// owned loads the map and checks that the signed-in user created it, the
// check behind the edit controls on the my-maps screen. A map owned by
// someone else fails with shared.ErrActionUnavailable before any mutation.
func (s *MapService) owned(ctx context.Context, id int64) (*collection.MapCollection, error) {
	user, err := s.sessions.RequireUser()
	if err != nil {
		return nil, err
	}
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.IsOwnedBy(user) {
		return nil, shared.ErrActionUnavailable
	}
	return m, nil
}

func mapPath(id int64) string {
	return "/map-collections/" + strconv.FormatInt(id, 10)
}

func nonNil(maps []collection.MapCollection) []collection.MapCollection {
	if maps == nil {
		return []collection.MapCollection{}
	}
	return maps
}
