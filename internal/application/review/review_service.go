// Package review serves the review screens: a map's reviews and the
// signed-in user's own reviews.
package review

import (
	"context"
	"strconv"
	"strings"

	"github.com/bobvengers/mapmate/internal/domain/identity"
	"github.com/bobvengers/mapmate/internal/domain/review"
	"go.uber.org/zap"
)

// API is the slice of the gateway the review screens use
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

// WriteInput is a rating and comment for a map
type WriteInput struct {
	MapID   int64
	Rating  int
	Content string
}

// EditInput changes an existing review. MapID is optional; the my-reviews
// screen edits without it.
type EditInput struct {
	ReviewID int64
	MapID    int64
	Rating   int
	Content  string
}

type createRequest struct {
	UserID          int64  `json:"userId"`
	MapCollectionID int64  `json:"mapCollectionId"`
	Rating          int    `json:"rating"`
	Content         string `json:"content"`
}

type updateRequest struct {
	UserID          int64  `json:"userId"`
	MapCollectionID int64  `json:"mapCollectionId,omitempty"`
	Rating          int    `json:"rating"`
	Content         string `json:"content"`
}

// ReviewService handles review operations
type ReviewService struct {
	api      API
	sessions Sessions
	logger   *zap.Logger
}

// NewReviewService creates a new ReviewService
func NewReviewService(api API, sessions Sessions, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{api: api, sessions: sessions, logger: logger.Named("reviews")}
}

// ListByMap returns the reviews on a map
func (s *ReviewService) ListByMap(ctx context.Context, mapID int64) ([]review.Review, error) {
	return s.list(ctx, "/map-reviews/map/"+strconv.FormatInt(mapID, 10))
}

// ListMine returns the signed-in user's reviews, each carrying its map name
func (s *ReviewService) ListMine(ctx context.Context) ([]review.Review, error) {
	user, err := s.sessions.RequireUser()
	if err != nil {
		return nil, err
	}
	return s.list(ctx, "/map-reviews/user/"+strconv.FormatInt(user.UserID, 10))
}

func (s *ReviewService) list(ctx context.Context, path string) ([]review.Review, error) {
	var reviews []review.Review
	if err := s.api.Get(ctx, path, nil, &reviews); err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []review.Review{}
	}
	return reviews, nil
}

// Create posts a review and returns the map's refreshed review list
func (s *ReviewService) Create(ctx context.Context, input WriteInput) ([]review.Review, error) {
	user, err := s.sessions.RequireUser()
	if err != nil {
		return nil, err
	}
	content, err := validate(input.Rating, input.Content)
	if err != nil {
		return nil, err
	}

	req := createRequest{UserID: user.UserID, MapCollectionID: input.MapID, Rating: input.Rating, Content: content}
	if err := s.api.Post(ctx, "/map-reviews", req, nil); err != nil {
		return nil, err
	}
	s.logger.Info("review created", zap.Int64("map_id", input.MapID), zap.Int("rating", input.Rating))
	return s.ListByMap(ctx, input.MapID)
}

// Update edits a review. The refreshed list is the map's reviews when
// input.MapID is set, and the user's own reviews otherwise.
func (s *ReviewService) Update(ctx context.Context, input EditInput) ([]review.Review, error) {
	user, err := s.sessions.RequireUser()
	if err != nil {
		return nil, err
	}
	content, err := validate(input.Rating, input.Content)
	if err != nil {
		return nil, err
	}

	req := updateRequest{UserID: user.UserID, MapCollectionID: input.MapID, Rating: input.Rating, Content: content}
	if err := s.api.Put(ctx, reviewPath(input.ReviewID), req, nil); err != nil {
		return nil, err
	}
	s.logger.Info("review updated", zap.Int64("review_id", input.ReviewID))
	if input.MapID != 0 {
		return s.ListByMap(ctx, input.MapID)
	}
	return s.ListMine(ctx)
}

// Delete removes a review
func (s *ReviewService) Delete(ctx context.Context, reviewID int64) error {
	if _, err := s.sessions.RequireUser(); err != nil {
		return err
	}
	if err := s.api.Delete(ctx, reviewPath(reviewID), nil); err != nil {
		return err
	}
	s.logger.Info("review deleted", zap.Int64("review_id", reviewID))
	return nil
}

// Editable filters reviews down to those user may edit
func Editable(reviews []review.Review, user *identity.User) []review.Review {
	out := make([]review.Review, 0, len(reviews))
	for i := range reviews {
		if review.CanModify(&reviews[i], user) {
			out = append(out, reviews[i])
		}
	}
	return out
}

func validate(rating int, content string) (string, error) {
	if err := review.ValidateRating(rating); err != nil {
		return "", err
	}
	content = strings.TrimSpace(content)
	if err := review.ValidateContent(content); err != nil {
		return "", err
	}
	return content, nil
}

func reviewPath(id int64) string {
	return "/map-reviews/" + strconv.FormatInt(id, 10)
}
