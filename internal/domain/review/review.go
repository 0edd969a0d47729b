// Package review models ratings users leave on maps.
package review

import (
	"strings"

	"github.com/bobvengers/mapmate/internal/domain/identity"
	"github.com/bobvengers/mapmate/internal/domain/shared"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is one user's rating and comment on a map
type Review struct {
	ReviewID int64  `json:"reviewId"`
	AuthorID int64  `json:"authorId"`
	Nickname string `json:"nickname,omitempty"`
	Username string `json:"username,omitempty"`
	Rating   int    `json:"rating"`
	Content  string `json:"content"`
	MapID    int64  `json:"mapId"`
	MapName  string `json:"mapName,omitempty"`
}

// DisplayName prefers the nickname and falls back to the username
func (r *Review) DisplayName() string {
	if r.Nickname != "" {
		return r.Nickname
	}
	return r.Username
}

// CanModify reports whether user may edit or delete r. Only the author can.
func CanModify(r *Review, user *identity.User) bool {
	if r == nil || user == nil {
		return false
	}
	return r.AuthorID == user.UserID
}

// ValidateRating checks the 1..5 range
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return shared.NewDomainError("INVALID_RATING", "Rating must be between 1 and 5")
	}
	return nil
}

// ValidateContent rejects blank review text
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return shared.NewDomainError("INVALID_INPUT", "Review content cannot be empty")
	}
	return nil
}
