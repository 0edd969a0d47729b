// Package assemble models social dining meetups ("assemble" posts), the
// applications users send to join them, and the comment thread attached to
// each post.
//
// The backend owns every transition. This package replicates the status
// vocabulary and rules only so the client can decide which actions to offer.
package assemble

import (
	"strings"

	"github.com/bobvengers/mapmate/internal/domain/identity"
)

// Post is a host-created meetup announcement tied to one restaurant
type Post struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	MeetingTime    string     `json:"meetingTime"`
	RestaurantName string     `json:"restaurantName"`
	Address        string     `json:"address,omitempty"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	SenderID       int64      `json:"senderId,omitempty"`
	SenderName     string     `json:"senderName"`
	Status         PostStatus `json:"status"`
}

// IsRecruiting returns true if the post accepts applications
func (p *Post) IsRecruiting() bool {
	return p.Status == PostStatusRecruiting
}

// IsClosed returns true if recruiting has ended
func (p *Post) IsClosed() bool {
	return p.Status == PostStatusClosed
}

// IsHostedBy reports whether user created the post. Posts that carry no
// sender id fall back to comparing the nickname with the sender name.
func (p *Post) IsHostedBy(user *identity.User) bool {
	if p == nil || user == nil {
		return false
	}
	if p.SenderID != 0 {
		return p.SenderID == user.UserID
	}
	return p.SenderName != "" && p.SenderName == user.Nickname
}

// HasLocation reports whether the post carries usable coordinates.
// A zero latitude or longitude means the backend has no location.
func (p *Post) HasLocation() bool {
	return p.Latitude != 0 && p.Longitude != 0
}

// Place is a restaurant picked for a new post
type Place struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
}

// Normalize trims surrounding whitespace
func (p Place) Normalize() Place {
	return Place{Name: strings.TrimSpace(p.Name), Address: strings.TrimSpace(p.Address)}
}
