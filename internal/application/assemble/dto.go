package assemble

import (
	"github.com/bobvengers/mapmate/internal/domain/assemble"
)

// CreatePostInput contains the input for announcing a meetup
type CreatePostInput struct {
	Title       string `validate:"required,max=100"`
	MeetingTime string `validate:"required,max=100"`
	Place       assemble.Place
}

// PostDetail is a post, its comment thread, and the controls the viewer may
// use. It is only ever returned whole.
type PostDetail struct {
	Post     assemble.Post      `json:"post" yaml:"post"`
	Comments []assemble.Comment `json:"comments" yaml:"comments"`
	Actions  []assemble.Action  `json:"actions" yaml:"actions"`
}

// Inbox holds the applications a user received as host and sent as
// applicant.
type Inbox struct {
	Received []assemble.Application `json:"received" yaml:"received"`
	Sent     []assemble.Application `json:"sent" yaml:"sent"`
}

// Find returns the application with id from either list
func (i *Inbox) Find(id int64) (*assemble.Application, bool) {
	for _, list := range [][]assemble.Application{i.Received, i.Sent} {
		for k := range list {
			if list[k].ID == id {
				app := list[k]
				return &app, true
			}
		}
	}
	return nil, false
}

type createPostRequest struct {
	SenderID    int64  `json:"senderId"`
	Title       string `json:"title"`
	MeetingTime string `json:"meetingTime"`
	Name        string `json:"name"`
	Address     string `json:"address"`
}

type updateStatusRequest struct {
	MatchingID int64  `json:"matchingId"`
	Status     string `json:"status"`
}

type commentRequest struct {
	UserID     int64  `json:"userId"`
	MatchingID int64  `json:"matchingId"`
	Content    string `json:"content"`
}
