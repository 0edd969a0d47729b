package assemble

import "github.com/bobvengers/mapmate/internal/domain/identity"

// Application is an applicant's request to join a post. The receiver is the
// post's host.
type Application struct {
	ID             int64             `json:"id"`
	PostID         int64             `json:"postId,omitempty"`
	SenderID       int64             `json:"senderId,omitempty"`
	SenderName     string            `json:"senderName"`
	ReceiverID     int64             `json:"receiverId,omitempty"`
	ReceiverName   string            `json:"receiverName,omitempty"`
	Title          string            `json:"title"`
	RestaurantName string            `json:"restaurantName"`
	MeetingTime    string            `json:"meetingTime"`
	Status         ApplicationStatus `json:"status"`
}

// IsHost reports whether user is the host who decides on this application
func (a *Application) IsHost(user *identity.User) bool {
	if a == nil || user == nil {
		return false
	}
	if a.ReceiverID != 0 {
		return a.ReceiverID == user.UserID
	}
	return a.ReceiverName != "" && a.ReceiverName == user.Nickname
}

// IsApplicant reports whether user sent this application
func (a *Application) IsApplicant(user *identity.User) bool {
	if a == nil || user == nil {
		return false
	}
	if a.SenderID != 0 {
		return a.SenderID == user.UserID
	}
	return a.SenderName != "" && a.SenderName == user.Nickname
}

// IsParty reports whether user is the host or the applicant
func (a *Application) IsParty(user *identity.User) bool {
	return a.IsHost(user) || a.IsApplicant(user)
}

// ReceivedBy marks every application in host's received list as addressed
// to host when the server left the receiver out.
func ReceivedBy(apps []Application, host *identity.User) {
	if host == nil {
		return
	}
	for i := range apps {
		if apps[i].ReceiverID == 0 && apps[i].ReceiverName == "" {
			apps[i].ReceiverID = host.UserID
			apps[i].ReceiverName = host.Nickname
		}
	}
}

// SentBy marks every application in applicant's sent list as sent by
// applicant when the server left the sender out.
func SentBy(apps []Application, applicant *identity.User) {
	if applicant == nil {
		return
	}
	for i := range apps {
		if apps[i].SenderID == 0 && apps[i].SenderName == "" {
			apps[i].SenderID = applicant.UserID
			apps[i].SenderName = applicant.Nickname
		}
	}
}

// Comment is a message on a post's thread
type Comment struct {
	CommentID  int64  `json:"commentId"`
	UserID     int64  `json:"userId"`
	Nickname   string `json:"nickname"`
	MatchingID int64  `json:"matchingId"`
	Content    string `json:"content"`
}
