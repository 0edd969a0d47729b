package fakeapi

import (
	"errors"
	"sort"
	"strings"

	"github.com/bobvengers/mapmate/internal/domain/assemble"
	"github.com/bobvengers/mapmate/internal/domain/collection"
	"github.com/bobvengers/mapmate/internal/domain/identity"
	"github.com/bobvengers/mapmate/internal/domain/review"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

var (
	errUsernameTaken = errors.New(msgUsernameTaken)
	errNicknameTaken = errors.New(msgNicknameTaken)
)

type user struct {
	id       int64
	username string
	nickname string
	hash     []byte
}

func (u *user) identity() identity.User {
	return identity.User{UserID: u.id, Username: u.username, Nickname: u.nickname}
}

type mapRecord struct {
	id          int64
	name        string
	ownerID     int64
	restaurants []collection.Restaurant
}

type reviewRecord struct {
	id       int64
	authorID int64
	mapID    int64
	rating   int
	content  string
}

type postRecord struct {
	id          int64
	hostID      int64
	title       string
	meetingTime string
	place       string
	address     string
	latitude    float64
	longitude   float64
	status      assemble.PostStatus
}

type requestRecord struct {
	id          int64
	postID      int64
	applicantID int64
	status      assemble.ApplicationStatus
}

type commentRecord struct {
	id      int64
	postID  int64
	userID  int64
	content string
}

// store is guarded by Backend.mu
type store struct {
	nextID map[string]int64

	users    map[int64]*user
	maps     map[int64]*mapRecord
	reviews  map[int64]*reviewRecord
	posts    map[int64]*postRecord
	requests map[int64]*requestRecord
	comments map[int64]*commentRecord
}

func newStore() *store {
	return &store{
		nextID:   make(map[string]int64),
		users:    make(map[int64]*user),
		maps:     make(map[int64]*mapRecord),
		reviews:  make(map[int64]*reviewRecord),
		posts:    make(map[int64]*postRecord),
		requests: make(map[int64]*requestRecord),
		comments: make(map[int64]*commentRecord),
	}
}

func (s *store) id(kind string) int64 {
	s.nextID[kind]++
	return s.nextID[kind]
}

func (s *store) addUser(username, nickname string, hash []byte) (*user, error) {
	for _, u := range s.users {
		if u.username == username {
			return nil, errUsernameTaken
		}
		if u.nickname == nickname {
			return nil, errNicknameTaken
		}
	}
	u := &user{id: s.id("user"), username: username, nickname: nickname, hash: hash}
	s.users[u.id] = u
	return u, nil
}

func (s *store) userByUsername(username string) *user {
	for _, u := range s.users {
		if u.username == username {
			return u
		}
	}
	return nil
}

func (s *store) userByNickname(nickname string) *user {
	for _, u := range s.users {
		if u.nickname == nickname {
			return u
		}
	}
	return nil
}

func (s *store) nickname(userID int64) string {
	if u, ok := s.users[userID]; ok {
		return u.nickname
	}
	return ""
}

func (s *store) mapView(m *mapRecord) collection.MapCollection {
	var sum int64
	var count int
	for _, r := range s.reviews {
		if r.mapID == m.id {
			sum += int64(r.rating)
			count++
		}
	}

	out := collection.MapCollection{
		ID:          m.id,
		Name:        m.name,
		Nickname:    s.nickname(m.ownerID),
		UserID:      m.ownerID,
		ReviewCount: count,
		Restaurants: append([]collection.Restaurant(nil), m.restaurants...),
	}
	if count > 0 {
		avg, _ := decimal.NewFromInt(sum).Div(decimal.NewFromInt(int64(count))).Round(1).Float64()
		out.AverageRating = &avg
	}
	return out
}

// listMaps returns maps matching keyword, ordered by sortBy. Unrated maps
// sort after rated ones.
func (s *store) listMaps(keyword string, sortBy collection.SortBy, keep func(*mapRecord) bool) []collection.MapCollection {
	keyword = norm.NFC.String(strings.TrimSpace(keyword))

	out := make([]collection.MapCollection, 0)
	for _, m := range s.maps {
		if keep != nil && !keep(m) {
			continue
		}
		if keyword != "" && !strings.Contains(norm.NFC.String(m.name), keyword) {
			continue
		}
		out = append(out, s.mapView(m))
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch sortBy {
		case collection.SortByAverageRating:
			if a.IsRated() != b.IsRated() {
				return a.IsRated()
			}
			if a.IsRated() && *a.AverageRating != *b.AverageRating {
				return *a.AverageRating > *b.AverageRating
			}
		case collection.SortByReviewCount:
			if a.ReviewCount != b.ReviewCount {
				return a.ReviewCount > b.ReviewCount
			}
		}
		return a.ID < b.ID
	})
	return out
}

func (s *store) deleteMap(id int64) {
	delete(s.maps, id)
	for rid, r := range s.reviews {
		if r.mapID == id {
			delete(s.reviews, rid)
		}
	}
}

func (s *store) reviewView(r *reviewRecord) review.Review {
	out := review.Review{
		ReviewID: r.id,
		AuthorID: r.authorID,
		Rating:   r.rating,
		Content:  r.content,
		MapID:    r.mapID,
	}
	if u, ok := s.users[r.authorID]; ok {
		out.Nickname = u.nickname
		out.Username = u.username
	}
	if m, ok := s.maps[r.mapID]; ok {
		out.MapName = m.name
	}
	return out
}

func (s *store) listReviews(keep func(*reviewRecord) bool) []review.Review {
	out := make([]review.Review, 0)
	for _, r := range s.reviews {
		if keep(r) {
			out = append(out, s.reviewView(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReviewID < out[j].ReviewID })
	return out
}

func (s *store) postView(p *postRecord) assemble.Post {
	return assemble.Post{
		ID:             p.id,
		Title:          p.title,
		MeetingTime:    p.meetingTime,
		RestaurantName: p.place,
		Address:        p.address,
		Latitude:       p.latitude,
		Longitude:      p.longitude,
		SenderID:       p.hostID,
		SenderName:     s.nickname(p.hostID),
		Status:         p.status,
	}
}

func (s *store) requestView(r *requestRecord) assemble.Application {
	out := assemble.Application{
		ID:         r.id,
		PostID:     r.postID,
		SenderID:   r.applicantID,
		SenderName: s.nickname(r.applicantID),
		Status:     r.status,
	}
	if p, ok := s.posts[r.postID]; ok {
		out.ReceiverID = p.hostID
		out.ReceiverName = s.nickname(p.hostID)
		out.Title = p.title
		out.RestaurantName = p.place
		out.MeetingTime = p.meetingTime
	}
	return out
}

func (s *store) listRequests(keep func(*requestRecord) bool) []assemble.Application {
	out := make([]assemble.Application, 0)
	for _, r := range s.requests {
		if keep(r) {
			out = append(out, s.requestView(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *store) hasApplied(postID, userID int64) bool {
	for _, r := range s.requests {
		if r.postID == postID && r.applicantID == userID {
			return true
		}
	}
	return false
}

// isParticipant reports whether userID may write on the post's thread
func (s *store) isParticipant(p *postRecord, userID int64) bool {
	if p.hostID == userID {
		return true
	}
	for _, r := range s.requests {
		if r.postID == p.id && r.applicantID == userID && r.status == assemble.ApplicationStatusAccepted {
			return true
		}
	}
	return false
}

func (s *store) deletePost(id int64) {
	delete(s.posts, id)
	for rid, r := range s.requests {
		if r.postID == id {
			delete(s.requests, rid)
		}
	}
	for cid, c := range s.comments {
		if c.postID == id {
			delete(s.comments, cid)
		}
	}
}

func (s *store) listComments(postID int64) []assemble.Comment {
	out := make([]assemble.Comment, 0)
	for _, c := range s.comments {
		if c.postID == postID {
			out = append(out, assemble.Comment{
				CommentID:  c.id,
				UserID:     c.userID,
				Nickname:   s.nickname(c.userID),
				MatchingID: c.postID,
				Content:    c.content,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CommentID < out[j].CommentID })
	return out
}
