package fakeapi

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/bobvengers/mapmate/internal/domain/assemble"
	"github.com/bobvengers/mapmate/internal/domain/collection"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type signupRequest struct {
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Token    string `json:"token"`
}

type createMapRequest struct {
	Name            string                      `json:"name"`
	UserID          int64                       `json:"userId"`
	RestaurantInfos []collection.RestaurantInfo `json:"restaurantInfos"`
}

type renameMapRequest struct {
	Name string `json:"name"`
}

type reviewRequest struct {
	UserID          int64  `json:"userId"`
	MapCollectionID int64  `json:"mapCollectionId"`
	Rating          int    `json:"rating"`
	Content         string `json:"content"`
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

func (b *Backend) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, msgBadRequest)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Nickname = strings.TrimSpace(req.Nickname)
	if req.Username == "" || req.Nickname == "" || req.Password == "" {
		c.String(http.StatusBadRequest, msgSignupBlank)
		return
	}

	if _, err := b.SeedUser(req.Username, req.Nickname, req.Password); err != nil {
		if errors.Is(err, errUsernameTaken) || errors.Is(err, errNicknameTaken) {
			c.String(http.StatusConflict, err.Error())
			return
		}
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.String(http.StatusOK, msgSignupOK)
}

func (b *Backend) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, msgBadRequest)
		return
	}

	b.mu.Lock()
	u := b.db.userByUsername(strings.TrimSpace(req.Username))
	b.mu.Unlock()
	if u == nil || bcrypt.CompareHashAndPassword(u.hash, []byte(req.Password)) != nil {
		c.String(http.StatusUnauthorized, msgBadCredentials)
		return
	}

	token, err := b.issueToken(u)
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, loginResponse{UserID: u.id, Username: u.username, Nickname: u.nickname, Token: token})
}

func (b *Backend) listMaps(c *gin.Context) {
	sortBy := collection.SortBy(c.Query("sortBy"))
	b.mu.Lock()
	defer b.mu.Unlock()
	c.JSON(http.StatusOK, b.db.listMaps(c.Query("keyword"), sortBy, nil))
}

func (b *Backend) getMap(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	m, found := b.db.maps[id]
	if !found {
		c.String(http.StatusNotFound, msgMapNotFound)
		return
	}
	c.JSON(http.StatusOK, b.db.mapView(m))
}

func (b *Backend) listMapsByUser(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	c.JSON(http.StatusOK, b.db.listMaps("", collection.SortByNone, func(m *mapRecord) bool { return m.ownerID == userID }))
}

func (b *Backend) listMapsByCreator(c *gin.Context) {
	nickname := c.Param("nickname")
	b.mu.Lock()
	defer b.mu.Unlock()
	owner := b.db.userByNickname(nickname)
	if owner == nil {
		c.JSON(http.StatusOK, []collection.MapCollection{})
		return
	}
	c.JSON(http.StatusOK, b.db.listMaps("", collection.SortByNone, func(m *mapRecord) bool { return m.ownerID == owner.id }))
}

func (b *Backend) createMap(c *gin.Context) {
	var req createMapRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" || len(req.RestaurantInfos) == 0 {
		c.String(http.StatusBadRequest, msgBadRequest)
		return
	}
	if req.UserID != currentUserID(c) {
		c.String(http.StatusForbidden, msgForbidden)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	m := &mapRecord{id: b.db.id("map"), name: strings.TrimSpace(req.Name), ownerID: req.UserID}
	for _, info := range req.RestaurantInfos {
		m.restaurants = append(m.restaurants, collection.Restaurant{
			Name:      info.Name,
			Address:   info.Address,
			Latitude:  b.faker.Float64Range(37.45, 37.65),
			Longitude: b.faker.Float64Range(126.85, 127.15),
		})
	}
	b.db.maps[m.id] = m
	c.JSON(http.StatusOK, b.db.mapView(m))
}

func (b *Backend) ownedMap(c *gin.Context) (*mapRecord, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return nil, false
	}
	m, found := b.db.maps[id]
	if !found {
		c.String(http.StatusNotFound, msgMapNotFound)
		return nil, false
	}
	if m.ownerID != currentUserID(c) {
		c.String(http.StatusForbidden, msgForbidden)
		return nil, false
	}
	return m, true
}

func (b *Backend) renameMap(c *gin.Context) {
	var req renameMapRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.String(http.StatusBadRequest, msgBadRequest)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.ownedMap(c)
	if !ok {
		return
	}
	m.name = strings.TrimSpace(req.Name)
	c.JSON(http.StatusOK, b.db.mapView(m))
}

func (b *Backend) deleteMap(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.ownedMap(c)
	if !ok {
		return
	}
	b.db.deleteMap(m.id)
	c.Status(http.StatusOK)
}

func (b *Backend) listReviewsByMap(c *gin.Context) {
	mapID, ok := pathID(c, "mapId")
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, found := b.db.maps[mapID]; !found {
		c.String(http.StatusNotFound, msgMapNotFound)
		return
	}
	c.JSON(http.StatusOK, b.db.listReviews(func(r *reviewRecord) bool { return r.mapID == mapID }))
}

func (b *Backend) listReviewsByUser(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	c.JSON(http.StatusOK, b.db.listReviews(func(r *reviewRecord) bool { return r.authorID == userID }))
}

func (b *Backend) createReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		c.String(http.StatusBadRequest, msgBadRequest)
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		c.String(http.StatusBadRequest, msgInvalidRating)
		return
	}
	if req.UserID != currentUserID(c) {
		c.String(http.StatusForbidden, msgForbidden)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, found := b.db.maps[req.MapCollectionID]; !found {
		c.String(http.StatusNotFound, msgMapNotFound)
		return
	}
	r := &reviewRecord{
		id:       b.db.id("review"),
		authorID: req.UserID,
		mapID:    req.MapCollectionID,
		rating:   req.Rating,
		content:  strings.TrimSpace(req.Content),
	}
	b.db.reviews[r.id] = r
	c.JSON(http.StatusOK, b.db.reviewView(r))
}

func (b *Backend) authoredReview(c *gin.Context) (*reviewRecord, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return nil, false
	}
	r, found := b.db.reviews[id]
	if !found {
		c.String(http.StatusNotFound, msgReviewNotFound)
		return nil, false
	}
	if r.authorID != currentUserID(c) {
		c.String(http.StatusForbidden, msgForbidden)
		return nil, false
	}
	return r, true
}

func (b *Backend) updateReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		c.String(http.StatusBadRequest, msgBadRequest)
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		c.String(http.StatusBadRequest, msgInvalidRating)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.authoredReview(c)
	if !ok {
		return
	}
	r.rating = req.Rating
	r.content = strings.TrimSpace(req.Content)
	c.JSON(http.StatusOK, b.db.reviewView(r))
}

func (b *Backend) deleteReview(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.authoredReview(c)
	if !ok {
		return
	}
	delete(b.db.reviews, r.id)
	c.Status(http.StatusOK)
}

func (b *Backend) board(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]assemble.Post, 0, len(b.db.posts))
	for _, p := range b.db.posts {
		out = append(out, b.db.postView(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	c.JSON(http.StatusOK, out)
}

func (b *Backend) getPost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	p, found := b.db.posts[id]
	if !found {
		c.String(http.StatusNotFound, msgPostNotFound)
		return
	}
	c.JSON(http.StatusOK, b.db.postView(p))
}

func (b *Backend) receivedRequests(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	c.JSON(http.StatusOK, b.db.listRequests(func(r *requestRecord) bool {
		p, found := b.db.posts[r.postID]
		return found && p.hostID == userID
	}))
}

func (b *Backend) sentRequests(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	c.JSON(http.StatusOK, b.db.listRequests(func(r *requestRecord) bool { return r.applicantID == userID }))
}

func (b *Backend) createPost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil ||
		strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Name) == "" {
		c.String(http.StatusBadRequest, msgBadRequest)
		return
	}
	if req.SenderID != currentUserID(c) {
		c.String(http.StatusForbidden, msgForbidden)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	p := &postRecord{
		id:          b.db.id("post"),
		hostID:      req.SenderID,
		title:       strings.TrimSpace(req.Title),
		meetingTime: strings.TrimSpace(req.MeetingTime),
		place:       strings.TrimSpace(req.Name),
		address:     strings.TrimSpace(req.Address),
		latitude:    b.faker.Float64Range(37.45, 37.65),
		longitude:   b.faker.Float64Range(126.85, 127.15),
		status:      assemble.PostStatusRecruiting,
	}
	b.db.posts[p.id] = p
	c.String(http.StatusOK, msgPostCreated)
}

func (b *Backend) apply(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	if userID != currentUserID(c) {
		c.String(http.StatusForbidden, msgForbidden)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	p, found := b.db.posts[postID]
	switch {
	case !found:
		c.String(http.StatusNotFound, msgPostNotFound)
	case p.status != assemble.PostStatusRecruiting:
		c.String(http.StatusBadRequest, msgPostClosed)
	case p.hostID == userID:
		c.String(http.StatusBadRequest, msgOwnPost)
	case b.db.hasApplied(postID, userID):
		c.String(http.StatusConflict, msgAlreadyApplied)
	default:
		r := &requestRecord{id: b.db.id("request"), postID: postID, applicantID: userID, status: assemble.ApplicationStatusRequested}
		b.db.requests[r.id] = r
		c.JSON(http.StatusOK, b.db.requestView(r))
	}
}

// updateStatus closes a post or decides an application, depending on which
// vocabulary the requested status belongs to.
func (b *Backend) updateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.MatchingID <= 0 {
		c.String(http.StatusBadRequest, msgBadRequest)
		return
	}
	userID := currentUserID(c)

	b.mu.Lock()
	defer b.mu.Unlock()

	if postStatus, err := assemble.ParsePostStatus(req.Status); err == nil {
		p, found := b.db.posts[req.MatchingID]
		switch {
		case !found:
			c.String(http.StatusNotFound, msgPostNotFound)
		case p.hostID != userID:
			c.String(http.StatusForbidden, msgForbidden)
		case !p.status.CanTransitionTo(postStatus):
			c.String(http.StatusBadRequest, msgPostClosed)
		default:
			p.status = postStatus
			c.JSON(http.StatusOK, b.db.postView(p))
		}
		return
	}

	appStatus, err := assemble.ParseApplicationStatus(req.Status)
	if err != nil {
		c.String(http.StatusBadRequest, msgBadRequest)
		return
	}
	r, found := b.db.requests[req.MatchingID]
	if !found {
		c.String(http.StatusNotFound, msgRequestNotFound)
		return
	}
	p := b.db.posts[r.postID]
	switch {
	case p == nil || p.hostID != userID:
		c.String(http.StatusForbidden, msgForbidden)
	case !r.status.CanTransitionTo(appStatus):
		c.String(http.StatusBadRequest, msgAlreadyDecided)
	default:
		r.status = appStatus
		c.JSON(http.StatusOK, b.db.requestView(r))
	}
}

func (b *Backend) deletePost(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	if userID != currentUserID(c) {
		c.String(http.StatusForbidden, msgForbidden)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	p, found := b.db.posts[postID]
	switch {
	case !found:
		c.String(http.StatusNotFound, msgPostNotFound)
	case p.hostID != userID:
		c.String(http.StatusForbidden, msgForbidden)
	default:
		b.db.deletePost(postID)
		c.Status(http.StatusOK)
	}
}

func (b *Backend) cancelRequest(c *gin.Context) {
	requestID, ok := pathID(c, "requestId")
	if !ok {
		return
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	if userID != currentUserID(c) {
		c.String(http.StatusForbidden, msgForbidden)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	r, found := b.db.requests[requestID]
	if !found {
		c.String(http.StatusNotFound, msgRequestNotFound)
		return
	}
	p := b.db.posts[r.postID]
	isHost := p != nil && p.hostID == userID
	switch {
	case r.applicantID != userID && !isHost:
		c.String(http.StatusForbidden, msgForbidden)
	case !r.status.IsDeletable():
		c.String(http.StatusBadRequest, msgAcceptedLocked)
	default:
		delete(b.db.requests, requestID)
		c.Status(http.StatusOK)
	}
}

func (b *Backend) listComments(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, found := b.db.posts[postID]; !found {
		c.String(http.StatusNotFound, msgPostNotFound)
		return
	}
	c.JSON(http.StatusOK, b.db.listComments(postID))
}

func (b *Backend) createComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		c.String(http.StatusBadRequest, msgBadRequest)
		return
	}
	if req.UserID != currentUserID(c) {
		c.String(http.StatusForbidden, msgForbidden)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	p, found := b.db.posts[req.MatchingID]
	if !found {
		c.String(http.StatusNotFound, msgPostNotFound)
		return
	}
	if !b.db.isParticipant(p, req.UserID) {
		c.String(http.StatusForbidden, msgCommentForbidden)
		return
	}
	cm := &commentRecord{id: b.db.id("comment"), postID: p.id, userID: req.UserID, content: strings.TrimSpace(req.Content)}
	b.db.comments[cm.id] = cm
	c.Status(http.StatusOK)
}
