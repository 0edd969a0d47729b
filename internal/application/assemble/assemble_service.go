// Package assemble serves the meetup screens: the board, post detail with
// its comment thread, and the host/applicant inbox.
//
// Every mutation is gated by assemble.AllowedActions on the entity the
// caller already loaded. A control that would be hidden fails with
// shared.ErrActionUnavailable and sends nothing.
package assemble

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/bobvengers/mapmate/internal/application/view"
	"github.com/bobvengers/mapmate/internal/domain/assemble"
	"github.com/bobvengers/mapmate/internal/domain/identity"
	"github.com/bobvengers/mapmate/internal/domain/shared"
	"github.com/bobvengers/mapmate/internal/infrastructure/apiclient"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// RedirectAfterGone is where a missing post sends the user
const RedirectAfterGone = "/assemble-board"

// API is the slice of the gateway the meetup screens use
type API interface {
	Do(ctx context.Context, req apiclient.Request) (*apiclient.Response, error)
	Get(ctx context.Context, path string, query map[string]string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// Sessions resolves the signed-in user
type Sessions interface {
	CurrentUser() *identity.User
	RequireUser() (*identity.User, error)
}

// AssembleService handles meetup posts, applications, and comments
type AssembleService struct {
	api      API
	sessions Sessions
	validate *validator.Validate
	logger   *zap.Logger
}

// NewAssembleService creates a new AssembleService
func NewAssembleService(api API, sessions Sessions, logger *zap.Logger) *AssembleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssembleService{
		api:      api,
		sessions: sessions,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.Named("assemble"),
	}
}

// Board lists every post, newest first as the server orders them
func (s *AssembleService) Board(ctx context.Context) ([]assemble.Post, error) {
	var posts []assemble.Post
	if err := s.api.Get(ctx, "/matching/board", nil, &posts); err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []assemble.Post{}
	}
	return posts, nil
}

// Get loads one post
func (s *AssembleService) Get(ctx context.Context, id int64) (*assemble.Post, error) {
	var post assemble.Post
	if err := s.api.Get(ctx, postPath(id), nil, &post); err != nil {
		return nil, view.Gone("post", id, RedirectAfterGone, err)
	}
	return &post, nil
}

// Detail loads a post and its comments in parallel. If either request fails
// nothing is returned.
func (s *AssembleService) Detail(ctx context.Context, id int64) (*PostDetail, error) {
	var (
		post     assemble.Post
		comments []assemble.Comment
	)
	err := view.All(ctx,
		func(ctx context.Context) error { return s.api.Get(ctx, postPath(id), nil, &post) },
		func(ctx context.Context) error { return s.api.Get(ctx, commentsPath(id), nil, &comments) },
	)
	if err != nil {
		s.logger.Info("post detail unavailable", zap.Int64("post_id", id), zap.Error(err))
		return nil, view.Gone("post", id, RedirectAfterGone, err)
	}
	if comments == nil {
		comments = []assemble.Comment{}
	}
	return &PostDetail{
		Post:     post,
		Comments: comments,
		Actions:  assemble.AllowedActions(&post, nil, s.sessions.CurrentUser()).List(),
	}, nil
}

// CreatePost announces a meetup hosted by the signed-in user and returns the
// server's confirmation text.
func (s *AssembleService) CreatePost(ctx context.Context, input CreatePostInput) (string, error) {
	user, err := s.sessions.RequireUser()
	if err != nil {
		return "", err
	}

	input.Title = strings.TrimSpace(input.Title)
	input.MeetingTime = strings.TrimSpace(input.MeetingTime)
	input.Place = input.Place.Normalize()
	if err := s.validate.Struct(input); err != nil {
		return "", shared.NewDomainError("INVALID_INPUT", "Title, meeting time, and a restaurant are required")
	}

	resp, err := s.api.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/matching",
		Body: createPostRequest{
			SenderID:    user.UserID,
			Title:       input.Title,
			MeetingTime: input.MeetingTime,
			Name:        input.Place.Name,
			Address:     input.Place.Address,
		},
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("post created", zap.String("title", input.Title))
	return strings.Trim(strings.TrimSpace(string(resp.Body)), `"`), nil
}

// Apply sends a join request for post. A second request for the same post
// is rejected by the server; apiclient.IsConflict identifies that case.
func (s *AssembleService) Apply(ctx context.Context, post *assemble.Post) error {
	user, err := s.gate(post, nil, assemble.ActionApply)
	if err != nil {
		return err
	}
	path := postPath(post.ID) + "/apply/" + strconv.FormatInt(user.UserID, 10)
	if err := s.api.Post(ctx, path, nil, nil); err != nil {
		return err
	}
	s.logger.Info("applied", zap.Int64("post_id", post.ID))
	return nil
}

// ClosePost ends recruiting and returns the re-fetched post. A post that is
// already closed is only re-fetched.
func (s *AssembleService) ClosePost(ctx context.Context, post *assemble.Post) (*assemble.Post, error) {
	if post != nil && post.IsClosed() {
		return s.Get(ctx, post.ID)
	}
	if _, err := s.gate(post, nil, assemble.ActionClosePost); err != nil {
		return nil, err
	}

	req := updateStatusRequest{MatchingID: post.ID, Status: assemble.PostStatusClosed.String()}
	if err := s.api.Patch(ctx, "/matching/update-status", req, nil); err != nil {
		return nil, err
	}
	s.logger.Info("post closed", zap.Int64("post_id", post.ID))
	return s.Get(ctx, post.ID)
}

// DeletePost removes a post along with its applications and comments
func (s *AssembleService) DeletePost(ctx context.Context, post *assemble.Post) error {
	user, err := s.gate(post, nil, assemble.ActionDeletePost)
	if err != nil {
		return err
	}
	if err := s.api.Delete(ctx, postPath(post.ID)+"/"+strconv.FormatInt(user.UserID, 10), nil); err != nil {
		return err
	}
	s.logger.Info("post deleted", zap.Int64("post_id", post.ID))
	return nil
}

// Inbox loads received and sent applications in parallel. Items missing the
// receiver (received) or sender (sent) are attributed to the signed-in user.
func (s *AssembleService) Inbox(ctx context.Context) (*Inbox, error) {
	user, err := s.sessions.RequireUser()
	if err != nil {
		return nil, err
	}
	uid := strconv.FormatInt(user.UserID, 10)

	var received, sent []assemble.Application
	err = view.All(ctx,
		func(ctx context.Context) error { return s.api.Get(ctx, "/matching/requests/received/"+uid, nil, &received) },
		func(ctx context.Context) error { return s.api.Get(ctx, "/matching/requests/sent/"+uid, nil, &sent) },
	)
	if err != nil {
		return nil, err
	}
	if received == nil {
		received = []assemble.Application{}
	}
	if sent == nil {
		sent = []assemble.Application{}
	}
	assemble.ReceivedBy(received, user)
	assemble.SentBy(sent, user)
	return &Inbox{Received: received, Sent: sent}, nil
}

// Accept approves a Requested application
func (s *AssembleService) Accept(ctx context.Context, app *assemble.Application) error {
	return s.decide(ctx, app, assemble.ActionAccept, assemble.ApplicationStatusAccepted)
}

// Reject declines a Requested application
func (s *AssembleService) Reject(ctx context.Context, app *assemble.Application) error {
	return s.decide(ctx, app, assemble.ActionReject, assemble.ApplicationStatusRejected)
}

func (s *AssembleService) decide(ctx context.Context, app *assemble.Application, action assemble.Action, status assemble.ApplicationStatus) error {
	if _, err := s.gate(nil, app, action); err != nil {
		return err
	}
	req := updateStatusRequest{MatchingID: app.ID, Status: status.String()}
	if err := s.api.Patch(ctx, "/matching/update-status", req, nil); err != nil {
		return err
	}
	s.logger.Info("application decided", zap.Int64("application_id", app.ID), zap.String("status", status.Label()))
	return nil
}

// CancelApplication withdraws or removes an application that was not
// accepted. Either party may do this.
func (s *AssembleService) CancelApplication(ctx context.Context, app *assemble.Application) error {
	user, err := s.gate(nil, app, assemble.ActionCancelApplication)
	if err != nil {
		return err
	}
	path := "/matching/request/" + strconv.FormatInt(app.ID, 10) + "/" + strconv.FormatInt(user.UserID, 10)
	if err := s.api.Delete(ctx, path, nil); err != nil {
		return err
	}
	s.logger.Info("application removed", zap.Int64("application_id", app.ID))
	return nil
}

// Comments lists a post's thread
func (s *AssembleService) Comments(ctx context.Context, postID int64) ([]assemble.Comment, error) {
	var comments []assemble.Comment
	if err := s.api.Get(ctx, commentsPath(postID), nil, &comments); err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []assemble.Comment{}
	}
	return comments, nil
}

// PostComment writes on post's thread and returns the re-fetched thread.
// The server only accepts the host and accepted participants and its
// message is returned as-is for anyone else.
func (s *AssembleService) PostComment(ctx context.Context, post *assemble.Post, content string) ([]assemble.Comment, error) {
	user, err := s.gate(post, nil, assemble.ActionComment)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Comment cannot be empty")
	}

	req := commentRequest{UserID: user.UserID, MatchingID: post.ID, Content: content}
	if err := s.api.Post(ctx, "/matching-comments", req, nil); err != nil {
		return nil, err
	}
	return s.Comments(ctx, post.ID)
}

// gate returns the signed-in user if action is currently offered to them
func (s *AssembleService) gate(post *assemble.Post, app *assemble.Application, action assemble.Action) (*identity.User, error) {
	user, err := s.sessions.RequireUser()
	if err != nil {
		return nil, err
	}
	if post == nil && app == nil {
		return nil, shared.ErrActionUnavailable
	}
	if !assemble.AllowedActions(post, app, user).Has(action) {
		s.logger.Debug("action not offered", zap.String("action", string(action)), zap.Int64("user_id", user.UserID))
		return nil, shared.ErrActionUnavailable
	}
	return user, nil
}

func postPath(id int64) string {
	return "/matching/" + strconv.FormatInt(id, 10)
}

func commentsPath(postID int64) string {
	return "/matching-comments/matching/" + strconv.FormatInt(postID, 10)
}
