package assemble

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/bobvengers/mapmate/internal/application/auth"
	"github.com/bobvengers/mapmate/internal/application/view"
	"github.com/bobvengers/mapmate/internal/domain/assemble"
	"github.com/bobvengers/mapmate/internal/domain/identity"
	"github.com/bobvengers/mapmate/internal/domain/shared"
	"github.com/bobvengers/mapmate/internal/infrastructure/apiclient"
	"github.com/bobvengers/mapmate/internal/infrastructure/sessionstore"
	"github.com/bobvengers/mapmate/internal/testutil/fakeapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// actor is one signed-in client talking to the shared backend
type actor struct {
	user     identity.User
	sessions *auth.SessionService
	svc      *AssembleService
}

func newActor(t *testing.T, srv *fakeapi.Server, username, nickname string) *actor {
	t.Helper()
	u, err := srv.SeedUser(username, nickname, "pw")
	require.NoError(t, err)

	client, err := apiclient.New(apiclient.Config{BaseURL: srv.URL}, nil)
	require.NoError(t, err)
	sessions := auth.NewSessionService(client, sessionstore.NewMemoryStore(), nil)
	_, err = sessions.Login(context.Background(), auth.LoginInput{Username: username, Password: "pw"})
	require.NoError(t, err)

	return &actor{user: u, sessions: sessions, svc: NewAssembleService(client, sessions, nil)}
}

func hostPost(t *testing.T, host *actor) *assemble.Post {
	t.Helper()
	ctx := context.Background()
	msg, err := host.svc.CreatePost(ctx, CreatePostInput{
		Title:       "을지로 노포 투어",
		MeetingTime: "토요일 저녁 7시",
		Place:       assemble.Place{Name: "을지면옥", Address: "서울 중구 충무로14길 2-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "모임이 등록되었습니다.", msg)

	board, err := host.svc.Board(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, board)
	return &board[0]
}

func TestApplyAcceptScenario(t *testing.T) {
	srv := fakeapi.NewServer(t)
	ctx := context.Background()
	a := newActor(t, srv, "hostA", "에이")
	b := newActor(t, srv, "guestB", "비")

	post := hostPost(t, a)
	require.NoError(t, b.svc.Apply(ctx, post))

	inboxA, err := a.svc.Inbox(ctx)
	require.NoError(t, err)
	require.Len(t, inboxA.Received, 1)
	received := inboxA.Received[0]
	assert.Equal(t, assemble.ApplicationStatusRequested, received.Status)
	assert.Equal(t, "비", received.SenderName)

	require.NoError(t, a.svc.Accept(ctx, &received))

	inboxB, err := b.svc.Inbox(ctx)
	require.NoError(t, err)
	require.Len(t, inboxB.Sent, 1)
	sent := inboxB.Sent[0]
	assert.Equal(t, assemble.ApplicationStatusAccepted, sent.Status)
	assert.False(t, assemble.AllowedActions(nil, &sent, b.sessions.CurrentUser()).Has(assemble.ActionCancelApplication))

	srv.ResetRequests()
	assert.ErrorIs(t, b.svc.CancelApplication(ctx, &sent), shared.ErrActionUnavailable)
	assert.Empty(t, srv.Requests())
}

func TestApply_Duplicate(t *testing.T) {
	srv := fakeapi.NewServer(t)
	ctx := context.Background()
	a := newActor(t, srv, "hostA", "에이")
	b := newActor(t, srv, "guestB", "비")

	post := hostPost(t, a)
	require.NoError(t, b.svc.Apply(ctx, post))
	err := b.svc.Apply(ctx, post)
	assert.True(t, apiclient.IsConflict(err))
	assert.Equal(t, "이미 신청한 모임입니다.", err.Error())
}

func TestApply_GatedWithoutRequest(t *testing.T) {
	srv := fakeapi.NewServer(t)
	ctx := context.Background()
	a := newActor(t, srv, "hostA", "에이")
	post := hostPost(t, a)
	srv.ResetRequests()

	assert.ErrorIs(t, a.svc.Apply(ctx, post), shared.ErrActionUnavailable)

	closed := *post
	closed.Status = assemble.PostStatusClosed
	b := newActor(t, srv, "guestB", "비")
	srv.ResetRequests()
	assert.ErrorIs(t, b.svc.Apply(ctx, &closed), shared.ErrActionUnavailable)
	assert.ErrorIs(t, b.svc.Apply(ctx, nil), shared.ErrActionUnavailable)
	assert.Empty(t, srv.Requests())
}

func TestClosePost(t *testing.T) {
	srv := fakeapi.NewServer(t)
	ctx := context.Background()
	a := newActor(t, srv, "hostA", "에이")
	b := newActor(t, srv, "guestB", "비")
	post := hostPost(t, a)

	srv.ResetRequests()
	_, err := b.svc.ClosePost(ctx, post)
	assert.ErrorIs(t, err, shared.ErrActionUnavailable)
	assert.Empty(t, srv.Requests())

	closed, err := a.svc.ClosePost(ctx, post)
	require.NoError(t, err)
	assert.Equal(t, assemble.PostStatusClosed, closed.Status)

	hostActions := assemble.AllowedActions(closed, nil, a.sessions.CurrentUser())
	assert.False(t, hostActions.Has(assemble.ActionClosePost))
	assert.True(t, hostActions.Has(assemble.ActionDeletePost))
	assert.False(t, assemble.AllowedActions(closed, nil, b.sessions.CurrentUser()).Has(assemble.ActionApply))

	srv.ResetRequests()
	again, err := a.svc.ClosePost(ctx, closed)
	require.NoError(t, err)
	assert.Equal(t, closed, again)
	assert.Equal(t, []string{"GET /matching/" + strconv.FormatInt(closed.ID, 10)}, srv.Requests(),
		"closing a closed post only re-fetches it")

	stale := *post
	stale.Status = assemble.PostStatusClosed
	stale.Title = "stale copy"
	refreshed, err := a.svc.ClosePost(ctx, &stale)
	require.NoError(t, err)
	assert.Equal(t, post.Title, refreshed.Title, "the returned post comes from the server")
}

func TestDetail(t *testing.T) {
	srv := fakeapi.NewServer(t)
	ctx := context.Background()
	a := newActor(t, srv, "hostA", "에이")
	post := hostPost(t, a)

	comments, err := a.svc.PostComment(ctx, post, "  다들 반가워요 ")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "다들 반가워요", comments[0].Content)

	detail, err := a.svc.Detail(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.Title, detail.Post.Title)
	assert.Len(t, detail.Comments, 1)
	assert.Equal(t, []assemble.Action{assemble.ActionClosePost, assemble.ActionComment, assemble.ActionDeletePost}, detail.Actions)
}

func TestDetail_CommentsFailure(t *testing.T) {
	srv := fakeapi.NewServer(t)
	a := newActor(t, srv, "hostA", "에이")
	post := hostPost(t, a)
	srv.Fail(http.MethodGet, "/matching-comments/matching/1", http.StatusInternalServerError, "")

	detail, err := a.svc.Detail(context.Background(), post.ID)
	assert.Nil(t, detail)
	gone, ok := view.AsGone(err)
	require.True(t, ok)
	assert.Equal(t, RedirectAfterGone, gone.RedirectTo)
}

func TestPostComment_ServerRuleSurfaced(t *testing.T) {
	srv := fakeapi.NewServer(t)
	ctx := context.Background()
	a := newActor(t, srv, "hostA", "에이")
	c := newActor(t, srv, "bystander", "씨")
	post := hostPost(t, a)

	_, err := c.svc.PostComment(ctx, post, "끼워주세요")
	require.Error(t, err)
	assert.True(t, apiclient.IsServerRejected(err))
	assert.Equal(t, "모임 참여자만 메시지를 작성할 수 있습니다.", err.Error())

	_, err = a.svc.PostComment(ctx, post, "   ")
	assert.Equal(t, "INVALID_INPUT", shared.CodeOf(err))
}

func TestRejectThenCancel(t *testing.T) {
	srv := fakeapi.NewServer(t)
	ctx := context.Background()
	a := newActor(t, srv, "hostA", "에이")
	b := newActor(t, srv, "guestB", "비")
	post := hostPost(t, a)
	require.NoError(t, b.svc.Apply(ctx, post))

	inbox, err := a.svc.Inbox(ctx)
	require.NoError(t, err)
	app, ok := inbox.Find(inbox.Received[0].ID)
	require.True(t, ok)

	srv.ResetRequests()
	assert.ErrorIs(t, b.svc.Reject(ctx, app), shared.ErrActionUnavailable)
	assert.Empty(t, srv.Requests())

	require.NoError(t, a.svc.Reject(ctx, app))

	inbox, err = b.svc.Inbox(ctx)
	require.NoError(t, err)
	rejected := inbox.Sent[0]
	assert.Equal(t, assemble.ApplicationStatusRejected, rejected.Status)

	require.NoError(t, b.svc.CancelApplication(ctx, &rejected))
	inbox, err = b.svc.Inbox(ctx)
	require.NoError(t, err)
	assert.Empty(t, inbox.Sent)
}

func TestDeletePost(t *testing.T) {
	srv := fakeapi.NewServer(t)
	ctx := context.Background()
	a := newActor(t, srv, "hostA", "에이")
	post := hostPost(t, a)

	require.NoError(t, a.svc.DeletePost(ctx, post))
	_, err := a.svc.Get(ctx, post.ID)
	_, ok := view.AsGone(err)
	assert.True(t, ok)

	board, err := a.svc.Board(ctx)
	require.NoError(t, err)
	assert.Empty(t, board)
}

func TestCreatePost_Validation(t *testing.T) {
	srv := fakeapi.NewServer(t)
	a := newActor(t, srv, "hostA", "에이")
	srv.ResetRequests()

	_, err := a.svc.CreatePost(context.Background(), CreatePostInput{Title: "t", MeetingTime: "now"})
	assert.Equal(t, "INVALID_INPUT", shared.CodeOf(err))
	assert.Empty(t, srv.Requests())
}

func TestSignedOut(t *testing.T) {
	srv := fakeapi.NewServer(t)
	client, err := apiclient.New(apiclient.Config{BaseURL: srv.URL}, nil)
	require.NoError(t, err)
	svc := NewAssembleService(client, auth.NewSessionService(client, sessionstore.NewMemoryStore(), nil), nil)

	_, err = svc.Inbox(context.Background())
	assert.ErrorIs(t, err, shared.ErrLoginRequired)

	post := &assemble.Post{ID: 1, Status: assemble.PostStatusRecruiting, SenderID: 9}
	assert.ErrorIs(t, svc.Apply(context.Background(), post), shared.ErrLoginRequired)
}

type signedIn struct{ user *identity.User }

func (s signedIn) CurrentUser() *identity.User { return s.user }

func (s signedIn) RequireUser() (*identity.User, error) { return s.user, nil }

func TestInbox_ReceivedWithoutReceiverCanBeDecided(t *testing.T) {
	var patched atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/matching/requests/received/7":
			_, _ = w.Write([]byte(`[{"id":3,"senderName":"B","title":"점심","status":"요청됨"}]`))
		case "/matching/requests/sent/7":
			_, _ = w.Write([]byte(`[]`))
		case "/matching/update-status":
			patched.Store(true)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client, err := apiclient.New(apiclient.Config{BaseURL: srv.URL}, nil)
	require.NoError(t, err)
	host := &identity.User{UserID: 7, Username: "host", Nickname: "호스트"}
	svc := NewAssembleService(client, signedIn{host}, nil)

	inbox, err := svc.Inbox(context.Background())
	require.NoError(t, err)
	require.Len(t, inbox.Received, 1)
	received := &inbox.Received[0]
	assert.True(t, assemble.AllowedActions(nil, received, host).Has(assemble.ActionAccept))

	require.NoError(t, svc.Accept(context.Background(), received))
	assert.True(t, patched.Load())
}
