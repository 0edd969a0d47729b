package collection

import (
	"context"
	"net/http"
	"testing"

	"github.com/bobvengers/mapmate/internal/application/auth"
	"github.com/bobvengers/mapmate/internal/application/view"
	"github.com/bobvengers/mapmate/internal/domain/collection"
	"github.com/bobvengers/mapmate/internal/domain/shared"
	"github.com/bobvengers/mapmate/internal/infrastructure/apiclient"
	"github.com/bobvengers/mapmate/internal/infrastructure/sessionstore"
	"github.com/bobvengers/mapmate/internal/testutil/fakeapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	srv      *fakeapi.Server
	client   *apiclient.Client
	sessions *auth.SessionService
	maps     *MapService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := fakeapi.NewServer(t, fakeapi.WithSeed(42))
	client, err := apiclient.New(apiclient.Config{BaseURL: srv.URL}, nil)
	require.NoError(t, err)
	sessions := auth.NewSessionService(client, sessionstore.NewMemoryStore(), nil)
	return &harness{srv: srv, client: client, sessions: sessions, maps: NewMapService(client, sessions, nil)}
}

func (h *harness) signIn(t *testing.T, username, nickname string) int64 {
	t.Helper()
	u, err := h.srv.SeedUser(username, nickname, "pw")
	require.NoError(t, err)
	_, err = h.sessions.Login(context.Background(), auth.LoginInput{Username: username, Password: "pw"})
	require.NoError(t, err)
	return u.UserID
}

func (h *harness) review(t *testing.T, mapID int64, rating int) {
	t.Helper()
	user, err := h.sessions.RequireUser()
	require.NoError(t, err)
	require.NoError(t, h.client.Post(context.Background(), "/map-reviews", map[string]any{
		"userId": user.UserID, "mapCollectionId": mapID, "rating": rating, "content": "맛있어요",
	}, nil))
}

func TestCreate_ThenListByUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	userID := h.signIn(t, "userA", "에이")

	err := h.maps.Create(ctx, CreateMapInput{
		Name: "Gangnam Favorites",
		Restaurants: []collection.RestaurantInfo{
			{Name: "Mingles", Address: "서울 강남구 도산대로67길 19"},
			{Name: "Jungsik", Address: "서울 강남구 선릉로158길 11"},
			{Name: "Mingles", Address: "서울 강남구 도산대로67길 19 "},
		},
	})
	require.NoError(t, err)

	maps, err := h.maps.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, maps, 1)
	assert.Equal(t, "Gangnam Favorites", maps[0].Name)
	assert.Len(t, maps[0].Restaurants, 2)

	mine, err := h.maps.ListMine(ctx)
	require.NoError(t, err)
	assert.Equal(t, maps, mine)

	byCreator, err := h.maps.ListByCreator(ctx, "에이")
	require.NoError(t, err)
	assert.Len(t, byCreator, 1)
}

func TestCreate_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := h.maps.Create(ctx, CreateMapInput{Name: "x", Restaurants: []collection.RestaurantInfo{{Name: "a", Address: "b"}}})
	assert.ErrorIs(t, err, shared.ErrLoginRequired)

	h.signIn(t, "userA", "에이")
	h.srv.ResetRequests()

	tests := []struct {
		name  string
		input CreateMapInput
	}{
		{"blank name", CreateMapInput{Name: "  ", Restaurants: []collection.RestaurantInfo{{Name: "a", Address: "b"}}}},
		{"no restaurants", CreateMapInput{Name: "x"}},
		{"restaurant without address", CreateMapInput{Name: "x", Restaurants: []collection.RestaurantInfo{{Name: "a"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.maps.Create(ctx, tt.input)
			assert.Equal(t, "INVALID_INPUT", shared.CodeOf(err))
		})
	}
	assert.Empty(t, h.srv.Requests())
}

func TestHome(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signIn(t, "userA", "에이")

	for i := 0; i < 7; i++ {
		require.NoError(t, h.maps.Create(ctx, CreateMapInput{
			Name:        "map",
			Restaurants: []collection.RestaurantInfo{{Name: "r", Address: "a"}},
		}))
	}
	h.review(t, 3, 5)
	h.review(t, 3, 5)
	h.review(t, 6, 2)

	home := h.maps.Home(ctx)
	require.Len(t, home.TopRated, collection.HomeSectionSize)
	require.Len(t, home.MostReviewed, collection.HomeSectionSize)
	assert.Equal(t, int64(3), home.TopRated[0].ID)
	assert.Equal(t, int64(6), home.TopRated[1].ID)
	assert.Equal(t, 2, home.MostReviewed[0].ReviewCount)
}

func TestHome_FailingSectionIsEmpty(t *testing.T) {
	h := newHarness(t)
	h.srv.Fail(http.MethodGet, "/map-collections", http.StatusInternalServerError, "boom")

	home := h.maps.Home(context.Background())
	assert.Empty(t, home.TopRated)
	assert.Empty(t, home.MostReviewed)
	assert.NotNil(t, home.TopRated)
}

func TestList_FilterAndSort(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signIn(t, "userA", "에이")

	for _, name := range []string{"강남 맛집", "홍대 카페", "강남 술집"} {
		require.NoError(t, h.maps.Create(ctx, CreateMapInput{
			Name:        name,
			Restaurants: []collection.RestaurantInfo{{Name: "r", Address: "a"}},
		}))
	}
	h.review(t, 3, 4)

	maps, err := h.maps.List(ctx, ListFilter{Keyword: " 강남 ", SortBy: collection.SortByReviewCount})
	require.NoError(t, err)
	require.Len(t, maps, 2)
	assert.Equal(t, "강남 술집", maps[0].Name)

	_, err = h.maps.List(ctx, ListFilter{SortBy: "newest"})
	assert.Equal(t, "INVALID_INPUT", shared.CodeOf(err))

	none, err := h.maps.List(ctx, ListFilter{Keyword: "부산"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestDetail(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signIn(t, "userA", "에이")
	require.NoError(t, h.maps.Create(ctx, CreateMapInput{
		Name: "Detail",
		Restaurants: []collection.RestaurantInfo{
			{Name: "one", Address: "1"}, {Name: "two", Address: "2"},
		},
	}))
	h.review(t, 1, 4)

	detail, err := h.maps.Detail(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Detail", detail.Map.Name)
	require.Len(t, detail.Reviews, 1)
	assert.Equal(t, "에이", detail.Reviews[0].DisplayName())

	cursor := detail.Cursor()
	next, ok := cursor.Next()
	require.True(t, ok)
	assert.Equal(t, "two", next.Name)
}

func TestDetail_ReviewsFailureYieldsNoPartialData(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signIn(t, "userA", "에이")
	require.NoError(t, h.maps.Create(ctx, CreateMapInput{
		Name:        "Half",
		Restaurants: []collection.RestaurantInfo{{Name: "one", Address: "1"}},
	}))
	h.srv.Fail(http.MethodGet, "/map-reviews/map/1", http.StatusInternalServerError, "reviews down")

	detail, err := h.maps.Detail(ctx, 1)
	assert.Nil(t, detail)
	gone, ok := view.AsGone(err)
	require.True(t, ok)
	assert.Equal(t, RedirectAfterGone, gone.RedirectTo)
	assert.True(t, apiclient.IsServerRejected(err))
}

func TestGet_Missing(t *testing.T) {
	h := newHarness(t)
	_, err := h.maps.Get(context.Background(), 99)
	gone, ok := view.AsGone(err)
	require.True(t, ok)
	assert.Equal(t, int64(99), gone.ID)
	assert.True(t, apiclient.IsNotFound(err))
}

func TestRenameAndDelete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signIn(t, "userA", "에이")
	require.NoError(t, h.maps.Create(ctx, CreateMapInput{
		Name:        "old",
		Restaurants: []collection.RestaurantInfo{{Name: "one", Address: "1"}},
	}))

	require.NoError(t, h.maps.Rename(ctx, 1, " new "))
	m, err := h.maps.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "new", m.Name)

	assert.Equal(t, "INVALID_INPUT", shared.CodeOf(h.maps.Rename(ctx, 1, "")))

	require.NoError(t, h.maps.Delete(ctx, 1))
	mine, err := h.maps.ListMine(ctx)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestRename_NotOwner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signIn(t, "userA", "에이")
	require.NoError(t, h.maps.Create(ctx, CreateMapInput{
		Name:        "mine",
		Restaurants: []collection.RestaurantInfo{{Name: "one", Address: "1"}},
	}))

	h.signIn(t, "userB", "비")
	h.srv.ResetRequests()
	err := h.maps.Rename(ctx, 1, "stolen")
	assert.ErrorIs(t, err, shared.ErrActionUnavailable)
	assert.ErrorIs(t, h.maps.Delete(ctx, 1), shared.ErrActionUnavailable)
	assert.Equal(t, []string{"GET /map-collections/1", "GET /map-collections/1"}, h.srv.Requests(),
		"only the ownership lookups reach the server")

	require.NoError(t, h.sessions.Logout(ctx))
	assert.ErrorIs(t, h.maps.Delete(ctx, 1), shared.ErrLoginRequired)
}

func TestRename_MissingMapIsGone(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "userA", "에이")

	err := h.maps.Rename(context.Background(), 99, "anything")
	gone, ok := view.AsGone(err)
	require.True(t, ok)
	assert.Equal(t, RedirectAfterGone, gone.RedirectTo)
}
