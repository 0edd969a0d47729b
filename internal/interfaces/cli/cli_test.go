package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	appassemble "github.com/bobvengers/mapmate/internal/application/assemble"
	"github.com/bobvengers/mapmate/internal/domain/assemble"
	"github.com/bobvengers/mapmate/internal/domain/collection"
	"github.com/bobvengers/mapmate/internal/domain/identity"
	"github.com/bobvengers/mapmate/internal/domain/review"
	"github.com/bobvengers/mapmate/internal/testutil/fakeapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t   *testing.T
	srv *fakeapi.Server
}

type result struct {
	stdout string
	stderr string
	code   int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := fakeapi.NewServer(t)
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("MAPMATE_API_BASE_URL", srv.URL)
	t.Setenv("MAPMATE_SESSION_BACKEND", "file")
	t.Setenv("MAPMATE_SESSION_PATH", filepath.Join(dir, "session.json"))
	return &harness{t: t, srv: srv}
}

func (h *harness) run(stdin string, args ...string) result {
	h.t.Helper()
	var out, errOut bytes.Buffer
	code := Execute(context.Background(), BuildInfo{Version: "test"}, args, IO{
		In:  strings.NewReader(stdin),
		Out: &out,
		Err: &errOut,
	})
	return result{stdout: out.String(), stderr: errOut.String(), code: code}
}

func (h *harness) ok(args ...string) string {
	h.t.Helper()
	res := h.run("", args...)
	require.Equal(h.t, 0, res.code, "mapmate %s: %s", strings.Join(args, " "), res.stderr)
	return res.stdout
}

func (h *harness) login(username string) {
	h.t.Helper()
	h.ok("login", "-u", username, "-p", "pw")
}

func (h *harness) seed(username, nickname string) identity.User {
	h.t.Helper()
	u, err := h.srv.SeedUser(username, nickname, "pw")
	require.NoError(h.t, err)
	return u
}

func decode[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), s)
	return v
}

func TestLogin_PersistsAcrossRuns(t *testing.T) {
	h := newHarness(t)
	u := h.seed("alice", "앨리스")

	out := h.ok("login", "-u", "alice", "-p", "pw")
	assert.Contains(t, out, "Logged in as 앨리스")

	who := decode[identity.User](t, h.ok("whoami", "-o", "json"))
	assert.Equal(t, u, who)

	assert.Contains(t, h.ok("logout"), "Logged out")
	res := h.run("", "whoami")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "You need to log in first")
}

func TestLogin_PasswordFromStdin(t *testing.T) {
	h := newHarness(t)
	h.seed("alice", "앨리스")

	res := h.run("pw\n", "login", "-u", "alice", "--password-stdin")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "앨리스")
}

func TestLogin_RejectedShowsServerMessage(t *testing.T) {
	h := newHarness(t)
	h.seed("alice", "앨리스")

	res := h.run("", "login", "-u", "alice", "-p", "wrong")
	assert.Equal(t, 1, res.code)
	assert.Equal(t, "Error: 아이디 또는 비밀번호가 일치하지 않습니다.\n", res.stderr)
	assert.Empty(t, res.stdout)
}

func TestSignup(t *testing.T) {
	h := newHarness(t)

	assert.Contains(t, h.ok("signup", "-u", "bob", "-n", "밥", "-p", "pw"), "회원가입 성공")

	res := h.run("", "signup", "-u", "bob", "-n", "밥2", "-p", "pw")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "이미 존재하는 아이디입니다.")

	out := h.ok("signup", "-u", "carol", "-n", "캐롤", "-p", "pw", "--login")
	assert.Contains(t, out, "logged in as 캐롤")
	assert.Contains(t, h.ok("whoami"), "carol")
}

func TestMaps_CreateThenListByUser(t *testing.T) {
	h := newHarness(t)
	u := h.seed("alice", "앨리스")
	h.login("alice")

	out := h.ok("maps", "create", "--name", "Gangnam Favorites",
		"--restaurant", "Pasta Bar@서울 강남구 1",
		"--restaurant", "Ramen House@서울 강남구 2",
		"--restaurant", "Pasta Bar@서울 강남구 1")
	assert.Contains(t, out, `Map "Gangnam Favorites" saved`)

	maps := decode[[]collection.MapCollection](t, h.ok("maps", "by-user", strconv.FormatInt(u.UserID, 10), "-o", "json"))
	require.Len(t, maps, 1)
	assert.Equal(t, "Gangnam Favorites", maps[0].Name)
	assert.Len(t, maps[0].Restaurants, 2)

	mine := decode[[]collection.MapCollection](t, h.ok("maps", "mine", "-o", "json"))
	assert.Equal(t, maps, mine)

	show := h.ok("maps", "show", "1", "--restaurant", "2")
	assert.Contains(t, show, "Gangnam Favorites")
	assert.Regexp(t, `>\s+2\s+Ramen House`, show)
	assert.Regexp(t, `SELECTED\s+Ramen House`, show)

	assert.Regexp(t, `>\s+1\s+Pasta Bar`, h.ok("maps", "show", "1", "--restaurant", "2", "--next", "1"))
	assert.Regexp(t, `>\s+2\s+Ramen House`, h.ok("maps", "show", "1", "--prev", "1"))
	assert.Regexp(t, `>\s+1\s+Pasta Bar`, h.ok("maps", "show", "1", "--next", "4"))
}

func TestMaps_CreateValidationSendsNothing(t *testing.T) {
	h := newHarness(t)
	h.seed("alice", "앨리스")
	h.login("alice")
	h.srv.ResetRequests()

	res := h.run("", "maps", "create", "--name", "Empty")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Add at least one restaurant")

	res = h.run("", "maps", "create", "--name", "Bad", "--restaurant", "no address")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "NAME@ADDRESS")
	assert.Empty(t, h.srv.Requests())
}

func TestMaps_RenameAndDeleteNeedOwnership(t *testing.T) {
	h := newHarness(t)
	h.seed("alice", "앨리스")
	h.seed("bob", "밥")
	h.login("alice")
	h.ok("maps", "create", "--name", "Mine", "--restaurant", "A@addr")

	h.login("bob")
	h.srv.ResetRequests()
	res := h.run("", "maps", "rename", "1", "--name", "Stolen")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "This action is not available")
	assert.Equal(t, []string{"GET /map-collections/1"}, h.srv.Requests())

	h.login("alice")
	assert.Contains(t, h.ok("maps", "rename", "1", "--name", "Renamed"), "renamed")
	list := decode[[]collection.MapCollection](t, h.ok("maps", "list", "-k", "Renamed", "-o", "json"))
	require.Len(t, list, 1)

	assert.Contains(t, h.ok("maps", "delete", "1"), "deleted")
	res = h.run("", "maps", "show", "1")
	assert.Equal(t, 1, res.code)
	assert.Equal(t, "Error: map 1 does not exist or was removed (back to /my-maps)\n", res.stderr)
}

func TestMaps_ListRejectsUnknownSort(t *testing.T) {
	h := newHarness(t)
	h.srv.ResetRequests()

	res := h.run("", "maps", "list", "--sort", "newest")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, `Unknown sort order "newest"`)
	assert.Empty(t, h.srv.Requests())
}

func TestHome(t *testing.T) {
	h := newHarness(t)
	h.seed("alice", "앨리스")
	h.login("alice")
	h.ok("maps", "create", "--name", "Quiet", "--restaurant", "A@addr")
	h.ok("maps", "create", "--name", "Popular", "--restaurant", "B@addr")
	h.ok("reviews", "add", "2", "-r", "5", "-c", "최고")

	out := h.ok("home", "-o", "yaml")
	assert.Contains(t, out, "topRated:")
	assert.Contains(t, out, "mostReviewed:")

	home := decode[struct {
		TopRated     []collection.MapCollection `json:"topRated"`
		MostReviewed []collection.MapCollection `json:"mostReviewed"`
	}](t, h.ok("home", "-o", "json"))
	require.Len(t, home.TopRated, 2)
	assert.Equal(t, "Popular", home.TopRated[0].Name)
	assert.Equal(t, "Popular", home.MostReviewed[0].Name)
}

func TestReviews_EditAndDeleteOwnOnly(t *testing.T) {
	h := newHarness(t)
	h.seed("alice", "앨리스")
	h.seed("bob", "밥")
	h.login("alice")
	h.ok("maps", "create", "--name", "Map", "--restaurant", "A@addr")

	h.login("bob")
	reviews := decode[[]review.Review](t, h.ok("reviews", "add", "1", "-r", "4", "-c", "좋아요", "-o", "json"))
	require.Len(t, reviews, 1)

	h.ok("reviews", "edit", "1", "--rating", "2")
	mine := decode[[]review.Review](t, h.ok("reviews", "mine", "-o", "json"))
	require.Len(t, mine, 1)
	assert.Equal(t, 2, mine[0].Rating)
	assert.Equal(t, "좋아요", mine[0].Content)

	h.login("alice")
	res := h.run("", "reviews", "delete", "1")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "This action is not available")

	h.login("bob")
	assert.Contains(t, h.ok("reviews", "delete", "1"), "Review #1 deleted")
	assert.Contains(t, h.ok("reviews", "map", "1"), "ID")
}

func TestAssemble_ApplyAcceptScenario(t *testing.T) {
	h := newHarness(t)
	h.seed("hostA", "에이")
	h.seed("guestB", "비")

	h.login("hostA")
	out := h.ok("assemble", "create", "--title", "을지로 노포 투어", "--time", "토요일 저녁 7시", "--place", "을지면옥@서울 중구 충무로14길 2-1")
	assert.Contains(t, out, "모임이 등록되었습니다.")

	h.login("guestB")
	assert.Contains(t, h.ok("assemble", "apply", "1"), "Applied to #1")

	h.login("hostA")
	inbox := decode[appassemble.Inbox](t, h.ok("assemble", "requests", "-o", "json"))
	require.Len(t, inbox.Received, 1)
	assert.Equal(t, "비", inbox.Received[0].SenderName)
	assert.Contains(t, h.ok("assemble", "requests"), "accept, cancel, reject")
	h.ok("assemble", "accept", "1")

	h.login("guestB")
	inbox = decode[appassemble.Inbox](t, h.ok("assemble", "requests", "-o", "json"))
	require.Len(t, inbox.Sent, 1)
	assert.Equal(t, "수락됨", inbox.Sent[0].Status.String())

	h.srv.ResetRequests()
	res := h.run("", "assemble", "cancel", "1")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "This action is not available")
	for _, r := range h.srv.Requests() {
		assert.False(t, strings.HasPrefix(r, "DELETE"), r)
	}

	h.ok("assemble", "comment", "1", "-m", "잘 부탁드려요")
	detail := decode[appassemble.PostDetail](t, h.ok("assemble", "show", "1", "-o", "json"))
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, []assemble.Action{assemble.ActionApply, assemble.ActionComment}, detail.Actions)
}

func TestAssemble_CloseTwice(t *testing.T) {
	h := newHarness(t)
	h.seed("hostA", "에이")
	h.login("hostA")
	h.ok("assemble", "create", "--title", "t", "--time", "now", "--place", "P@addr")

	assert.Contains(t, h.ok("assemble", "close", "1"), "모집마감")
	show := h.ok("assemble", "show", "1")
	assert.Contains(t, show, "모집마감")
	assert.NotContains(t, show, "close")

	h.srv.ResetRequests()
	h.ok("assemble", "close", "1")
	assert.Equal(t, []string{"GET /matching/1", "GET /matching/1"}, h.srv.Requests(), "no PATCH for a closed post")

	h.ok("assemble", "delete", "1")
	res := h.run("", "assemble", "show", "1")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "/assemble-board")
}

func TestStatsFlag(t *testing.T) {
	h := newHarness(t)
	res := h.run("", "--stats", "maps", "list")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stderr, "ENDPOINT")
	assert.Contains(t, res.stderr, "/map-collections")
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	code := Execute(context.Background(), BuildInfo{Version: "1.2.3", GitCommit: "abc", BuildTime: "today"},
		[]string{"--version"}, IO{In: strings.NewReader(""), Out: &out, Err: &out})
	assert.Equal(t, 0, code)
	assert.Equal(t, "mapmate 1.2.3 (commit abc, built today)\n", out.String())
}

func TestPlaces(t *testing.T) {
	h := newHarness(t)
	kakao := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "KakaoAK key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"documents":[
			{"id":"1","place_name":"을지면옥","address_name":"서울 중구 입정동 177","x":"126.99","y":"37.56"},
			{"id":"2","place_name":"우래옥","address_name":"서울 중구 주교동 118","x":"126.99","y":"37.56"}]}`))
	}))
	t.Cleanup(kakao.Close)
	t.Setenv("MAPMATE_PLACES_BASE_URL", kakao.URL)
	t.Setenv("MAPMATE_PLACES_API_KEY", "key")

	out := h.ok("places", "search", "을지로", "냉면")
	assert.Contains(t, out, "우래옥")

	h.seed("alice", "앨리스")
	h.login("alice")
	h.ok("maps", "create", "--name", "냉면", "--search", "을지로 냉면", "--pick", "1,2")
	maps := decode[[]collection.MapCollection](t, h.ok("maps", "mine", "-o", "json"))
	require.Len(t, maps, 1)
	assert.Len(t, maps[0].Restaurants, 2)

	res := h.run("", "maps", "create", "--name", "x", "--search", "을지로", "--pick", "3")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "cannot pick 3")
}

func TestPlaces_MissingKey(t *testing.T) {
	h := newHarness(t)
	t.Setenv("KAKAO_REST_API_KEY", "")
	t.Setenv("VITE_KAKAO_REST_API_KEY", "")
	res := h.run("", "places", "search", "냉면")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "KAKAO_REST_API_KEY")
}

func TestBadOutputFormat(t *testing.T) {
	h := newHarness(t)
	res := h.run("", "-o", "xml", "maps", "list")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "unknown output format")
}
