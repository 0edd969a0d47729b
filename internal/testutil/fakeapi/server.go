// Package fakeapi is an in-memory stand-in for the restaurant-map backend.
// It serves the same routes, status vocabulary, and plain-text rejection
// messages, so client code can be exercised end to end without a database.
package fakeapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bobvengers/mapmate/internal/domain/identity"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultSecret = "fakeapi-signing-secret"
	tokenTTL      = 24 * time.Hour
	userIDKey     = "fakeapi_user_id"
	bearerPrefix  = "Bearer "
)

// Rejection messages, as the backend words them
const (
	msgLoginRequired    = "로그인이 필요합니다."
	msgInvalidToken     = "유효하지 않은 토큰입니다."
	msgForbidden        = "권한이 없습니다."
	msgBadCredentials   = "아이디 또는 비밀번호가 일치하지 않습니다."
	msgSignupBlank      = "모든 항목을 입력해주세요."
	msgUsernameTaken    = "이미 존재하는 아이디입니다."
	msgNicknameTaken    = "이미 존재하는 닉네임입니다."
	msgSignupOK         = "회원가입 성공"
	msgBadRequest       = "잘못된 요청입니다."
	msgMapNotFound      = "지도를 찾을 수 없습니다."
	msgReviewNotFound   = "리뷰를 찾을 수 없습니다."
	msgPostNotFound     = "모임을 찾을 수 없습니다."
	msgRequestNotFound  = "신청을 찾을 수 없습니다."
	msgInvalidRating    = "별점은 1점에서 5점 사이여야 합니다."
	msgPostClosed       = "모집이 마감된 모임입니다."
	msgOwnPost          = "자신의 모임에는 신청할 수 없습니다."
	msgAlreadyApplied   = "이미 신청한 모임입니다."
	msgAlreadyDecided   = "이미 처리된 신청입니다."
	msgAcceptedLocked   = "수락된 신청은 삭제할 수 없습니다."
	msgCommentForbidden = "모임 참여자만 메시지를 작성할 수 있습니다."
	msgPostCreated      = "모임이 등록되었습니다."
)

// Option configures a Backend
type Option func(*Backend)

// WithSecret sets the HS256 signing secret
func WithSecret(secret string) Option {
	return func(b *Backend) { b.secret = []byte(secret) }
}

// WithSeed makes generated coordinates deterministic
func WithSeed(seed uint64) Option {
	return func(b *Backend) { b.faker = gofakeit.New(seed) }
}

// claims is the token payload
type claims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"uid"`
	Nickname string `json:"nickname"`
}

type fault struct {
	status  int
	message string
}

// Backend holds the in-memory state and the gin engine serving it
type Backend struct {
	engine *gin.Engine
	secret []byte
	faker  *gofakeit.Faker

	mu       sync.Mutex
	db       *store
	faults   map[string]fault
	requests []string
}

// New creates a backend with empty state
func New(opts ...Option) *Backend {
	gin.SetMode(gin.TestMode)

	b := &Backend{
		secret: []byte(defaultSecret),
		faker:  gofakeit.New(0),
		db:     newStore(),
		faults: make(map[string]fault),
	}
	for _, opt := range opts {
		opt(b)
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), b.recordRequest(), b.injectFaults(), b.authenticate())
	b.registerRoutes(engine)
	b.engine = engine
	return b
}

// Handler returns the HTTP handler serving the backend routes
func (b *Backend) Handler() http.Handler {
	return b.engine
}

// Server is a Backend listening on a loopback port
type Server struct {
	*Backend
	URL string
}

// NewServer starts a backend for the duration of the test
func NewServer(t testing.TB, opts ...Option) *Server {
	t.Helper()
	b := New(opts...)
	srv := httptest.NewServer(b.Handler())
	t.Cleanup(srv.Close)
	return &Server{Backend: b, URL: srv.URL}
}

// Fail makes every request matching method and path answer with status and
// message until ClearFailures is called.
func (b *Backend) Fail(method, path string, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults[method+" "+path] = fault{status: status, message: message}
}

// ClearFailures removes all injected failures
func (b *Backend) ClearFailures() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults = make(map[string]fault)
}

// Requests returns "METHOD /path" for every request received so far
func (b *Backend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.requests))
	copy(out, b.requests)
	return out
}

// ResetRequests forgets the recorded requests
func (b *Backend) ResetRequests() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = nil
}

// SeedUser registers an account directly, bypassing the signup route
func (b *Backend) SeedUser(username, nickname, password string) (identity.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return identity.User{}, fmt.Errorf("hashing password: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	u, err := b.db.addUser(username, nickname, hash)
	if err != nil {
		return identity.User{}, err
	}
	return u.identity(), nil
}

// SeedRandomUser registers an account with generated credentials and
// returns it with its password.
func (b *Backend) SeedRandomUser() (identity.User, string, error) {
	b.mu.Lock()
	username := fmt.Sprintf("%s%d", strings.ToLower(b.faker.Username()), b.faker.Number(1000, 9999))
	nickname := fmt.Sprintf("%s%d", b.faker.FirstName(), b.faker.Number(100, 999))
	password := b.faker.Password(true, true, true, false, false, 12)
	b.mu.Unlock()

	u, err := b.SeedUser(username, nickname, password)
	return u, password, err
}

// Token issues a bearer token for an existing user
func (b *Backend) Token(userID int64) (string, error) {
	b.mu.Lock()
	u, ok := b.db.users[userID]
	b.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("user %d not found", userID)
	}
	return b.issueToken(u)
}

func (b *Backend) issueToken(u *user) (string, error) {
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.id, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			Issuer:    "fakeapi",
		},
		UserID:   u.id,
		Nickname: u.nickname,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(b.secret)
}

func (b *Backend) parseToken(raw string) (*claims, error) {
	c := &claims{}
	token, err := jwt.ParseWithClaims(raw, c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return b.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return c, nil
}

func (b *Backend) recordRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		b.mu.Lock()
		b.requests = append(b.requests, c.Request.Method+" "+c.Request.URL.Path)
		b.mu.Unlock()
		c.Next()
	}
}

func (b *Backend) injectFaults() gin.HandlerFunc {
	return func(c *gin.Context) {
		b.mu.Lock()
		f, ok := b.faults[c.Request.Method+" "+c.Request.URL.Path]
		b.mu.Unlock()
		if ok {
			c.String(f.status, f.message)
			c.Abort()
			return
		}
		c.Next()
	}
}

// authenticate resolves a bearer token when one is sent. Routes that need a
// user check for it with requireAuth.
func (b *Backend) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		if !strings.HasPrefix(header, bearerPrefix) {
			c.String(http.StatusUnauthorized, msgInvalidToken)
			c.Abort()
			return
		}
		parsed, err := b.parseToken(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			c.String(http.StatusUnauthorized, msgInvalidToken)
			c.Abort()
			return
		}
		c.Set(userIDKey, parsed.UserID)
		c.Next()
	}
}

func requireAuth(c *gin.Context) {
	if _, ok := c.Get(userIDKey); !ok {
		c.String(http.StatusUnauthorized, msgLoginRequired)
		c.Abort()
		return
	}
	c.Next()
}

func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.String(http.StatusBadRequest, msgBadRequest)
		return 0, false
	}
	return id, true
}

func (b *Backend) registerRoutes(r *gin.Engine) {
	users := r.Group("/users")
	users.POST("/signup", b.signup)
	users.POST("/login", b.login)

	maps := r.Group("/map-collections")
	maps.GET("", b.listMaps)
	maps.GET("/:id", b.getMap)
	maps.GET("/user/:userId", b.listMapsByUser)
	maps.GET("/creator-nickname/:nickname", b.listMapsByCreator)
	maps.POST("", requireAuth, b.createMap)
	maps.PUT("/:id", requireAuth, b.renameMap)
	maps.DELETE("/:id", requireAuth, b.deleteMap)

	reviews := r.Group("/map-reviews")
	reviews.GET("/map/:mapId", b.listReviewsByMap)
	reviews.GET("/user/:userId", b.listReviewsByUser)
	reviews.POST("", requireAuth, b.createReview)
	reviews.PUT("/:id", requireAuth, b.updateReview)
	reviews.DELETE("/:id", requireAuth, b.deleteReview)

	matching := r.Group("/matching")
	matching.GET("/board", b.board)
	matching.GET("/:id", b.getPost)
	matching.GET("/requests/received/:userId", b.receivedRequests)
	matching.GET("/requests/sent/:userId", b.sentRequests)
	matching.POST("", requireAuth, b.createPost)
	matching.POST("/:id/apply/:userId", requireAuth, b.apply)
	matching.PATCH("/update-status", requireAuth, b.updateStatus)
	matching.DELETE("/:id/:userId", requireAuth, b.deletePost)
	matching.DELETE("/request/:requestId/:userId", requireAuth, b.cancelRequest)

	comments := r.Group("/matching-comments")
	comments.GET("/matching/:id", b.listComments)
	comments.POST("", requireAuth, b.createComment)
}
