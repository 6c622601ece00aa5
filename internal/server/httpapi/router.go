// Package httpapi is the HTTP transport: a gin router with the session gate,
// rate limits, request logging and the JSON handlers.
package httpapi

import (
	"context"
	"io"
	"time"

	"github.com/dmitrijs2005/avatargate/internal/logging"
	"github.com/dmitrijs2005/avatargate/internal/server/gateway"
	"github.com/dmitrijs2005/avatargate/internal/server/metrics"
	"github.com/dmitrijs2005/avatargate/internal/server/models"
	"github.com/dmitrijs2005/avatargate/internal/server/ratelimit"
	"github.com/dmitrijs2005/avatargate/internal/server/services"
	"github.com/gin-gonic/gin"
)

// UserService is the account logic the signup and login handlers call.
type UserService interface {
	Signup(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, error)
}

// AvatarService is the avatar logic behind the upload and download routes.
type AvatarService interface {
	Upload(ctx context.Context, username, filename string, r io.Reader) (string, error)
	Get(ctx context.Context, username string) (*services.Avatar, error)
}

// Authenticator decides whether an Authorization header admits a request.
// It never fails; denials and internal faults are both reported in the
// Outcome.
type Authenticator interface {
	Authenticate(ctx context.Context, authorization string) gateway.Outcome
}

// RateLimiter admits or refuses one call of client under rule.
type RateLimiter interface {
	Allow(ctx context.Context, rule ratelimit.Rule, client string) (ratelimit.Decision, error)
}

// Deps is everything the router needs. All fields are required.
type Deps struct {
	Users   UserService
	Avatars AvatarService
	Gate    Authenticator
	Limiter RateLimiter
	Metrics *metrics.Metrics
	Logger  logging.Logger

	LoginRule      ratelimit.Rule
	UploadRule     ratelimit.Rule
	MaxAvatarBytes int64
	RequestTimeout time.Duration
}

type handler struct {
	Deps
}

// NewRouter wires the routes. Protected routes share one session gate; the
// upload limit is counted only for requests that passed it.
func NewRouter(d Deps) *gin.Engine {
	h := &handler{Deps: d}
	h.Logger = d.Logger.With("module", "http")

	r := gin.New()
	// ClientIP must come from the connection, not from client headers
	_ = r.SetTrustedProxies(nil)

	r.Use(h.recovery(), h.requestLog(), h.timeout())

	r.POST("/signup/", h.signup)
	r.POST("/login/", h.rateLimit(d.LoginRule), h.login)

	protected := r.Group("/", h.requireSession())
	protected.GET("/protected/", h.protected)
	protected.POST("/upload-avatar/", h.rateLimit(d.UploadRule), h.uploadAvatar)
	protected.GET("/get-avatar/", h.getAvatar)

	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	return r
}
