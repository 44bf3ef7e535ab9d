// Package api is the HTTP shell over the game repository. It serves
// profile, discovery and session CRUD plus a read-only resolve preview,
// the daily mystery and Prometheus metrics.
package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roach88/fractalflow/internal/game"
	"github.com/roach88/fractalflow/internal/metrics"
	"github.com/roach88/fractalflow/internal/session"
	"github.com/roach88/fractalflow/internal/store"
)

// DefaultDiscoveryLimit caps discovery listings without a limit parameter.
const DefaultDiscoveryLimit = 10

// Handler serves the game routes.
type Handler struct {
	repo      store.Repository
	engines   *game.Engines
	profileID int64
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = l
	}
}

// WithNow sets the clock used to pick the daily mystery.
func WithNow(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
	}
}

// WithProfileID sets the anonymous profile served by routes without an id.
func WithProfileID(id int64) Option {
	return func(h *Handler) {
		h.profileID = id
	}
}

// NewHandler creates a Handler over repo and the catalog's engines.
func NewHandler(repo store.Repository, engines *game.Engines, opts ...Option) *Handler {
	h := &Handler{
		repo:      repo,
		engines:   engines,
		profileID: session.DefaultProfileID,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds the game routes to r.
func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/api/game")
	g.GET("/profile", h.getProfile)
	g.PATCH("/profile/:id", h.updateProfile)
	g.POST("/discovery", h.createDiscovery)
	g.GET("/discoveries", h.listDiscoveries)
	g.GET("/discoveries/:profileId", h.listDiscoveries)
	g.POST("/session", h.createSession)
	g.PATCH("/session/:id", h.updateSession)
	g.POST("/resolve", h.resolve)
	g.GET("/mystery", h.getMystery)
}

// NewRouter builds the gin engine with logging, metrics and recovery.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(h.logger))
	h.Register(r)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	return r
}
