package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ts5-mirror/internal/auth"
	"github.com/vovakirdan/ts5-mirror/internal/config"
	"github.com/vovakirdan/ts5-mirror/internal/core"
)

// Deps are the collaborators the HTTP layer reads from.
type Deps struct {
	Store   *core.Store
	Session StatusSource
	Feed    *Feed
	JWT     *auth.JWTConfig
}

// NewServer builds the snapshot API server.
func NewServer(deps Deps, cfg config.HTTPConfig, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(deps, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter wires routes and middleware.
func NewRouter(deps Deps, cfg config.HTTPConfig, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	if cfg.Metrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	protected := router.Group("")
	if deps.JWT.Enabled() {
		protected.Use(AuthMiddleware(deps.JWT, logger))
	}

	snapshots := NewSnapshotHandlers(deps.Store, deps.Session, deps.Feed)
	api := protected.Group("/api/v1")
	{
		api.GET("/snapshot", snapshots.Snapshot)
		api.GET("/connections", snapshots.Connections)
		api.GET("/channels", snapshots.Channels)
		api.GET("/clients", snapshots.Clients)
		api.GET("/session", snapshots.Session)
	}

	protected.GET("/ws", NewWSHandler(deps.Store, deps.Feed, logger).Handle)

	return router
}
