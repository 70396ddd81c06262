package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/ts5-mirror/internal/auth"
	"github.com/vovakirdan/ts5-mirror/internal/config"
	"github.com/vovakirdan/ts5-mirror/internal/core"
	applog "github.com/vovakirdan/ts5-mirror/internal/log"
	"github.com/vovakirdan/ts5-mirror/internal/metrics"
	"github.com/vovakirdan/ts5-mirror/internal/reconcile"
	"github.com/vovakirdan/ts5-mirror/internal/session"
	"github.com/vovakirdan/ts5-mirror/internal/supervisor"
	"github.com/vovakirdan/ts5-mirror/internal/transport"
	transporthttp "github.com/vovakirdan/ts5-mirror/internal/transport/http"
	"github.com/vovakirdan/ts5-mirror/internal/transport/ws"
)

// App wires the session controller, the entity store and the snapshot API.
type App struct {
	store      *core.Store
	feed       *transporthttp.Feed
	controller *session.Controller
	tree       *supervisor.Tree
	log        *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	return NewWithDialer(cfg, ws.NewDialer(cfg.Remote.RemoteURL()), logger)
}

// NewWithDialer is New with a caller-supplied transport.
func NewWithDialer(cfg *config.Config, dialer transport.Dialer, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	feed := transporthttp.NewFeed(0, logger)
	st := core.NewStore(core.MultiNotifier{metrics.EntityGauges{}, feed})
	rec := reconcile.New(st, logger)
	ctrl := session.New(session.ConfigFrom(cfg.Remote), dialer, st, rec, logger)

	tree := supervisor.NewTree(applog.NewSlog(logger), supervisor.TreeConfig{
		ShutdownTimeout: 2 * cfg.HTTP.ShutdownTimeout,
	})
	tree.Add(supervisor.NewRunnerService("session", ctrl))

	if cfg.HTTP.Enabled {
		jwtCfg := auth.ConfigFrom(cfg.HTTP, 0)
		server := transporthttp.NewServer(transporthttp.Deps{
			Store:   st,
			Session: ctrl,
			Feed:    feed,
			JWT:     jwtCfg,
		}, cfg.HTTP, logger)
		tree.Add(supervisor.NewHTTPServerService(server, cfg.HTTP.ShutdownTimeout))

		logger.Info().Str("addr", cfg.HTTP.Addr).Bool("auth", jwtCfg.Enabled()).Msg("snapshot api enabled")
	}

	return &App{
		store:      st,
		feed:       feed,
		controller: ctrl,
		tree:       tree,
		log:        logger,
	}, nil
}

// Store exposes the mirrored state.
func (a *App) Store() *core.Store {
	return a.store
}

// Session exposes the lifecycle controller.
func (a *App) Session() *session.Controller {
	return a.controller
}

// Run blocks until context cancellation or fatal error. The store is
// disposed on return.
func (a *App) Run(ctx context.Context) error {
	err := a.tree.Serve(ctx)

	a.feed.Close()
	a.store.Dispose()
	a.log.Info().Msg("store disposed")

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
