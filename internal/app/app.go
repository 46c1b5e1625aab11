// Package app wires every subsystem together. The store handle is
// constructed once here and passed explicitly to everything that needs it;
// nothing reaches for global state.
package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/tmcnulty/quill/internal/config"
	"github.com/tmcnulty/quill/internal/database"
	"github.com/tmcnulty/quill/internal/logging"
	"github.com/tmcnulty/quill/internal/remote"
	"github.com/tmcnulty/quill/internal/repository"
	"github.com/tmcnulty/quill/internal/store"
)

// App holds all application dependencies.
type App struct {
	Config      *config.Config
	Logger      *logging.Logger
	Store       *store.Manager
	Feeds       *repository.FeedRepository
	Articles    *repository.ArticleRepository
	Preferences *repository.PreferencesRepository
	Remote      remote.RecordStore
	Zones       *remote.ZoneConfigurator

	db *database.DB
}

// New creates and initializes an App. Configuration and store failures here
// are fatal; there is no runtime recovery from a store that cannot load.
func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{Config: cfg}
	app.Logger = initLogger(cfg.Logging.Level)

	db, err := database.New(database.DefaultConfig(cfg.Store.Path))
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	app.db = db

	app.Store = store.NewManager(db, app.Logger)
	app.Feeds = repository.NewFeedRepository(app.Store, app.Logger)
	app.Articles = repository.NewArticleRepository(app.Store, app.Logger)
	app.Preferences = repository.NewPreferencesRepository(app.Store, app.Logger)

	if err := app.initRemote(); err != nil {
		db.Close()
		return nil, err
	}
	app.Zones = remote.NewZoneConfigurator(app.Remote, app.Logger)

	return app, nil
}

func initLogger(level string) *logging.Logger {
	l := logging.LevelInfo
	switch level {
	case "debug":
		l = logging.LevelDebug
	case "warn":
		l = logging.LevelWarn
	case "error":
		l = logging.LevelError
	}
	return logging.New(l)
}

func (a *App) initRemote() error {
	switch a.Config.Remote.Backend {
	case "redis":
		rs, err := remote.NewRedis(remote.RedisConfig{
			Addr:     a.Config.Remote.RedisAddr,
			Password: a.Config.Remote.RedisPassword,
			Prefix:   a.Config.Remote.ContainerID + ":",
		})
		if err != nil {
			return fmt.Errorf("connect remote store: %w", err)
		}
		a.Remote = rs
	default:
		a.Remote = remote.NewMemory()
	}
	return nil
}

// Run provisions the remote zones when sync is on and then consumes change
// notifications until ctx is cancelled, absorbing them into the main
// context's view of fresh state.
func (a *App) Run(ctx context.Context) error {
	if !a.Config.Remote.SyncEnabled {
		a.Logger.Info("sync disabled, running local-only")
		<-ctx.Done()
		return nil
	}

	if err := a.Zones.Provision(ctx); err != nil {
		return fmt.Errorf("provision zones: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.consumeNotifications(ctx) })
	return g.Wait()
}

// consumeNotifications watches the remote change channels. Each silent
// notification marks remote state as fresh; the external sync engine does
// the record movement, this loop only keeps the local view converging.
func (a *App) consumeNotifications(ctx context.Context) error {
	rs, ok := a.Remote.(*remote.RedisStore)
	if !ok {
		// The memory backend has no cross-process notifications to consume.
		<-ctx.Done()
		return nil
	}

	notifications, err := rs.Listen(ctx, remote.AllZones()...)
	if err != nil {
		return fmt.Errorf("listen for changes: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case n, open := <-notifications:
			if !open {
				return nil
			}
			a.Logger.Debug("remote change received",
				logging.WithField("zone", n.Zone),
				logging.WithField("record", n.Name),
				logging.WithField("reason", n.Reason))
			a.Store.SaveIgnoringErrors(ctx)
		}
	}
}

// Shutdown closes every held resource.
func (a *App) Shutdown(ctx context.Context) error {
	a.Store.SaveIgnoringErrors(ctx)

	if rs, ok := a.Remote.(*remote.RedisStore); ok {
		if err := rs.Close(); err != nil {
			a.Logger.Error("remote store close error", logging.WithField("error", err.Error()))
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.Logger.Error("store close error", logging.WithField("error", err.Error()))
		}
	}

	return nil
}
