package cli

import (
	"errors"
	"fmt"

	"github.com/dfryer1193/weblog/blog/application"
	"github.com/dfryer1193/weblog/blog/persistence"
	"github.com/dfryer1193/weblog/config"
	"github.com/dfryer1193/weblog/internal/rest"
	"github.com/dfryer1193/weblog/shared/db/sqlite"
	"github.com/dfryer1193/weblog/shared/metaweblog"
)

// Opener loads the configuration at configPath and connects everything the
// weblog commands need.
type Opener func(configPath string) (*App, error)

// App is a connected publishing environment.
type App struct {
	Config    *config.Config
	Publisher rest.Publisher

	closers []func() error
}

// Close releases the app's resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Open is the production Opener: sqlite history and media cache, files on disk, MetaWeblog over HTTP.
func Open(configPath string) (*App, error) {
	cfg, err := config.InitConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	database := sqlite.NewSQLiteDB(sqlite.NewSQLiteConfig(cfg.Database.Path))
	if err := database.Connect(); err != nil {
		return nil, err
	}

	app := &App{Config: cfg}
	app.closers = append(app.closers, database.Close)

	media, err := persistence.NewCachedMediaRepository(persistence.NewMediaRepository(database.DB()))
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.closers = append(app.closers, func() error {
		media.Close()
		return nil
	})

	app.Publisher = application.NewPublishService(
		config.NewWeblogStore(cfg.Weblogs),
		persistence.NewFileDocumentStore(),
		application.NewMarkdownRenderer(),
		application.NewMediaUploader(media),
		persistence.NewPublicationRepository(database.DB()),
		metaweblog.NewClientFactory(nil),
	)

	return app, nil
}
