package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dfryer1193/weblog/internal/middleware"
	"github.com/dfryer1193/weblog/internal/rest"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Serve the document and publishing HTTP API",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.app()
			if err != nil {
				return err
			}
			defer app.Close()

			if !cmd.Flags().Changed("addr") {
				addr = app.Config.ServerAddr()
			}

			srv := &http.Server{
				Addr:    addr,
				Handler: newRouter(app.Publisher),
			}
			return runServer(cmd.Context(), srv)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, then :8080)")
	return cmd
}

func newRouter(publisher rest.Publisher) *gin.Engine {
	if zerolog.GlobalLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestLogger())
	router.Use(gin.CustomRecovery(middleware.HandlePanics()))
	rest.NewApi(router, publisher)
	return router
}

// runServer serves until ctx is cancelled, then shuts down gracefully.
func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		log.Info().Str("addr", srv.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	log.Info().Msg("Server stopped")
	return nil
}
