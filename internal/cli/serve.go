package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"valentine/internal/api"
	"valentine/internal/config"
	"valentine/internal/db"
	"valentine/internal/logger"
)

const shutdownTimeout = 5 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Run the HTTP server.

Serves the index page at / and /index.html, files under /image/, and the
JSON endpoints /api/last, /api/sign and /api/click.

Example:
  valentine serve --port 8000 --images ./image --db-path valentine.sqlite3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.ConfigFile, cmd.Flags())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}

	config.RegisterServerFlags(cmd.Flags())

	return cmd
}

// runServer serves until ctx is cancelled, then drains in-flight requests.
func runServer(ctx context.Context, cfg *config.Config) error {
	zapLogger, err := logger.New(cfg.Logging.Environment, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer zapLogger.Sync()
	cfg.Log(zapLogger)

	if cfg.Logging.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	database, err := db.ConnectDB(cfg.Database)
	if err != nil {
		return err
	}
	store := db.NewStore(database)
	defer store.Close()

	router, err := api.NewRouter(cfg, store, zapLogger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		zapLogger.Info("Valentine server running", zap.String("url", "http://"+cfg.Addr()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	zapLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	zapLogger.Info("Server gracefully stopped")
	return nil
}
