package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/spf13/cobra"

	"github.com/vidgrab/vidgrab/internal/api"
	"github.com/vidgrab/vidgrab/internal/app"
	"github.com/vidgrab/vidgrab/internal/cache"
	"github.com/vidgrab/vidgrab/internal/infra/config"
	"github.com/vidgrab/vidgrab/internal/infra/logger"
	"github.com/vidgrab/vidgrab/internal/ytdlp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the download API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func serve() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Path, logger.ParseLevel(cfg.Log.Level), cfg.Log.IncludeStdout)
	if err != nil {
		return err
	}

	infoCache, err := cache.NewInfoCache(cfg.Cache.SQLitePath, cfg.Cache.TTL)
	if err != nil {
		return err
	}
	defer infoCache.Close()

	appCtx := app.NewContext(cfg, log)
	appCtx.Extractor = ytdlp.NewExtractor(cfg, log)
	appCtx.Executor = app.WrapExecutor(ytdlp.NewExecutor(cfg, log))
	appCtx.Cache = infoCache

	e := echo.New()
	api.RegisterRoutes(e, appCtx)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: e,
	}

	// Graceful shutdown on Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	log.Info("server stopped")
	return nil
}
