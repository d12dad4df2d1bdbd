package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soochol/hydrahunt/internal/api"
	"github.com/soochol/hydrahunt/internal/retention"
	"github.com/soochol/hydrahunt/internal/services"
)

func newServeCmd(configPath *string) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long:  `Start an HTTP server that accepts resume uploads and serves import records.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			logger := newLogger(cfg.Log, os.Stderr)
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			files, err := newFileStorage(cfg)
			if err != nil {
				return err
			}
			repo, closeRepo, err := newImportRepository(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeRepo()

			parser, err := newParser(cfg, logger, false)
			if err != nil {
				return err
			}
			limiter := services.NewParseLimiter(cfg.Parse.MaxConcurrent)
			svc := services.NewImportService(newExtractor(cfg, logger), parser, files, repo, limiter)

			if cfg.Retention.Schedule != "" {
				janitor, err := retention.New(svc, cfg.Retention.Schedule, cfg.Retention.MaxAge)
				if err != nil {
					return err
				}
				janitor.Start()
				defer janitor.Stop()
			}

			srv := api.NewServer(svc, files)
			srv.SetProviderConfigs(cfg.Providers, cfg.Parse.Provider)
			srv.SetParseLimiter(limiter)
			srv.SetCORSOrigins(cfg.Server.CORSOrigins)
			srv.SetMaxUploadSize(cfg.Extraction.MaxUploadBytes)

			httpSrv := &http.Server{
				Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				slog.Info("starting hydrahunt server", "addr", httpSrv.Addr)
				errCh <- httpSrv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			slog.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on (overrides config)")
	return cmd
}
