package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/marinaops/staffdesk/api"
	"github.com/marinaops/staffdesk/auth"
	"github.com/marinaops/staffdesk/maintenance"
	"github.com/marinaops/staffdesk/roster"
	"github.com/marinaops/staffdesk/schedule"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, serve)
		},
	}
}

func serve(a *app) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	authn, err := auth.NewAuthenticator(a.store, auth.Options{
		Password:     a.cfg.Auth.Password,
		PasswordHash: a.cfg.Auth.PasswordHash,
		Admins:       a.cfg.Auth.Admins,
	})
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokens(a.cfg.Auth.TokenSecret, a.cfg.Auth.SessionTTL)
	if err != nil {
		return err
	}

	if a.roster != nil && a.cfg.Roster.RefreshInterval > 0 {
		sched := roster.NewScheduler(a.roster, a.cfg.Roster.RefreshInterval)
		if a.cfg.Roster.SyncOnStartup {
			sched.Start(ctx)
		} else {
			go func() {
				select {
				case <-time.After(a.cfg.Roster.RefreshInterval):
					sched.Start(ctx)
				case <-ctx.Done():
				}
			}()
		}
		defer sched.Stop()
	} else {
		a.syncRosterIfConfigured(ctx)
	}

	h := &api.Handler{
		Requests:    a.requests,
		Shifts:      schedule.NewService(a.store),
		Maintenance: maintenance.NewService(a.store),
		Auth:        authn,
		Tokens:      tokens,
		Roster:      a.roster,
		Exports:     a.metrics,
		Logger:      a.logger,
	}
	router := api.NewRouter(h, api.RouterOptions{
		AllowedOrigins: a.cfg.CORS.AllowedOrigins,
		AccessLog:      a.logger,
		LogLevel:       a.cfg.SlogLevel(),
		Metrics:        a.metrics,
	})

	server := &http.Server{
		Addr:         a.cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", slog.String("addr", a.cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	a.logger.Info("server stopped")
	return nil
}
