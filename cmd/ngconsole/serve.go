package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/pgxstore"
	"github.com/alexedwards/scs/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ngconsole/ngconsole/internal/ceazure"
	"github.com/ngconsole/ngconsole/internal/config"
	httpapp "github.com/ngconsole/ngconsole/internal/http"
	"github.com/ngconsole/ngconsole/internal/metrics"
	"github.com/ngconsole/ngconsole/internal/ngclient"
	"github.com/ngconsole/ngconsole/internal/secrets"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP console.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, metricsErrCh := metrics.StartServer(ctx, cfg.MetricsAddr)

	client, err := newBackendClient(ctx, cfg)
	if err != nil {
		return err
	}

	sessions := scs.New()
	sessions.Lifetime = cfg.SessionLifetime
	sessions.Cookie.Name = "ngconsole_session"
	sessions.Cookie.HttpOnly = true
	sessions.Cookie.SameSite = http.SameSiteLaxMode
	sessions.Cookie.Secure = cfg.AuthCookieSecure
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		sessions.Store = pgxstore.New(pool)
	} else {
		slog.Warn("DATABASE_URL is not set, sessions are kept in memory")
	}

	host, err := ceazure.NewHost(cfg.AzureWizard, client)
	if err != nil {
		return err
	}

	srv, err := httpapp.NewEchoServer(cfg, client, sessions, host)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.HTTPAddr)
		errCh <- srv.StartServer(httpServer)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return nil
	case err := <-metricsErrCh:
		return err
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func newBackendClient(ctx context.Context, cfg config.Config) (*ngclient.Client, error) {
	apiKey, err := secrets.ResolveAPIKey(ctx, cfg.APIKey, secrets.Options{
		Address: cfg.VaultAddr,
		Token:   cfg.VaultToken,
	}, cfg.APIKeyVaultPath)
	if err != nil {
		return nil, err
	}
	return ngclient.NewWithOptions(cfg.APIBaseURL, cfg.AccountID, apiKey, ngclient.Options{
		Timeout:  cfg.APITimeout,
		RetryMax: cfg.APIRetryMax,
		Logger:   slog.Default(),
	})
}
