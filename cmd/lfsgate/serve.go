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

	"github.com/sagarc03/lfsgate"
	"github.com/sagarc03/lfsgate/config"
	"github.com/sagarc03/lfsgate/database"
	lfshttp "github.com/sagarc03/lfsgate/http"
	"github.com/sagarc03/lfsgate/keybackend"
	"github.com/sagarc03/lfsgate/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the lfsgate HTTP server.

The metadata schema is created on startup when missing.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "HTTP server port")
	serveCmd.Flags().String("base-url", "", "public URL used in transfer links")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err = db.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if err = db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	if err = db.Validate(ctx); err != nil {
		return fmt.Errorf("validate database schema: %w", err)
	}
	slog.Info("connected to database", "type", cfg.Database.Type)

	storage, closeStorage, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStorage()
	slog.Info("opened object storage", "type", cfg.Storage.Type)

	var signer *lfsgate.LinkSigner
	if cfg.LFS.LinkSecret != "" {
		signer, err = lfsgate.NewLinkSigner(cfg.LFS.LinkSecret)
		if err != nil {
			return fmt.Errorf("create link signer: %w", err)
		}
	}

	service := lfsgate.NewLFSService(db.GetRepo(), storage, lfsgate.ServiceConfig{
		BaseURL:        cfg.PublicURL(),
		EnableSplit:    cfg.LFS.EnableSplit,
		EnableVerify:   cfg.LFS.EnableVerify,
		Signer:         signer,
		CleanupTimeout: time.Duration(cfg.LFS.CleanupTimeout) * time.Second,
	})

	credentials, err := keybackend.NewCredentialStore(cfg.Auth.Credentials)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}
	if credentials.Len() == 0 && (cfg.Auth.Read == "private" || cfg.Auth.Write == "private") {
		slog.Warn("private access configured without credentials, every request will be rejected")
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	handlerConfig := lfshttp.HandlerConfig{
		ReadAuth:      lfshttp.AuthConfig{Required: cfg.Auth.Read == "private", Store: credentials},
		WriteAuth:     lfshttp.AuthConfig{Required: cfg.Auth.Write == "private", Store: credentials},
		Signer:        signer,
		CORS:          cfg.CORS,
		Metrics:       m,
		MetricsPath:   cfg.Metrics.Path,
		MaxUploadSize: cfg.Server.MaxUploadSize,
		Ping:          db.Ping,
	}

	handler := lfshttp.NewHandler(&handlerConfig, service)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	// No write timeout: object transfers can run for a long time.
	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "base_url", cfg.PublicURL(), "signed_links", signer != nil)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
