// Package main is the entry point for the equitylab dashboard server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Colin123/equitylab-ui/internal/config"
	"github.com/Colin123/equitylab-ui/internal/database"
	"github.com/Colin123/equitylab-ui/internal/modules/auth"
	"github.com/Colin123/equitylab-ui/internal/modules/charts"
	"github.com/Colin123/equitylab-ui/internal/modules/equities"
	"github.com/Colin123/equitylab-ui/internal/modules/rrg"
	"github.com/Colin123/equitylab-ui/internal/modules/snapshots"
	"github.com/Colin123/equitylab-ui/internal/server"
	"github.com/Colin123/equitylab-ui/internal/session"
	"github.com/Colin123/equitylab-ui/pkg/embedded"
	"github.com/Colin123/equitylab-ui/pkg/logger"
)

const sessionSweepInterval = 10 * time.Minute

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "equitylab",
		Short:        "Sector rotation dashboard and stock list server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	})
	root.AddCommand(snapshotsCmd())

	return root
}

func snapshotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshots",
		Short: "Print the snapshot files the stock list would load",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadData()
			if err != nil {
				return err
			}
			log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
			resolver := snapshots.NewResolver(log)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "universe:             %s\n", cfg.Data.EquityConfigFile)
			if m, ok := resolver.Latest(cfg.Data.OIDir(), snapshots.OpenInterestPattern); ok {
				fmt.Fprintf(out, "open interest:        %s\n", m.Path)
			} else {
				fmt.Fprintf(out, "open interest:        (none in %s)\n", cfg.Data.OIDir())
			}

			latest := resolver.LatestByKind(cfg.Data.KClassDir(), snapshots.ClassificationPattern)
			for _, kind := range []string{"long", "short"} {
				if m, ok := latest[kind]; ok {
					fmt.Fprintf(out, "classification %-6s %s\n", kind+":", m.Path)
				} else {
					fmt.Fprintf(out, "classification %-6s (none in %s)\n", kind+":", cfg.Data.KClassDir())
				}
			}
			return nil
		},
	}
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting equitylab")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := newSessionStore(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Str("backend", cfg.Session.Backend).Msg("Failed to initialize session store")
		return err
	}
	defer closeStore()

	sessions := session.NewManager(store, session.ManagerConfig{
		Secret: cfg.Session.Secret,
		TTL:    cfg.Session.TTL,
		Secure: cfg.Session.SecureCookie,
	}, log)

	var mapping *rrg.Mapping
	if cfg.Data.SectorsFile != "" {
		mapping, err = rrg.LoadMapping(cfg.Data.SectorsFile)
	} else {
		mapping, err = rrg.DefaultMapping()
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to load sector mapping")
		return err
	}

	renderer, err := embedded.NewRenderer()
	if err != nil {
		log.Error().Err(err).Msg("Failed to parse templates")
		return err
	}

	metrics := server.NewMetrics()
	resolver := snapshots.NewResolver(log)

	loader := equities.NewLoader(equities.Sources{
		ConfigFile: cfg.Data.EquityConfigFile,
		KClassDir:  cfg.Data.KClassDir(),
		OIDir:      cfg.Data.OIDir(),
	}, resolver, log)
	loader.OnMissing(metrics.RecordMissingSnapshot)

	provider := auth.NewAuth0(auth.Auth0Config{
		Domain:       cfg.Auth.Domain,
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		CallbackURL:  cfg.Auth.CallbackURL,
		Audience:     cfg.Auth.Audience,
		Timeout:      10 * time.Second,
	})

	srv := server.New(server.Config{
		Log:      log,
		Config:   cfg,
		Sessions: sessions,
		Provider: provider,
		Charts:   charts.NewService(mapping, rrg.NewRepository(cfg.Data.RRGDir, cfg.Data.MarketDir, log), log),
		Equities: loader,
		Resolver: resolver,
		Renderer: renderer,
		Metrics:  metrics,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Info().
		Int("port", cfg.Port).
		Str("session_backend", cfg.Session.Backend).
		Str("rrg_dir", cfg.Data.RRGDir).
		Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		log.Error().Err(err).Msg("Server failed")
		return err
	}

	cancel()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
	return nil
}

// newSessionStore builds the configured session backend. The returned func
// releases its resources.
func newSessionStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (session.Store, func(), error) {
	switch cfg.Session.Backend {
	case config.SessionBackendSQLite:
		db, err := database.New(database.Config{
			Path:    cfg.Session.DBPath,
			Profile: database.ProfileCache,
			Name:    "sessions",
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open session database: %w", err)
		}
		store := session.NewSQLiteStore(db, log)
		go sweepExpired(ctx, store, log)
		return store, func() {
			if err := db.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close session database")
			}
		}, nil

	case config.SessionBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Session.RedisAddr, err)
		}
		return session.NewRedisStore(client, session.DefaultRedisPrefix), func() {
			if err := client.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close redis client")
			}
		}, nil

	default:
		return session.NewMemoryStore(), func() {}, nil
	}
}

// sweepExpired removes expired rows from the sqlite store until ctx is done
func sweepExpired(ctx context.Context, store *session.SQLiteStore, log zerolog.Logger) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.DeleteExpired(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("Failed to sweep expired sessions")
				continue
			}
			if n > 0 {
				log.Debug().Int64("removed", n).Msg("Swept expired sessions")
			}
		}
	}
}
