package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/qkhacks/controller/internal/access"
	"github.com/qkhacks/controller/internal/auth"
	"github.com/qkhacks/controller/internal/logger"
	"github.com/qkhacks/controller/internal/server"
	"github.com/qkhacks/controller/internal/service"
	"github.com/qkhacks/controller/internal/store"
	memorystore "github.com/qkhacks/controller/internal/store/memory"
	postgresstore "github.com/qkhacks/controller/internal/store/postgres"
)

type ServerCmd struct {
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"CONTROLLER_LISTEN"`

	JWTSigningKey string        `help:"secret key for HMAC signing of access tokens" env:"CONTROLLER_JWT_SIGNING_KEY"`
	TokenTTL      time.Duration `help:"access token TTL" default:"24h" env:"CONTROLLER_TOKEN_TTL"`

	CORSOrigins []string `help:"allowed CORS origins for API requests" env:"CONTROLLER_CORS_ORIGINS"`

	StoreType     string             `help:"store type (memory or postgres)" default:"memory" env:"CONTROLLER_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

type PostgresStoreFlags struct {
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	MaxConns        int32 `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32 `help:"minimum number of connections in pool" default:"5"`
	MaxConnLifetime int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32 `help:"maximum connection idle time in seconds" default:"1800"`

	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"CONTROLLER_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) Validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

func (c *ServerCmd) Validate() error {
	if c.JWTSigningKey == "" {
		return errors.New("JWT signing key is required (--jwt-signing-key or CONTROLLER_JWT_SIGNING_KEY)")
	}
	if len(c.JWTSigningKey) < 32 {
		return errors.New("JWT signing key must be at least 32 bytes (256 bits) for HMAC-SHA256")
	}
	return nil
}

func (c *ServerCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx := context.Background()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	tokenIssuer, err := auth.NewTokenIssuer([]byte(c.JWTSigningKey), c.TokenTTL)
	if err != nil {
		return fmt.Errorf("failed to create token issuer: %w", err)
	}

	var (
		orgStore     store.OrganizationStore
		userStore    store.UserStore
		projectStore store.ProjectStore
		accessStore  store.AccessStore
		regionStore  store.RegionStore
		dcStore      store.DataCenterStore
		keyStore     store.MachineKeyStore
	)

	switch c.StoreType {
	case "postgres":
		if err := c.PostgresStore.Validate(); err != nil {
			return err
		}

		poolCfg := &postgresstore.PoolConfig{
			ConnString:      c.PostgresStore.ConnString,
			MaxConns:        c.PostgresStore.MaxConns,
			MinConns:        c.PostgresStore.MinConns,
			MaxConnLifetime: c.PostgresStore.MaxConnLifetime,
			MaxConnIdleTime: c.PostgresStore.MaxConnIdleTime,
		}

		// the database may still be coming up when we start; retry with
		// capped exponential backoff before giving up
		pool, err := backoff.Retry(ctx, func() (*pgxpool.Pool, error) {
			pool, err := postgresstore.NewPool(ctx, poolCfg)
			if err != nil {
				log.Warn().Err(err).Msg("Database not ready, retrying")
				return nil, err
			}
			return pool, nil
		}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxElapsedTime(time.Minute))
		if err != nil {
			return fmt.Errorf("failed to create connection pool: %w", err)
		}
		defer pool.Close()

		if c.PostgresStore.AutoMigrate {
			if err := postgresstore.RunMigrations(ctx, pool); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Info().Msg("Database migrations completed")
		}

		orgStore = postgresstore.NewOrganizationStore(pool)
		userStore = postgresstore.NewUserStore(pool)
		projectStore = postgresstore.NewProjectStore(pool)
		accessStore = postgresstore.NewAccessStore(pool)
		regionStore = postgresstore.NewRegionStore(pool)
		dcStore = postgresstore.NewDataCenterStore(pool)
		keyStore = postgresstore.NewMachineKeyStore(pool)

		log.Info().Msg("Using PostgreSQL stores with shared connection pool")

	default:
		orgStore = memorystore.NewOrganizationStore()
		userStore = memorystore.NewUserStore()
		projectStore = memorystore.NewProjectStore()
		accessStore = memorystore.NewAccessStore()
		regionStore = memorystore.NewRegionStore()
		dcStore = memorystore.NewDataCenterStore()
		keyStore = memorystore.NewMachineKeyStore()

		log.Warn().Msg("Using in-memory stores, data will not survive a restart")
	}

	engine := access.NewEngine(accessStore)

	opts := server.RouterOptions{
		Logger:        log,
		TokenIssuer:   tokenIssuer,
		Organizations: service.NewOrganizationService(orgStore),
		Users:         service.NewUserService(userStore, orgStore, tokenIssuer),
		Projects:      service.NewProjectService(projectStore, userStore, engine),
		Regions:       service.NewRegionService(regionStore, engine),
		DataCenters:   service.NewDataCenterService(dcStore, regionStore, engine),
		MachineKeys:   service.NewMachineKeyService(keyStore, engine),
	}

	if len(c.CORSOrigins) > 0 {
		corsOptions := server.DefaultCORSOptions()
		corsOptions.AllowedOrigins = c.CORSOrigins
		opts.CORSOptions = &corsOptions
	}

	httpServer := configureHTTPServer(c.Listen, server.NewRouter(opts))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("listen", c.Listen).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}

	return nil
}
