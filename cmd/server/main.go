package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/labdesk/identity/internal/api"
	"github.com/labdesk/identity/internal/api/handler"
	"github.com/labdesk/identity/internal/core/domain"
	"github.com/labdesk/identity/internal/core/service"
	"github.com/labdesk/identity/internal/infrastructure/db/mongo"
	"github.com/labdesk/identity/internal/infrastructure/db/redis"
	"github.com/labdesk/identity/internal/infrastructure/functions"
	"github.com/labdesk/identity/internal/infrastructure/queue"
	"github.com/labdesk/identity/internal/pkg/config"
	"github.com/labdesk/identity/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	// --- Repositories ---
	accounts := mongo.NewAccountRepository(db)
	profiles := mongo.NewProfileRepository(db)
	employees := mongo.NewEmployeeRepository(db)
	rolePermissions := mongo.NewRolePermissionRepository(db)
	records := mongo.NewImpersonationRepository(db)

	if err := mongo.EnsureIndexes(ctx, accounts, employees, rolePermissions, records); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	// --- Services ---
	tokens := service.NewJWTIssuer(cfg.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	revocations := redis.NewRevocationList(rdb)
	store := redis.NewSessionStore(rdb, cfg.Auth.SessionTTL)

	resolver := service.NewIdentityResolver(service.IdentityRepositories{
		Profiles:        profiles,
		Subscriptions:   mongo.NewSubscriptionRepository(db),
		Employees:       employees,
		RolePermissions: rolePermissions,
		Stages:          mongo.NewStageRepository(db),
	}, cfg.Identity.ResolveTimeout, log)

	issuer := service.NewImpersonationIssuer(accounts, records, revocations, tokens, cfg.Impersonation.TTL, log)

	gateway := functions.NewClient(functions.Config{
		BaseURL: cfg.FunctionsURL(),
		Timeout: cfg.Impersonation.RequestTimeout,
	})

	dispatcherCtx, stopDispatcher := context.WithCancel(context.Background())
	audit := queue.NewAuditDispatcher(cfg.Audit.Workers, mongo.NewAuditRepository(db), log)
	audit.Start(dispatcherCtx)

	impersonation := service.NewImpersonationService(store, gateway, tokens, audit, log)
	auth := service.NewAuthService(service.AuthDeps{
		Accounts:      accounts,
		Profiles:      profiles,
		Store:         store,
		Tokens:        tokens,
		Revocations:   revocations,
		Resolver:      resolver,
		Impersonation: impersonation,
	}, log)

	if email := cfg.Auth.BootstrapAdminEmail; email != "" {
		_, err := auth.Register(ctx, email, cfg.Auth.BootstrapAdminPassword, domain.RoleAdmin)
		switch {
		case err == nil:
			log.Info().Str("email", email).Msg("bootstrap admin created")
		case errors.Is(err, domain.ErrAccountExists):
		default:
			log.Fatal().Err(err).Msg("bootstrap admin failed")
		}
	}

	e := api.NewRouter(api.Deps{
		Auth:          auth,
		Impersonation: impersonation,
		Issuer:        issuer,
		Tokens:        tokens,
		Health:        []handler.Dependency{handler.MongoDependency(db), handler.RedisDependency(rdb)},
		Log:           log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("identity service listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
	}

	stopDispatcher()
	audit.Wait()
	log.Info().Msg("shutdown complete")
}
