package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"virtualwardrobe/config"
	"virtualwardrobe/controllers"
	"virtualwardrobe/dbhelper"
	"virtualwardrobe/logging"
	"virtualwardrobe/repository"
	"virtualwardrobe/services"

	firebase "firebase.google.com/go/v4"
	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"
)

// lazyFirebase initializes the Firebase app on first use, since only some
// storage and auth backends need it.
type lazyFirebase struct {
	cfg config.FirebaseConfig
	app *firebase.App
}

func (l *lazyFirebase) get(ctx context.Context) (*firebase.App, error) {
	if l.app != nil {
		return l.app, nil
	}
	var opts []option.ClientOption
	if l.cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(l.cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, err
	}
	l.app = app
	return app, nil
}

func newObjectStore(ctx context.Context, cfg *config.Config, fb *lazyFirebase) (services.ObjectStore, error) {
	if cfg.Storage.Backend == config.StorageBackendFirebase {
		app, err := fb.get(ctx)
		if err != nil {
			return nil, err
		}
		return services.NewFirebaseObjectStore(ctx, app, cfg.Storage.Bucket, cfg.Storage.PresignTTL)
	}
	return services.NewR2ObjectStore(ctx, cfg.Storage)
}

func newIdentityProvider(ctx context.Context, cfg *config.Config, fb *lazyFirebase, tokens *services.TokenIssuer, users *repository.UserRepository) (services.IdentityProvider, error) {
	switch cfg.Auth.Provider {
	case config.AuthProviderFirebase:
		app, err := fb.get(ctx)
		if err != nil {
			return nil, err
		}
		client, err := app.Auth(ctx)
		if err != nil {
			return nil, err
		}
		return &services.FirebaseIdentityProvider{Verifier: client, Users: users}, nil
	case config.AuthProviderGoogle:
		return services.NewGoogleIdentityProvider(cfg.Auth.GoogleClientID, users), nil
	default:
		return &services.JWTIdentityProvider{Issuer: tokens}, nil
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	err = sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.Sentry.DSN,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
	})
	if err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
	defer sentry.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := dbhelper.SetupDB(cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := dbhelper.MigrateAll(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	fb := &lazyFirebase{cfg: cfg.Firebase}
	store, err := newObjectStore(ctx, cfg, fb)
	if err != nil {
		log.Fatalf("object store: %v", err)
	}
	urlCache, err := services.NewURLCacheService(store, cfg.Storage.PresignTTL, logger)
	if err != nil {
		log.Fatalf("url cache: %v", err)
	}

	tokens := services.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	identity, err := newIdentityProvider(ctx, cfg, fb, tokens, repository.New(db).Users)
	if err != nil {
		log.Fatalf("identity provider: %v", err)
	}

	gemini, err := services.NewGeminiClient(ctx, cfg.Gemini, logger)
	if err != nil {
		log.Fatalf("gemini: %v", err)
	}

	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	var limiterRedis redis.Cmdable
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer client.Close()
		limiterRedis = client
	}

	e := controllers.SetupServer(controllers.Deps{
		Config:    cfg,
		DB:        db,
		Identity:  identity,
		Tokens:    tokens,
		Store:     store,
		URLs:      urlCache,
		Generator: gemini,
		Enqueuer:  asynqClient,
		Redis:     limiterRedis,
		Logger:    logger,
	})
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	go func() {
		logger.Info("starting api", logging.Fields{"addr": cfg.Addr(), "env": cfg.Server.Env})
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", logging.Fields{"error": err})
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", logging.Fields{"error": err})
	}
}
