package main

import (
	"context"
	"log"
	"time"

	"virtualwardrobe/config"
	"virtualwardrobe/dbhelper"
	"virtualwardrobe/logging"
	"virtualwardrobe/repository"
	"virtualwardrobe/services"
	"virtualwardrobe/tasks"

	firebase "firebase.google.com/go/v4"
	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"google.golang.org/api/option"
)

func runScheduler(redisOpt asynq.RedisClientOpt, logger logging.Logger) {
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		LogLevel: asynq.InfoLevel,
	})

	entries := []struct {
		cron string
		task *asynq.Task
		desc string
	}{
		{
			cron: tasks.OutfitReminderCron,
			task: tasks.NewOutfitReminderTask(),
			desc: "Daily outfit reminder",
		},
	}

	for _, t := range entries {
		entryID, err := scheduler.Register(t.cron, t.task, asynq.Queue(tasks.QueueDefault))
		if err != nil {
			log.Fatalf("Failed to register task '%s': %v", t.desc, err)
		}
		logger.Info("registered scheduled task", logging.Fields{"task": t.desc, "entry_id": entryID, "cron": t.cron})
	}

	if err := scheduler.Run(); err != nil {
		log.Fatalf("Scheduler failed: %v", err)
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

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.Sentry.DSN,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
	}); err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
	defer sentry.Flush(2 * time.Second)

	ctx := context.Background()
	db, err := dbhelper.SetupDB(cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	repos := repository.New(db)

	var opts []option.ClientOption
	if cfg.Firebase.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		log.Fatalf("error initializing firebase app: %v", err)
	}
	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		log.Fatalf("firebase messaging: %v", err)
	}

	var blobs services.ObjectStore
	if cfg.Storage.Backend == config.StorageBackendFirebase {
		blobs, err = services.NewFirebaseObjectStore(ctx, app, cfg.Storage.Bucket, cfg.Storage.PresignTTL)
	} else {
		blobs, err = services.NewR2ObjectStore(ctx, cfg.Storage)
	}
	if err != nil {
		log.Fatalf("[Queue] Failed to initialize object store: %v", err)
	}

	gemini, err := services.NewGeminiClient(ctx, cfg.Gemini, logger)
	if err != nil {
		log.Fatalf("gemini: %v", err)
	}

	handlers := &tasks.Handlers{
		Blobs:      blobs,
		Items:      repos.Wardrobe,
		Analyzer:   gemini,
		Recipients: repos.OutfitLogs,
		Notifier:   &services.Notifier{Sender: messagingClient, Tokens: repos.Users, Logger: logger},
		Logger:     logger,
	}
	mux := asynq.NewServeMux()
	handlers.Register(mux)

	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			tasks.QueueAnalysis: 6,
			tasks.QueueDefault:  3,
		},
	})

	go runScheduler(redisOpt, logger)
	if err := srv.Run(mux); err != nil {
		log.Fatal(err)
	}
}
