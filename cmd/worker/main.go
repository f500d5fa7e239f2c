package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/ecodanforum/backend/internal/config"
	"github.com/ecodanforum/backend/internal/database"
	"github.com/ecodanforum/backend/internal/knowledge"
	"github.com/ecodanforum/backend/internal/llm"
	"github.com/ecodanforum/backend/internal/notifications"
	"github.com/ecodanforum/backend/internal/queue"
	"github.com/ecodanforum/backend/internal/queue/workers"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	db, err := database.NewPool(context.Background(), cfg.Database)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	gw := llm.NewGateway(cfg.LLM)
	knowledgeSvc := knowledge.NewService(db, gw, cfg.LLM.DefaultModel)
	notifySvc := notifications.NewService(db)
	dispatcher := notifications.NewDispatcher(cfg.Notify.WebhookURL)

	registry := queue.NewHandlersRegistry()

	summarizeWorker := workers.NewSummarizeWorker(knowledgeSvc)
	notifyWorker := workers.NewNotifyWorker(db, notifySvc, dispatcher)

	registry.Register(queue.TypeThreadSummarize, asynq.HandlerFunc(summarizeWorker.ProcessTask))
	registry.Register(queue.TypeNotifyDispatch, asynq.HandlerFunc(notifyWorker.ProcessTask))

	slog.Info("starting worker", "concurrency", 10)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
