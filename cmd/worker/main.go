package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"attendhub/internal/config"
	"attendhub/internal/directory"
	"attendhub/internal/idp"
	"attendhub/internal/queue"
	"attendhub/internal/store"
)

// Worker consumes directory sync events and pushes the authoritative
// role/department back to the identity provider's metadata. Delivery is
// best-effort: the directory stays the source of truth, so a missed
// event only leaves a stale hint behind.
func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "directory:sync")
	}

	users := directory.NewRepository(db.Client)
	provider := idp.New(cfg.IdPBaseURL, cfg.IdPAPIKey, cfg.IdPSkip)

	if !cfg.IdPSkip {
		if err := provider.Health(ctx); err != nil {
			logger.Warn("identity provider not available, will retry per event", zap.Error(err))
		} else {
			logger.Info("identity provider connected")
		}
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		logger.Fatal("queue consume init failed", zap.Error(err))
	}

	logger.Info("worker started, waiting for sync events")
	for msg := range messages {
		if msg.Type != queue.TypeUserProvisioned && msg.Type != queue.TypeRoleChanged {
			continue
		}

		id := string(msg.Body)
		user, err := users.Get(ctx, id)
		if err != nil {
			logger.Warn("fetch user failed", zap.String("user_id", id), zap.Error(err))
			continue
		}
		if user == nil || user.ExternalID == nil {
			// Nothing to sync until the provider link exists.
			continue
		}

		meta := idp.Metadata{
			Role:       string(user.Role),
			Department: user.Department,
		}
		if user.EmployeeID != nil {
			meta.EmployeeID = *user.EmployeeID
		}
		if err := provider.UpdateMetadata(ctx, *user.ExternalID, meta); err != nil {
			logger.Warn("metadata sync failed",
				zap.String("user_id", id), zap.String("event", msg.Type), zap.Error(err))
			continue
		}
		logger.Info("metadata synced",
			zap.String("user_id", id), zap.String("event", msg.Type), zap.String("role", string(user.Role)))
	}

	logger.Info("worker stopped")
}
