package query

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/rewardlytics/rewardsx/app/query/types"
	"github.com/rewardlytics/rewardsx/pkg/db/clickhouse"
	"github.com/rewardlytics/rewardsx/pkg/logging"
	"github.com/rewardlytics/rewardsx/pkg/pipeline"
	"github.com/rewardlytics/rewardsx/pkg/redis"
	"github.com/rewardlytics/rewardsx/pkg/snapshot"
	"github.com/rewardlytics/rewardsx/pkg/utils"
)

// Initialize initializes the application: logger, snapshot source,
// pipeline cache, the first pipeline pass, and the optional Redis and
// cron wiring. A snapshot that cannot be loaded is fatal: the service
// never comes up serving a partial dashboard.
func Initialize(ctx context.Context) *types.App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr
		panic(err)
	}

	source := newSource(ctx, logger)

	app := &types.App{
		Source: source,
		Cache:  pipeline.NewCache(logger),
		Logger: logger,
	}

	// Redis is optional: reload notifications only.
	if utils.Env("REDIS_ENABLED", "false") == "true" {
		redisClient, err := redis.NewClient(ctx, logger)
		if err != nil {
			logger.Warn("Failed to initialize Redis client - reload notifications will be disabled",
				zap.Error(err))
		} else {
			app.RedisClient = redisClient
		}
	}

	if _, err := app.Reload(ctx); err != nil {
		logger.Fatal("Unable to load initial snapshot", zap.Error(err))
	}

	// Optional scheduled reload, e.g. "0 * * * *" for hourly.
	if spec := utils.Env("SNAPSHOT_RELOAD_CRON", ""); spec != "" {
		c := cron.New()
		if _, err := c.AddFunc(spec, func() {
			if _, err := app.Reload(context.Background()); err != nil {
				logger.Error("Scheduled snapshot reload failed", zap.Error(err))
			}
		}); err != nil {
			logger.Fatal("Invalid SNAPSHOT_RELOAD_CRON", zap.String("spec", spec), zap.Error(err))
		}
		app.Cron = c
		logger.Info("Scheduled snapshot reload enabled", zap.String("spec", spec))
	}

	return app
}

// newSource picks the snapshot source from SNAPSHOT_SOURCE: "csv"
// (default, reads SNAPSHOT_DIR) or "clickhouse" (reads the warehouse
// database named by CLICKHOUSE_DATABASE).
func newSource(ctx context.Context, logger *zap.Logger) snapshot.Source {
	switch utils.Env("SNAPSHOT_SOURCE", "csv") {
	case "clickhouse":
		client, err := clickhouse.New(ctx, logger, utils.Env("CLICKHOUSE_DATABASE", "rewards"))
		if err != nil {
			logger.Fatal("Unable to connect to ClickHouse", zap.Error(err))
		}
		return snapshot.NewWarehouseSource(client, logger)
	default:
		return snapshot.NewCSVSource(logger)
	}
}
