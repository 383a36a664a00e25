package types

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/rewardlytics/rewardsx/pkg/pipeline"
	"github.com/rewardlytics/rewardsx/pkg/redis"
	"github.com/rewardlytics/rewardsx/pkg/snapshot"
)

type App struct {
	// Source produces canonical snapshots (CSV export dir or warehouse).
	Source snapshot.Source
	// Cache memoizes pipeline results by snapshot fingerprint.
	Cache *pipeline.Cache
	// RedisClient publishes reload notifications when enabled, nil otherwise.
	RedisClient *redis.Client
	// Cron drives scheduled snapshot reloads when configured.
	Cron *cron.Cron
	// Zap Logger
	Logger *zap.Logger
	// Server represents the HTTP server instance used to handle incoming client requests and manage HTTP routes.
	Server *http.Server

	current atomic.Pointer[pipeline.Result]
}

// Current returns the most recent pipeline result. It is never nil after
// a successful Initialize.
func (a *App) Current() *pipeline.Result {
	return a.current.Load()
}

// Reload loads a fresh snapshot from the source and swaps the current
// pipeline result. An unchanged snapshot hits the memo cache and the
// swap is a no-op in effect. Fatal load errors (missing tables) surface
// to the caller; nothing partial is ever published.
func (a *App) Reload(ctx context.Context) (*pipeline.Result, error) {
	snap, err := a.Source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("reload from %s: %w", a.Source.Name(), err)
	}
	res, err := a.Cache.Get(snap)
	if err != nil {
		return nil, fmt.Errorf("reload from %s: %w", a.Source.Name(), err)
	}

	prev := a.current.Swap(res)
	if prev == nil || prev.Fingerprint != res.Fingerprint {
		if a.RedisClient != nil {
			a.RedisClient.Publish(ctx, redis.ChannelSnapshotReloaded, res.Fingerprint)
		}
		a.Logger.Info("Snapshot swapped",
			zap.String("fingerprint", res.Fingerprint[:12]),
			zap.String("source", a.Source.Name()))
	}
	return res, nil
}

// Start starts the application.
func (a *App) Start(ctx context.Context) {
	if a.Cron != nil {
		a.Cron.Start()
	}
	go func() { _ = a.Server.ListenAndServe() }()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.Cron != nil {
		<-a.Cron.Stop().Done()
	}
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Logger.Error("Failed to close Redis connection", zap.Error(err))
		}
	}
	_ = a.Server.Shutdown(shutdownCtx)
	a.Logger.Info("Query server stopped")
}
