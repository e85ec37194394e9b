/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Seednode/wrongdle/service"
	"github.com/robfig/cron/v3"
)

const refreshTimeout = 30 * time.Second

func refreshLeaderboards(ctx context.Context, cfg *Config, boards *service.LeaderboardCache) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	if err := boards.Refresh(ctx); err != nil {
		errorf("refresh leaderboards: %v", err)
		return
	}

	logf(cfg, "CRON: Refreshed leaderboards in %s", time.Since(startTime).Round(time.Microsecond))
}

// startScheduler rebuilds the cached leaderboards once immediately and then on
// cfg.leaderboardRefresh, until ctx is cancelled.
func startScheduler(ctx context.Context, cfg *Config, boards *service.LeaderboardCache) error {
	c := cron.New()

	_, err := c.AddFunc(cfg.leaderboardRefresh, func() {
		refreshLeaderboards(ctx, cfg, boards)
	})
	if err != nil {
		return fmt.Errorf("schedule leaderboard refresh %q: %w", cfg.leaderboardRefresh, err)
	}

	refreshLeaderboards(ctx, cfg, boards)

	c.Start()

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()

	return nil
}
