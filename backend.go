/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"fmt"

	"github.com/Seednode/wrongdle/catalog"
	"github.com/Seednode/wrongdle/service"
	"github.com/Seednode/wrongdle/store"
)

func openStore(ctx context.Context, cfg *Config) (store.Store, error) {
	if cfg.databaseURL == "" {
		warnf("no --database-url given, clips and votes will be lost on exit")

		return store.NewMemory(), nil
	}

	pg, err := store.NewPostgres(ctx, cfg.databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pg.Migrate(ctx); err != nil {
		_ = pg.Close()

		return nil, err
	}

	logf(cfg, "START: Connected to postgres")

	return pg, nil
}

// openBackend loads the catalog and storage shared by the server and the
// maintenance commands. The caller closes the returned store.
func openBackend(ctx context.Context, cfg *Config) (*service.Service, store.Store, error) {
	cat, err := catalog.Load(cfg.catalog)
	if err != nil {
		return nil, nil, err
	}

	logf(cfg, "START: Loaded %d games from catalog", len(cat.Games))

	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	size := cfg.leaderboardSize
	if size < 1 {
		size = service.DefaultLeaderboardSize
	}

	return service.New(st, cat, size), st, nil
}
