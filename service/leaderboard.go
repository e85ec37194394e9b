/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package service

import (
	"context"
	"sync"
	"time"

	"github.com/Seednode/wrongdle/catalog"
	"github.com/Seednode/wrongdle/store"
)

type Period string

const (
	PeriodAllTime Period = "all-time"
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// ParsePeriod accepts the empty string as all-time.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "", PeriodAllTime:
		return PeriodAllTime, nil
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return p, nil
	}

	return "", badRequest("invalid_period", "Period must be one of daily, weekly, monthly or all-time")
}

// Since returns the earliest vote time counted for p.
func (p Period) Since(now time.Time) time.Time {
	switch p {
	case PeriodDaily:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case PeriodWeekly:
		return now.AddDate(0, 0, -7)
	case PeriodMonthly:
		return now.AddDate(0, 0, -30)
	default:
		return time.Time{}
	}
}

// Board is a leaderboard snapshot. An empty Game is the global board.
type Board struct {
	Game        string                   `json:"game,omitempty"`
	Period      Period                   `json:"period"`
	Entries     []store.LeaderboardEntry `json:"entries"`
	RefreshedAt time.Time                `json:"refreshed_at"`
}

// LeaderboardCache holds all-time boards for every game plus the global one,
// rebuilt by Refresh.
type LeaderboardCache struct {
	store   store.Store
	catalog *catalog.Catalog
	size    int
	now     func() time.Time

	mu     sync.RWMutex
	boards map[string]Board
}

func newLeaderboardCache(st store.Store, cat *catalog.Catalog, size int) *LeaderboardCache {
	return &LeaderboardCache{
		store:   st,
		catalog: cat,
		size:    size,
		now:     time.Now,
		boards:  make(map[string]Board),
	}
}

func (lc *LeaderboardCache) build(ctx context.Context, game string) (Board, error) {
	entries, err := lc.store.Leaderboard(ctx, store.LeaderboardQuery{Game: game, Limit: lc.size})
	if err != nil {
		return Board{}, internal("leaderboard", "Unable to build leaderboard", err)
	}

	return Board{Game: game, Period: PeriodAllTime, Entries: entries, RefreshedAt: lc.now()}, nil
}

// Refresh rebuilds every board. On error the previous snapshots are kept.
func (lc *LeaderboardCache) Refresh(ctx context.Context) error {
	games := append([]string{""}, lc.catalog.ShortTitles()...)

	fresh := make(map[string]Board, len(games))
	for _, g := range games {
		b, err := lc.build(ctx, g)
		if err != nil {
			return err
		}
		fresh[g] = b
	}

	lc.mu.Lock()
	lc.boards = fresh
	lc.mu.Unlock()

	return nil
}

// Get returns the cached board for game, building it on first use.
func (lc *LeaderboardCache) Get(ctx context.Context, game string) (Board, error) {
	lc.mu.RLock()
	b, ok := lc.boards[game]
	lc.mu.RUnlock()

	if ok {
		return b, nil
	}

	b, err := lc.build(ctx, game)
	if err != nil {
		return Board{}, err
	}

	lc.mu.Lock()
	lc.boards[game] = b
	lc.mu.Unlock()

	return b, nil
}

// Leaderboard returns the board for game (empty for all games) over period.
// All-time boards come from the cache; shorter periods are computed directly.
func (s *Service) Leaderboard(ctx context.Context, game string, period Period) (Board, error) {
	if game != "" {
		g, err := s.game(game)
		if err != nil {
			return Board{}, err
		}
		game = g.ShortTitle
	}

	if period == "" || period == PeriodAllTime {
		return s.boards.Get(ctx, game)
	}

	now := s.now()

	entries, err := s.store.Leaderboard(ctx, store.LeaderboardQuery{
		Game:  game,
		Since: period.Since(now),
		Limit: s.boards.size,
	})
	if err != nil {
		return Board{}, internal("leaderboard", "Unable to build leaderboard", err)
	}

	return Board{Game: game, Period: period, Entries: entries, RefreshedAt: now}, nil
}
