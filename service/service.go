/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package service applies the game rules on top of a store: who may submit,
// edit and vote on clips, and how votes are scored.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Seednode/wrongdle/catalog"
	"github.com/Seednode/wrongdle/store"
	"github.com/google/uuid"
)

const DefaultLeaderboardSize = 50

// VoteListener is told about every accepted vote. Implementations must not
// block.
type VoteListener interface {
	VoteCast(clip store.Clip, vote store.Vote)
}

type Service struct {
	store   store.Store
	catalog *catalog.Catalog
	boards  *LeaderboardCache

	now   func() time.Time
	newID func() string

	mu        sync.RWMutex
	listeners []VoteListener
}

func New(st store.Store, cat *catalog.Catalog, leaderboardSize int) *Service {
	if leaderboardSize <= 0 {
		leaderboardSize = DefaultLeaderboardSize
	}

	return &Service{
		store:   st,
		catalog: cat,
		boards:  newLeaderboardCache(st, cat, leaderboardSize),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

func (s *Service) Leaderboards() *LeaderboardCache {
	return s.boards
}

func (s *Service) Subscribe(l VoteListener) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listeners = append(s.listeners, l)
}

func (s *Service) notify(clip store.Clip, vote store.Vote) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, l := range s.listeners {
		l.VoteCast(clip, vote)
	}
}

// EnsureUser returns the user with id, creating it with name on first sight.
func (s *Service) EnsureUser(ctx context.Context, id, name string) (store.User, error) {
	if id == "" {
		return store.User{}, badRequest("missing_user", "A user id is required")
	}

	u, err := s.store.EnsureUser(ctx, id, name)
	if err != nil {
		return store.User{}, internal("user_store", "Unable to load user", err)
	}

	return u, nil
}

func (s *Service) User(ctx context.Context, id string) (store.User, error) {
	u, err := s.store.GetUser(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return store.User{}, notFound("user_not_found", "User not found")
	case err != nil:
		return store.User{}, internal("user_store", "Unable to load user", err)
	}

	return u, nil
}

func (s *Service) game(shortTitle string) (catalog.Game, error) {
	g, ok := s.catalog.Game(shortTitle)
	if !ok {
		return catalog.Game{}, notFound("game_not_found", "Game not found")
	}

	return g, nil
}

// Game looks up a catalog entry by short title.
func (s *Service) Game(shortTitle string) (catalog.Game, error) {
	return s.game(shortTitle)
}

func (s *Service) getClip(ctx context.Context, id string) (store.Clip, error) {
	c, err := s.store.GetClip(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return store.Clip{}, notFound("clip_not_found", "Clip not found")
	case err != nil:
		return store.Clip{}, internal("clip_store", "Unable to load clip", err)
	}

	return c, nil
}
