/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package service

import (
	"context"
	"time"

	"github.com/Seednode/wrongdle/ranks"
	"github.com/Seednode/wrongdle/store"
)

type Progress struct {
	Game  string `json:"game"`
	Clips int    `json:"clips"`
	Voted int    `json:"voted"`
	Score int    `json:"score"`
}

type HistoryItem struct {
	Clip    ClipView  `json:"clip"`
	Correct bool      `json:"correct"`
	Score   int       `json:"score"`
	VotedAt time.Time `json:"voted_at"`
}

type UserStats struct {
	User  store.User `json:"user"`
	Score int        `json:"score"`
	Games []Progress `json:"games"`
}

// TotalScore sums userID's scores, across every game when game is empty.
func (s *Service) TotalScore(ctx context.Context, userID, game string) (int, error) {
	if game != "" {
		g, err := s.game(game)
		if err != nil {
			return 0, err
		}
		game = g.ShortTitle
	}

	total, err := s.store.TotalScore(ctx, userID, game)
	if err != nil {
		return 0, internal("vote_store", "Unable to load score", err)
	}

	return total, nil
}

// History lists userID's votes, newest first, with each clip fully revealed.
func (s *Service) History(ctx context.Context, userID string) ([]HistoryItem, error) {
	entries, err := s.store.History(ctx, userID)
	if err != nil {
		return nil, internal("vote_store", "Unable to load history", err)
	}

	out := make([]HistoryItem, 0, len(entries))
	for _, e := range entries {
		vote := e.Vote
		out = append(out, HistoryItem{
			Clip:    s.view(e.Clip, userID, &vote),
			Correct: ranks.Correct(vote.Score),
			Score:   vote.Score,
			VotedAt: vote.CreatedAt,
		})
	}

	return out, nil
}

func (s *Service) Progress(ctx context.Context, game, userID string) (Progress, error) {
	g, err := s.game(game)
	if err != nil {
		return Progress{}, err
	}

	p := Progress{Game: g.ShortTitle}

	if p.Clips, err = s.store.CountClips(ctx, g.ShortTitle); err != nil {
		return Progress{}, internal("clip_store", "Unable to count clips", err)
	}

	if p.Voted, err = s.store.CountVotedClips(ctx, g.ShortTitle, userID); err != nil {
		return Progress{}, internal("vote_store", "Unable to count votes", err)
	}

	if p.Score, err = s.store.TotalScore(ctx, userID, g.ShortTitle); err != nil {
		return Progress{}, internal("vote_store", "Unable to load score", err)
	}

	return p, nil
}

// Stats gathers a user's total score and progress in every game.
func (s *Service) Stats(ctx context.Context, userID string) (UserStats, error) {
	u, err := s.User(ctx, userID)
	if err != nil {
		return UserStats{}, err
	}

	st := UserStats{User: u}

	for _, g := range s.catalog.Games {
		p, err := s.Progress(ctx, g.ShortTitle, userID)
		if err != nil {
			return UserStats{}, err
		}
		st.Score += p.Score
		st.Games = append(st.Games, p)
	}

	return st, nil
}
