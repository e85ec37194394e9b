/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Seednode/wrongdle/ranks"
	"github.com/Seednode/wrongdle/store"
)

// VoteResult is returned once a vote is recorded, revealing the real rank.
type VoteResult struct {
	Vote      store.Vote      `json:"vote"`
	Correct   bool            `json:"correct"`
	FakeRank  string          `json:"fake_rank"`
	FakeRange ranks.RankRange `json:"fake_range"`
	RealRank  string          `json:"real_rank"`
	RealRange ranks.RankRange `json:"real_range"`
}

// clipRanges resolves the elo bands of a clip's fake and real ranks.
func (s *Service) clipRanges(c store.Clip) (fake, real ranks.RankRange, err error) {
	fake, ok := s.catalog.Range(c.Game, c.FakeRank)
	if !ok {
		return fake, real, fmt.Errorf("rank %q of %q is not in the catalog", c.FakeRank, c.Game)
	}

	real, ok = s.catalog.Range(c.Game, c.RealRank)
	if !ok {
		return fake, real, fmt.Errorf("rank %q of %q is not in the catalog", c.RealRank, c.Game)
	}

	return fake, real, nil
}

// voteAttempts bounds how often CastVote rescores a vote whose clip had its
// ranks edited in between.
const voteAttempts = 3

// CastVote records userID's guess that the clip's real rank is higher (or
// lower) than its fake rank. Each user votes at most once per clip and never
// on their own clips.
func (s *Service) CastVote(ctx context.Context, userID, clipID string, guessedHigher bool) (VoteResult, error) {
	for range voteAttempts - 1 {
		res, err := s.castVote(ctx, userID, clipID, guessedHigher)
		if !errors.Is(err, store.ErrClipChanged) {
			return res, err
		}
	}

	res, err := s.castVote(ctx, userID, clipID, guessedHigher)
	if errors.Is(err, store.ErrClipChanged) {
		return VoteResult{}, conflict("clip_changed", "This clip changed while voting, try again")
	}

	return res, err
}

func (s *Service) castVote(ctx context.Context, userID, clipID string, guessedHigher bool) (VoteResult, error) {
	c, err := s.getClip(ctx, clipID)
	if err != nil {
		return VoteResult{}, err
	}

	if c.UserID == userID {
		return VoteResult{}, unauthorized("own_clip", "You can't vote on your own clip")
	}

	existing, err := s.viewerVote(ctx, userID, clipID)
	if err != nil {
		return VoteResult{}, err
	}
	if existing != nil {
		return VoteResult{}, conflict("already_voted", "You have already voted on this clip")
	}

	fake, real, err := s.clipRanges(c)
	if err != nil {
		return VoteResult{}, internal("rank_missing", "This clip can't be scored right now", err)
	}

	in := ranks.VoteInput{FakeRank: fake, RealRank: real, GuessedHigher: guessedHigher}

	vote := store.Vote{
		ID:            s.newID(),
		UserID:        userID,
		ClipID:        clipID,
		GuessedHigher: guessedHigher,
		Score:         ranks.ComputeVoteScore(in),
		CreatedAt:     s.now(),
	}

	err = s.store.CreateVote(ctx, vote, c)
	switch {
	case errors.Is(err, store.ErrClipChanged):
		return VoteResult{}, err
	case errors.Is(err, store.ErrDuplicateVote):
		return VoteResult{}, conflict("already_voted", "You have already voted on this clip")
	case errors.Is(err, store.ErrNotFound):
		return VoteResult{}, notFound("clip_not_found", "Clip not found")
	case err != nil:
		return VoteResult{}, internal("vote_store", "Unable to save vote", err)
	}

	s.notify(c, vote)

	return VoteResult{
		Vote:      vote,
		Correct:   ranks.Correct(vote.Score),
		FakeRank:  c.FakeRank,
		FakeRange: fake,
		RealRank:  c.RealRank,
		RealRange: real,
	}, nil
}

// Vote returns userID's vote on clipID.
func (s *Service) Vote(ctx context.Context, userID, clipID string) (store.Vote, error) {
	if _, err := s.getClip(ctx, clipID); err != nil {
		return store.Vote{}, err
	}

	v, err := s.viewerVote(ctx, userID, clipID)
	if err != nil {
		return store.Vote{}, err
	}
	if v == nil {
		return store.Vote{}, notFound("vote_not_found", "You haven't voted on this clip")
	}

	return *v, nil
}

// Tally counts the guesses made on a clip.
type Tally struct {
	ClipID string `json:"clip_id"`
	Higher int    `json:"higher"`
	Lower  int    `json:"lower"`
	Total  int    `json:"total"`
}

func (s *Service) Tally(ctx context.Context, clipID string) (Tally, error) {
	if _, err := s.getClip(ctx, clipID); err != nil {
		return Tally{}, err
	}

	votes, err := s.store.ListVotes(ctx, clipID)
	if err != nil {
		return Tally{}, internal("vote_store", "Unable to load votes", err)
	}

	t := Tally{ClipID: clipID}
	for _, v := range votes {
		t.Add(v)
	}

	return t, nil
}

func (t *Tally) Add(v store.Vote) {
	if v.GuessedHigher {
		t.Higher++
	} else {
		t.Lower++
	}
	t.Total++
}
