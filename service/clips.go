/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Seednode/wrongdle/ranks"
	"github.com/Seednode/wrongdle/store"
)

const maxTitleLength = 200

type ClipInput struct {
	Game       string `json:"game"`
	Title      string `json:"title"`
	YouTubeURL string `json:"youtube_url"`
	FakeRank   string `json:"fake_rank"`
	RealRank   string `json:"real_rank"`
}

// ClipUpdate changes only the fields that are set. A clip cannot move to
// another game.
type ClipUpdate struct {
	Title      *string `json:"title,omitempty"`
	YouTubeURL *string `json:"youtube_url,omitempty"`
	FakeRank   *string `json:"fake_rank,omitempty"`
	RealRank   *string `json:"real_rank,omitempty"`
}

// ClipView is a clip as seen by one viewer. The real rank stays hidden until
// the viewer has voted on the clip or submitted it.
type ClipView struct {
	ID          string           `json:"id"`
	Game        string           `json:"game"`
	Title       string           `json:"title"`
	YouTubeURL  string           `json:"youtube_url"`
	EmbedURL    string           `json:"embed_url"`
	FakeRank    string           `json:"fake_rank"`
	FakeRange   ranks.RankRange  `json:"fake_range"`
	RealRank    string           `json:"real_rank,omitempty"`
	RealRange   *ranks.RankRange `json:"real_range,omitempty"`
	SubmittedBy string           `json:"submitted_by"`
	SubmittedAt time.Time        `json:"submitted_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Owner       bool             `json:"owner"`
	CanVote     bool             `json:"can_vote"`
	Vote        *store.Vote      `json:"vote,omitempty"`
}

func (s *Service) view(c store.Clip, viewerID string, vote *store.Vote) ClipView {
	v := ClipView{
		ID:          c.ID,
		Game:        c.Game,
		Title:       c.Title,
		YouTubeURL:  c.YouTubeURL,
		EmbedURL:    EmbedURL(c.YouTubeURL),
		FakeRank:    c.FakeRank,
		SubmittedBy: c.UserID,
		SubmittedAt: c.SubmittedAt,
		UpdatedAt:   c.UpdatedAt,
		Owner:       viewerID != "" && c.UserID == viewerID,
		Vote:        vote,
	}
	v.CanVote = !v.Owner && vote == nil

	if r, ok := s.catalog.Range(c.Game, c.FakeRank); ok {
		v.FakeRange = r
	}

	if v.Owner || vote != nil {
		v.RealRank = c.RealRank
		if r, ok := s.catalog.Range(c.Game, c.RealRank); ok {
			v.RealRange = &r
		}
	}

	return v
}

// validateClip checks c against the catalog and rewrites its game and rank
// names to their canonical spelling.
func (s *Service) validateClip(c *store.Clip) error {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		return badRequest("missing_title", "A title is required")
	}
	if utf8.RuneCountInString(c.Title) > maxTitleLength {
		return badRequest("title_too_long", "Titles are limited to 200 characters")
	}

	c.YouTubeURL = strings.TrimSpace(c.YouTubeURL)
	if !IsValidYouTubeURL(c.YouTubeURL) {
		return badRequest("invalid_url", "Only YouTube watch and shorts links are supported")
	}

	g, err := s.game(c.Game)
	if err != nil {
		return err
	}
	c.Game = g.ShortTitle

	fake, ok := g.Rank(c.FakeRank)
	if !ok {
		return notFound("fake_rank_not_found", "Provided fake rank doesn't exist")
	}
	c.FakeRank = fake.Name

	real, ok := g.Rank(c.RealRank)
	if !ok {
		return notFound("real_rank_not_found", "Provided real rank doesn't exist")
	}
	c.RealRank = real.Name

	if fake.Name == real.Name {
		return badRequest("same_rank", "The fake rank must differ from the real rank")
	}

	return nil
}

func (s *Service) CreateClip(ctx context.Context, userID string, in ClipInput) (ClipView, error) {
	now := s.now()

	c := store.Clip{
		ID:          s.newID(),
		UserID:      userID,
		Game:        in.Game,
		Title:       in.Title,
		YouTubeURL:  in.YouTubeURL,
		FakeRank:    in.FakeRank,
		RealRank:    in.RealRank,
		SubmittedAt: now,
		UpdatedAt:   now,
	}

	if err := s.validateClip(&c); err != nil {
		return ClipView{}, err
	}

	err := s.store.CreateClip(ctx, c)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ClipView{}, notFound("user_not_found", "User not found")
	case err != nil:
		return ClipView{}, internal("clip_store", "Unable to save clip", err)
	}

	return s.view(c, userID, nil), nil
}

func (s *Service) ownedClip(ctx context.Context, userID, clipID string) (store.Clip, error) {
	c, err := s.getClip(ctx, clipID)
	if err != nil {
		return store.Clip{}, err
	}

	if c.UserID != userID {
		return store.Clip{}, unauthorized("not_owner", "You aren't authorized to do this")
	}

	return c, nil
}

func (s *Service) UpdateClip(ctx context.Context, userID, clipID string, up ClipUpdate) (ClipView, error) {
	c, err := s.ownedClip(ctx, userID, clipID)
	if err != nil {
		return ClipView{}, err
	}

	if up.Title != nil {
		c.Title = *up.Title
	}
	if up.YouTubeURL != nil {
		c.YouTubeURL = *up.YouTubeURL
	}
	if up.FakeRank != nil {
		c.FakeRank = *up.FakeRank
	}
	if up.RealRank != nil {
		c.RealRank = *up.RealRank
	}

	if err := s.validateClip(&c); err != nil {
		return ClipView{}, err
	}

	err = s.store.UpdateClip(ctx, c)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ClipView{}, notFound("clip_not_found", "Clip not found")
	case errors.Is(err, store.ErrRanksLocked):
		return ClipView{}, conflict("ranks_locked", "Ranks can't be changed once a clip has votes")
	case err != nil:
		return ClipView{}, internal("clip_store", "Unable to update clip", err)
	}

	updated, err := s.getClip(ctx, clipID)
	if err != nil {
		return ClipView{}, err
	}

	return s.view(updated, userID, nil), nil
}

func (s *Service) DeleteClip(ctx context.Context, userID, clipID string) error {
	if _, err := s.ownedClip(ctx, userID, clipID); err != nil {
		return err
	}

	err := s.store.DeleteClip(ctx, clipID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return notFound("clip_not_found", "Clip not found")
	case err != nil:
		return internal("clip_store", "Unable to delete clip", err)
	}

	return nil
}

func (s *Service) viewerVote(ctx context.Context, viewerID, clipID string) (*store.Vote, error) {
	if viewerID == "" {
		return nil, nil
	}

	v, err := s.store.GetVote(ctx, viewerID, clipID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, internal("vote_store", "Unable to load vote", err)
	}

	return &v, nil
}

// Clip returns a single clip as seen by viewerID, which may be empty.
func (s *Service) Clip(ctx context.Context, viewerID, clipID string) (ClipView, error) {
	c, err := s.getClip(ctx, clipID)
	if err != nil {
		return ClipView{}, err
	}

	vote, err := s.viewerVote(ctx, viewerID, clipID)
	if err != nil {
		return ClipView{}, err
	}

	return s.view(c, viewerID, vote), nil
}

// Clips lists every clip of a game, newest first.
func (s *Service) Clips(ctx context.Context, viewerID, game string) ([]ClipView, error) {
	g, err := s.game(game)
	if err != nil {
		return nil, err
	}

	clips, err := s.store.ListClips(ctx, g.ShortTitle)
	if err != nil {
		return nil, internal("clip_store", "Unable to list clips", err)
	}

	votes := map[string]store.Vote{}
	if viewerID != "" {
		history, err := s.store.History(ctx, viewerID)
		if err != nil {
			return nil, internal("vote_store", "Unable to load votes", err)
		}
		for _, h := range history {
			votes[h.Vote.ClipID] = h.Vote
		}
	}

	out := make([]ClipView, 0, len(clips))
	for _, c := range clips {
		var vote *store.Vote
		if v, ok := votes[c.ID]; ok {
			vote = &v
		}
		out = append(out, s.view(c, viewerID, vote))
	}

	return out, nil
}

// UnvotedClips lists clips of a game that userID neither submitted nor voted on.
func (s *Service) UnvotedClips(ctx context.Context, game, userID string, limit int) ([]ClipView, error) {
	g, err := s.game(game)
	if err != nil {
		return nil, err
	}

	clips, err := s.store.ListUnvotedClips(ctx, g.ShortTitle, userID, limit)
	if err != nil {
		return nil, internal("clip_store", "Unable to list clips", err)
	}

	out := make([]ClipView, 0, len(clips))
	for _, c := range clips {
		out = append(out, s.view(c, userID, nil))
	}

	return out, nil
}

// NextClip returns the newest clip userID can still vote on.
func (s *Service) NextClip(ctx context.Context, game, userID string) (ClipView, error) {
	clips, err := s.UnvotedClips(ctx, game, userID, 1)
	if err != nil {
		return ClipView{}, err
	}

	if len(clips) == 0 {
		return ClipView{}, notFound("no_clips", "No clips left to vote on")
	}

	return clips[0], nil
}
