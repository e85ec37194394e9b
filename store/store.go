/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package store persists users, clips and votes.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateVote = errors.New("vote already recorded for this clip")
	ErrRanksLocked   = errors.New("clip ranks cannot change after votes are recorded")
	ErrClipChanged   = errors.New("clip ranks changed since the vote was scored")
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Clip references its ranks by name; the catalog resolves them to elo bands.
type Clip struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Game        string    `json:"game"`
	Title       string    `json:"title"`
	YouTubeURL  string    `json:"youtube_url"`
	FakeRank    string    `json:"fake_rank"`
	RealRank    string    `json:"real_rank"`
	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Vote struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	ClipID        string    `json:"clip_id"`
	GuessedHigher bool      `json:"guessed_higher"`
	Score         int       `json:"score"`
	CreatedAt     time.Time `json:"created_at"`
}

type HistoryEntry struct {
	Vote Vote `json:"vote"`
	Clip Clip `json:"clip"`
}

type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Score    int    `json:"score"`
	Votes    int    `json:"votes"`
}

// LeaderboardQuery selects which votes count towards a leaderboard. An empty
// Game covers every game and a zero Since covers all time.
type LeaderboardQuery struct {
	Game  string
	Since time.Time
	Limit int
}

// Store is implemented by Memory and Postgres. Game filters are short titles;
// an empty game matches every game.
type Store interface {
	EnsureUser(ctx context.Context, id, name string) (User, error)
	GetUser(ctx context.Context, id string) (User, error)

	CreateClip(ctx context.Context, clip Clip) error
	GetClip(ctx context.Context, id string) (Clip, error)
	// UpdateClip returns ErrRanksLocked when clip changes the ranks of a clip
	// that already has votes.
	UpdateClip(ctx context.Context, clip Clip) error
	DeleteClip(ctx context.Context, id string) error
	ListClips(ctx context.Context, game string) ([]Clip, error)
	ListUnvotedClips(ctx context.Context, game, userID string, limit int) ([]Clip, error)
	CountClips(ctx context.Context, game string) (int, error)

	// CreateVote stores vote only while the clip still has the ranks of
	// scored, the version its score was computed from, and returns
	// ErrClipChanged otherwise.
	CreateVote(ctx context.Context, vote Vote, scored Clip) error
	GetVote(ctx context.Context, userID, clipID string) (Vote, error)
	ListVotes(ctx context.Context, clipID string) ([]Vote, error)
	AllVotes(ctx context.Context) ([]Vote, error)
	History(ctx context.Context, userID string) ([]HistoryEntry, error)
	TotalScore(ctx context.Context, userID, game string) (int, error)
	CountVotedClips(ctx context.Context, game, userID string) (int, error)

	Leaderboard(ctx context.Context, q LeaderboardQuery) ([]LeaderboardEntry, error)

	Close() error
}
