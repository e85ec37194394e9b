/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to dsn and verifies the connection before returning.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Migrate creates any missing tables and indexes.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()

	return nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	return ""
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func (p *Postgres) EnsureUser(ctx context.Context, id, name string) (User, error) {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO users (id, name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`, id, name)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	return p.GetUser(ctx, id)
}

func (p *Postgres) GetUser(ctx context.Context, id string) (User, error) {
	var u User

	err := p.pool.QueryRow(ctx, `
		SELECT id, name, created_at FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Name, &u.CreatedAt)
	if err != nil {
		return User{}, notFound(err)
	}

	return u, nil
}

const clipColumns = `c.id, c.user_id, c.game, c.title, c.yt_url, c.fake_rank, c.real_rank, c.submitted_at, c.updated_at`

func scanClip(row scanner) (Clip, error) {
	var c Clip

	err := row.Scan(&c.ID, &c.UserID, &c.Game, &c.Title, &c.YouTubeURL, &c.FakeRank, &c.RealRank, &c.SubmittedAt, &c.UpdatedAt)

	return c, err
}

func collectClips(rows pgx.Rows) ([]Clip, error) {
	defer rows.Close()

	out := []Clip{}
	for rows.Next() {
		c, err := scanClip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	return out, rows.Err()
}

func (p *Postgres) CreateClip(ctx context.Context, clip Clip) error {
	if clip.SubmittedAt.IsZero() {
		clip.SubmittedAt = time.Now()
	}
	if clip.UpdatedAt.IsZero() {
		clip.UpdatedAt = clip.SubmittedAt
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO video_clips (id, user_id, game, title, yt_url, fake_rank, real_rank, submitted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, clip.ID, clip.UserID, clip.Game, clip.Title, clip.YouTubeURL, clip.FakeRank, clip.RealRank, clip.SubmittedAt, clip.UpdatedAt)
	if pgCode(err) == pgForeignKeyViolation {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("insert clip: %w", err)
	}

	return nil
}

func (p *Postgres) GetClip(ctx context.Context, id string) (Clip, error) {
	c, err := scanClip(p.pool.QueryRow(ctx, `SELECT `+clipColumns+` FROM video_clips c WHERE c.id = $1`, id))
	if err != nil {
		return Clip{}, notFound(err)
	}

	return c, nil
}

// UpdateClip locks the clip row, so votes cannot be inserted between the
// rank check and the update.
func (p *Postgres) UpdateClip(ctx context.Context, clip Clip) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin clip update: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var old Clip

	err = tx.QueryRow(ctx, `
		SELECT fake_rank, real_rank FROM video_clips WHERE id = $1 FOR UPDATE
	`, clip.ID).Scan(&old.FakeRank, &old.RealRank)
	if err != nil {
		return notFound(err)
	}

	if old.FakeRank != clip.FakeRank || old.RealRank != clip.RealRank {
		var voted bool

		err = tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM clip_votes WHERE clip_id = $1)
		`, clip.ID).Scan(&voted)
		if err != nil {
			return fmt.Errorf("check clip votes: %w", err)
		}
		if voted {
			return ErrRanksLocked
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE video_clips
		SET game = $2, title = $3, yt_url = $4, fake_rank = $5, real_rank = $6, updated_at = NOW()
		WHERE id = $1
	`, clip.ID, clip.Game, clip.Title, clip.YouTubeURL, clip.FakeRank, clip.RealRank)
	if err != nil {
		return fmt.Errorf("update clip: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit clip update: %w", err)
	}

	return nil
}

func (p *Postgres) DeleteClip(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM video_clips WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete clip: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (p *Postgres) ListClips(ctx context.Context, game string) ([]Clip, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+clipColumns+`
		FROM video_clips c
		WHERE ($1::text = '' OR c.game = $1)
		ORDER BY c.submitted_at DESC, c.id
	`, game)
	if err != nil {
		return nil, fmt.Errorf("list clips: %w", err)
	}

	return collectClips(rows)
}

func limitArg(limit int) any {
	if limit <= 0 {
		return nil
	}

	return limit
}

func (p *Postgres) ListUnvotedClips(ctx context.Context, game, userID string, limit int) ([]Clip, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+clipColumns+`
		FROM video_clips c
		WHERE ($1::text = '' OR c.game = $1)
		  AND c.user_id <> $2
		  AND NOT EXISTS (
			SELECT 1 FROM clip_votes v WHERE v.clip_id = c.id AND v.user_id = $2
		  )
		ORDER BY c.submitted_at DESC, c.id
		LIMIT $3
	`, game, userID, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("list unvoted clips: %w", err)
	}

	return collectClips(rows)
}

func (p *Postgres) CountClips(ctx context.Context, game string) (int, error) {
	var n int

	err := p.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM video_clips WHERE ($1::text = '' OR game = $1)
	`, game).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count clips: %w", err)
	}

	return n, nil
}

// CreateVote inserts only if the clip row, share-locked against a concurrent
// UpdateClip, still carries the ranks the vote was scored against.
func (p *Postgres) CreateVote(ctx context.Context, vote Vote, scored Clip) error {
	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = time.Now()
	}

	tag, err := p.pool.Exec(ctx, `
		INSERT INTO clip_votes (id, user_id, clip_id, guessed_higher, score, created_at)
		SELECT $1::text, $2::text, c.id, $4::boolean, $5::integer, $6::timestamptz
		FROM (
			SELECT id FROM video_clips
			WHERE id = $3 AND fake_rank = $7 AND real_rank = $8
			FOR SHARE
		) c
	`, vote.ID, vote.UserID, vote.ClipID, vote.GuessedHigher, vote.Score, vote.CreatedAt, scored.FakeRank, scored.RealRank)

	switch pgCode(err) {
	case pgUniqueViolation:
		return ErrDuplicateVote
	case pgForeignKeyViolation:
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("insert vote: %w", err)
	}

	if tag.RowsAffected() == 0 {
		if _, err := p.GetClip(ctx, vote.ClipID); err != nil {
			return err
		}

		return ErrClipChanged
	}

	return nil
}

const voteColumns = `v.id, v.user_id, v.clip_id, v.guessed_higher, v.score, v.created_at`

func scanVote(row scanner) (Vote, error) {
	var v Vote

	err := row.Scan(&v.ID, &v.UserID, &v.ClipID, &v.GuessedHigher, &v.Score, &v.CreatedAt)

	return v, err
}

func collectVotes(rows pgx.Rows) ([]Vote, error) {
	defer rows.Close()

	out := []Vote{}
	for rows.Next() {
		v, err := scanVote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}

	return out, rows.Err()
}

func (p *Postgres) GetVote(ctx context.Context, userID, clipID string) (Vote, error) {
	v, err := scanVote(p.pool.QueryRow(ctx, `
		SELECT `+voteColumns+` FROM clip_votes v WHERE v.user_id = $1 AND v.clip_id = $2
	`, userID, clipID))
	if err != nil {
		return Vote{}, notFound(err)
	}

	return v, nil
}

func (p *Postgres) ListVotes(ctx context.Context, clipID string) ([]Vote, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+voteColumns+` FROM clip_votes v WHERE v.clip_id = $1 ORDER BY v.created_at DESC, v.id
	`, clipID)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}

	return collectVotes(rows)
}

func (p *Postgres) AllVotes(ctx context.Context) ([]Vote, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+voteColumns+` FROM clip_votes v ORDER BY v.created_at DESC, v.id
	`)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}

	return collectVotes(rows)
}

func (p *Postgres) History(ctx context.Context, userID string) ([]HistoryEntry, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+voteColumns+`, `+clipColumns+`
		FROM clip_votes v
		JOIN video_clips c ON c.id = v.clip_id
		WHERE v.user_id = $1
		ORDER BY v.created_at DESC, v.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	out := []HistoryEntry{}
	for rows.Next() {
		var e HistoryEntry

		err := rows.Scan(
			&e.Vote.ID, &e.Vote.UserID, &e.Vote.ClipID, &e.Vote.GuessedHigher, &e.Vote.Score, &e.Vote.CreatedAt,
			&e.Clip.ID, &e.Clip.UserID, &e.Clip.Game, &e.Clip.Title, &e.Clip.YouTubeURL,
			&e.Clip.FakeRank, &e.Clip.RealRank, &e.Clip.SubmittedAt, &e.Clip.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}

	return out, rows.Err()
}

func (p *Postgres) TotalScore(ctx context.Context, userID, game string) (int, error) {
	var total int

	err := p.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(v.score), 0)
		FROM clip_votes v
		JOIN video_clips c ON c.id = v.clip_id
		WHERE v.user_id = $1 AND ($2::text = '' OR c.game = $2)
	`, userID, game).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total score: %w", err)
	}

	return total, nil
}

func (p *Postgres) CountVotedClips(ctx context.Context, game, userID string) (int, error) {
	var n int

	err := p.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM clip_votes v
		JOIN video_clips c ON c.id = v.clip_id
		WHERE v.user_id = $1 AND ($2::text = '' OR c.game = $2)
	`, userID, game).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count voted clips: %w", err)
	}

	return n, nil
}

func (p *Postgres) Leaderboard(ctx context.Context, q LeaderboardQuery) ([]LeaderboardEntry, error) {
	var since any
	if !q.Since.IsZero() {
		since = q.Since
	}

	rows, err := p.pool.Query(ctx, `
		WITH scores AS (
			SELECT v.user_id, SUM(v.score) AS score, COUNT(*) AS votes
			FROM clip_votes v
			JOIN video_clips c ON c.id = v.clip_id
			WHERE ($1::text = '' OR c.game = $1)
			  AND ($2::timestamptz IS NULL OR v.created_at >= $2)
			GROUP BY v.user_id
		)
		SELECT
			ROW_NUMBER() OVER (ORDER BY s.score DESC, u.name, u.id) AS rank,
			u.id,
			u.name,
			s.score,
			s.votes
		FROM scores s
		JOIN users u ON u.id = s.user_id
		ORDER BY rank
		LIMIT $3
	`, q.Game, since, limitArg(q.Limit))
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	out := []LeaderboardEntry{}
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Rank, &e.UserID, &e.UserName, &e.Score, &e.Votes); err != nil {
			return nil, err
		}
		out = append(out, e)
	}

	return out, rows.Err()
}
