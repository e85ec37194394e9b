/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

type voteKey struct {
	userID string
	clipID string
}

// Memory keeps everything in process. Data is lost on restart.
type Memory struct {
	mu sync.RWMutex

	users map[string]User
	clips map[string]Clip
	votes map[voteKey]Vote
}

func NewMemory() *Memory {
	return &Memory{
		users: make(map[string]User),
		clips: make(map[string]Clip),
		votes: make(map[voteKey]Vote),
	}
}

func (m *Memory) EnsureUser(_ context.Context, id, name string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.users[id]; ok {
		return u, nil
	}

	u := User{ID: id, Name: name, CreatedAt: time.Now()}
	m.users[id] = u

	return u, nil
}

func (m *Memory) GetUser(_ context.Context, id string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}

	return u, nil
}

func (m *Memory) CreateClip(_ context.Context, clip Clip) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[clip.UserID]; !ok {
		return ErrNotFound
	}

	now := time.Now()
	if clip.SubmittedAt.IsZero() {
		clip.SubmittedAt = now
	}
	if clip.UpdatedAt.IsZero() {
		clip.UpdatedAt = clip.SubmittedAt
	}

	m.clips[clip.ID] = clip

	return nil
}

func (m *Memory) GetClip(_ context.Context, id string) (Clip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.clips[id]
	if !ok {
		return Clip{}, ErrNotFound
	}

	return c, nil
}

func (m *Memory) UpdateClip(_ context.Context, clip Clip) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.clips[clip.ID]
	if !ok {
		return ErrNotFound
	}

	if !sameRanks(old, clip) && m.hasVotesLocked(clip.ID) {
		return ErrRanksLocked
	}

	clip.UserID = old.UserID
	clip.SubmittedAt = old.SubmittedAt
	clip.UpdatedAt = time.Now()

	m.clips[clip.ID] = clip

	return nil
}

func (m *Memory) DeleteClip(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clips[id]; !ok {
		return ErrNotFound
	}

	delete(m.clips, id)

	for k := range m.votes {
		if k.clipID == id {
			delete(m.votes, k)
		}
	}

	return nil
}

func sortClips(clips []Clip) {
	sort.Slice(clips, func(i, j int) bool {
		if !clips[i].SubmittedAt.Equal(clips[j].SubmittedAt) {
			return clips[i].SubmittedAt.After(clips[j].SubmittedAt)
		}
		return clips[i].ID < clips[j].ID
	})
}

func (m *Memory) ListClips(_ context.Context, game string) ([]Clip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []Clip{}
	for _, c := range m.clips {
		if game == "" || c.Game == game {
			out = append(out, c)
		}
	}
	sortClips(out)

	return out, nil
}

func (m *Memory) ListUnvotedClips(_ context.Context, game, userID string, limit int) ([]Clip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []Clip{}
	for _, c := range m.clips {
		if game != "" && c.Game != game {
			continue
		}
		if c.UserID == userID {
			continue
		}
		if _, voted := m.votes[voteKey{userID, c.ID}]; voted {
			continue
		}
		out = append(out, c)
	}
	sortClips(out)

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (m *Memory) CountClips(_ context.Context, game string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, c := range m.clips {
		if game == "" || c.Game == game {
			n++
		}
	}

	return n, nil
}

func sameRanks(a, b Clip) bool {
	return a.FakeRank == b.FakeRank && a.RealRank == b.RealRank
}

func (m *Memory) hasVotesLocked(clipID string) bool {
	for k := range m.votes {
		if k.clipID == clipID {
			return true
		}
	}

	return false
}

func (m *Memory) CreateVote(_ context.Context, vote Vote, scored Clip) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.clips[vote.ClipID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m.users[vote.UserID]; !ok {
		return ErrNotFound
	}

	if !sameRanks(c, scored) {
		return ErrClipChanged
	}

	k := voteKey{vote.UserID, vote.ClipID}
	if _, exists := m.votes[k]; exists {
		return ErrDuplicateVote
	}

	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = time.Now()
	}
	m.votes[k] = vote

	return nil
}

func (m *Memory) GetVote(_ context.Context, userID, clipID string) (Vote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.votes[voteKey{userID, clipID}]
	if !ok {
		return Vote{}, ErrNotFound
	}

	return v, nil
}

func sortVotes(votes []Vote) {
	sort.Slice(votes, func(i, j int) bool {
		if !votes[i].CreatedAt.Equal(votes[j].CreatedAt) {
			return votes[i].CreatedAt.After(votes[j].CreatedAt)
		}
		return votes[i].ID < votes[j].ID
	})
}

func (m *Memory) ListVotes(_ context.Context, clipID string) ([]Vote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []Vote{}
	for k, v := range m.votes {
		if k.clipID == clipID {
			out = append(out, v)
		}
	}
	sortVotes(out)

	return out, nil
}

func (m *Memory) AllVotes(_ context.Context) ([]Vote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Vote, 0, len(m.votes))
	for _, v := range m.votes {
		out = append(out, v)
	}
	sortVotes(out)

	return out, nil
}

func (m *Memory) History(_ context.Context, userID string) ([]HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	votes := []Vote{}
	for k, v := range m.votes {
		if k.userID == userID {
			votes = append(votes, v)
		}
	}
	sortVotes(votes)

	out := make([]HistoryEntry, 0, len(votes))
	for _, v := range votes {
		out = append(out, HistoryEntry{Vote: v, Clip: m.clips[v.ClipID]})
	}

	return out, nil
}

func (m *Memory) TotalScore(_ context.Context, userID, game string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := 0
	for k, v := range m.votes {
		if k.userID != userID {
			continue
		}
		if game != "" && m.clips[k.clipID].Game != game {
			continue
		}
		total += v.Score
	}

	return total, nil
}

func (m *Memory) CountVotedClips(_ context.Context, game, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for k := range m.votes {
		if k.userID != userID {
			continue
		}
		if game != "" && m.clips[k.clipID].Game != game {
			continue
		}
		n++
	}

	return n, nil
}

func (m *Memory) Leaderboard(_ context.Context, q LeaderboardQuery) ([]LeaderboardEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byUser := make(map[string]*LeaderboardEntry)
	for k, v := range m.votes {
		if q.Game != "" && m.clips[k.clipID].Game != q.Game {
			continue
		}
		if !q.Since.IsZero() && v.CreatedAt.Before(q.Since) {
			continue
		}

		e, ok := byUser[k.userID]
		if !ok {
			e = &LeaderboardEntry{UserID: k.userID, UserName: m.users[k.userID].Name}
			byUser[k.userID] = e
		}
		e.Score += v.Score
		e.Votes++
	}

	out := make([]LeaderboardEntry, 0, len(byUser))
	for _, e := range byUser {
		out = append(out, *e)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].UserName != out[j].UserName {
			return out[i].UserName < out[j].UserName
		}
		return out[i].UserID < out[j].UserID
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}

	for i := range out {
		out[i].Rank = i + 1
	}

	return out, nil
}

func (m *Memory) Close() error {
	return nil
}
