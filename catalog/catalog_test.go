/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Seednode/wrongdle/ranks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"csgo", "apex"}, c.ShortTitles())

	g, ok := c.Game("CSGO")
	require.True(t, ok)
	assert.Equal(t, "Counter-Strike: Global Offensive", g.Title)
	assert.Len(t, g.Ranks, 7)

	r, ok := g.Rank("gold nova")
	require.True(t, ok)
	assert.Equal(t, ranks.RankRange{MinElo: 7, MaxElo: 10}, r.Range())

	rr, ok := c.Range("apex", "Predator")
	require.True(t, ok)
	assert.Equal(t, ranks.RankRange{MinElo: 31, MaxElo: 31}, rr)

	_, ok = c.Range("apex", "Global Elite")
	assert.False(t, ok)

	_, ok = c.Game("valorant")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		catalog Catalog
		wantErr []string
	}{
		{
			name:    "empty",
			catalog: Catalog{},
			wantErr: []string{"no games"},
		},
		{
			name: "inverted rank",
			catalog: Catalog{Games: []Game{{
				Title: "Test", ShortTitle: "test",
				Ranks: []Rank{{Name: "Low", MinElo: 1, MaxElo: 2}, {Name: "High", MinElo: 9, MaxElo: 4}},
			}}},
			wantErr: []string{"max elo 4 < min elo 9"},
		},
		{
			name: "overlap and duplicates",
			catalog: Catalog{Games: []Game{
				{
					Title: "Test", ShortTitle: "test",
					Ranks: []Rank{{Name: "A", MinElo: 1, MaxElo: 5}, {Name: "a", MinElo: 4, MaxElo: 8}},
				},
				{
					Title: "Again", ShortTitle: "TEST",
					Ranks: []Rank{{Name: "Only", MinElo: 1, MaxElo: 1}},
				},
			}},
			wantErr: []string{"duplicate rank", "overlaps", "duplicate game", "at least two ranks"},
		},
		{
			name: "valid touching tiers",
			catalog: Catalog{Games: []Game{{
				Title: "Test", ShortTitle: "test",
				Ranks: []Rank{{Name: "A", MinElo: 2, MaxElo: 3}, {Name: "B", MinElo: 3, MaxElo: 5}},
			}}},
		},
		{
			name: "valid with gap",
			catalog: Catalog{Games: []Game{{
				Title: "Test", ShortTitle: "test",
				Ranks: []Rank{{Name: "A", MinElo: 1, MaxElo: 2}, {Name: "B", MinElo: 10, MaxElo: 12}},
			}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.catalog.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
games:
  - title: Rocket League
    short_title: rl
    ranks:
      - { name: Bronze, min_elo: 0, max_elo: 9 }
      - { name: Silver, min_elo: 10, max_elo: 19 }
`), 0o644))

	c, err := Load(good)
	require.NoError(t, err)
	assert.Equal(t, []string{"rl"}, c.ShortTitles())

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("games: ["), 0o644))

	_, err = Load(bad)
	assert.ErrorContains(t, err, "parse catalog")

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "read catalog")

	c, err = Load("")
	require.NoError(t, err)
	assert.Len(t, c.Games, 2)
}
