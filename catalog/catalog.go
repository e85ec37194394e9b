/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package catalog holds the supported games and their rank tiers.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Seednode/wrongdle/ranks"
	"gopkg.in/yaml.v3"
)

//go:embed games.yaml
var defaultCatalog []byte

type Rank struct {
	Name   string `json:"name" yaml:"name"`
	MinElo int    `json:"min_elo" yaml:"min_elo"`
	MaxElo int    `json:"max_elo" yaml:"max_elo"`
}

func (r Rank) Range() ranks.RankRange {
	return ranks.RankRange{MinElo: r.MinElo, MaxElo: r.MaxElo}
}

type Game struct {
	Title      string `json:"title" yaml:"title"`
	ShortTitle string `json:"short_title" yaml:"short_title"`
	Ranks      []Rank `json:"ranks" yaml:"ranks"`
}

// Rank looks up a tier by name, ignoring case.
func (g Game) Rank(name string) (Rank, bool) {
	for _, r := range g.Ranks {
		if strings.EqualFold(r.Name, name) {
			return r, true
		}
	}

	return Rank{}, false
}

// Catalog is read-only once loaded.
type Catalog struct {
	Games []Game `json:"games" yaml:"games"`
}

func (c *Catalog) Game(shortTitle string) (Game, bool) {
	for _, g := range c.Games {
		if strings.EqualFold(g.ShortTitle, shortTitle) {
			return g, true
		}
	}

	return Game{}, false
}

// Range resolves a rank of a game to its elo band.
func (c *Catalog) Range(shortTitle, rank string) (ranks.RankRange, bool) {
	g, ok := c.Game(shortTitle)
	if !ok {
		return ranks.RankRange{}, false
	}

	r, ok := g.Rank(rank)
	if !ok {
		return ranks.RankRange{}, false
	}

	return r.Range(), true
}

func (c *Catalog) ShortTitles() []string {
	out := make([]string, 0, len(c.Games))
	for _, g := range c.Games {
		out = append(out, g.ShortTitle)
	}

	return out
}

// Validate reports every problem found in the catalog at once.
func (c *Catalog) Validate() error {
	var errs []error

	if len(c.Games) == 0 {
		errs = append(errs, errors.New("catalog contains no games"))
	}

	seenGames := make(map[string]bool, len(c.Games))

	for i, g := range c.Games {
		key := strings.ToLower(g.ShortTitle)

		switch {
		case g.ShortTitle == "":
			errs = append(errs, fmt.Errorf("game %d has no short title", i))
		case seenGames[key]:
			errs = append(errs, fmt.Errorf("duplicate game %q", g.ShortTitle))
		}
		seenGames[key] = true

		if strings.TrimSpace(g.Title) == "" {
			errs = append(errs, fmt.Errorf("game %q has no title", g.ShortTitle))
		}

		if len(g.Ranks) < 2 {
			errs = append(errs, fmt.Errorf("game %q needs at least two ranks, has %d", g.ShortTitle, len(g.Ranks)))
		}

		seenRanks := make(map[string]bool, len(g.Ranks))

		for j, r := range g.Ranks {
			rkey := strings.ToLower(r.Name)

			switch {
			case strings.TrimSpace(r.Name) == "":
				errs = append(errs, fmt.Errorf("rank %d of %q has no name", j, g.ShortTitle))
			case seenRanks[rkey]:
				errs = append(errs, fmt.Errorf("duplicate rank %q in %q", r.Name, g.ShortTitle))
			}
			seenRanks[rkey] = true

			if r.MinElo < 0 {
				errs = append(errs, fmt.Errorf("rank %q of %q has negative min elo %d", r.Name, g.ShortTitle, r.MinElo))
			}

			if r.MaxElo < r.MinElo {
				errs = append(errs, fmt.Errorf("rank %q of %q has max elo %d < min elo %d", r.Name, g.ShortTitle, r.MaxElo, r.MinElo))
			}

			if j > 0 {
				prev := g.Ranks[j-1]
				// Tiers may share a boundary elo.
				if r.MinElo < prev.MaxElo {
					errs = append(errs, fmt.Errorf("rank %q of %q overlaps %q", r.Name, g.ShortTitle, prev.Name))
				}
			}
		}
	}

	return errors.Join(errs...)
}

func parse(data []byte) (*Catalog, error) {
	c := &Catalog{}

	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	return c, nil
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return parse(defaultCatalog)
}

// Load reads a catalog from path, or returns the built-in one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	return parse(data)
}
