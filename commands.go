/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Seednode/wrongdle/catalog"
	"github.com/Seednode/wrongdle/service"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type seedOptions struct {
	users int
	clips int
	votes int
	seed  int64
}

type seedSummary struct {
	users   int
	clips   int
	votes   int
	skipped int
}

// seedData fills svc with generated players, clips and votes. The same seed
// always produces the same data.
func seedData(ctx context.Context, svc *service.Service, opts seedOptions) (seedSummary, error) {
	var sum seedSummary

	if opts.users < 2 {
		return sum, errors.New("at least 2 users are needed to seed votes")
	}

	faker := gofakeit.New(uint64(opts.seed))
	games := svc.Catalog().Games

	userIDs := make([]string, 0, opts.users)
	for range opts.users {
		id := strings.ReplaceAll(faker.UUID(), "-", "")

		u, err := svc.EnsureUser(ctx, id, faker.Username())
		if err != nil {
			return sum, err
		}
		userIDs = append(userIDs, u.ID)
		sum.users++
	}

	clipIDs := make([]string, 0, opts.clips)
	for range opts.clips {
		g := games[faker.Number(0, len(games)-1)]

		fake := faker.Number(0, len(g.Ranks)-1)
		actual := faker.Number(0, len(g.Ranks)-2)
		if actual >= fake {
			actual++
		}

		clip, err := svc.CreateClip(ctx, faker.RandomString(userIDs), service.ClipInput{
			Game:       g.ShortTitle,
			Title:      strings.TrimSuffix(faker.Sentence(faker.Number(2, 6)), "."),
			YouTubeURL: "https://www.youtube.com/watch?v=" + faker.Lexify("???????????"),
			FakeRank:   g.Ranks[fake].Name,
			RealRank:   g.Ranks[actual].Name,
		})
		if err != nil {
			return sum, err
		}
		clipIDs = append(clipIDs, clip.ID)
		sum.clips++
	}

	if len(clipIDs) == 0 {
		return sum, nil
	}

	for range opts.votes {
		_, err := svc.CastVote(ctx, faker.RandomString(userIDs), faker.RandomString(clipIDs), faker.Bool())
		switch kind := service.KindOf(err); {
		case err == nil:
			sum.votes++
		case kind == service.KindConflict, kind == service.KindUnauthorized:
			sum.skipped++
		default:
			return sum, err
		}
	}

	return sum, nil
}

func newSeedCmd(cfg *Config, v *viper.Viper) *cobra.Command {
	opts := seedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with generated players, clips and votes.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.databaseURL == "" {
				return errors.New("seed requires --database-url")
			}

			svc, st, err := openBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			startTime := time.Now()

			sum, err := seedData(cmd.Context(), svc, opts)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users, %d clips and %d votes (%d skipped) in %s\n",
				sum.users, sum.clips, sum.votes, sum.skipped,
				time.Since(startTime).Round(time.Millisecond))

			return nil
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(normalize)

	fs.IntVar(&opts.users, "users", 20, "number of players to create (env: WRONGDLE_USERS)")
	fs.IntVar(&opts.clips, "clips", 50, "number of clips to create (env: WRONGDLE_CLIPS)")
	fs.IntVar(&opts.votes, "votes", 300, "number of votes to attempt (env: WRONGDLE_VOTES)")
	fs.Int64Var(&opts.seed, "seed", time.Now().UnixNano(), "random seed (env: WRONGDLE_SEED)")

	bindEnv(v, fs)

	return cmd
}

func printAudit(w io.Writer, report service.AuditReport) {
	for _, f := range report.Findings {
		fmt.Fprintf(w, "vote %s on clip %s: %s (stored %d, expected %d)\n",
			f.Vote.ID, f.Vote.ClipID, f.Reason, f.Vote.Score, f.Expected)
	}

	fmt.Fprintf(w, "Checked %d votes, %d findings\n", report.Checked, len(report.Findings))
}

func newAuditCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Recompute every stored vote score and report mismatches.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := openBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			report, err := svc.Audit(cmd.Context())
			if err != nil {
				return err
			}

			printAudit(cmd.OutOrStdout(), report)

			if !report.OK() {
				return fmt.Errorf("audit found %d inconsistent votes", len(report.Findings))
			}

			return nil
		},
	}
}

func printCatalog(w io.Writer, cat *catalog.Catalog) {
	for _, g := range cat.Games {
		fmt.Fprintf(w, "%s (%s)\n", g.Title, g.ShortTitle)
		for _, r := range g.Ranks {
			fmt.Fprintf(w, "  %-24s %5d - %d\n", r.Name, r.MinElo, r.MaxElo)
		}
	}
}

func newCatalogCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Validate and print the game catalog.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(cfg.catalog)
			if err != nil {
				return err
			}

			printCatalog(cmd.OutOrStdout(), cat)

			return nil
		},
	}
}
