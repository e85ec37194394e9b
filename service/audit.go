/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package service

import (
	"context"
	"errors"

	"github.com/Seednode/wrongdle/ranks"
	"github.com/Seednode/wrongdle/store"
)

type AuditFinding struct {
	Vote     store.Vote `json:"vote"`
	Expected int        `json:"expected"`
	Reason   string     `json:"reason"`
}

type AuditReport struct {
	Checked  int            `json:"checked"`
	Findings []AuditFinding `json:"findings"`
}

func (r AuditReport) OK() bool {
	return len(r.Findings) == 0
}

// Audit recomputes the score of every stored vote from its clip's current
// ranks and reports votes whose stored score differs or can no longer be
// computed.
func (s *Service) Audit(ctx context.Context) (AuditReport, error) {
	votes, err := s.store.AllVotes(ctx)
	if err != nil {
		return AuditReport{}, internal("vote_store", "Unable to load votes", err)
	}

	report := AuditReport{Findings: []AuditFinding{}}
	clips := make(map[string]store.Clip)

	for _, v := range votes {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		report.Checked++

		c, ok := clips[v.ClipID]
		if !ok {
			c, err = s.store.GetClip(ctx, v.ClipID)
			switch {
			case errors.Is(err, store.ErrNotFound):
				report.Findings = append(report.Findings, AuditFinding{Vote: v, Reason: "clip missing"})
				continue
			case err != nil:
				return report, internal("clip_store", "Unable to load clip", err)
			}
			clips[v.ClipID] = c
		}

		fake, real, err := s.clipRanges(c)
		if err != nil {
			report.Findings = append(report.Findings, AuditFinding{Vote: v, Reason: err.Error()})
			continue
		}

		want := ranks.ComputeVoteScore(ranks.VoteInput{FakeRank: fake, RealRank: real, GuessedHigher: v.GuessedHigher})
		if want != v.Score {
			report.Findings = append(report.Findings, AuditFinding{Vote: v, Expected: want, Reason: "score mismatch"})
		}
	}

	return report, nil
}
