/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/Seednode/wrongdle/catalog"
	"github.com/Seednode/wrongdle/service"
	"github.com/Seednode/wrongdle/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeedService(t *testing.T) (*service.Service, *store.Memory) {
	t.Helper()

	cat, err := catalog.Default()
	require.NoError(t, err)

	st := store.NewMemory()

	return service.New(st, cat, 10), st
}

func TestSeedData(t *testing.T) {
	ctx := context.Background()
	opts := seedOptions{users: 8, clips: 12, votes: 60, seed: 42}

	svc, st := newSeedService(t)

	sum, err := seedData(ctx, svc, opts)
	require.NoError(t, err)

	assert.Equal(t, 8, sum.users)
	assert.Equal(t, 12, sum.clips)
	assert.Equal(t, 60, sum.votes+sum.skipped)
	assert.Positive(t, sum.votes)

	votes, err := st.AllVotes(ctx)
	require.NoError(t, err)
	assert.Len(t, votes, sum.votes)

	report, err := svc.Audit(ctx)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, sum.votes, report.Checked)

	again, _ := newSeedService(t)
	sum2, err := seedData(ctx, again, opts)
	require.NoError(t, err)
	assert.Equal(t, sum, sum2)
}

func TestSeedDataNeedsTwoUsers(t *testing.T) {
	svc, _ := newSeedService(t)

	_, err := seedData(context.Background(), svc, seedOptions{users: 1, clips: 1, votes: 1})
	assert.Error(t, err)
}

func TestPrintAudit(t *testing.T) {
	var buf bytes.Buffer

	printAudit(&buf, service.AuditReport{
		Checked: 3,
		Findings: []service.AuditFinding{{
			Vote:     store.Vote{ID: "v1", ClipID: "c1", Score: 10},
			Expected: 0,
			Reason:   "score mismatch",
		}},
	})

	assert.Contains(t, buf.String(), "vote v1 on clip c1: score mismatch (stored 10, expected 0)")
	assert.Contains(t, buf.String(), "Checked 3 votes, 1 findings")
}

func TestPrintCatalog(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)

	var buf bytes.Buffer
	printCatalog(&buf, cat)

	out := buf.String()
	assert.Contains(t, out, "Counter-Strike: Global Offensive (csgo)")
	assert.Contains(t, out, "Global Elite")
	assert.Contains(t, out, "Apex Legends (apex)")
}
