/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Seednode/wrongdle/catalog"
	"github.com/Seednode/wrongdle/service"
	"github.com/Seednode/wrongdle/store"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

var (
	alice = strings.Repeat("a", 32)
	bob   = strings.Repeat("b", 32)
)

const clipURL = "https://www.youtube.com/watch?v=QTK_bC00ilg"

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

type testEnv struct {
	cfg     *Config
	svc     *service.Service
	metrics *Metrics
	mux     *httprouter.Router
}

func newTestEnv(t *testing.T, mutate ...func(*Config)) *testEnv {
	t.Helper()

	cfg := &Config{
		leaderboardRefresh: "@every 1m",
		leaderboardSize:    10,
		metrics:            true,
		port:               8080,
		sessionTimeout:     time.Minute,
		voteBurst:          100,
		voteRate:           100,
	}
	for _, m := range mutate {
		m(cfg)
	}

	cat, err := catalog.Default()
	require.NoError(t, err)

	svc := service.New(store.NewMemory(), cat, cfg.leaderboardSize)

	metrics := newMetrics()
	svc.Subscribe(metrics)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	lm := newLiveManager(svc, metrics, cfg.sessionTimeout)
	lm.start(ctx)

	errs := make(chan error, 64)
	limiter := newIPLimiter(rate.Limit(cfg.voteRate), cfg.voteBurst)

	return &testEnv{
		cfg:     cfg,
		svc:     svc,
		metrics: metrics,
		mux:     newRouter(cfg, svc, metrics, lm, limiter, errs),
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, player string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if player != "" {
		req.AddCookie(&http.Cookie{Name: playerCookieName, Value: player})
	}

	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) envelope[T] {
	t.Helper()

	var out envelope[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())

	return out
}

func (e *testEnv) createClip(t *testing.T, player string, fake, real string) service.ClipView {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/clips", service.ClipInput{
		Game:       "csgo",
		Title:      "Clutch on Mirage",
		YouTubeURL: clipURL,
		FakeRank:   fake,
		RealRank:   real,
	}, player)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	return decode[service.ClipView](t, rec).Data
}

func TestClipVoteFlow(t *testing.T) {
	env := newTestEnv(t)

	clip := env.createClip(t, alice, "Silver", "Global Elite")
	assert.NotEmpty(t, clip.ID)
	assert.True(t, clip.Owner)
	assert.Equal(t, "Global Elite", clip.RealRank)
	assert.Equal(t, "https://www.youtube-nocookie.com/embed/QTK_bC00ilg", clip.EmbedURL)

	rec := env.do(t, http.MethodGet, "/api/clips/"+clip.ID, nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	hidden := decode[service.ClipView](t, rec).Data
	assert.Empty(t, hidden.RealRank)
	assert.Nil(t, hidden.RealRange)

	rec = env.do(t, http.MethodPost, "/api/clips/"+clip.ID+"/vote", `{"guessed_higher":true}`, bob)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	result := decode[service.VoteResult](t, rec).Data
	assert.True(t, result.Correct)
	assert.Equal(t, 10, result.Vote.Score)
	assert.Equal(t, "Global Elite", result.RealRank)

	rec = env.do(t, http.MethodPost, "/api/clips/"+clip.ID+"/vote", `{"guessed_higher":false}`, bob)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_voted", decode[any](t, rec).Code)

	rec = env.do(t, http.MethodPost, "/api/clips/"+clip.ID+"/vote", `{"guessed_higher":true}`, alice)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "own_clip", decode[any](t, rec).Code)

	rec = env.do(t, http.MethodPost, "/api/clips/missing/vote", `{"guessed_higher":true}`, bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "clip_not_found", decode[any](t, rec).Code)

	rec = env.do(t, http.MethodGet, "/api/clips/"+clip.ID, nil, bob)
	assert.Equal(t, "Global Elite", decode[service.ClipView](t, rec).Data.RealRank)

	rec = env.do(t, http.MethodGet, "/api/clips/"+clip.ID+"/vote", nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[store.Vote](t, rec).Data.GuessedHigher)

	rec = env.do(t, http.MethodGet, "/api/me/score", nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, decode[scoreResponse](t, rec).Data.Score)

	rec = env.do(t, http.MethodGet, "/api/me/history", nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]service.HistoryItem](t, rec).Data
	require.Len(t, history, 1)
	assert.Equal(t, clip.ID, history[0].Clip.ID)

	rec = env.do(t, http.MethodGet, "/api/clips/"+clip.ID+"/tally", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	tally := decode[service.Tally](t, rec).Data
	assert.Equal(t, 1, tally.Higher)
	assert.Equal(t, 1, tally.Total)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.votes.WithLabelValues("csgo", "correct")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.clips.WithLabelValues("csgo")))
}

func TestNewPlayerGetsCookie(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/me", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, playerCookieName, cookies[0].Name)
	assert.True(t, validPlayerID(cookies[0].Value))

	stats := decode[service.UserStats](t, rec).Data
	assert.Equal(t, cookies[0].Value, stats.User.ID)
	assert.NotEmpty(t, stats.User.Name)
	assert.Len(t, stats.Games, 2)
}

func TestClipRequestErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"unknown field", http.MethodPost, "/api/clips", `{"nope":1}`, http.StatusBadRequest, "invalid_body"},
		{"bad url", http.MethodPost, "/api/clips", service.ClipInput{
			Game: "csgo", Title: "t", YouTubeURL: "https://vimeo.com/1", FakeRank: "Silver", RealRank: "Gold Nova",
		}, http.StatusBadRequest, "invalid_url"},
		{"unknown game", http.MethodPost, "/api/clips", service.ClipInput{
			Game: "chess", Title: "t", YouTubeURL: clipURL, FakeRank: "Silver", RealRank: "Gold Nova",
		}, http.StatusNotFound, "game_not_found"},
		{"same rank", http.MethodPost, "/api/clips", service.ClipInput{
			Game: "csgo", Title: "t", YouTubeURL: clipURL, FakeRank: "Silver", RealRank: "silver",
		}, http.StatusBadRequest, "same_rank"},
		{"missing guess", http.MethodPost, "/api/clips/whatever/vote", `{}`, http.StatusBadRequest, "invalid_body"},
		{"missing clip", http.MethodGet, "/api/clips/whatever", nil, http.StatusNotFound, "clip_not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, tt.body, alice)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())

			body := decode[any](t, rec)
			assert.False(t, body.Success)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestUpdateAndDeleteClipOwnership(t *testing.T) {
	env := newTestEnv(t)

	clip := env.createClip(t, alice, "Silver", "Gold Nova")

	rec := env.do(t, http.MethodPatch, "/api/clips/"+clip.ID, `{"title":"Renamed"}`, bob)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "not_owner", decode[any](t, rec).Code)

	rec = env.do(t, http.MethodPatch, "/api/clips/"+clip.ID, `{"title":"Renamed"}`, alice)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Renamed", decode[service.ClipView](t, rec).Data.Title)

	rec = env.do(t, http.MethodDelete, "/api/clips/"+clip.ID, nil, bob)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/clips/"+clip.ID, nil, alice)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/clips/"+clip.ID, nil, alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGameRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/games", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]gameSummary](t, rec).Data, 2)

	rec = env.do(t, http.MethodGet, "/api/games/chess", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/games/csgo/ranks", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]catalog.Rank](t, rec).Data, 7)

	rec = env.do(t, http.MethodGet, "/api/games/csgo/next", nil, bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no_clips", decode[any](t, rec).Code)

	clip := env.createClip(t, alice, "Silver", "Gold Nova")

	rec = env.do(t, http.MethodGet, "/api/games/csgo/next", nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, clip.ID, decode[service.ClipView](t, rec).Data.ID)

	rec = env.do(t, http.MethodGet, "/api/games/csgo/unvoted?limit=0", nil, bob)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/games/csgo/unvoted?limit=5", nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]service.ClipView](t, rec).Data, 1)

	rec = env.do(t, http.MethodGet, "/api/games/csgo/clips", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]service.ClipView](t, rec).Data, 1)

	rec = env.do(t, http.MethodPost, "/api/clips/"+clip.ID+"/vote", `{"guessed_higher":false}`, bob)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/games/csgo/progress", nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	progress := decode[service.Progress](t, rec).Data
	assert.Equal(t, service.Progress{Game: "csgo", Clips: 1, Voted: 1, Score: 0}, progress)
}

func TestLeaderboardRoutes(t *testing.T) {
	env := newTestEnv(t)

	clip := env.createClip(t, alice, "Silver", "Gold Nova")
	rec := env.do(t, http.MethodPost, "/api/clips/"+clip.ID+"/vote", `{"guessed_higher":true}`, bob)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/leaderboard?period=fortnightly", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_period", decode[any](t, rec).Code)

	rec = env.do(t, http.MethodGet, "/api/games/csgo/leaderboard?period=weekly", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	board := decode[service.Board](t, rec).Data
	require.Len(t, board.Entries, 1)
	assert.Equal(t, bob, board.Entries[0].UserID)
	assert.Equal(t, 10, board.Entries[0].Score)

	rec = env.do(t, http.MethodGet, "/api/games/apex/leaderboard", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[service.Board](t, rec).Data.Entries)
}

func TestRateLimitedSubmissions(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.voteRate = 0.001
		c.voteBurst = 1
	})

	env.createClip(t, alice, "Silver", "Gold Nova")

	rec := env.do(t, http.MethodPost, "/api/clips", service.ClipInput{
		Game: "csgo", Title: "again", YouTubeURL: clipURL, FakeRank: "Silver", RealRank: "Gold Nova",
	}, alice)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limited", decode[any](t, rec).Code)
}

func TestQRCode(t *testing.T) {
	env := newTestEnv(t)

	clip := env.createClip(t, alice, "Silver", "Gold Nova")

	rec := env.do(t, http.MethodGet, "/clips/"+clip.ID+"/qr", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = env.do(t, http.MethodGet, "/clips/missing/qr", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShareURL(t *testing.T) {
	cfg := &Config{prefix: "/wd"}

	req := httptest.NewRequest(http.MethodGet, "http://example.com/wd/clips/x/qr", nil)
	assert.Equal(t, "http://example.com/wd/clips/abc", shareURL(cfg, req, "abc"))

	req.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "http://example.com/wd/clips/abc", shareURL(cfg, req, "abc"))

	cfg.trustedProxy = true
	assert.Equal(t, "https://example.com/wd/clips/abc", shareURL(cfg, req, "abc"))

	cfg.publicURL = "https://wrongdle.example.org/"
	req.Host = "attacker.example.net"
	assert.Equal(t, "https://wrongdle.example.org/wd/clips/abc", shareURL(cfg, req, "abc"))
}

func TestSharedLinkResolves(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.publicURL = "https://wrongdle.example.org" })

	clip := env.createClip(t, alice, "Silver", "Gold Nova")

	link := shareURL(env.cfg, httptest.NewRequest(http.MethodGet, "/", nil), clip.ID)
	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "wrongdle.example.org", u.Host)

	rec := env.do(t, http.MethodGet, u.Path, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Silver")
	assert.NotContains(t, rec.Body.String(), "Gold Nova")

	rec = env.do(t, http.MethodGet, u.Path, nil, alice)
	assert.Contains(t, rec.Body.String(), "Gold Nova")

	rec = env.do(t, http.MethodGet, "/clips/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlainRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/version", nil, "")
	assert.Equal(t, "wrongdle v"+releaseVersion+"\n", rec.Body.String())

	rec = env.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, "Ok\n", rec.Body.String())

	rec = env.do(t, http.MethodGet, "/robots.txt", nil, "")
	assert.Contains(t, rec.Body.String(), "Disallow: /api/")

	rec = env.do(t, http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Apex Legends")

	rec = env.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestPrefixedRoutes(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.prefix = "/wrongdle"
		c.metrics = false
	})

	rec := env.do(t, http.MethodGet, "/wrongdle/api/games", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/games", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/wrongdle/metrics", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
