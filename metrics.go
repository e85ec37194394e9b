/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"

	"github.com/Seednode/wrongdle/ranks"
	"github.com/Seednode/wrongdle/store"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	votes     *prometheus.CounterVec
	clips     *prometheus.CounterVec
	liveFeeds prometheus.Gauge
	liveConns prometheus.Gauge
}

func newMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wrongdle",
			Name:      "votes_total",
			Help:      "Votes cast, by game and whether the guess was correct.",
		}, []string{"game", "outcome"}),
		clips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wrongdle",
			Name:      "clips_submitted_total",
			Help:      "Clips submitted, by game.",
		}, []string{"game"}),
		liveFeeds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wrongdle",
			Name:      "live_feeds",
			Help:      "Clips with an open live vote feed.",
		}),
		liveConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wrongdle",
			Name:      "live_connections",
			Help:      "Open websocket connections.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.votes,
		m.clips,
		m.liveFeeds,
		m.liveConns,
	)

	return m
}

func (m *Metrics) VoteCast(clip store.Clip, vote store.Vote) {
	outcome := "incorrect"
	if ranks.Correct(vote.Score) {
		outcome = "correct"
	}

	m.votes.WithLabelValues(clip.Game, outcome).Inc()
}

func (m *Metrics) ClipSubmitted(game string) {
	m.clips.WithLabelValues(game).Inc()
}

func registerMetrics(cfg *Config, m *Metrics, mux *httprouter.Router) {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})

	mux.GET(cfg.prefix+"/metrics", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		h.ServeHTTP(w, r)
	})
}
