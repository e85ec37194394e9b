/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Seednode/wrongdle/catalog"
	"github.com/Seednode/wrongdle/service"
	"github.com/julienschmidt/httprouter"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type gameSummary struct {
	Title      string `json:"title"`
	ShortTitle string `json:"short_title"`
	Ranks      int    `json:"ranks"`
}

func listLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, badInput("limit must be a positive integer")
	}

	return min(n, maxListLimit), nil
}

func serveGames(cfg *Config, svc *service.Service, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		games := svc.Catalog().Games

		out := make([]gameSummary, 0, len(games))
		for _, g := range games {
			out = append(out, gameSummary{Title: g.Title, ShortTitle: g.ShortTitle, Ranks: len(g.Ranks)})
		}

		respond(cfg, w, r, errs, startTime, http.StatusOK, out)
	}
}

func serveGame(cfg *Config, svc *service.Service, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		g, err := svc.Game(ps.ByName("game"))
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		respond(cfg, w, r, errs, startTime, http.StatusOK, g)
	}
}

func serveGameRanks(cfg *Config, svc *service.Service, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		g, err := svc.Game(ps.ByName("game"))
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		out := g.Ranks
		if out == nil {
			out = []catalog.Rank{}
		}

		respond(cfg, w, r, errs, startTime, http.StatusOK, out)
	}
}

func serveGameClips(cfg *Config, svc *service.Service, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		clips, err := svc.Clips(r.Context(), viewerID(r), ps.ByName("game"))
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		respond(cfg, w, r, errs, startTime, http.StatusOK, clips)
	}
}

func serveUnvotedClips(cfg *Config, svc *service.Service, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		limit, err := listLimit(r)
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		user, err := currentUser(w, r, svc)
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		clips, err := svc.UnvotedClips(r.Context(), ps.ByName("game"), user.ID, limit)
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		respond(cfg, w, r, errs, startTime, http.StatusOK, clips)
	}
}

func serveNextClip(cfg *Config, svc *service.Service, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		user, err := currentUser(w, r, svc)
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		clip, err := svc.NextClip(r.Context(), ps.ByName("game"), user.ID)
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		respond(cfg, w, r, errs, startTime, http.StatusOK, clip)
	}
}

func serveProgress(cfg *Config, svc *service.Service, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		user, err := currentUser(w, r, svc)
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		p, err := svc.Progress(r.Context(), ps.ByName("game"), user.ID)
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		respond(cfg, w, r, errs, startTime, http.StatusOK, p)
	}
}

// serveLeaderboard serves the global board, or a single game's board when
// the route has a :game parameter.
func serveLeaderboard(cfg *Config, svc *service.Service, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		period, err := service.ParsePeriod(r.URL.Query().Get("period"))
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		board, err := svc.Leaderboard(r.Context(), ps.ByName("game"), period)
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		respond(cfg, w, r, errs, startTime, http.StatusOK, board)
	}
}

func registerGames(cfg *Config, svc *service.Service, errs chan<- error, mux *httprouter.Router) {
	mux.GET(cfg.prefix+"/api/games", serveGames(cfg, svc, errs))
	mux.GET(cfg.prefix+"/api/games/:game", serveGame(cfg, svc, errs))
	mux.GET(cfg.prefix+"/api/games/:game/ranks", serveGameRanks(cfg, svc, errs))
	mux.GET(cfg.prefix+"/api/games/:game/clips", serveGameClips(cfg, svc, errs))
	mux.GET(cfg.prefix+"/api/games/:game/unvoted", serveUnvotedClips(cfg, svc, errs))
	mux.GET(cfg.prefix+"/api/games/:game/next", serveNextClip(cfg, svc, errs))
	mux.GET(cfg.prefix+"/api/games/:game/progress", serveProgress(cfg, svc, errs))
	mux.GET(cfg.prefix+"/api/games/:game/leaderboard", serveLeaderboard(cfg, svc, errs))
	mux.GET(cfg.prefix+"/api/leaderboard", serveLeaderboard(cfg, svc, errs))
}
