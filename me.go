/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"time"

	"github.com/Seednode/wrongdle/service"
	"github.com/julienschmidt/httprouter"
)

type scoreResponse struct {
	Game  string `json:"game,omitempty"`
	Score int    `json:"score"`
}

func serveMe(cfg *Config, svc *service.Service, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		user, err := currentUser(w, r, svc)
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		stats, err := svc.Stats(r.Context(), user.ID)
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		respond(cfg, w, r, errs, startTime, http.StatusOK, stats)
	}
}

func serveHistory(cfg *Config, svc *service.Service, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		user, err := currentUser(w, r, svc)
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		history, err := svc.History(r.Context(), user.ID)
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		respond(cfg, w, r, errs, startTime, http.StatusOK, history)
	}
}

// serveScore sums the caller's scores, limited to ?game= when given.
func serveScore(cfg *Config, svc *service.Service, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		user, err := currentUser(w, r, svc)
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		game := r.URL.Query().Get("game")

		total, err := svc.TotalScore(r.Context(), user.ID, game)
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		respond(cfg, w, r, errs, startTime, http.StatusOK, scoreResponse{Game: game, Score: total})
	}
}

func registerMe(cfg *Config, svc *service.Service, errs chan<- error, mux *httprouter.Router) {
	mux.GET(cfg.prefix+"/api/me", serveMe(cfg, svc, errs))
	mux.GET(cfg.prefix+"/api/me/history", serveHistory(cfg, svc, errs))
	mux.GET(cfg.prefix+"/api/me/score", serveScore(cfg, svc, errs))
}
