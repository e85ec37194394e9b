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

type voteRequest struct {
	GuessedHigher *bool `json:"guessed_higher"`
}

func serveCreateClip(cfg *Config, svc *service.Service, metrics *Metrics, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		var in service.ClipInput
		if err := decodeJSON(r, &in); err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		user, err := currentUser(w, r, svc)
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		clip, err := svc.CreateClip(r.Context(), user.ID, in)
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		metrics.ClipSubmitted(clip.Game)

		respond(cfg, w, r, errs, startTime, http.StatusCreated, clip)
	}
}

func serveClip(cfg *Config, svc *service.Service, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		clip, err := svc.Clip(r.Context(), viewerID(r), ps.ByName("id"))
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		respond(cfg, w, r, errs, startTime, http.StatusOK, clip)
	}
}

func serveUpdateClip(cfg *Config, svc *service.Service, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		var up service.ClipUpdate
		if err := decodeJSON(r, &up); err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		user, err := currentUser(w, r, svc)
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		clip, err := svc.UpdateClip(r.Context(), user.ID, ps.ByName("id"), up)
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		respond(cfg, w, r, errs, startTime, http.StatusOK, clip)
	}
}

func serveDeleteClip(cfg *Config, svc *service.Service, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		user, err := currentUser(w, r, svc)
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		if err := svc.DeleteClip(r.Context(), user.ID, ps.ByName("id")); err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		respond(cfg, w, r, errs, startTime, http.StatusOK, nil)
	}
}

func serveCastVote(cfg *Config, svc *service.Service, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		var req voteRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}
		if req.GuessedHigher == nil {
			respondError(cfg, w, r, errs, startTime, badInput("guessed_higher is required"))
			return
		}

		user, err := currentUser(w, r, svc)
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		result, err := svc.CastVote(r.Context(), user.ID, ps.ByName("id"), *req.GuessedHigher)
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		respond(cfg, w, r, errs, startTime, http.StatusCreated, result)
	}
}

func serveVote(cfg *Config, svc *service.Service, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		vote, err := svc.Vote(r.Context(), viewerID(r), ps.ByName("id"))
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		respond(cfg, w, r, errs, startTime, http.StatusOK, vote)
	}
}

func serveTally(cfg *Config, svc *service.Service, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		tally, err := svc.Tally(r.Context(), ps.ByName("id"))
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		respond(cfg, w, r, errs, startTime, http.StatusOK, tally)
	}
}

func registerClips(cfg *Config, svc *service.Service, metrics *Metrics, lm *LiveManager, limiter *ipLimiter, errs chan<- error, mux *httprouter.Router) {
	mux.POST(cfg.prefix+"/api/clips", rateLimited(cfg, limiter, errs, serveCreateClip(cfg, svc, metrics, errs)))
	mux.GET(cfg.prefix+"/api/clips/:id", serveClip(cfg, svc, errs))
	mux.PATCH(cfg.prefix+"/api/clips/:id", rateLimited(cfg, limiter, errs, serveUpdateClip(cfg, svc, errs)))
	mux.DELETE(cfg.prefix+"/api/clips/:id", serveDeleteClip(cfg, svc, errs))
	mux.POST(cfg.prefix+"/api/clips/:id/vote", rateLimited(cfg, limiter, errs, serveCastVote(cfg, svc, errs)))
	mux.GET(cfg.prefix+"/api/clips/:id/vote", serveVote(cfg, svc, errs))
	mux.GET(cfg.prefix+"/api/clips/:id/tally", serveTally(cfg, svc, errs))
	mux.GET(cfg.prefix+"/api/clips/:id/live", serveLive(cfg, lm, errs))
	mux.GET(cfg.prefix+"/clips/:id", serveClipPage(cfg, svc, errs))
	mux.GET(cfg.prefix+"/clips/:id/qr", serveQR(cfg, svc, errs))
}
