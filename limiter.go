/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/time/rate"
)

const (
	// limiterPruneThreshold is the map size above which idle entries are dropped.
	limiterPruneThreshold = 500
	limiterMaxIdle        = 10 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter hands out one token bucket per client address.
type ipLimiter struct {
	mu  sync.Mutex
	ips map[string]*limiterEntry
	r   rate.Limit
	b   int
}

func newIPLimiter(r rate.Limit, b int) *ipLimiter {
	return &ipLimiter{
		ips: make(map[string]*limiterEntry),
		r:   r,
		b:   b,
	}
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()

	if len(l.ips) > limiterPruneThreshold {
		cutoff := now.Add(-limiterMaxIdle)
		for k, e := range l.ips {
			if e.lastSeen.Before(cutoff) {
				delete(l.ips, k)
			}
		}
	}

	e, ok := l.ips[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.r, l.b)}
		l.ips[ip] = e
	}
	e.lastSeen = now

	return e.limiter
}

func (l *ipLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.ips)
}

// clientHost keys the limiter on the connection's address. Proxy headers are
// only honoured with --trusted-proxy, since any client can set them.
func clientHost(cfg *Config, r *http.Request) string {
	addr := r.RemoteAddr
	if cfg.trustedProxy {
		addr = realIP(r)
	}

	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}

	return addr
}

func rateLimited(cfg *Config, l *ipLimiter, errs chan<- error, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		if !l.get(clientHost(cfg, r)).Allow() {
			w.Header().Set("Retry-After", "1")
			writeJSON(cfg, w, r, errs, time.Now(), http.StatusTooManyRequests, apiResponse{
				Error: "Too many requests, slow down",
				Code:  "rate_limited",
			})

			return
		}

		next(w, r, p)
	}
}
