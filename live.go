/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Live vote feeds
//
// Anyone looking at a clip can open a websocket to /api/clips/:id/live and
// receive a running count of higher and lower guesses. The real rank is never
// sent over the feed.
//
// - One hub per clip, created on first connection
// - Current tally sent on connect and after every vote, reloaded from storage
//   each time so votes racing the hub's creation are counted exactly once
// - Hubs with no clients are reaped after --session-timeout

package main

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Seednode/wrongdle/service"
	"github.com/Seednode/wrongdle/store"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// Messages coming from clients
type ClientMessage struct {
	Type string `json:"type"` // "refresh"
}

// TallyMessage is broadcast after every vote on the clip.
type TallyMessage struct {
	Type string `json:"type"` // "tally"
	service.Tally
}

// SimpleMessage is for generic notifications ("closed", etc.)
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
}

// tallyTimeout bounds a hub's tally reload.
const tallyTimeout = 5 * time.Second

type Hub struct {
	clipID  string
	clients map[*Client]bool
	load    func(context.Context) (service.Tally, error)

	register chan *Client
	unreg    chan *Client
	refresh  chan *Client
	votes    chan store.Vote
	done     chan struct{}

	mu sync.RWMutex

	tally      service.Tally
	createdAt  time.Time
	lastActive time.Time
}

func newHub(clipID string, tally service.Tally, load func(context.Context) (service.Tally, error)) *Hub {
	now := time.Now()
	return &Hub{
		clipID:     clipID,
		clients:    make(map[*Client]bool),
		load:       load,
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		refresh:    make(chan *Client),
		votes:      make(chan store.Vote, 64),
		done:       make(chan struct{}),
		tally:      tally,
		createdAt:  now,
		lastActive: now,
	}
}

func (h *Hub) tallyMessageLocked() TallyMessage {
	return TallyMessage{Type: "tally", Tally: h.tally}
}

// reload replaces the tally with the stored one. If storage fails, v (when
// set) is counted on top of the current tally instead.
func (h *Hub) reload(v *store.Vote) {
	ctx, cancel := context.WithTimeout(context.Background(), tallyTimeout)
	defer cancel()

	tally, err := h.load(ctx)

	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case err == nil:
		h.tally = tally
	case v != nil:
		errorf("live feed for clip %s: reloading tally: %v", h.clipID, err)
		h.tally.Add(*v)
	default:
		errorf("live feed for clip %s: reloading tally: %v", h.clipID, err)
	}
}

func (h *Hub) run(metrics *Metrics) {
	h.reload(nil)

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.lastActive = time.Now()
			h.clients[c] = true
			msg := h.tallyMessageLocked()
			h.mu.Unlock()

			metrics.liveConns.Inc()
			c.send <- msg

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()

			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				metrics.liveConns.Dec()
			}
			h.mu.Unlock()

		case c := <-h.refresh:
			h.mu.RLock()
			msg := h.tallyMessageLocked()
			_, ok := h.clients[c]
			h.mu.RUnlock()

			if ok {
				select {
				case c.send <- msg:
				default:
				}
			}

		case v := <-h.votes:
			h.reload(&v)

			h.mu.Lock()
			h.lastActive = time.Now()
			h.broadcastLocked(metrics, h.tallyMessageLocked())
			h.mu.Unlock()

		case <-h.done:
			h.closeAll(metrics)
			return
		}
	}
}

// broadcastLocked drops clients whose send buffer is full.
func (h *Hub) broadcastLocked(metrics *Metrics, msg any) {
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			delete(h.clients, client)
			close(client.send)
			metrics.liveConns.Dec()
		}
	}
}

// closeAll disconnects all clients of this hub (used by reaper).
func (h *Hub) closeAll(metrics *Metrics) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
		metrics.liveConns.Dec()
	}
}

func (h *Hub) idleSince() (time.Time, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.lastActive, len(h.clients) == 0
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// LiveManager holds one hub per watched clip and forwards new votes to it.
type LiveManager struct {
	mu          sync.Mutex
	hubs        map[string]*Hub
	idleTimeout time.Duration

	svc     *service.Service
	metrics *Metrics
}

func newLiveManager(svc *service.Service, metrics *Metrics, idleTimeout time.Duration) *LiveManager {
	lm := &LiveManager{
		hubs:        make(map[string]*Hub),
		idleTimeout: idleTimeout,
		svc:         svc,
		metrics:     metrics,
	}

	svc.Subscribe(lm)

	return lm
}

// start runs the reaper until ctx is cancelled, then closes every feed.
func (lm *LiveManager) start(ctx context.Context) {
	if lm.idleTimeout > 0 {
		go lm.reaperLoop(ctx)
		return
	}

	go func() {
		<-ctx.Done()
		lm.reap(time.Now(), true)
	}()
}

func (lm *LiveManager) getHub(ctx context.Context, clipID string) (*Hub, error) {
	lm.mu.Lock()
	hub, ok := lm.hubs[clipID]
	lm.mu.Unlock()

	if ok {
		return hub, nil
	}

	tally, err := lm.svc.Tally(ctx, clipID)
	if err != nil {
		return nil, err
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()

	// Another request may have opened the feed while the tally loaded.
	if hub, ok := lm.hubs[clipID]; ok {
		return hub, nil
	}

	// Votes landing before the hub is listed are picked up by the reload at
	// the start of run.
	hub = newHub(clipID, tally, func(ctx context.Context) (service.Tally, error) {
		return lm.svc.Tally(ctx, clipID)
	})
	lm.hubs[clipID] = hub
	lm.metrics.liveFeeds.Set(float64(len(lm.hubs)))
	go hub.run(lm.metrics)

	return hub, nil
}

func (lm *LiveManager) VoteCast(clip store.Clip, vote store.Vote) {
	lm.mu.Lock()
	hub, ok := lm.hubs[clip.ID]
	lm.mu.Unlock()

	if !ok {
		return
	}

	select {
	case hub.votes <- vote:
	case <-hub.done:
	default:
		errorf("live feed for clip %s is backed up, dropping vote %s", clip.ID, vote.ID)
	}
}

// reap closes hubs without clients that were last active before cutoff, or
// every hub when force is set.
func (lm *LiveManager) reap(cutoff time.Time, force bool) int {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	reaped := 0
	for id, hub := range lm.hubs {
		last, empty := hub.idleSince()
		if force || (empty && last.Before(cutoff)) {
			delete(lm.hubs, id)
			close(hub.done)
			reaped++
		}
	}
	lm.metrics.liveFeeds.Set(float64(len(lm.hubs)))

	return reaped
}

// reaperLoop periodically removes hubs that have been idle longer than idleTimeout.
func (lm *LiveManager) reaperLoop(ctx context.Context) {
	ticker := time.NewTicker(lm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			lm.reap(time.Now(), true)
			return
		case <-ticker.C:
			lm.reap(time.Now().Add(-lm.idleTimeout), false)
		}
	}
}

func serveLive(cfg *Config, lm *LiveManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		clipID := ps.ByName("id")

		hub, err := lm.getHub(r.Context(), clipID)
		if err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "LIVE: upgrade error from %s: %v", realIP(r), err)
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 8),
			playerID: viewerID(r),
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.WriteJSON(SimpleMessage{Type: "closed", Message: "feed closed"})
			_ = conn.Close()
			return
		}

		logf(cfg, "LIVE: %s joined feed for clip %s", realIP(r), clipID)

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "refresh":
			select {
			case h.refresh <- c:
			case <-h.done:
				return
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
