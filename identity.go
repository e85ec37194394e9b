/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/Seednode/wrongdle/service"
	"github.com/Seednode/wrongdle/store"
	"github.com/brianvoe/gofakeit/v7"
)

const playerCookieName = "wrongdle_id"

func validPlayerID(id string) bool {
	if len(id) != 32 {
		return false
	}

	_, err := hex.DecodeString(id)

	return err == nil
}

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && validPlayerID(c.Value) {
		return c.Value
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		errorf("rand.Read: %v", err)
		return ""
	}
	id := hex.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// currentUser resolves the cookie to a stored user, creating one with a
// generated display name on first visit.
func currentUser(w http.ResponseWriter, r *http.Request, svc *service.Service) (store.User, error) {
	id := getOrSetPlayerID(w, r)
	if id == "" {
		return store.User{}, &service.Error{Kind: service.KindInternal, Code: "player_id", Message: "Unable to assign player id"}
	}

	return svc.EnsureUser(r.Context(), id, gofakeit.Username())
}

// viewerID returns the cookie's player id without assigning one.
func viewerID(r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && validPlayerID(c.Value) {
		return c.Value
	}

	return ""
}
