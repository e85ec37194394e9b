/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package service

import (
	"net/url"
	"strings"
)

const embedBase = "https://www.youtube-nocookie.com/embed/"

var youTubeHosts = map[string]bool{
	"youtube.com":     true,
	"www.youtube.com": true,
	"m.youtube.com":   true,
}

// videoID extracts the id from watch and shorts links. Short links
// (youtu.be) and embed links are not accepted.
func videoID(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}

	if !youTubeHosts[strings.ToLower(u.Host)] {
		return "", false
	}

	var id string

	switch {
	case u.Path == "/watch":
		id = u.Query().Get("v")
	case strings.HasPrefix(u.Path, "/shorts/"):
		id = strings.TrimPrefix(u.Path, "/shorts/")
	default:
		return "", false
	}

	if i := strings.IndexAny(id, "/&?#"); i >= 0 {
		id = id[:i]
	}

	return id, id != ""
}

func IsValidYouTubeURL(raw string) bool {
	_, ok := videoID(raw)

	return ok
}

// EmbedURL returns the privacy-enhanced embed link for a clip, or "" when
// the link is not a recognised YouTube URL.
func EmbedURL(raw string) string {
	id, ok := videoID(raw)
	if !ok {
		return ""
	}

	return embedBase + url.PathEscape(id)
}
