/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Seednode/wrongdle/service"
	"github.com/julienschmidt/httprouter"
)

func serveHomePage(cfg *Config, svc *service.Service, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		var body strings.Builder

		body.WriteString("<h1>Wrongdle</h1><p>Is the player in the clip really the rank they claim?</p><ul>")
		for _, g := range svc.Catalog().Games {
			body.WriteString(fmt.Sprintf("<li>%s: <code>%s/api/games/%s/next</code></li>",
				html.EscapeString(g.Title),
				html.EscapeString(cfg.prefix),
				html.EscapeString(g.ShortTitle),
			))
		}
		body.WriteString("</ul>")

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		written, err := w.Write([]byte(newPage("Wrongdle", body.String())))
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Home page (%s) to %s in %s",
			humanReadableSize(written),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// serveClipPage is the landing page for shared clip links.
func serveClipPage(cfg *Config, svc *service.Service, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		clip, err := svc.Clip(r.Context(), viewerID(r), strings.TrimSpace(ps.ByName("id")))
		if err != nil {
			status := http.StatusInternalServerError
			if service.KindOf(err) == service.KindNotFound {
				status = http.StatusNotFound
			} else {
				errs <- err
			}

			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			securityHeaders(cfg, w)
			w.WriteHeader(status)
			_, _ = w.Write([]byte(newPage(http.StatusText(status), http.StatusText(status))))

			return
		}

		var body strings.Builder

		body.WriteString(fmt.Sprintf("<h1>%s</h1><p>%s, claimed rank <b>%s</b></p>",
			html.EscapeString(clip.Title),
			html.EscapeString(clip.Game),
			html.EscapeString(clip.FakeRank),
		))
		if clip.RealRank != "" {
			body.WriteString(fmt.Sprintf("<p>Real rank <b>%s</b></p>", html.EscapeString(clip.RealRank)))
		}
		body.WriteString(fmt.Sprintf("<p>Watch: %s</p><p>Vote: <code>POST %s/api/clips/%s/vote</code></p>",
			html.EscapeString(clip.YouTubeURL),
			html.EscapeString(cfg.prefix),
			html.EscapeString(clip.ID),
		))

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		written, err := w.Write([]byte(newPage(clip.Title+" - Wrongdle", body.String())))
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Clip page for %s (%s) to %s in %s",
			clip.ID,
			humanReadableSize(written),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func serveHealthCheck(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)

		_, err := w.Write([]byte("Ok\n"))
		if err != nil {
			errs <- err

			return
		}
	}
}

func serveRobots(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		data := `User-agent: Amazonbot
Disallow: /

User-agent: Applebot-Extended
Disallow: /

User-agent: Bytespider
Disallow: /

User-agent: CCBot
Disallow: /

User-agent: ClaudeBot
Disallow: /

User-agent: Google-Extended
Disallow: /

User-agent: GPTBot
Disallow: /

User-agent: meta-externalagent
Disallow: /

User-agent: *
Disallow: ` + cfg.prefix + `/api/`

		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		_, err := w.Write([]byte(data))
		if err != nil {
			errs <- err

			return
		}
	}
}
