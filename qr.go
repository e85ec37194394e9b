/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Seednode/wrongdle/service"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

// shareURL is the public link to a clip's page. It is built from --public-url
// when set, and otherwise from the request's host. X-Forwarded-Proto is only
// honoured with --trusted-proxy.
func shareURL(cfg *Config, r *http.Request, clipID string) string {
	path := cfg.prefix + "/clips/" + clipID

	if cfg.publicURL != "" {
		return strings.TrimSuffix(cfg.publicURL, "/") + path
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); cfg.trustedProxy && (proto == "http" || proto == "https") {
		scheme = proto
	}

	return scheme + "://" + r.Host + path
}

// serveQR renders a PNG QR code linking to a clip.
func serveQR(cfg *Config, svc *service.Service, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		clipID := strings.TrimSpace(ps.ByName("id"))

		if _, err := svc.Clip(r.Context(), "", clipID); err != nil {
			respondError(cfg, w, r, errs, startTime, err)
			return
		}

		png, err := qrcode.Encode(shareURL(cfg, r, clipID), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			errs <- err
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(png)))
		w.Header().Set("Cache-Control", "public, max-age=3600")
		securityHeaders(cfg, w)

		written, err := w.Write(png)
		if err != nil {
			errs <- err
			return
		}

		logf(cfg, "SERVE: QR code for clip %s (%s) to %s in %s",
			clipID,
			humanReadableSize(written),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}
