/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Seednode/wrongdle/service"
)

const maxBodySize = 64 << 10

type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

func statusFor(err error) int {
	switch service.KindOf(err) {
	case service.KindBadRequest:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(cfg *Config, w http.ResponseWriter, r *http.Request, errs chan<- error, startTime time.Time, status int, body apiResponse) {
	data, err := json.Marshal(body)
	if err != nil {
		errs <- err
		http.Error(w, "encoding failed", http.StatusInternalServerError)

		return
	}
	data = append(data, '\n')

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	written, err := w.Write(data)
	if err != nil {
		errs <- err

		return
	}

	logf(cfg, "SERVE: %s %s %d (%s) to %s in %s",
		r.Method,
		r.URL.Path,
		status,
		humanReadableSize(written),
		realIP(r),
		time.Since(startTime).Round(time.Microsecond),
	)
}

func respond(cfg *Config, w http.ResponseWriter, r *http.Request, errs chan<- error, startTime time.Time, status int, data any) {
	writeJSON(cfg, w, r, errs, startTime, status, apiResponse{Success: true, Data: data})
}

func respondError(cfg *Config, w http.ResponseWriter, r *http.Request, errs chan<- error, startTime time.Time, err error) {
	status := statusFor(err)

	body := apiResponse{Error: service.Message(err)}

	var e *service.Error
	if errors.As(err, &e) {
		body.Code = e.Code
	}

	if status == http.StatusInternalServerError {
		errorf("%s %s: %v", r.Method, r.URL.Path, err)
	}

	writeJSON(cfg, w, r, errs, startTime, status, body)
}

func badInput(message string) error {
	return &service.Error{Kind: service.KindBadRequest, Code: "invalid_body", Message: message}
}

func decodeJSON(r *http.Request, dest any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dest); err != nil {
		return badInput(fmt.Sprintf("Invalid request body: %v", err))
	}

	return nil
}
