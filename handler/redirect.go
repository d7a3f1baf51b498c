package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Alirezastar2/utmkit-sub001/model"
	"github.com/Alirezastar2/utmkit-sub001/resolver"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const unavailablePage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Link unavailable</title>
<style>
body { font-family: system-ui; display: flex; justify-content: center; align-items: center; min-height: 100vh; background: #f5f5f5; color: #333; }
.box { background: white; padding: 2rem 3rem; border-radius: 1rem; box-shadow: 0 10px 25px rgba(0,0,0,0.1); text-align: center; }
</style>
</head>
<body>
<div class="box">
<h1>This link is unavailable</h1>
<p>The link you followed does not exist, has expired, or has been disabled.</p>
</div>
</body>
</html>`

// Redirect handles GET /{shortCode} and GET /l/{shortCode}. On success the
// 302 goes out first and the click is recorded fire-and-forget; every
// resolution failure renders the same unavailable page, with the reason
// kept to logs and metrics only.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	shortCode := mux.Vars(r)["shortCode"]
	start := time.Now()

	target, err := h.resolver.Resolve(ctx, r.Host, shortCode)
	h.metrics.ObserveResolve(start)
	if err != nil {
		h.renderUnavailable(w, r, shortCode, err)
		return
	}

	http.Redirect(w, r, target.URL, http.StatusFound)
	h.metrics.CountRedirect("ok")

	// Response is in flight; recording never gates it.
	h.recorder.Record(model.ClickMeta{
		LinkID:    target.LinkID,
		Referrer:  r.Header.Get("Referer"),
		UserAgent: r.Header.Get("User-Agent"),
		IP:        clientIP(r),
		Country:   r.Header.Get("CF-IPCountry"),
		City:      r.Header.Get("X-Geo-City"),
	})

	log.Info().
		Str("short_code", shortCode).
		Str("target", target.URL).
		Str("remote_addr", r.RemoteAddr).
		Msg("Redirecting")
}

func (h *Handler) renderUnavailable(w http.ResponseWriter, r *http.Request, shortCode string, err error) {
	outcome := "error"
	status := http.StatusNotFound
	switch {
	case errors.Is(err, resolver.ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, resolver.ErrExpired):
		outcome = "expired"
		status = http.StatusGone
	case errors.Is(err, resolver.ErrDomainUnverified):
		outcome = "domain_unverified"
	default:
		status = http.StatusServiceUnavailable
		log.Error().Err(err).Str("short_code", shortCode).Msg("Resolution failed")
	}

	h.metrics.CountRedirect(outcome)
	log.Warn().
		Str("short_code", shortCode).
		Str("host", r.Host).
		Str("reason", outcome).
		Msg("Link unavailable")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(unavailablePage))
}

// clientIP extracts the originating address, preferring forwarding headers.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	return r.RemoteAddr
}
