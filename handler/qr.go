package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Alirezastar2/utmkit-sub001/store"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

// GenerateQR handles GET /qr/{shortCode}. The image encodes the canonical
// short URL; it depends on the resolver only for the URL shape, never on
// resolution logic.
func (h *Handler) GenerateQR(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	shortCode := mux.Vars(r)["shortCode"]

	if _, err := h.store.LinkByCode(ctx, shortCode); err == store.ErrNotFound {
		log.Warn().Str("short_code", shortCode).Msg("Link not found for QR generation")
		SendJSONError(w, http.StatusNotFound, errors.New("link not found"), "")
		return
	} else if err != nil {
		log.Error().Err(err).Str("short_code", shortCode).Msg("Failed to check link existence for QR")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to verify link")
		return
	}

	query := r.URL.Query()

	// Size parameter (default: 256, min: 128, max: 1024)
	size := 256
	if sizeStr := query.Get("size"); sizeStr != "" {
		parsedSize, err := strconv.Atoi(sizeStr)
		if err != nil {
			SendJSONError(w, http.StatusBadRequest, errors.New("invalid size parameter"), "Size must be a number")
			return
		}
		if parsedSize < 128 || parsedSize > 1024 {
			SendJSONError(w, http.StatusBadRequest, errors.New("size out of range"), "Size must be between 128 and 1024")
			return
		}
		size = parsedSize
	}

	level := qrcode.Medium
	if levelStr := query.Get("level"); levelStr != "" {
		switch levelStr {
		case "low":
			level = qrcode.Low
		case "medium":
			level = qrcode.Medium
		case "high":
			level = qrcode.High
		case "highest":
			level = qrcode.Highest
		default:
			SendJSONError(w, http.StatusBadRequest, errors.New("invalid level parameter"), "Level must be: low, medium, high, or highest")
			return
		}
	}

	fullURL := fmt.Sprintf("%s/%s", h.baseURL, shortCode)

	image, err := qrcode.Encode(fullURL, level, size)
	if err != nil {
		log.Error().Err(err).Str("url", fullURL).Msg("Failed to generate QR code")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to generate QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Content-Length", strconv.Itoa(len(image)))

	if _, err := w.Write(image); err != nil {
		log.Error().Err(err).Msg("Failed to write QR code response")
		return
	}

	log.Info().
		Str("short_code", shortCode).
		Str("full_url", fullURL).
		Int("size", size).
		Msg("QR code generated")
}
