package handler

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/Alirezastar2/utmkit-sub001/model"
	"github.com/Alirezastar2/utmkit-sub001/store"
	"github.com/Alirezastar2/utmkit-sub001/utils"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const (
	shortCodeMinLength = 6
	shortCodeMaxLength = 8
	maxCodeRetries     = 5
	codeCharset        = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var ErrMaxRetriesExceeded = errors.New("failed to generate unique short code after maximum retries")

// CreateLinkRequest is the body of POST /api/links. Authentication happens
// upstream; the caller supplies the resolved user identity.
type CreateLinkRequest struct {
	UserID      string `json:"userId"`
	OriginalURL string `json:"originalURL"`
	CustomAlias string `json:"customAlias,omitempty"`
	Title       string `json:"title,omitempty"`
	CategoryID  string `json:"categoryId,omitempty"`
	UTMSource   string `json:"utmSource,omitempty"`
	UTMMedium   string `json:"utmMedium,omitempty"`
	UTMCampaign string `json:"utmCampaign,omitempty"`
	UTMTerm     string `json:"utmTerm,omitempty"`
	UTMContent  string `json:"utmContent,omitempty"`
	ExpiresAt   string `json:"expiresAt,omitempty"` // RFC3339
}

// CreateLinkResponse is returned on successful link creation.
type CreateLinkResponse struct {
	Link     model.Link `json:"link"`
	ShortURL string     `json:"shortURL"`
	QRURL    string     `json:"qrURL"`
}

// CreateLink handles POST /api/links.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	var input CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	if input.UserID == "" {
		SendJSONError(w, http.StatusBadRequest, errors.New("userId is required"), "")
		return
	}
	if err := utils.ValidateURL(input.OriginalURL); err != nil {
		log.Warn().Err(err).Str("url", input.OriginalURL).Msg("Invalid URL")
		SendJSONError(w, http.StatusBadRequest, err, "")
		return
	}

	link := model.Link{
		ID:          uuid.New().String(),
		OriginalURL: input.OriginalURL,
		Title:       input.Title,
		CategoryID:  input.CategoryID,
		UserID:      input.UserID,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
		UTM: model.UTMParams{
			Source:   input.UTMSource,
			Medium:   input.UTMMedium,
			Campaign: input.UTMCampaign,
			Term:     input.UTMTerm,
			Content:  input.UTMContent,
		},
	}

	if input.ExpiresAt != "" {
		expiry, err := time.Parse(time.RFC3339, input.ExpiresAt)
		if err != nil {
			SendJSONError(w, http.StatusBadRequest, err, "Invalid expiry time format (use RFC3339)")
			return
		}
		if expiry.Before(time.Now()) {
			SendJSONError(w, http.StatusBadRequest, errors.New("expiry date must be in the future"), "")
			return
		}
		link.ExpiresAt = expiry
	}

	if input.CustomAlias != "" {
		if !h.config.Features.CustomAliasEnabled {
			SendJSONError(w, http.StatusBadRequest, errors.New("custom aliases are disabled"), "")
			return
		}
		if err := utils.ValidateAlias(input.CustomAlias, h.config.Features.MinCodeLength, h.config.Features.MaxCodeLength); err != nil {
			log.Warn().Err(err).Str("alias", input.CustomAlias).Msg("Invalid custom alias")
			SendJSONError(w, http.StatusBadRequest, err, "")
			return
		}
		link.ShortCode = input.CustomAlias

		if err := h.store.CreateLink(ctx, link); err == store.ErrCodeTaken {
			SendJSONError(w, http.StatusConflict, err, "Choose a different alias or leave blank for auto-generation")
			return
		} else if err != nil {
			log.Error().Err(err).Msg("Failed to store link")
			SendJSONError(w, http.StatusInternalServerError, err, "Failed to store link")
			return
		}
	} else {
		code, err := h.createWithGeneratedCode(r, &link)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create link")
			SendJSONError(w, http.StatusInternalServerError, err, "Failed to create link")
			return
		}
		link.ShortCode = code
	}

	log.Info().
		Str("short_code", link.ShortCode).
		Str("original_url", link.OriginalURL).
		Str("user_id", link.UserID).
		Msg("Link created")

	SendJSONSuccess(w, http.StatusCreated, CreateLinkResponse{
		Link:     link,
		ShortURL: fmt.Sprintf("%s/%s", h.baseURL, link.ShortCode),
		QRURL:    fmt.Sprintf("%s/qr/%s", h.baseURL, link.ShortCode),
	})
}

// createWithGeneratedCode generates a random code and retries on collision.
// Collisions include tombstones of deleted codes, which are never reissued.
func (h *Handler) createWithGeneratedCode(r *http.Request, link *model.Link) (string, error) {
	for attempt := 0; attempt < maxCodeRetries; attempt++ {
		ctx, cancel := h.opCtx(r)

		code, err := generateShortCode()
		if err != nil {
			cancel()
			return "", err
		}

		link.ShortCode = code
		err = h.store.CreateLink(ctx, *link)
		cancel()
		if err == nil {
			return code, nil
		}
		if err != store.ErrCodeTaken {
			return "", err
		}

		log.Warn().
			Str("short_code", code).
			Int("attempt", attempt+1).
			Msg("Collision detected, retrying")
	}
	return "", ErrMaxRetriesExceeded
}

// generateShortCode produces a cryptographically random code with a random
// length in the configured range.
func generateShortCode() (string, error) {
	lengthRange := shortCodeMaxLength - shortCodeMinLength + 1
	offset, err := rand.Int(rand.Reader, big.NewInt(int64(lengthRange)))
	if err != nil {
		return "", err
	}
	length := shortCodeMinLength + int(offset.Int64())

	result := make([]byte, length)
	for i := range result {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		result[i] = codeCharset[num.Int64()]
	}
	return string(result), nil
}

// DeleteLink handles DELETE /api/links/{shortCode}. The click history is
// cascade-deleted with the link and the code is tombstoned.
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	shortCode := mux.Vars(r)["shortCode"]

	if err := h.store.DeleteLink(ctx, shortCode); err == store.ErrNotFound {
		SendJSONError(w, http.StatusNotFound, errors.New("link not found"), "")
		return
	} else if err != nil {
		log.Error().Err(err).Str("short_code", shortCode).Msg("Failed to delete link")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to delete link")
		return
	}

	h.cache.Delete(shortCode)

	log.Info().Str("short_code", shortCode).Msg("Link deleted")
	SendJSONSuccess(w, http.StatusOK, map[string]string{"status": "deleted"})
}
