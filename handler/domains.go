package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Alirezastar2/utmkit-sub001/domains"
	"github.com/Alirezastar2/utmkit-sub001/model"
	"github.com/Alirezastar2/utmkit-sub001/plan"
	"github.com/Alirezastar2/utmkit-sub001/store"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// RegisterDomainRequest is the body of POST /api/domains.
type RegisterDomainRequest struct {
	UserID string `json:"userId"`
	Domain string `json:"domain"`
}

// DomainResponse pairs a domain record with the DNS records to publish.
type DomainResponse struct {
	Domain     model.CustomDomain `json:"domain"`
	DNSRecords model.DNSRecords   `json:"dnsRecords"`
}

// RegisterDomain handles POST /api/domains.
func (h *Handler) RegisterDomain(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	var input RegisterDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	if input.UserID == "" {
		SendJSONError(w, http.StatusBadRequest, errors.New("userId is required"), "")
		return
	}

	if !h.allowsCapability(r, input.UserID, plan.CustomDomain) {
		SendJSONError(w, http.StatusForbidden, errors.New("custom domains are not available on your plan"), "")
		return
	}

	domain, records, err := h.verifier.Register(ctx, input.UserID, input.Domain)
	if err == domains.ErrInvalidDomain {
		SendJSONError(w, http.StatusBadRequest, err, "")
		return
	} else if err == store.ErrDomainTaken {
		SendJSONError(w, http.StatusConflict, err, "")
		return
	} else if err != nil {
		log.Error().Err(err).Str("domain", input.Domain).Msg("Failed to register domain")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to register domain")
		return
	}

	SendJSONSuccess(w, http.StatusCreated, DomainResponse{Domain: domain, DNSRecords: records})
}

// ListDomains handles GET /api/domains?userId=...
func (h *Handler) ListDomains(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		SendJSONError(w, http.StatusBadRequest, errors.New("userId is required"), "")
		return
	}

	list, err := h.store.DomainsByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list domains")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to list domains")
		return
	}

	response := make([]DomainResponse, 0, len(list))
	for _, domain := range list {
		response = append(response, DomainResponse{
			Domain:     domain,
			DNSRecords: h.verifier.Records(domain),
		})
	}
	SendJSONSuccess(w, http.StatusOK, response)
}

// VerifyDomain handles POST /api/domains/{domainID}/verify. A negative
// result is retryable, not an error: the caller fixes DNS and calls again.
func (h *Handler) VerifyDomain(w http.ResponseWriter, r *http.Request) {
	domainID := mux.Vars(r)["domainID"]

	// DNS lookups run under their own timeout, independent of the HTTP
	// request's store deadline.
	result, err := h.verifier.Verify(r.Context(), domainID)
	if err == store.ErrNotFound {
		SendJSONError(w, http.StatusNotFound, errors.New("domain not found"), "")
		return
	} else if err != nil {
		log.Error().Err(err).Str("domain_id", domainID).Msg("Domain verification errored")
		SendJSONError(w, http.StatusInternalServerError, err, "Verification could not be completed")
		return
	}

	status := http.StatusOK
	if !result.Verified {
		status = http.StatusBadRequest
	}
	SendJSONSuccess(w, status, result)
}

// allowsCapability reads the user's tier and consults the plan gate. Store
// failures deny, so a flaky backend cannot open gated features.
func (h *Handler) allowsCapability(r *http.Request, userID string, c plan.Capability) bool {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	tier, err := h.store.UserPlan(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to read user plan")
		return false
	}
	return plan.Allows(plan.FromString(tier), c)
}
