package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Alirezastar2/utmkit-sub001/model"
	"github.com/Alirezastar2/utmkit-sub001/plan"
	"github.com/Alirezastar2/utmkit-sub001/report"

	"github.com/rs/zerolog/log"
)

// Analytics handles GET /api/analytics. Without explicit bounds it serves
// the trailing week; custom windows are an advanced-analytics plan feature.
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	query := r.URL.Query()
	userID := query.Get("userId")
	if userID == "" {
		SendJSONError(w, http.StatusBadRequest, errors.New("userId is required"), "")
		return
	}

	end := time.Now().UTC()
	start, _ := report.Window(model.FrequencyWeekly, end)
	customWindow := false

	if raw := query.Get("start"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			SendJSONError(w, http.StatusBadRequest, err, "Invalid start time (use RFC3339)")
			return
		}
		start = parsed
		customWindow = true
	}
	if raw := query.Get("end"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			SendJSONError(w, http.StatusBadRequest, err, "Invalid end time (use RFC3339)")
			return
		}
		end = parsed
		customWindow = true
	}
	if !end.After(start) {
		SendJSONError(w, http.StatusBadRequest, errors.New("end must be after start"), "")
		return
	}

	if customWindow && !h.allowsCapability(r, userID, plan.AdvancedAnalytics) {
		SendJSONError(w, http.StatusForbidden, errors.New("custom report windows are not available on your plan"), "")
		return
	}

	var linkIDs []string
	if raw := query.Get("linkIds"); raw != "" {
		linkIDs = strings.Split(raw, ",")
	}

	data, err := h.aggregator.Aggregate(ctx, userID, linkIDs, start, end)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Aggregation failed")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to compute analytics")
		return
	}

	SendJSONSuccess(w, http.StatusOK, data)
}
